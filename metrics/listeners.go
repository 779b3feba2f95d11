package metrics

import (
	"sync"
)

var beforeMetricsCalledFns = make([]func(), 0)
var listenersLock = &sync.Mutex{}

// OnBeforeMetricsRequested registers fn to be run before every scrape, for
// gauges that are cheaper to compute on demand than to keep current.
func OnBeforeMetricsRequested(fn func()) {
	listenersLock.Lock()
	defer listenersLock.Unlock()
	beforeMetricsCalledFns = append(beforeMetricsCalledFns, fn)
}

func runBeforeMetricsListeners() {
	listenersLock.Lock()
	fns := make([]func(), len(beforeMetricsCalledFns))
	copy(fns, beforeMetricsCalledFns)
	listenersLock.Unlock()

	for _, fn := range fns {
		fn()
	}
}
