package main

import (
	"github.com/turt2live/pack-repo/api/webserver"
	"github.com/turt2live/pack-repo/common/globals"
	"github.com/turt2live/pack-repo/common/runtime"
	"github.com/turt2live/pack-repo/metrics"
)

func setupReloads() {
	reloadWebOnChan(globals.WebReloadChan)
	reloadMetricsOnChan(globals.MetricsReloadChan)
	reloadStorageOnChan(globals.StorageReloadChan)
}

func stopReloads() {
	// send stop signal to reload fns
	globals.WebReloadChan <- false
	globals.MetricsReloadChan <- false
	globals.StorageReloadChan <- false
}

func reloadWebOnChan(reloadChan chan bool) {
	go func() {
		for {
			shouldReload := <-reloadChan
			if shouldReload {
				webserver.Reload()
			} else {
				return // received stop
			}
		}
	}()
}

func reloadMetricsOnChan(reloadChan chan bool) {
	go func() {
		for {
			shouldReload := <-reloadChan
			if shouldReload {
				metrics.Reload()
			} else {
				return // received stop
			}
		}
	}()
}

func reloadStorageOnChan(reloadChan chan bool) {
	go func() {
		for {
			shouldReload := <-reloadChan
			if shouldReload {
				runtime.ReloadStorage()
			} else {
				return // received stop
			}
		}
	}()
}
