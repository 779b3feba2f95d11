package storage

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/common/config"
)

var storeInstance *BundleStore
var singletonStoreLock = &sync.Once{}

func GetBundleStore() *BundleStore {
	if storeInstance == nil {
		singletonStoreLock.Do(func() {
			s, err := NewBundleStore(config.Get().Storage.Root)
			if err != nil {
				panic(err)
			}
			logrus.Info("Using storage root: ", s.Root())
			storeInstance = s
		})
	}
	return storeInstance
}

func ReloadBundleStore() {
	storeInstance = nil
	singletonStoreLock = &sync.Once{}
	GetBundleStore()
}
