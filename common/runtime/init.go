package runtime

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/common/version"
	"github.com/turt2live/pack-repo/controllers/manifest_controller"
	"github.com/turt2live/pack-repo/controllers/upload_controller"
	"github.com/turt2live/pack-repo/storage"
	"github.com/turt2live/pack-repo/storage/mirror"
)

func RunStartupSequence() {
	version.Print(true)
	LoadStorage()
	LoadMirror()
}

func SetupSentry() {
	if !config.Get().Sentry.Enabled {
		return
	}

	logrus.Info("Setting up Sentry for debugging...")
	info := version.Current()
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         config.Get().Sentry.Dsn,
		Environment: config.Get().Sentry.Environment,
		Debug:       config.Get().Sentry.Debug,
		Release:     fmt.Sprintf("%s-%s", info.Version, info.GitCommit),
	})
	if err != nil {
		panic(err)
	}
}

// LoadStorage opens the storage root and writes the manifest if there
// isn't one yet.
func LoadStorage() {
	logrus.Info("Preparing storage...")
	store := storage.GetBundleStore()

	names, err := store.ListBundles()
	if err != nil {
		sentry.CaptureException(err)
		logrus.Fatal(err)
	}
	logrus.Infof("Found %d bundles in %s", len(names), store.Root())

	created, err := manifest_controller.Get().EnsureExists(rcontext.Initial())
	if err != nil {
		sentry.CaptureException(err)
		logrus.Fatal(err)
	}
	if created {
		logrus.Info("Wrote new manifest to ", manifest_controller.Get().ManifestPath())
	}
}

// ReloadStorage drops every cached storage component so the next request
// picks up the new config.
func ReloadStorage() {
	logrus.Info("Reloading storage...")
	upload_controller.Reload()
	manifest_controller.Reload()
	storage.ReloadBundleStore()
	mirror.Reload()
	LoadStorage()
}

func LoadMirror() {
	m := mirror.Get()
	if m == nil {
		logrus.Info("S3 mirror disabled")
		return
	}

	logrus.Info("Checking S3 mirror bucket...")
	if err := m.EnsureBucketExists(); err != nil {
		logrus.Warn("S3 mirror bucket is not usable: ", err)
		sentry.CaptureException(err)
	}
}
