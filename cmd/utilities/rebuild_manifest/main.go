package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/common/logging"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/controllers/manifest_controller"
	"github.com/turt2live/pack-repo/storage"
	"github.com/turt2live/pack-repo/storage/mirror"
)

// Regenerates the manifest from the storage root, for use after bundles
// were added or removed by hand.
func main() {
	configPath := flag.String("config", "pack-repo.yaml", "The path to the configuration")
	dryRun := flag.Bool("dry-run", false, "Print the entries that would be written without writing them")
	flag.Parse()

	// Override config path with config for Docker users
	configEnv := os.Getenv("REPO_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}
	config.Path = *configPath

	logConf := config.Get().General
	logConf.LogDirectory = "-"
	err := logging.Setup(logConf, "")
	if err != nil {
		panic(err)
	}
	ctx := rcontext.Initial()

	store := storage.GetBundleStore()
	sync := manifest_controller.Get()

	if *dryRun {
		entries, err := sync.Entries()
		if err != nil {
			logrus.Fatal(err)
		}
		for _, e := range entries {
			logrus.Infof("%s -> %s, %s", e.Name, e.Package, e.Thumbnail)
		}
		logrus.Infof("%d bundles found in %s (dry run, nothing written)", len(entries), store.Root())
		return
	}

	entries, err := sync.Sync(ctx)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.Infof("Wrote %d entries to %s", len(entries), sync.ManifestPath())

	if m := mirror.Get(); m != nil {
		logrus.Info("Mirroring manifest to S3...")
		if err = m.MirrorManifest(ctx, sync.ManifestPath()); err != nil {
			logrus.Fatal(err)
		}
	}

	logrus.Info("Done!")
}
