package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/api/webserver"
	"github.com/turt2live/pack-repo/common/assets"
	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/common/logging"
	"github.com/turt2live/pack-repo/common/runtime"
	"github.com/turt2live/pack-repo/common/version"
	"github.com/turt2live/pack-repo/metrics"
)

func main() {
	configPath := flag.String("config", "pack-repo.yaml", "The path to the configuration")
	assetsPath := flag.String("assets", "", "The path to a folder holding default_thumbnail.png. Defaults to the compiled-in asset")
	versionFlag := flag.Bool("version", false, "Prints the version and exits")
	flag.Parse()

	if *versionFlag {
		version.Print(false)
		return // exit 0
	}

	// Override config path with config for Docker users
	configEnv := os.Getenv("REPO_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}

	config.Path = *configPath
	runtime.SetupSentry()
	defer sentry.Flush(2 * time.Second)
	defer sentry.Recover()

	err := logging.Setup(config.Get().General, "pack_repo.log")
	if err != nil {
		panic(err)
	}

	defer assets.Cleanup()
	assets.SetupAssets(*assetsPath)

	logrus.Info("Starting up...")
	runtime.RunStartupSequence()

	logrus.Info("Starting config watcher...")
	watcher := config.Watch()
	defer func(watcher *fsnotify.Watcher) {
		_ = watcher.Close()
	}(watcher)
	setupReloads()

	logrus.Info("Starting pack repository...")
	metrics.Init()
	web := webserver.Init()

	// Set up a function to stop everything
	stopAllButWeb := func() {
		logrus.Info("Stopping reload watchers...")
		stopReloads()

		logrus.Info("Stopping metrics...")
		metrics.Stop()
	}

	// Set up a listener for SIGINT
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	selfStop := false
	go func() {
		defer close(stop)
		<-stop
		selfStop = true

		logrus.Warn("Stop signal received")
		stopAllButWeb()

		logrus.Info("Stopping web server...")
		webserver.Stop()
	}()

	// Wait for the web server to exit nicely
	web.Add(1)
	web.Wait()

	// Stop everything else if we have to
	if !selfStop {
		stopAllButWeb()
	}

	// For debugging
	logrus.Info("Goodbye!")
}
