package main

import (
	"flag"
	"io/ioutil"
	"os"

	"github.com/turt2live/pack-repo/common/config"
	"github.com/turt2live/pack-repo/common/logging"
	"github.com/turt2live/pack-repo/common/rcontext"
	"github.com/turt2live/pack-repo/thumbnailing"
)

// Runs a thumbnail through the same checks and normalization an upload
// would get, for preparing custom default thumbnails.
func main() {
	configPath := flag.String("config", "pack-repo.yaml", "The path to the configuration")
	inFile := flag.String("i", "", "The input image")
	outFile := flag.String("o", "", "The output file to write the PNG thumbnail to")
	flag.Parse()

	if inFile == nil || *inFile == "" {
		panic("No input file specified")
	}
	if outFile == nil || *outFile == "" {
		panic("No output file specified")
	}

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

	conf := config.Get().Thumbnails
	ctx.Log.WithField("maxWidth", conf.MaxWidth).WithField("maxHeight", conf.MaxHeight).Info("Thumbnailing options:")

	b, err := ioutil.ReadFile(*inFile)
	if err != nil {
		panic(err)
	}

	t := thumbnailing.NewThumbnailer(conf)
	defer t.Close()

	ctx.Log.Info("Normalizing thumbnail")
	thumb, err := t.Normalize(ctx, b)
	if err != nil {
		panic(err)
	}

	ctx.Log.WithField("width", thumb.Width).WithField("height", thumb.Height).WithField("reencoded", thumb.Reencoded).Info("Writing thumbnail")
	if err = ioutil.WriteFile(*outFile, thumb.Data, 0644); err != nil {
		panic(err)
	}

	ctx.Log.Info("Done!")
}
