package assets

import (
	"embed"
	"io/ioutil"
	"os"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/common/config"
)

const DefaultThumbnailName = "default_thumbnail.png"

//go:embed default_thumbnail.png
var compiledFiles embed.FS

var tempAssets string

// SetupAssets points config.Runtime.AssetsPath at a directory holding the
// default thumbnail. When the given path doesn't exist, the compiled-in
// copy is unpacked to a temporary directory instead.
func SetupAssets(givenAssetsPath string) {
	if givenAssetsPath != "" {
		_, err := os.Stat(path.Join(givenAssetsPath, DefaultThumbnailName))
		if err == nil {
			config.Runtime.AssetsPath = givenAssetsPath
			return
		}
	}

	var err error
	tempAssets, err = ioutil.TempDir(os.TempDir(), "pack-repo-assets")
	if err != nil {
		panic(err)
	}
	logrus.Info("Assets path doesn't exist - attempting to unpack from compiled data")
	if err = extractTo(tempAssets); err != nil {
		panic(err)
	}

	config.Runtime.AssetsPath = tempAssets
}

// DefaultThumbnailPath returns the thumbnail copied into bundles uploaded
// without one. thumbnails.defaultPath in the config wins over the bundled
// asset.
func DefaultThumbnailPath() string {
	if p := config.Get().Thumbnails.DefaultPath; p != "" {
		return p
	}
	return path.Join(config.Runtime.AssetsPath, DefaultThumbnailName)
}

func Cleanup() {
	if tempAssets != "" {
		logrus.Info("Cleaning up temporary assets directory: ", tempAssets)
		_ = os.RemoveAll(tempAssets)
	}
}

func extractTo(destination string) error {
	entries, err := compiledFiles.ReadDir(".")
	if err != nil {
		return err
	}
	for _, e := range entries {
		b, err := compiledFiles.ReadFile(e.Name())
		if err != nil {
			return err
		}

		dest := path.Join(destination, e.Name())
		logrus.Infof("Writing %s to %s", e.Name(), dest)
		err = ioutil.WriteFile(dest, b, 0644)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteDefaultThumbnail writes the compiled-in default thumbnail to dest.
// Mostly useful for tests and tooling that run without SetupAssets.
func WriteDefaultThumbnail(dest string) error {
	b, err := compiledFiles.ReadFile(DefaultThumbnailName)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(dest, b, 0644)
}
