package version

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Both may be set at build time with -ldflags "-X ...".
var GitCommit string
var Version string

var defaultsOnce = &sync.Once{}

type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
}

func setDefaults() {
	if GitCommit == "" {
		GitCommit = ".dev"
		if build, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range build.Settings {
				if setting.Key == "vcs.revision" {
					GitCommit = setting.Value
					break
				}
			}
		}
	}

	if Version == "" {
		Version = "unknown"
	}
}

func Current() Info {
	defaultsOnce.Do(setDefaults)
	return Info{Version: Version, GitCommit: GitCommit}
}

func (i Info) String() string {
	return fmt.Sprintf("pack-repo %s (%s)", i.Version, i.GitCommit)
}

func Print(usingLogger bool) {
	info := Current()
	if usingLogger {
		logrus.WithFields(logrus.Fields{
			"version": info.Version,
			"commit":  info.GitCommit,
		}).Info("Version information")
	} else {
		fmt.Println("Version: " + info.Version)
		fmt.Println("Commit: " + info.GitCommit)
	}
}
