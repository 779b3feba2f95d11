package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"sort"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

type runtimeConfig struct {
	AssetsPath string
}

var Runtime = &runtimeConfig{}
var Path = "pack-repo.yaml"

var instance *MainRepoConfig
var instanceLock = &sync.RWMutex{}
var singletonLock = &sync.Once{}

func reloadConfig() (*MainRepoConfig, error) {
	c := NewDefaultMainConfig()

	// Write a default config if the one given doesn't exist
	_, err := os.Stat(Path)
	exists := err == nil || !os.IsNotExist(err)
	if !exists {
		fmt.Println("Generating new configuration...")
		configBytes, err := yaml.Marshal(c)
		if err != nil {
			return nil, err
		}

		newFile, err := os.Create(Path)
		if err != nil {
			return nil, err
		}

		_, err = newFile.Write(configBytes)
		if err != nil {
			return nil, err
		}

		err = newFile.Close()
		if err != nil {
			return nil, err
		}
	}

	// Get new info about the possible directory after creating
	info, err := os.Stat(Path)
	if err != nil {
		return nil, err
	}

	pathsOrdered := make([]string, 0)
	if info.IsDir() {
		logrus.Info("Config is a directory - loading all files over top of each other")

		files, err := ioutil.ReadDir(Path)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			if f.IsDir() {
				continue
			}
			pathsOrdered = append(pathsOrdered, path.Join(Path, f.Name()))
		}

		sort.Strings(pathsOrdered)
	} else {
		pathsOrdered = append(pathsOrdered, Path)
	}

	for _, p := range pathsOrdered {
		logrus.Info("Loading config file: ", p)
		buffer, err := ioutil.ReadFile(p)
		if err != nil {
			return nil, err
		}

		err = yaml.Unmarshal(buffer, &c)
		if err != nil {
			return nil, err
		}
	}

	applyEnvironment(&c)

	return &c, nil
}

// applyEnvironment lets container deployments override the listener port
// without touching the config file.
func applyEnvironment(c *MainRepoConfig) {
	port := os.Getenv("PORT")
	if port == "" {
		return
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 {
		logrus.Warn("Ignoring invalid PORT environment variable: ", port)
		return
	}
	c.General.Port = p
}

func Get() *MainRepoConfig {
	instanceLock.RLock()
	c := instance
	instanceLock.RUnlock()
	if c != nil {
		return c
	}

	singletonLock.Do(func() {
		c, err := reloadConfig()
		if err != nil {
			logrus.Fatal(err)
		}
		Set(c)
	})

	instanceLock.RLock()
	defer instanceLock.RUnlock()
	return instance
}

// Set replaces the active configuration.
func Set(c *MainRepoConfig) {
	instanceLock.Lock()
	defer instanceLock.Unlock()
	instance = c
}
