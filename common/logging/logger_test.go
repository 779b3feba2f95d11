package logging

import (
	"io/ioutil"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turt2live/pack-repo/common/config"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	err := Setup(config.GeneralConfig{LogDirectory: "-", LogLevel: "chatty"}, "")
	assert.Error(t, err)
}

func TestSetupWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Setup(config.GeneralConfig{LogDirectory: dir, LogLevel: "debug"}, "test.log"))
	t.Cleanup(func() {
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	})

	logrus.Info("hello from the test")

	files, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	found := false
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "test.log.") {
			b, err := ioutil.ReadFile(dir + "/" + f.Name())
			require.NoError(t, err)
			assert.Contains(t, string(b), "hello from the test")
			assert.NotContains(t, string(b), "\x1b[")
			found = true
		}
	}
	assert.True(t, found, "expected a rotated log file")
}
