package logging

import (
	"os"
	"path"
	"time"

	"github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/turt2live/pack-repo/common/config"
)

const timestampFormat = "2006-01-02 15:04:05.000 Z07:00"
const retention = 14 * 24 * time.Hour

type utcFormatter struct {
	logrus.Formatter
}

func (f utcFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.UTC()
	return f.Formatter.Format(entry)
}

// Setup configures the global logger from the repo section of the config.
// fileName is the base name of the rotated log file, used only when a log
// directory is configured.
func Setup(conf config.GeneralConfig, fileName string) error {
	level := conf.LogLevel
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(utcFormatter{newFormatter(conf.LogColors, conf.JsonLogs)})

	if conf.LogDirectory == "" || conf.LogDirectory == "-" {
		return nil
	}
	if err = os.MkdirAll(conf.LogDirectory, 0755); err != nil {
		return err
	}

	logFile := path.Join(conf.LogDirectory, fileName)
	writer, err := rotatelogs.New(
		logFile+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(logFile),
		rotatelogs.WithMaxAge(retention),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return err
	}

	// Escape sequences are never written to the files.
	writers := lfshook.WriterMap{}
	for _, l := range logrus.AllLevels {
		writers[l] = writer
	}
	logrus.AddHook(lfshook.NewHook(writers, utcFormatter{newFormatter(false, conf.JsonLogs)}))

	return nil
}

func newFormatter(colors bool, json bool) logrus.Formatter {
	if json {
		return &logrus.JSONFormatter{TimestampFormat: timestampFormat}
	}
	return &logrus.TextFormatter{
		TimestampFormat:  timestampFormat,
		FullTimestamp:    true,
		ForceColors:      colors,
		DisableColors:    !colors,
		QuoteEmptyFields: true,
	}
}
