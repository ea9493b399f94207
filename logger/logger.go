package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Init configures the global logger for the given environment and level.
func Init(env, level string) *logrus.Logger {
	Log.SetOutput(os.Stdout)
	if env == "production" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.WithField("level", level).Warn("unknown log level, falling back to info")
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	return Log
}
