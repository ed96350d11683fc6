package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns the JSON logger shared by the server, the store and the CLIs.
func NewLogger(level string) *logrus.Logger {
	logg := logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		logg.SetLevel(lvl)
		logg.WithField("level", level).Warn("unknown log level, using info")
		return logg
	}
	logg.SetLevel(lvl)
	return logg
}

// ReportSettingsWarnings logs what LoadSettings could not parse.
func ReportSettingsWarnings(logger *logrus.Logger, s *Settings) {
	for _, w := range s.Warnings {
		logger.WithFields(logrus.Fields{"field": "settings"}).Warn(w)
	}
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	if data != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Error(err.Error())
	} else {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
		}).Error(err.Error())
	}
}
