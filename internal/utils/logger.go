package utils

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// GetLogger returns the process-wide logger. LOG_LEVEL sets the level
// (default info) and LOG_FORMAT=text switches from JSON to text output.
func GetLogger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()

		logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			logLevel = logrus.InfoLevel
		}
		logger.SetLevel(logLevel)

		if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
			logger.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})
		} else {
			logger.SetFormatter(&logrus.JSONFormatter{
				TimestampFormat: "2006-01-02 15:04:05",
			})
		}

		logger.SetOutput(os.Stdout)
	})

	return logger
}
