// Package logging initializes the global logger. For this to work this
// package needs to be imported with the blank identifier.
package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// These are the log levels that we support.
// We should rely on them when retrieving them from the
// environment variables.
const (
	Debug = "DEBUG"
	Info  = "INFO"
	Warn  = "WARN"
	Error = "ERROR"
)

// init sets the log level and formatter based on environment variables.
// If the log level is set to debug, it also sets the report caller to true to
// log the filename and line number.
func init() {
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info" // Default log level
	}

	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Fatal(err)
	}

	log.SetLevel(level)

	// Set the logging format given the value set in ENV.
	log.SetFormatter(formatterFromEnv())

	if log.StandardLogger().GetLevel() == log.DebugLevel {
		log.SetReportCaller(true)
	}
}

// formatterFromEnv returns a new formatter based on LOG_FORMAT.
func formatterFromEnv() log.Formatter {
	logFormat := os.Getenv("LOG_FORMAT")

	if logFormat == "json" {
		return &log.JSONFormatter{}
	}

	return &log.TextFormatter{}
}
