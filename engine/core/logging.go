package core

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	once.Do(
		func() {
			l := log.NewWithOptions(os.Stderr, log.Options{
				ReportCaller:    true,
				ReportTimestamp: true,
				TimeFormat:      time.RFC3339,
				Prefix:          "Fusen 📌 ",
			})
			l.SetLevel(log.InfoLevel)
			// callers are one frame above the LogX helpers
			l.SetCallerOffset(1)
			singleton = &logger{l}
		})
	return singleton
}

// Logger returns the process-wide logger for structured key/value logging.
func Logger() *log.Logger {
	return getLogger().Logger
}

// SetLogLevel changes the minimum level printed by the engine logger.
func SetLogLevel(level log.Level) {
	getLogger().SetLevel(level)
}

// SetLogOutput redirects the engine logger, e.g. to io.Discard in tests.
func SetLogOutput(w io.Writer) {
	getLogger().SetOutput(w)
}

// ParseLogLevel maps names like "debug" or "warn" to a log level.
func ParseLogLevel(name string) (log.Level, error) {
	return log.ParseLevel(name)
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

// LogFatal logs at fatal level and exits the process with status 1.
func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
