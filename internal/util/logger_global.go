package util

import (
	"os"
	"path/filepath"
	"sync"
)

var (
	globalLogger LoggerInterface
	loggerMu     sync.RWMutex
)

// DefaultLogFile returns ~/.go-activity-timeline/logs/app.log.
func DefaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".go-activity-timeline", "logs", "app.log")
}

// InitLogger installs the global logger. With debugToConsole set, entries
// are mirrored to stderr. A previous global logger is closed.
func InitLogger(logLevel, logFile string, debugToConsole bool) error {
	cfg := LoggerConfig{Level: logLevel, File: logFile}
	if debugToConsole {
		cfg.Console = os.Stderr
	}
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	SetLogger(logger)
	return nil
}

// SetLogger replaces the global logger. nil disables logging.
func SetLogger(logger LoggerInterface) {
	loggerMu.Lock()
	previous := globalLogger
	globalLogger = logger
	loggerMu.Unlock()

	if previous != nil && previous != logger {
		_ = previous.Close()
	}
}

func current() LoggerInterface {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

// Log writes a structured entry through the global logger.
func Log(level LogLevel, msg string, fields ...Field) {
	l := current()
	if l == nil {
		return
	}
	switch level {
	case LevelDebug:
		l.Debug(msg, fields...)
	case LevelWarn:
		l.Warn(msg, fields...)
	case LevelError:
		l.Error(msg, fields...)
	default:
		l.Info(msg, fields...)
	}
}

func LogInfo(msg string) {
	if l := current(); l != nil {
		l.Info(msg)
	}
}

func LogInfof(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Infof(format, args...)
	}
}

func LogDebug(msg string) {
	if l := current(); l != nil {
		l.Debug(msg)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Debugf(format, args...)
	}
}

func LogWarn(msg string) {
	if l := current(); l != nil {
		l.Warn(msg)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Warnf(format, args...)
	}
}

func LogError(msg string) {
	if l := current(); l != nil {
		l.Error(msg)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Errorf(format, args...)
	}
}
