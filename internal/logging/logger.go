// Package logging is the leveled logger every other package writes through,
// grounded on the teacher's internal/common/logger.go: one *log.Logger per
// level, each writing to stderr with its own bracketed prefix.
package logging

import (
	"log"
	"os"
)

// Logger dispatches to one of four leveled *log.Logger instances.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
}

// New returns a Logger with all four levels writing to stderr.
func New() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stderr, "[INFO]  ", log.Ldate|log.Ltime),
		warnLogger:  log.New(os.Stderr, "[WARN]  ", log.Ldate|log.Ltime),
		errorLogger: log.New(os.Stderr, "[ERROR] ", log.Ldate|log.Ltime),
		debugLogger: log.New(os.Stderr, "[DEBUG] ", log.Ldate|log.Ltime),
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, v ...interface{}) { l.infoLogger.Printf(format, v...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, v ...interface{}) { l.warnLogger.Printf(format, v...) }

// Error logs an error message.
func (l *Logger) Error(format string, v ...interface{}) { l.errorLogger.Printf(format, v...) }

// Debug logs a debug message.
func (l *Logger) Debug(format string, v ...interface{}) { l.debugLogger.Printf(format, v...) }
