package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// logMu serializes reconfiguration; readers load logger without locking so
// tea.Cmd goroutines may log while the output is being switched.
var (
	logMu     sync.Mutex
	logLevel  = LogLevelInfo
	logOutput io.Writer = os.Stderr
	logger    atomic.Pointer[slog.Logger]
)

func init() {
	logger.Store(newLogger(logOutput, logLevel))
}

var slogLevels = map[LogLevel]slog.Level{
	LogLevelError: slog.LevelError,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelDebug: slog.LevelDebug,
}

func newLogger(w io.Writer, level LogLevel) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !IsTerminal(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      slogLevels[level],
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

// ParseLogLevel maps a level name to a LogLevel
func ParseLogLevel(name string) (LogLevel, error) {
	switch name {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info", "":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level: %s (supported: error, warn, info, debug)", name)
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logMu.Lock()
	defer logMu.Unlock()
	logLevel = level
	logger.Store(newLogger(logOutput, logLevel))
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output. The TUI points it at a file while it
// owns the terminal.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logOutput = w
	logger.Store(newLogger(logOutput, logLevel))
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Load().Error(fmt.Sprintf(format, args...))
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logger.Load().Warn(fmt.Sprintf(format, args...))
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logger.Load().Info(fmt.Sprintf(format, args...))
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logger.Load().Debug(fmt.Sprintf(format, args...))
}
