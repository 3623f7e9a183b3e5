// Package debug provides conditional debug logging for hat.
//
// Debug logging is enabled by setting the SORTINGHAT_DEBUG environment
// variable or passing --debug:
//
//	SORTINGHAT_DEBUG=1 hat
//
// Messages go to a zap logger. The TUI owns the terminal, so the CLI points
// the logger at a rotated file with Init; until then stderr is used.
// When disabled (default), all debug functions are no-ops.
//
// Usage:
//
//	debug.Log("fetched %d nodes", len(nodes))
//	defer debug.LogEnterExit("buildForest")()
package debug

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// enabled is true when SORTINGHAT_DEBUG is set or SetEnabled(true) ran
	enabled bool
	logger  *zap.SugaredLogger
	rotator *lumberjack.Logger
)

func init() {
	if os.Getenv("SORTINGHAT_DEBUG") != "" {
		enabled = true
		logger = newLogger(zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	}
}

// Options configures where debug output is written.
type Options struct {
	File       string // rotated log file; empty keeps stderr
	Level      string // debug, info, warn, error
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func newLogger(ws zapcore.WriteSyncer, level zapcore.Level) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, level)
	return zap.New(core).Named("hat").Sugar()
}

// ParseLevel converts a level name to a zap level. Unknown names map to debug.
func ParseLevel(s string) zapcore.Level {
	if s == "" {
		return zapcore.DebugLevel
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.DebugLevel
	}
	return lvl
}

// Init (re)configures the sink. It does not change whether logging is
// enabled; call SetEnabled for that.
func Init(opts Options) {
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	level := ParseLevel(opts.Level)
	if opts.File == "" {
		logger = newLogger(zapcore.Lock(os.Stderr), level)
		return
	}
	rotator = &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, 5),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 30),
		Compress:   true,
	}
	logger = newLogger(zapcore.AddSync(rotator), level)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = newLogger(zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	}
}

// Sync flushes buffered output and closes the rotated file.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
	if rotator != nil {
		_ = rotator.Close()
	}
}

// Log writes a debug message if debug logging is enabled.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Debugf(format, args...)
}

// Warn writes a warning-level message if debug logging is enabled.
func Warn(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Warnf(format, args...)
}

// With logs a message with structured key/value pairs.
func With(msg string, keysAndValues ...any) {
	if !enabled {
		return
	}
	logger.Debugw(msg, keysAndValues...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Debugw("timing", "op", name, "took", d)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Debugf(format, args...)
}

// LogEnterExit logs function entry and exit with timing.
//
//	defer debug.LogEnterExit("myFunc")()
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Debugf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Debugf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	logger.Debugf("%s: %T = %+v", name, v, v)
}

// Section logs a section header for visual organization in debug output.
func Section(name string) {
	if !enabled {
		return
	}
	logger.Debugf("=== %s ===", name)
}
