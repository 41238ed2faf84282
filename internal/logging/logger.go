// Package logging provides config-driven categorized logging for the
// debugging engine. Logs are written to <workspace>/.wrenchbot/logs/ as one
// newline-delimited JSON file per category, backed by zap cores so callers
// can attach structured fields instead of interpolating them into messages.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logical subsystem of the debugging engine.
type Category string

const (
	CategoryBoot       Category = "boot"
	CategoryTaxonomy   Category = "taxonomy"   // C1/C2: pattern store, classifier
	CategoryScratchpad Category = "scratchpad" // C3
	CategoryLLM        Category = "llm"        // C4
	CategoryParsers    Category = "parsers"    // C5
	CategoryDebugger   Category = "debugger"   // C6-C9
	CategoryCodegen    Category = "codegen"    // C10
	CategoryCLI        Category = "cli"
)

var allCategories = []Category{
	CategoryBoot, CategoryTaxonomy, CategoryScratchpad, CategoryLLM,
	CategoryParsers, CategoryDebugger, CategoryCodegen, CategoryCLI,
}

// Logger wraps a zap.SugaredLogger scoped to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	enabled   bool
)

// Initialize sets up the logging directory for a workspace. When debugMode is
// false this is a no-op: Get() still returns usable loggers, but they write
// to a discarding core so production runs carry no I/O cost.
func Initialize(workspace string, debugMode bool) error {
	if workspace == "" {
		return fmt.Errorf("logging: workspace path required")
	}
	enabled = debugMode
	logsDir = filepath.Join(workspace, ".wrenchbot", "logs")

	if !enabled {
		return nil
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("logging: create logs dir: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("logging initialized", "workspace", workspace, "logs_dir", logsDir)
	return nil
}

// Get returns (creating if necessary) the logger for a category.
func Get(cat Category) *Logger {
	loggersMu.RLock()
	if l, ok := loggers[cat]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}

	l := newLogger(cat)
	loggers[cat] = l
	return l
}

func newLogger(cat Category) *Logger {
	if !enabled || logsDir == "" {
		core := zapcore.NewNopCore()
		return &Logger{category: cat, sugar: zap.New(core).Sugar()}
	}

	path := filepath.Join(logsDir, string(cat)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] cannot open %s: %v\n", path, err)
		core := zapcore.NewNopCore()
		return &Logger{category: cat, sugar: zap.New(core).Sugar()}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)
	core := zapcore.NewCore(encoder, zapcore.AddSync(f), zapcore.DebugLevel)

	base := zap.New(core).With(zap.String("category", string(cat)))
	return &Logger{category: cat, sugar: base.Sugar(), file: f}
}

// Debug logs at debug level with structured key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, kv...) }

// Info logs at info level with structured key/value pairs.
func (l *Logger) Info(msg string, kv ...any) { l.sugar.Infow(msg, kv...) }

// Warn logs at warn level with structured key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) { l.sugar.Warnw(msg, kv...) }

// Error logs at error level with structured key/value pairs.
func (l *Logger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, kv...) }

// Timer measures the duration of an operation.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation in a category.
func StartTimer(cat Category, op string) *Timer {
	return &Timer{category: cat, op: op, start: time.Now()}
}

// Stop ends the timer silently.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// StopWithInfo ends the timer and logs the elapsed duration at info level.
func (t *Timer) StopWithInfo() time.Duration {
	d := time.Since(t.start)
	Get(t.category).Info("operation completed", "op", t.op, "duration_ms", d.Milliseconds())
	return d
}

// Close flushes and closes every open category log file. Safe to call
// multiple times; intended for graceful shutdown in cmd/debugctl.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		_ = l.sugar.Sync()
		if l.file != nil {
			_ = l.file.Close()
		}
	}
}

// Categories returns the full set of known categories, primarily for tests
// and config validation.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}
