package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gamepanel/internal/constants"
)

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Logger writes leveled log lines to an output stream and, once a data directory
// is configured, to per-level files rotated daily.
type Logger struct {
	mu          sync.Mutex
	level       string
	out         io.Writer
	dataDir     string              // empty = stream output only
	fileHandles map[string]*os.File // open handles by level
	currentDay  int                 // year*1000 + yday of the open handles
}

// Options configures a Logger.
type Options struct {
	Level   string
	Output  io.Writer // nil = stdout, io.Discard to silence
	DataDir string    // if set, enables file logging
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// NewLogger creates a stdout logger at the given level.
func NewLogger(level string) *Logger {
	return NewLoggerWithOptions(Options{Level: level})
}

// NewDiscard returns a logger that drops everything. Used by tests.
func NewDiscard() *Logger {
	return NewLoggerWithOptions(Options{Level: LevelError, Output: io.Discard})
}

// NewLoggerWithOptions creates a logger with full configuration.
func NewLoggerWithOptions(opts Options) *Logger {
	level := ParseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	l := &Logger{
		level:       level,
		out:         out,
		fileHandles: make(map[string]*os.File),
		dataDir:     opts.DataDir,
	}
	if opts.DataDir != "" {
		l.currentDay = dayKey(time.Now())
	}
	return l
}

// ParseLevel normalizes a configured level name. Unknown names fall back to INFO.
func ParseLevel(level string) string {
	switch level {
	case LevelDebug, "debug":
		return LevelDebug
	case LevelInfo, "info":
		return LevelInfo
	case LevelWarn, "warn", "warning":
		return LevelWarn
	case LevelError, "error":
		return LevelError
	}
	return LevelInfo
}

// EnableFileOutput starts writing log files under dataDir/logs/<level>/.
// Pass an empty string to disable file logging.
func (l *Logger) EnableFileOutput(dataDir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.closeFilesLocked(); err != nil {
		return err
	}

	l.dataDir = dataDir
	l.currentDay = 0
	if dataDir != "" {
		if err := os.MkdirAll(filepath.Join(dataDir, constants.LogsDir), constants.DirPermissions); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		l.currentDay = dayKey(time.Now())
	}
	return nil
}

// Close closes all file handles. Call during shutdown.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeFilesLocked()
}

func (l *Logger) closeFilesLocked() error {
	var lastErr error
	for level, handle := range l.fileHandles {
		if err := handle.Close(); err != nil {
			lastErr = err
		}
		delete(l.fileHandles, level)
	}
	return lastErr
}

func dayKey(t time.Time) int {
	return t.Year()*1000 + t.YearDay()
}

// logFilename names a day's file by the calendar date in UTC.
func logFilename(t time.Time) string {
	return t.UTC().Format("2006-01-02") + constants.LogFileExtension
}

func levelDir(level string) string {
	switch level {
	case LevelInfo:
		return constants.LogsDirInfo
	case LevelWarn:
		return constants.LogsDirWarn
	case LevelError:
		return constants.LogsDirError
	default:
		return constants.LogsDirDebug
	}
}

// fileLocked returns the open handle for level, rotating on day change.
// Caller must hold the mutex.
func (l *Logger) fileLocked(level string, now time.Time) (*os.File, error) {
	if key := dayKey(now); key != l.currentDay {
		l.closeFilesLocked()
		l.currentDay = key
	}

	if handle, ok := l.fileHandles[level]; ok {
		return handle, nil
	}

	dir := filepath.Join(l.dataDir, constants.LogsDir, levelDir(level))
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, logFilename(now))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	l.fileHandles[level] = file
	return file, nil
}

func (l *Logger) log(level, format string, args ...interface{}) {
	now := time.Now()
	line := fmt.Sprintf("[%s] %s | %s\n", level, now.Format(constants.LogTimestampFormat), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	if levelOrder[level] < levelOrder[l.level] {
		return
	}

	io.WriteString(l.out, line)

	if l.dataDir == "" {
		return
	}
	handle, err := l.fileLocked(level, now)
	if err != nil {
		fmt.Fprintf(l.out, "[LOGGER_ERROR] %v\n", err)
		return
	}
	if _, err := handle.WriteString(line); err != nil {
		fmt.Fprintf(l.out, "[LOGGER_ERROR] failed to write log file: %v\n", err)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// SetLevel changes the minimum level. Unknown names are ignored.
func (l *Logger) SetLevel(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := levelOrder[level]; ok {
		l.level = level
	}
}

// Level returns the current minimum level.
func (l *Logger) Level() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}
