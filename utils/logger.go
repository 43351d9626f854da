package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel enumerates severity tiers.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l LogLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLogLevel accepts the level names above, case-insensitively.
// Anything unrecognised falls back to INFO.
func ParseLogLevel(s string) LogLevel {
	for i, n := range levelNames {
		if strings.EqualFold(s, n) {
			return LogLevel(i)
		}
	}
	return INFO
}

func (l LogLevel) zap() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case FATAL:
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

// Logger is a concurrency-safe, levelled logger used across the recorder.
type Logger struct {
	sugar *zap.SugaredLogger
	file  *os.File
}

// LogOptions selects where log lines go.
type LogOptions struct {
	Level LogLevel
	File  string // optional; appended to
	// Console writes to stderr. Turned off while the terminal UI owns the screen.
	Console bool
}

var (
	globalLogger *Logger
	logOnce      sync.Once
	logMu        sync.Mutex
)

// InitLogger creates the singleton logger. Call once at startup.
func InitLogger(opts LogOptions) *Logger {
	logOnce.Do(func() {
		l := newLogger(opts)
		logMu.Lock()
		globalLogger = l
		logMu.Unlock()
	})
	return L()
}

func newLogger(opts LogOptions) *Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	enc := zapcore.NewConsoleEncoder(encCfg)
	lvl := opts.Level.zap()

	var cores []zapcore.Core
	if opts.Console {
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl))
	}

	var f *os.File
	if opts.File != "" {
		var err error
		f, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(f), lvl))
		} else if opts.Console {
			os.Stderr.WriteString("[WARN] could not open log file " + opts.File + ": " + err.Error() + "\n")
		}
	}

	core := zapcore.NewTee(cores...)
	return &Logger{sugar: zap.New(core).Sugar(), file: f}
}

// L returns the global logger. Before InitLogger it is a stderr logger at DEBUG.
func L() *Logger {
	logMu.Lock()
	defer logMu.Unlock()
	if globalLogger == nil {
		globalLogger = newLogger(LogOptions{Level: DEBUG, Console: true})
	}
	return globalLogger
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() {
	_ = l.sugar.Sync()
	if l.file != nil {
		_ = l.file.Close()
	}
}

func (l *Logger) Debug(f string, a ...any) { l.sugar.Debugf(f, a...) }
func (l *Logger) Info(f string, a ...any)  { l.sugar.Infof(f, a...) }
func (l *Logger) Warn(f string, a ...any)  { l.sugar.Warnf(f, a...) }
func (l *Logger) Error(f string, a ...any) { l.sugar.Errorf(f, a...) }
func (l *Logger) Fatal(f string, a ...any) { l.sugar.Fatalf(f, a...) }
