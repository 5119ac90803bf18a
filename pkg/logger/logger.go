package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	NameDefault  = "default"
	NameApp      = "app"
	NameEngine   = "engine"
	NamePoller   = "poller"
	NameStore    = "store"
	NameAudio    = "audio"
	NameNotify   = "notify"
	NameReminder = "reminder"
	NameCalendar = "calendar"
	NameCLI      = "cli"
)

const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

const logFileName = "dose-alarm.log"

var (
	mu     sync.Mutex
	logger *zap.Logger
)

// IsProduction reports whether console output should be suppressed
func IsProduction() bool {
	return os.Getenv("GO_ENV") == "production"
}

// Init builds the process logger. Files rotate under dir; an empty dir
// logs to the console only.
func Init(level, dir string) error {
	lvl := parseLevel(level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{}
	if dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(dir, logFileName),
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28,   // days
			Compress:   true, // gzip
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(logFile), lvl))
	}
	if !IsProduction() || dir == "" {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), lvl))
	}

	mu.Lock()
	defer mu.Unlock()
	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case InfoLevel:
		return zap.InfoLevel
	case WarnLevel:
		return zap.WarnLevel
	case ErrorLevel:
		return zap.ErrorLevel
	default:
		return zap.DebugLevel
	}
}

func getLogger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	}
	return logger
}

func GetLogger() *zap.Logger {
	return getLogger().Named(NameDefault)
}

func GetLoggerWith(name string, fields ...zap.Field) *zap.Logger {
	return getLogger().Named(name).With(fields...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = getLogger().Sync()
}

func SetTestCaptureLogger(buf *bytes.Buffer, level zapcore.Level) {
	writer := zapcore.AddSync(buf)
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, level)

	mu.Lock()
	defer mu.Unlock()
	logger = zap.New(core)
}

func SetTestLoggerNop() {
	mu.Lock()
	defer mu.Unlock()
	logger = zap.NewNop()
}
