package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var InfoLogger, FatalLogger *zap.Logger

var (
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init собирает глобальные логгеры. level: debug|info|warn|error, json=false даёт консольный вывод.
func Init(level string, json bool) (*zap.Logger, error) {
	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	InfoLogger = l
	FatalLogger = l
	return l, nil
}

func get(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.With(zap.String("service", serviceName))
}

func Debug(format string, args ...interface{}) {
	get(InfoLogger).Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	get(InfoLogger).Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	get(InfoLogger).Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	get(InfoLogger).Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	if FatalLogger == nil {
		panic(fmt.Sprintf(format, args...))
	}

	FatalLogger.With(
		zap.String("service", serviceName),
	).Fatal(fmt.Sprintf(format, args...))
}
