package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation limits.
const (
	logMaxSizeMB  = 50
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// newLogger creates the CLI logger. Console output goes to stderr so that
// reports on stdout stay clean: warnings by default, everything with
// --verbose. When log-file is set, info and above are also written there as
// JSON with size-based rotation.
func newLogger() (*zap.Logger, error) {
	consoleLevel := zap.NewAtomicLevelAt(zap.WarnLevel)
	if viper.GetBool("verbose") {
		consoleLevel.SetLevel(zap.DebugLevel)
	}

	consoleCfg := zap.NewProductionEncoderConfig()
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), consoleLevel),
	}

	if path := viper.GetString("log-file"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		fileLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
		if consoleLevel.Level() < fileLevel.Level() {
			fileLevel = consoleLevel
		}
		ws := zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), ws, fileLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
