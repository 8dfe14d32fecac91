package infrastructure

import (
	"io"
	"os"
	"strings"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 7
	defaultLogMaxAgeDays = 30
)

// SetupLogger configures the global logrus logger. The returned closer flushes the log file, if any.
func SetupLogger(env string, cfg config.LogConfig) (io.Closer, error) {
	logrus.SetReportCaller(cfg.ShowCaller)

	if env == constant.ProductionEnvironment {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(logLevel)

	if strings.TrimSpace(cfg.File.Path) == "" {
		logrus.SetOutput(os.Stdout)
		return io.NopCloser(nil), nil
	}

	file := newLogFile(cfg.File)
	logrus.SetOutput(io.MultiWriter(os.Stdout, file))

	return file, nil
}

func newLogFile(cfg config.LogFileConfig) *lumberjack.Logger {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultLogMaxSizeMB
	}

	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultLogMaxBackups
	}

	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = defaultLogMaxAgeDays
	}

	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}
