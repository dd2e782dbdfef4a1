package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = logrus.New()

func init() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Options configures the process logger
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Setup applies level and optional rolling file output. Log lines always go
// to stderr; with File set they are copied to the rotated file too.
func Setup(opts Options) error {
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(lvl)
	}

	if opts.File != "" {
		logger.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}))
	}
	return nil
}

// Logger exposes the underlying logger, mainly for tests
func Logger() *logrus.Logger {
	return logger
}

func WithField(key string, value interface{}) *logrus.Entry {
	return logger.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

func Debug(args ...interface{}) { logger.Debug(args...) }

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }

func Info(args ...interface{}) { logger.Info(args...) }

func Infof(format string, args ...interface{}) { logger.Infof(format, args...) }

func Warn(args ...interface{}) { logger.Warn(args...) }

func Warnf(format string, args ...interface{}) { logger.Warnf(format, args...) }

func Error(args ...interface{}) { logger.Error(args...) }

func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
