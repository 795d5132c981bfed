package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	base = logrus.New()
)

func init() {
	base.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceFormatting: true,
	})
	base.SetOutput(os.Stdout)
	base.SetLevel(logrus.InfoLevel)
}

// Init configures the global log level and, when logFilePath is set, mirrors
// all output to a size-rotated log file.
func Init(level string, logFilePath string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	base.SetLevel(lvl)

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}

		base.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    25,
			MaxBackups: 5,
			MaxAge:     30,
		}))
	}

	return nil
}

// GetLogger returns an entry carrying the given prefix.
func GetLogger(prefix string) *logrus.Entry {
	return base.WithField("prefix", prefix)
}

func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}
