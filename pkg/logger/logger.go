package logger

import (
	"fmt"
	"io"
	"path"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05"

type Options struct {
	Level string
	// Format is "json" or "text".
	Format string
	Output io.Writer
}

func callerPrettyfier(frame *runtime.Frame) (function string, file string) {
	return "", fmt.Sprintf("%s:%d", path.Base(frame.File), frame.Line)
}

func formatter(format string) log.Formatter {
	if strings.EqualFold(format, "text") {
		return &log.TextFormatter{
			CallerPrettyfier: callerPrettyfier,
			TimestampFormat:  timestampFormat,
			FullTimestamp:    true,
		}
	}
	return &log.JSONFormatter{
		CallerPrettyfier: callerPrettyfier,
		TimestampFormat:  timestampFormat,
	}
}

func SetupLogger(opts Options) {
	log.SetReportCaller(true)
	log.SetFormatter(formatter(opts.Format))
	if opts.Output != nil {
		log.SetOutput(opts.Output)
	}

	loggerLevel, err := log.ParseLevel(opts.Level)
	if err != nil {
		log.Infof("Level setup default INFO, err: %v", err)
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(loggerLevel)
	}
}
