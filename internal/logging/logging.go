// Package logging configures the structured logger shared by all dotenvng
// components. Values read from env files may be secrets and are only logged
// through Mask.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLevel  = "warn"
	DefaultFormat = "text"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(textFormatter())
	return l
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{DisableTimestamp: true}
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return logger.WithField("component", component)
}

func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return nil
}

func SetFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "":
		logger.SetFormatter(textFormatter())
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q: expected text or json", format)
	}
	return nil
}

func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

const maxMaskLength = 10

// Mask hides a value while keeping a hint of its length. Values longer than
// ten characters render as stars followed by "~" and the length.
func Mask(value string) string {
	if len(value) > maxMaskLength {
		s := strings.Repeat("*", maxMaskLength) + "~" + strconv.Itoa(len(value))
		return s[len(s)-maxMaskLength:]
	}
	return strings.Repeat("*", len(value))
}

func Keys(keys []string) string {
	return "[" + strings.Join(keys, ",") + "]"
}
