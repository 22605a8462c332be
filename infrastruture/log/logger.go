// Package logger provides the named, coloured component loggers used across
// the arcade, backed by logrus.
package logger

import (
	"errors"
	"fmt"
	"io"

	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/sirupsen/logrus"
)

var _ i.Logger = &Logger{}

var ErrNilWriter = errors.New("logger output is nil")

// Logger writes leveled messages tagged with a component name.
type Logger struct {
	name  string
	color string
	base  *logrus.Logger
}

// New creates a logger for the named component writing to out.
// color is an ANSI escape used for the component tag.
func New(name, color string, out io.Writer) (*Logger, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		DisableLevelTruncation: true,
		DisableQuote:           true,
	})

	return &Logger{
		name:  name,
		color: color,
		base:  base,
	}, nil
}

// SetLevel changes the minimum level; accepts logrus level names.
func (l *Logger) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.base.SetLevel(lvl)
	return nil
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) {
	l.base.Debug(l.tag(msg))
}

// Info logs at info level.
func (l *Logger) Info(msg string) {
	l.base.Info(l.tag(msg))
}

// Warning logs at warning level.
func (l *Logger) Warning(msg string) {
	l.base.Warn(l.tag(msg))
}

// Error logs at error level.
func (l *Logger) Error(msg string) {
	l.base.Error(l.tag(msg))
}

func (l *Logger) tag(msg string) string {
	if l.color == "" {
		return fmt.Sprintf("[%s] %s", l.name, msg)
	}
	return fmt.Sprintf("%s[%s]\033[0m %s", l.color, l.name, msg)
}
