// Package dnplog provides the protocol stack's internal logging: a small
// Provider interface decoupled from any concrete logging library, an
// atomic per-channel enable flag, and a default provider backed by
// logrus with structured fields for association and fragment context.
package dnplog

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Provider is the logging sink a channel or association writes through.
// Implementations should be safe for concurrent use.
type Provider interface {
	Critical(format string, v ...interface{})
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Logger gates calls to an underlying Provider behind an atomic enable
// flag, so a disabled logger costs one atomic load per call instead of a
// provider dispatch.
type Logger struct {
	provider Provider
	has      uint32
}

// NewLogger creates a Logger wrapping the default logrus-backed provider,
// initially enabled.
func NewLogger(fields logrus.Fields) Logger {
	return Logger{
		provider: logrusProvider{logrus.StandardLogger().WithFields(fields)},
		has:      1,
	}
}

// SetProvider replaces the underlying provider.
func (l *Logger) SetProvider(p Provider) {
	if p != nil {
		l.provider = p
	}
}

// SetEnabled turns logging on or off.
func (l *Logger) SetEnabled(enabled bool) {
	if enabled {
		atomic.StoreUint32(&l.has, 1)
	} else {
		atomic.StoreUint32(&l.has, 0)
	}
}

func (l Logger) Critical(format string, v ...interface{}) {
	if atomic.LoadUint32(&l.has) == 1 {
		l.provider.Critical(format, v...)
	}
}

func (l Logger) Error(format string, v ...interface{}) {
	if atomic.LoadUint32(&l.has) == 1 {
		l.provider.Error(format, v...)
	}
}

func (l Logger) Warn(format string, v ...interface{}) {
	if atomic.LoadUint32(&l.has) == 1 {
		l.provider.Warn(format, v...)
	}
}

func (l Logger) Info(format string, v ...interface{}) {
	if atomic.LoadUint32(&l.has) == 1 {
		l.provider.Info(format, v...)
	}
}

func (l Logger) Debug(format string, v ...interface{}) {
	if atomic.LoadUint32(&l.has) == 1 {
		l.provider.Debug(format, v...)
	}
}

// logrusProvider adapts a *logrus.Entry to Provider.
type logrusProvider struct {
	entry *logrus.Entry
}

var _ Provider = logrusProvider{}

func (p logrusProvider) Critical(format string, v ...interface{}) { p.entry.Errorf("CRITICAL: "+format, v...) }
func (p logrusProvider) Error(format string, v ...interface{})    { p.entry.Errorf(format, v...) }
func (p logrusProvider) Warn(format string, v ...interface{})     { p.entry.Warnf(format, v...) }
func (p logrusProvider) Info(format string, v ...interface{})     { p.entry.Infof(format, v...) }
func (p logrusProvider) Debug(format string, v ...interface{})    { p.entry.Debugf(format, v...) }

// DecodeLevel controls how much of each frame a channel logs.
type DecodeLevel int

const (
	// Nothing logs no frame contents, only state transitions.
	Nothing DecodeLevel = iota
	// Header logs link/transport/application headers but not object values.
	Header
	// ObjectValues logs decoded object values but not headers.
	ObjectValues
	// ObjectValuesAndHeader logs both.
	ObjectValuesAndHeader
)

func (d DecodeLevel) IncludesHeader() bool {
	return d == Header || d == ObjectValuesAndHeader
}

func (d DecodeLevel) IncludesObjectValues() bool {
	return d == ObjectValues || d == ObjectValuesAndHeader
}

func (d DecodeLevel) String() string {
	switch d {
	case Nothing:
		return "nothing"
	case Header:
		return "header"
	case ObjectValues:
		return "object_values"
	case ObjectValuesAndHeader:
		return "object_values_and_header"
	default:
		return "unknown"
	}
}

// ParseDecodeLevel maps a config-file-friendly name to a DecodeLevel, for
// hosts that externalize channel configuration (e.g. as YAML).
func ParseDecodeLevel(s string) (DecodeLevel, error) {
	switch s {
	case "", "nothing":
		return Nothing, nil
	case "header":
		return Header, nil
	case "object_values":
		return ObjectValues, nil
	case "object_values_and_header":
		return ObjectValuesAndHeader, nil
	default:
		return Nothing, fmt.Errorf("dnplog: unknown decode level %q", s)
	}
}
