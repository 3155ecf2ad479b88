package logrus

import (
	"github.com/quantabank/bankstream"
	"github.com/sirupsen/logrus"
)

var _ bankstream.Logger = &wrapper{}

type wrapper struct {
	entry *logrus.Entry
}

// Wrap wraps a logrus.Logger
func Wrap(logger *logrus.Logger) bankstream.Logger {
	return wrapper{entry: logrus.NewEntry(logger)}
}

// WrapEntry wraps a logrus.Entry
func WrapEntry(entry *logrus.Entry) bankstream.Logger {
	return wrapper{entry: entry}
}

// StandardLogger return a wrapped version of the logrus.StandardLogger()
func StandardLogger() bankstream.Logger {
	var origLogger = logrus.StandardLogger()
	return wrapper{entry: logrus.NewEntry(origLogger)}
}

// Error writes a log with log level error
func (w wrapper) Error(msg string, fields func(bankstream.LoggerEntry)) {
	w.withFields(fields).Error(msg)
}

// Warn writes a log with log level warn
func (w wrapper) Warn(msg string, fields func(bankstream.LoggerEntry)) {
	w.withFields(fields).Warn(msg)
}

// Info writes a log with log level info
func (w wrapper) Info(msg string, fields func(bankstream.LoggerEntry)) {
	w.withFields(fields).Info(msg)
}

// Debug writes a log with log level debug
func (w wrapper) Debug(msg string, fields func(bankstream.LoggerEntry)) {
	w.withFields(fields).Debug(msg)
}

// WithFields Adds a set of fields to the log entry
func (w wrapper) WithFields(fields func(bankstream.LoggerEntry)) bankstream.Logger {
	return wrapper{entry: w.withFields(fields)}
}

func (w wrapper) withFields(fields func(bankstream.LoggerEntry)) *logrus.Entry {
	if fields == nil {
		return w.entry
	}

	e := entry{fields: logrus.Fields{}}
	fields(&e)

	return w.entry.WithFields(e.fields)
}

type entry struct {
	fields logrus.Fields
}

func (e *entry) Int(k string, v int) {
	e.fields[k] = v
}

func (e *entry) Int64(k string, v int64) {
	e.fields[k] = v
}

func (e *entry) String(k, v string) {
	e.fields[k] = v
}

func (e *entry) Error(err error) {
	e.fields[logrus.ErrorKey] = err
}

func (e *entry) Any(k string, v interface{}) {
	e.fields[k] = v
}
