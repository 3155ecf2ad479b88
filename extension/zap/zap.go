package zap

import (
	"github.com/quantabank/bankstream"
	"go.uber.org/zap"
)

var _ bankstream.Logger = &wrapper{}

type wrapper struct {
	logger *zap.Logger
}

// Wrap wraps a zap.Logger
func Wrap(logger *zap.Logger) bankstream.Logger {
	return &wrapper{logger}
}

// Error writes a log with log level error
func (w wrapper) Error(msg string, fields func(bankstream.LoggerEntry)) {
	w.logger.Error(msg, zapFields(fields)...)
}

// Warn writes a log with log level warning
func (w wrapper) Warn(msg string, fields func(bankstream.LoggerEntry)) {
	w.logger.Warn(msg, zapFields(fields)...)
}

// Info writes a log with log level info
func (w wrapper) Info(msg string, fields func(bankstream.LoggerEntry)) {
	w.logger.Info(msg, zapFields(fields)...)
}

// Debug writes a log with log level debug
func (w wrapper) Debug(msg string, fields func(bankstream.LoggerEntry)) {
	w.logger.Debug(msg, zapFields(fields)...)
}

// WithFields Adds a set of fields to the log entry
func (w wrapper) WithFields(fields func(bankstream.LoggerEntry)) bankstream.Logger {
	return wrapper{logger: w.logger.With(zapFields(fields)...)}
}

func zapFields(fields func(bankstream.LoggerEntry)) []zap.Field {
	if fields == nil {
		return nil
	}

	e := entry{}
	fields(&e)

	return e.fields
}

type entry struct {
	fields []zap.Field
}

func (e *entry) Int(k string, v int) {
	e.fields = append(e.fields, zap.Int(k, v))
}

func (e *entry) Int64(k string, v int64) {
	e.fields = append(e.fields, zap.Int64(k, v))
}

func (e *entry) String(k, v string) {
	e.fields = append(e.fields, zap.String(k, v))
}

func (e *entry) Error(err error) {
	e.fields = append(e.fields, zap.Error(err))
}

func (e *entry) Any(k string, v interface{}) {
	e.fields = append(e.fields, zap.Any(k, v))
}
