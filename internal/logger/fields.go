package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field represents a structured log field
type Field interface {
	Key() string
	Value() any
	// ZapField returns the underlying zap.Field for efficient conversion
	ZapField() zap.Field
}

// ZapField wraps a zap.Field and implements the Field interface.
type ZapField struct {
	field zap.Field
	value any
}

func (f ZapField) Key() string         { return f.field.Key }
func (f ZapField) Value() any          { return f.value }
func (f ZapField) ZapField() zap.Field { return f.field }

func wrap(field zap.Field, value any) Field {
	return ZapField{field: field, value: value}
}

// String creates a string field.
func String(key, value string) Field { return wrap(zap.String(key, value), value) }

// Strings creates a string slice field.
func Strings(key string, value []string) Field { return wrap(zap.Strings(key, value), value) }

// Int creates an int field.
func Int(key string, value int) Field { return wrap(zap.Int(key, value), value) }

// Bool creates a bool field.
func Bool(key string, value bool) Field { return wrap(zap.Bool(key, value), value) }

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field { return wrap(zap.Duration(key, value), value) }

// Error creates an error field.
func Error(err error) Field { return wrap(zap.Error(err), err) }

// Any creates a field from an arbitrary value.
func Any(key string, value any) Field { return wrap(zap.Any(key, value), value) }

func fieldsToZap(fields []Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, field := range fields {
		zapFields[i] = field.ZapField()
	}
	return zapFields
}
