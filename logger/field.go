package logger

import (
	"strconv"
	"time"
)

// Field is one key=value annotation on a log entry.
type Field interface {
	Key() string
	String() string
}

// Fields is an ordered list of fields. Order is preserved in output, so the
// fields a logger was created with print before ones added later.
type Fields []Field

func (f *Fields) Add(fields ...Field) {
	*f = append(*f, fields...)
}

// field holds its value pre-formatted, so printers don't need to know the
// original type.
type field struct {
	key   string
	value string
}

func (f field) Key() string    { return f.key }
func (f field) String() string { return f.value }

func StringField(key, value string) Field {
	return field{key: key, value: value}
}

func IntField(key string, value int) Field {
	return field{key: key, value: strconv.Itoa(value)}
}

func DurationField(key string, value time.Duration) Field {
	return field{key: key, value: value.String()}
}
