package logger

import (
	"fmt"
	"sync"
)

// Buffer is a Logger that collects formatted messages in memory, for tests
// that assert on log output. Each message carries its level as a prefix,
// like "[warn] something happened".
type Buffer struct {
	mu       sync.Mutex
	Messages []string
}

// NewBuffer returns a Buffer with Messages initialized to an empty slice,
// so tests that expect no output can assert []string{} without tripping
// over nil.
func NewBuffer() *Buffer {
	return &Buffer{Messages: make([]string, 0)}
}

func (b *Buffer) append(prefix, format string, v []any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Messages = append(b.Messages, prefix+fmt.Sprintf(format, v...))
}

func (b *Buffer) Debug(format string, v ...any)  { b.append("[debug] ", format, v) }
func (b *Buffer) Error(format string, v ...any)  { b.append("[error] ", format, v) }
func (b *Buffer) Fatal(format string, v ...any)  { b.append("[fatal] ", format, v) }
func (b *Buffer) Notice(format string, v ...any) { b.append("[notice] ", format, v) }
func (b *Buffer) Warn(format string, v ...any)   { b.append("[warn] ", format, v) }
func (b *Buffer) Info(format string, v ...any)   { b.append("[info] ", format, v) }

// WithFields returns the buffer itself: fields aren't part of the captured
// messages.
func (b *Buffer) WithFields(...Field) Logger { return b }

// SetLevel does nothing. A Buffer records every message regardless of level.
func (b *Buffer) SetLevel(Level) {}

func (b *Buffer) Level() Level { return DEBUG }
