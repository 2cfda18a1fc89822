package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	nocolor   = "0"
	red       = "31"
	green     = "38;5;48"
	yellow    = "33"
	gray      = "38;5;251"
	lightgray = "38;5;243"
	cyan      = "1;36"
)

const (
	DateFormat = "2006-01-02 15:04:05"
)

var (
	mutex         = sync.Mutex{}
	windowsColors bool
)

// Logger provides a logging interface amenable to logging levels
type Logger interface {
	Debug(format string, v ...any)
	Error(format string, v ...any)
	Fatal(format string, v ...any)
	Notice(format string, v ...any)
	Warn(format string, v ...any)
	Info(format string, v ...any)

	WithFields(fields ...Field) Logger
	SetLevel(level Level)
	Level() Level
}

// ConsoleLogger is a Logger that writes to a Printer
type ConsoleLogger struct {
	level   Level
	printer Printer
	fields  Fields
	exitFn  func(int)
}

// NewConsoleLogger returns a ConsoleLogger that writes to the given printer
// and calls exitFn on Fatal
func NewConsoleLogger(printer Printer, exitFn func(int)) Logger {
	return &ConsoleLogger{
		level:   INFO,
		printer: printer,
		exitFn:  exitFn,
	}
}

// WithFields returns a copy of the logger with the provided fields
func (l *ConsoleLogger) WithFields(fields ...Field) Logger {
	clone := *l
	clone.fields.Add(fields...)
	return &clone
}

// SetLevel replaces the logger's level.
func (l *ConsoleLogger) SetLevel(level Level) {
	l.level = level
}

func (l *ConsoleLogger) Debug(format string, v ...any) {
	if l.level == DEBUG {
		l.printer.Print(DEBUG, fmt.Sprintf(format, v...), l.fields)
	}
}

func (l *ConsoleLogger) Error(format string, v ...any) {
	l.printer.Print(ERROR, fmt.Sprintf(format, v...), l.fields)
}

func (l *ConsoleLogger) Fatal(format string, v ...any) {
	l.printer.Print(FATAL, fmt.Sprintf(format, v...), l.fields)
	l.exitFn(1)
}

func (l *ConsoleLogger) Notice(format string, v ...any) {
	if l.level <= NOTICE {
		l.printer.Print(NOTICE, fmt.Sprintf(format, v...), l.fields)
	}
}

func (l *ConsoleLogger) Info(format string, v ...any) {
	if l.level <= INFO {
		l.printer.Print(INFO, fmt.Sprintf(format, v...), l.fields)
	}
}

func (l *ConsoleLogger) Warn(format string, v ...any) {
	if l.level <= WARN {
		l.printer.Print(WARN, fmt.Sprintf(format, v...), l.fields)
	}
}

// Level returns the current logging level
func (l *ConsoleLogger) Level() Level {
	return l.level
}

// Printer formats a log entry and writes it somewhere
type Printer interface {
	Print(level Level, msg string, fields Fields)
}

// TextPrinter prints log entries as human-readable text lines
type TextPrinter struct {
	Colors bool
	Writer io.Writer
}

func NewTextPrinter(w io.Writer) *TextPrinter {
	return &TextPrinter{
		Colors: ColorsAvailable(),
		Writer: w,
	}
}

func (p *TextPrinter) Print(level Level, msg string, fields Fields) {
	now := time.Now().Format(DateFormat)
	line := ""

	fieldStr := ""
	for _, field := range fields {
		fieldStr += " " + field.Key() + "=" + field.String()
	}

	if p.Colors {
		levelColor := green
		messageColor := nocolor

		switch level {
		case DEBUG:
			levelColor = gray
			messageColor = gray
		case NOTICE:
			levelColor = cyan
		case WARN:
			levelColor = yellow
		case ERROR:
			levelColor = red
		case FATAL:
			levelColor = red
			messageColor = red
		}

		line = fmt.Sprintf("\x1b[%sm%s %-6s\x1b[0m \x1b[%sm%s\x1b[0m\x1b[%sm%s\x1b[0m\n",
			levelColor, now, level, messageColor, msg, lightgray, fieldStr)
	} else {
		line = fmt.Sprintf("%s %-6s %s%s\n", now, level, msg, fieldStr)
	}

	// One line at a time; the writer is shared.
	mutex.Lock()
	fmt.Fprint(p.Writer, line)
	mutex.Unlock()
}

// JSONPrinter prints log entries as single-line JSON objects
type JSONPrinter struct {
	Writer io.Writer
}

func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{
		Writer: w,
	}
}

func (p *JSONPrinter) Print(level Level, msg string, fields Fields) {
	b := &bytes.Buffer{}
	fmt.Fprintf(b, `{"ts":%s,"level":%s,"msg":%s`,
		jsonString(time.Now().Format(DateFormat)), jsonString(level.String()), jsonString(msg))
	for _, field := range fields {
		fmt.Fprintf(b, `,%s:%s`, jsonString(field.Key()), jsonString(field.String()))
	}
	b.WriteString("}\n")

	mutex.Lock()
	fmt.Fprint(p.Writer, b.String())
	mutex.Unlock()
}

func jsonString(s string) string {
	j, _ := json.Marshal(s)
	return string(j)
}

func ColorsAvailable() bool {
	// windowsColors is flipped by init in init_windows.go once the console
	// accepts ANSI sequences.
	if runtime.GOOS == "windows" && !windowsColors {
		return false
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Discard is a Logger that throws everything away
var Discard = &ConsoleLogger{
	printer: &TextPrinter{Writer: io.Discard},
	exitFn:  func(int) {},
}

// NewDiscardLogger returns a Logger that throws everything away, for tests
// that need a distinct instance
func NewDiscardLogger() Logger {
	return &ConsoleLogger{
		printer: &TextPrinter{Writer: io.Discard},
		exitFn:  func(int) {},
	}
}
