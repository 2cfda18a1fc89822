package logger

import (
	"fmt"
	"strings"
)

type Level int

const (
	DEBUG Level = iota
	NOTICE
	INFO
	ERROR
	WARN
	FATAL
)

var levelNames = []string{
	"DEBUG",
	"NOTICE",
	"INFO",
	"ERROR",
	"WARN",
	"FATAL",
}

// String returns the level's name, uppercased.
func (p Level) String() string {
	return levelNames[p]
}

// LevelFromString returns the level that matches the given name.
func LevelFromString(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return FATAL, fmt.Errorf("invalid log level %q, try one of debug, notice, info, error, warn, fatal", s)
}
