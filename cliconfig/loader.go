// Package cliconfig populates command config structs from CLI flags,
// positional arguments and configuration files, driven by struct tags.
//
// It is intended for internal use by gantry only.
package cliconfig

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gantry-ci/gantry/internal/osutil"
	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

// Loader fills Config from a cli.Context and, when one is found, a
// configuration file. Flags set on the command line (or via a flag's EnvVar)
// beat file values; file values beat flag defaults.
//
// Config struct tags drive the process:
//
//	cli:"name"        source flag, or "arg:N" / "arg:*" for positional args
//	env:"NAME"        fallback variable when a positional arg is absent
//	normalize:"..."   filepath, commandpath or list
//	validate:"..."    required, file-exists
//	deprecated:"msg"  emit a warning when the field is set
//	label:"..."       human-readable name used in messages
type Loader struct {
	// CLI is the context of the command being run.
	CLI *cli.Context

	// Config points to the struct being populated.
	Config any

	// DefaultConfigFilePaths are tried in order when --config is not given.
	DefaultConfigFilePaths []string

	// File is the configuration file that was used, if any.
	File *File
}

// argTagRE matches the positional-argument forms of the cli tag: "arg:3" for
// one argument, "arg:*" for all of them.
var argTagRE = regexp.MustCompile(`arg:(\d+|\*)`)

// Load populates Config and returns any deprecation warnings.
func (l *Loader) Load() (warnings []string, err error) {
	if err := l.findConfigFile(); err != nil {
		return nil, err
	}

	fields, _ := reflections.FieldsDeep(l.Config)
	for _, field := range fields {
		cliName, _ := reflections.GetFieldTag(l.Config, field, "cli")
		if cliName != "" {
			if err := l.applyCLIValue(field, cliName); err != nil {
				return warnings, fmt.Errorf("config field %s: %w", field, err)
			}
		}

		if norm, _ := reflections.GetFieldTag(l.Config, field, "normalize"); norm != "" {
			if err := l.normalizeField(field, norm); err != nil {
				return warnings, fmt.Errorf("normalizing %s: %w", field, err)
			}
		}

		if note, _ := reflections.GetFieldTag(l.Config, field, "deprecated"); note != "" {
			if !l.fieldIsEmpty(field) {
				warnings = append(warnings,
					fmt.Sprintf("Config option `%s` is deprecated: %s", cliName, note))
			}
		}

		if rules, _ := reflections.GetFieldTag(l.Config, field, "validate"); rules != "" {
			if err := l.validateField(field, cliName, rules); err != nil {
				return warnings, err
			}
		}
	}

	return warnings, nil
}

// Errorf formats an error and points the user at the command's help.
func (l *Loader) Errorf(format string, v ...any) error {
	suffix := fmt.Sprintf(" (see `%s %s --help`)", l.CLI.App.Name, l.CLI.Command.Name)

	return fmt.Errorf(format+suffix, v...)
}

// findConfigFile picks the configuration file to use: --config when given
// (and it must exist), otherwise the first default path that exists. The
// chosen file is loaded into l.File.
func (l *Loader) findConfigFile() error {
	if path := l.CLI.String("config"); path != "" {
		file := File{Path: path}
		if !file.Exists() {
			abs, _ := file.AbsolutePath()
			return fmt.Errorf("no configuration file found at %q", abs)
		}
		l.File = &file
	} else {
		for _, path := range l.DefaultConfigFilePaths {
			file := File{Path: path}
			if file.Exists() {
				l.File = &file
				break
			}
		}
	}

	if l.File == nil {
		return nil
	}
	if err := l.File.Load(); err != nil {
		return fmt.Errorf("reading the config file: %w", err)
	}
	return nil
}

// applyCLIValue resolves the value for one field and stores it. A nil
// resolution (say, a positional arg that wasn't given) leaves the field
// untouched.
func (l *Loader) applyCLIValue(field, cliName string) error {
	kind, err := reflections.GetFieldKind(l.Config, field)
	if err != nil {
		return fmt.Errorf("finding kind of field %q: %w", field, err)
	}
	typeName, err := reflections.GetFieldType(l.Config, field)
	if err != nil {
		return fmt.Errorf("finding type of field %q: %w", field, err)
	}

	var value any
	if m := argTagRE.FindStringSubmatch(cliName); m != nil {
		value, err = l.argValue(field, m[1])
	} else {
		value, err = l.resolveFlag(cliName, kind, typeName)
	}
	if err != nil {
		return err
	}

	if value == nil {
		return nil
	}
	if err := reflections.SetField(l.Config, field, value); err != nil {
		return fmt.Errorf("storing %q in field %q: %w", value, field, err)
	}
	return nil
}

// argValue resolves a positional argument: all of them for "*", one for an
// index. A missing indexed argument falls back to the variable named by the
// field's env tag.
func (l *Loader) argValue(field, index string) (any, error) {
	if index == "*" {
		return l.CLI.Args(), nil
	}

	i, err := strconv.Atoi(index)
	if err != nil {
		return nil, fmt.Errorf("parsing arg index: %w", err)
	}
	if args := l.CLI.Args(); i < len(args) {
		return args[i], nil
	}

	if envName, err := reflections.GetFieldTag(l.Config, field, "env"); err == nil {
		if v, ok := os.LookupEnv(envName); ok {
			return v, nil
		}
	}
	return nil, nil
}

// resolveFlag resolves a flag-backed field. The config file supplies the base
// value; a flag the user actually set wins over it; with neither, the flag's
// default applies.
func (l *Loader) resolveFlag(cliName string, kind reflect.Kind, typeName string) (any, error) {
	var value any
	if l.File != nil {
		if raw, ok := l.File.Config[cliName]; ok {
			v, err := convertFileValue(raw, kind, typeName)
			if err != nil {
				return nil, err
			}
			value = v
		}
	}

	if value != nil && !l.flagWasSet(cliName) {
		return value, nil
	}

	switch kind {
	case reflect.String:
		return l.CLI.String(cliName), nil
	case reflect.Slice:
		return l.CLI.StringSlice(cliName), nil
	case reflect.Bool:
		return l.CLI.Bool(cliName), nil
	case reflect.Int:
		return l.CLI.Int(cliName), nil
	case reflect.Int64:
		switch typeName {
		case "int64":
			return l.CLI.Int64(cliName), nil
		case "time.Duration":
			return l.CLI.Duration(cliName), nil
		default:
			return nil, fmt.Errorf("field type %s cannot hold an int64", typeName)
		}
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}

// convertFileValue parses a raw config file string into the field's type.
func convertFileValue(raw string, kind reflect.Kind, typeName string) (any, error) {
	switch kind {
	case reflect.String:
		return raw, nil
	case reflect.Slice:
		return strings.Split(raw, ","), nil
	case reflect.Bool:
		b, _ := strconv.ParseBool(raw)
		return b, nil
	case reflect.Int:
		n, _ := strconv.Atoi(raw)
		return n, nil
	case reflect.Int64:
		switch typeName {
		case "int64":
			n, _ := strconv.ParseInt(raw, 10, 64)
			return n, nil
		case "time.Duration":
			d, _ := time.ParseDuration(raw)
			return d, nil
		default:
			return nil, fmt.Errorf("field type %s cannot hold an int64", typeName)
		}
	default:
		return nil, fmt.Errorf("cannot convert config file value to kind %s", kind)
	}
}

// flagWasSet reports whether the user supplied the flag, either on the
// command line or through the flag's EnvVar. cli.Context.IsSet only covers
// the former, so the EnvVar is checked by hand.
func (l *Loader) flagWasSet(cliName string) bool {
	if l.CLI.IsSet(cliName) {
		return true
	}

	for _, flag := range l.CLI.Command.Flags {
		name, _ := reflections.GetField(flag, "Name")
		if name != cliName {
			continue
		}
		envVar, _ := reflections.GetField(flag, "EnvVar")
		if s, ok := envVar.(string); ok && s != "" {
			return os.Getenv(strings.TrimSpace(s)) != ""
		}
	}
	return false
}

func (l *Loader) fieldIsEmpty(field string) bool {
	value, _ := reflections.GetField(l.Config, field)
	kind, _ := reflections.GetFieldKind(l.Config, field)

	switch kind {
	case reflect.String:
		return value == ""
	case reflect.Slice:
		return reflect.ValueOf(value).Len() == 0
	case reflect.Bool:
		return value == false
	case reflect.Int:
		return value == 0
	default:
		panic(fmt.Sprintf("cannot decide emptiness for field kind %s", kind))
	}
}

func (l *Loader) validateField(field, cliName, rules string) error {
	label, _ := reflections.GetFieldTag(l.Config, field, "label")
	if label == "" {
		label = cliName
	}
	if label == "" {
		label = field
	}

	for rule := range strings.SplitSeq(rules, ",") {
		switch rule {
		case "required":
			if l.fieldIsEmpty(field) {
				return l.Errorf("Missing %s.", label)
			}

		case "file-exists":
			value, _ := reflections.GetField(l.Config, field)
			path, ok := value.(string)
			if !ok {
				continue
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("couldn't find %s at %s: %w", label, path, err)
			}

		default:
			return fmt.Errorf("unknown validation rule %q in cli tag", rule)
		}
	}
	return nil
}

func (l *Loader) normalizeField(field, normalization string) error {
	switch normalization {
	case "filepath":
		return l.rewriteStringField(field, osutil.NormalizeFilePath)

	case "commandpath":
		return l.rewriteStringField(field, osutil.NormalizeCommand)

	case "list":
		kind, _ := reflections.GetFieldKind(l.Config, field)
		if kind != reflect.Slice {
			return fmt.Errorf("list normalization needs a slice field, not %s", kind)
		}
		value, _ := reflections.GetField(l.Config, field)
		items, ok := value.([]string)
		if !ok {
			return nil
		}
		split := []string{}
		for _, item := range items {
			for piece := range strings.SplitSeq(item, ",") {
				if piece == "" {
					continue
				}
				split = append(split, strings.TrimSpace(piece))
			}
		}
		return reflections.SetField(l.Config, field, split)

	default:
		return fmt.Errorf("unknown normalize tag %q", normalization)
	}
}

// rewriteStringField passes a string field's value through f and stores the
// result back.
func (l *Loader) rewriteStringField(field string, f func(string) (string, error)) error {
	kind, _ := reflections.GetFieldKind(l.Config, field)
	if kind != reflect.String {
		return fmt.Errorf("normalization needs a string field, not %s", kind)
	}

	value, _ := reflections.GetField(l.Config, field)
	s, ok := value.(string)
	if !ok {
		return nil
	}
	out, err := f(s)
	if err != nil {
		return err
	}
	return reflections.SetField(l.Config, field, out)
}
