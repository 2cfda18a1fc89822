package env

import (
	"regexp"
	"strings"
)

var (
	// A POSIX shell export line: `declare -x NAME="value"`. The value may
	// be absent, or open a quoted string that runs over multiple lines.
	posixDeclareRE = regexp.MustCompile(`\Adeclare -[aAfFgiIlnrtux]+ ([a-zA-Z_]+[a-zA-Z0-9_]*)(=")?(.+)?\z`)

	// A `"` that closes a quoted value: either a whole line of its own, or
	// preceded by anything except a backslash.
	closingQuoteRE = regexp.MustCompile(`([^\\]"\z|\A"\z)`)
)

// Declare options whose variables cannot round-trip through a flat
// NAME=value environment: arrays (-a, -A), name references (-n), and
// integers (-i).
const skipDeclareOpts = "aAni"

// FromExport parses a shell's environment export: the output of `export -p`
// on POSIX systems, or `SET` on Windows. POSIX output looks like
//
//	declare -x USER="toolsmith"
//	declare -x GANTRY_BRANCH="main"
//	declare -x MOTD="hello
//	friends"
//
// while Windows SET output is plain NAME=value lines. The format is detected
// from the first line.
func FromExport(body string) *Environment {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")

	if !posixDeclareRE.MatchString(lines[0]) {
		// SET output is already the shape FromSlice understands.
		return FromSlice(lines)
	}
	return parsePosixExport(lines)
}

func parsePosixExport(lines []string) *Environment {
	env := New()

	// Name and collected lines of a quoted value that hasn't closed yet.
	var openName string
	var openValue []string

	for _, line := range lines {
		if openName != "" {
			// Every line up to one ending in an unescaped quote
			// belongs to the open value, even lines that look like
			// new declarations.
			openValue = append(openValue, line)

			if closingQuoteRE.MatchString(line) {
				joined := strings.Join(openValue, "\n")
				env.Set(openName, unescape(strings.TrimSuffix(joined, `"`)))
				openName, openValue = "", nil
			}
			continue
		}

		if strings.HasPrefix(line, "declare") {
			// `export -p` coalesces options into a single argument,
			// so a declaration splits into exactly three parts:
			// "declare", the options, and the NAME="value" remainder.
			parts := strings.SplitN(line, " ", 3)
			if len(parts) < 3 {
				continue
			}
			if strings.ContainsAny(parts[1], skipDeclareOpts) {
				continue
			}
			line = parts[2]
		}

		// Three shapes remain: NAME="value" complete on this line,
		// NAME="start of a value that continues below, or a bare NAME
		// exported without a value.
		name, value, hasValue := strings.Cut(line, `="`)
		switch {
		case !hasValue:
			env.Set(name, "")
		case closingQuoteRE.MatchString(value):
			env.Set(name, unescape(strings.TrimSuffix(value, `"`)))
		default:
			openName = name
			openValue = []string{value}
		}
	}

	return env
}

// unescape reverses the escaping `export -p` applies within double quotes.
// Backslash pairs collapse first, then escaped dollars, quotes and backticks
// become literal.
func unescape(value string) string {
	for _, esc := range [][2]string{
		{`\\`, `\`},
		{`\$`, `$`},
		{`\"`, `"`},
		{"\\`", "`"},
	} {
		value = strings.ReplaceAll(value, esc[0], esc[1])
	}
	return value
}
