package console

import (
	"fmt"
	"strings"
)

// splitArgs splits a command line on whitespace. Double quotes group
// words, also inside key="a b" options; a backslash escapes the next rune.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		escaped bool
		started bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped, started = true, true
		case r == '"':
			inQuote, started = !inQuote, true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}

// options separates key=value options from positional arguments. A bare
// word listed in flags counts as key=true.
func options(args []string, flags ...string) (positional []string, opts map[string]string) {
	opts = map[string]string{}
	for _, a := range args {
		if k, v, ok := strings.Cut(a, "="); ok && k != "" {
			opts[strings.ToLower(k)] = v
			continue
		}
		if isFlag(a, flags) {
			opts[strings.ToLower(a)] = "true"
			continue
		}
		positional = append(positional, a)
	}
	return positional, opts
}

func isFlag(a string, flags []string) bool {
	for _, f := range flags {
		if strings.EqualFold(a, f) {
			return true
		}
	}
	return false
}
