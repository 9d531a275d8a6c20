package envfile

import (
	"strconv"
	"strings"
	"unicode"
)

// Rule is one step of the value typing chain.
type Rule interface {
	Match(value string, opts Options) bool
	Parse(value string, opts Options) Value
}

// Rules are evaluated in order and the first match wins. Numbers are tried
// before quoted strings, and quoted strings before literals.
func defaultRules() []Rule {
	return []Rule{
		&EmptyRule{},
		&NumberRule{},
		&QuotedStringRule{},
		&LiteralRule{},
	}
}

var rules = defaultRules()

// TypeValue turns a trimmed raw value into a typed Value. Values no rule
// matches stay strings.
func TypeValue(value string, opts Options) Value {
	for _, rule := range rules {
		if rule.Match(value, opts) {
			return rule.Parse(value, opts)
		}
	}
	return String(value)
}

type EmptyRule struct{}

func (r *EmptyRule) Match(value string, _ Options) bool {
	return value == ""
}

func (r *EmptyRule) Parse(string, Options) Value {
	return String("")
}

type NumberRule struct{}

func (r *NumberRule) prepare(value string) string {
	return strings.Map(func(c rune) rune {
		if c == '_' || unicode.IsSpace(c) {
			return -1
		}
		return c
	}, value)
}

func (r *NumberRule) Match(value string, opts Options) bool {
	if !opts.ParseNumbers {
		return false
	}
	_, ok := parseNumber(r.prepare(value))
	return ok
}

func (r *NumberRule) Parse(value string, _ Options) Value {
	n, _ := parseNumber(r.prepare(value))
	return Number(n)
}

// parseNumber accepts finite decimal numbers with optional exponent and
// unsigned 0x, 0o and 0b integers.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if n, ok := parsePrefixedInt(s); ok {
		return n, true
	}
	// ParseFloat also knows hex floats, "inf" and "nan".
	if strings.ContainsAny(strings.ToLower(s), "xpn") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parsePrefixedInt(s string) (float64, bool) {
	if len(s) < 3 || s[0] != '0' {
		return 0, false
	}
	switch s[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
	default:
		return 0, false
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}

type QuotedStringRule struct{}

func (r *QuotedStringRule) Match(value string, _ Options) bool {
	if len(value) < 2 {
		return false
	}
	q := value[0]
	return (q == '"' || q == '\'') && value[len(value)-1] == q
}

func (r *QuotedStringRule) Parse(value string, _ Options) Value {
	return String(value[1 : len(value)-1])
}

type LiteralRule struct{}

var literals = map[string]Value{
	"null":      Null(),
	"undefined": Undefined(),
	"true":      Bool(true),
	"false":     Bool(false),
	"nan":       NaN(),
	"NaN":       NaN(),
}

func (r *LiteralRule) prepare(value string, opts Options) string {
	if opts.IgnoreLiteralCase {
		return strings.ToLower(value)
	}
	return value
}

func (r *LiteralRule) Match(value string, opts Options) bool {
	if !opts.ParseLiterals {
		return false
	}
	_, ok := literals[r.prepare(value, opts)]
	return ok
}

func (r *LiteralRule) Parse(value string, opts Options) Value {
	return literals[r.prepare(value, opts)]
}
