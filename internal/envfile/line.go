package envfile

import "strings"

type LineType int

const (
	LineTypeEmpty LineType = iota
	LineTypeComment
	LineTypeVariable
	LineTypeInvalid
)

type Line struct {
	Type          LineType
	Num           int
	Raw           string
	Key           string
	Value         string
	InlineComment string
	// Assigned is false for orphan keys (no "=").
	Assigned bool
	// Optional is set by a "?" between key and "=".
	Optional bool
}

// Tokenize splits one physical line into its parts. Lines without a key are
// returned as LineTypeInvalid, never dropped.
func Tokenize(raw string, num int) *Line {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &Line{Type: LineTypeEmpty, Num: num, Raw: raw}
	}
	if strings.HasPrefix(trimmed, "#") {
		return &Line{Type: LineTypeComment, Num: num, Raw: raw}
	}

	rest := cutExport(trimmed)

	var key string
	if idx := strings.IndexAny(rest, "=?#"); idx >= 0 {
		key, rest = rest[:idx], rest[idx:]
	} else {
		key, rest = rest, ""
	}

	line := &Line{Type: LineTypeVariable, Num: num, Raw: raw}

	if after, ok := strings.CutPrefix(rest, "?"); ok {
		line.Optional = true
		rest = strings.TrimLeft(after, " \t")
	}
	if after, ok := strings.CutPrefix(rest, "="); ok {
		line.Assigned = true
		line.Value, line.InlineComment = parseInlineComment(after)
	}

	line.Key = unquoteKey(strings.TrimSpace(key))
	if line.Key == "" {
		line.Type = LineTypeInvalid
	}
	return line
}

func cutExport(s string) string {
	after, ok := strings.CutPrefix(s, "export")
	if !ok || after == "" || (after[0] != ' ' && after[0] != '\t') {
		return s
	}
	return strings.TrimLeft(after, " \t")
}

func unquoteKey(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func parseInlineComment(valuePart string) (value, inlineComment string) {
	commentIdx := findInlineCommentStart(valuePart)
	if commentIdx == -1 {
		return strings.TrimSpace(valuePart), ""
	}
	value = strings.TrimSpace(valuePart[:commentIdx])
	inlineComment = valuePart[commentIdx:]
	return value, inlineComment
}

// findInlineCommentStart returns the index of the first "#" in s, skipping a
// leading quoted section when it is closed.
func findInlineCommentStart(s string) int {
	i := len(s) - len(strings.TrimLeft(s, " \t"))
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		if end := strings.IndexByte(s[i+1:], s[i]); end >= 0 {
			i += end + 2
		}
	}
	idx := strings.IndexByte(s[i:], '#')
	if idx == -1 {
		return -1
	}
	start := i + idx
	for start > 0 && (s[start-1] == ' ' || s[start-1] == '\t') {
		start--
	}
	return start
}
