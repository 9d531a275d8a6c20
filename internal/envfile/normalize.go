package envfile

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeKey upper-cases key and replaces whitespace runs with "_".
func NormalizeKey(key string) string {
	return whitespaceRun.ReplaceAllString(strings.ToUpper(key), "_")
}

// NormalizeKeys returns a copy of data with a normalized alias added for every
// key. Original keys are kept.
func NormalizeKeys(data *Data) *Data {
	out := data.Clone()
	for _, key := range data.Keys() {
		v, _ := data.Get(key)
		out.Set(NormalizeKey(key), v)
	}
	return out
}
