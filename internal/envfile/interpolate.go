package envfile

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xmazu/dotenvng/internal/logging"
)

var reference = regexp.MustCompile(`\$\{(.*?)\}`)

// Interpolate replaces ${NAME} references in string values, in key order and
// in place. Each value is scanned once; substituted text is not rescanned and
// a key never resolves against itself. Unknown references stay verbatim.
func Interpolate(data *Data, optional []string, opts Options) {
	if !opts.InterpolationEnabled {
		return
	}
	log := logging.For("interpolate")

	base := opts.base()
	opt := optionalSet(optional)
	lookup := EffectiveValues(data, optional, opts).Map()

	for _, key := range data.Keys() {
		v, _ := data.Get(key)
		if !v.IsString() || !strings.Contains(v.Str, "${") {
			continue
		}
		resolved := substitute(key, v.Str, lookup)
		log.WithFields(logrus.Fields{"key": key, "value": logging.Mask(resolved)}).Trace("interpolated")
		data.Set(key, String(resolved))
		if fileWins(key, opt, base, opts.OverwriteExisting) {
			lookup[key] = String(resolved)
		}
	}
}

func substitute(key, value string, lookup map[string]Value) string {
	return reference.ReplaceAllStringFunc(value, func(m string) string {
		name := m[2 : len(m)-1]
		if name == key {
			return m
		}
		if v, ok := lookup[name]; ok {
			return v.String()
		}
		return m
	})
}

// EffectiveValues resolves data against the base environment of opts. A file
// value wins when the key is missing from the base, or when OverwriteExisting
// is set and the key is not optional. Optional keys always yield to the base.
func EffectiveValues(data *Data, optional []string, opts Options) *Data {
	base := opts.base()
	opt := optionalSet(optional)

	out := DataFrom(base)
	for _, key := range data.Keys() {
		if fileWins(key, opt, base, opts.OverwriteExisting) {
			v, _ := data.Get(key)
			out.Set(key, v)
		}
	}
	return out
}

func fileWins(key string, optional map[string]bool, base map[string]string, overwrite bool) bool {
	if _, ok := base[key]; !ok {
		return true
	}
	return overwrite && !optional[key]
}

func optionalSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
