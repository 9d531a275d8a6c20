package envfile

import (
	"os"
	"sort"
	"strings"
)

// Options is the configuration snapshot consumed by every parse stage. It is
// passed by value; the parser keeps no configuration of its own.
type Options struct {
	// IgnoreLiteralCase matches null, true, ... regardless of case.
	IgnoreLiteralCase bool
	// ParseLiterals types null, undefined, true, false and NaN.
	ParseLiterals bool
	// ParseNumbers types numeric values as numbers.
	ParseNumbers bool
	// AllowEmptyVariables accepts KEY= lines.
	AllowEmptyVariables bool
	// AllowOrphanKeys accepts lines without "=" as empty variables.
	AllowOrphanKeys bool
	// InterpolationEnabled substitutes ${NAME} references.
	InterpolationEnabled bool
	// OverwriteExisting lets file values win over the base environment.
	OverwriteExisting bool
	// Normalize adds an UPPER_CASE alias for every key.
	Normalize bool
	// Environment selects .env.<Environment> when a directory is resolved.
	Environment string
	// Base is the external mapping references are resolved against. Nil means
	// the host process environment at call time.
	Base map[string]string
}

func DefaultOptions() Options {
	return Options{
		IgnoreLiteralCase:    true,
		ParseLiterals:        true,
		ParseNumbers:         true,
		AllowEmptyVariables:  true,
		AllowOrphanKeys:      false,
		InterpolationEnabled: true,
		OverwriteExisting:    false,
		Normalize:            false,
	}
}

func (o Options) base() map[string]string {
	if o.Base != nil {
		return o.Base
	}
	return Environ()
}

// Environ snapshots the host process environment.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
