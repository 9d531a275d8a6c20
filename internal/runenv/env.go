package runenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xmazu/dotenvng/internal/envfile"
	"github.com/xmazu/dotenvng/internal/logging"
	"github.com/xmazu/dotenvng/internal/source"
)

// StringMap renders every value of data as it would appear in a process
// environment. Undefined values have no string form and are left out.
func StringMap(data *envfile.Data) map[string]string {
	out := make(map[string]string, data.Len())
	for _, k := range data.Keys() {
		v, _ := data.Get(k)
		if v.Kind == envfile.KindUndefined {
			continue
		}
		out[k] = v.String()
	}
	return out
}

// FileValues resolves the keys defined in data against the base environment
// of opts. A key the base environment wins for carries the base value, so the
// returned map can be layered over the process environment as is.
func FileValues(data *envfile.Data, optional []string, opts envfile.Options) map[string]string {
	effective := envfile.EffectiveValues(data, optional, opts)
	out := make(map[string]string, data.Len())
	for _, k := range data.Keys() {
		v, _ := effective.Get(k)
		if v.Kind == envfile.KindUndefined {
			continue
		}
		out[k] = v.String()
	}
	return out
}

// Effective returns the full effective environment of result: the base
// environment with the file values layered according to opts.
func Effective(result *envfile.Result, opts envfile.Options) map[string]string {
	return StringMap(envfile.EffectiveValues(result.Data, result.Optional, opts))
}

// SortedKeys returns the keys of values in lexical order.
func SortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply writes values into the process environment.
func Apply(values map[string]string) error {
	for _, k := range SortedKeys(values) {
		if err := os.Setenv(k, values[k]); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

// Load resolves path and applies the resulting values to the process
// environment. Parse errors are returned in the result, not as an error.
func Load(path string, opts envfile.Options) (*envfile.Result, error) {
	if opts.Base == nil {
		opts.Base = envfile.Environ()
	}
	result, err := source.Resolve(path, opts)
	if err != nil {
		return nil, err
	}
	values := FileValues(result.Data, result.Optional, opts)
	logging.For("runenv").WithFields(logrus.Fields{
		"path": path,
		"keys": logging.Keys(result.Data.Keys()),
	}).Debug("applying values")
	if err := Apply(values); err != nil {
		return nil, err
	}
	return result, nil
}

var ErrInvalidVar = errors.New("invalid variable")

// MergeOverlayEnv parses each KEY=value of overlay with the env file rules
// and stores it into data, replacing any value loaded from a file. Keys
// marked optional with KEY?=value are added to the returned list.
func MergeOverlayEnv(data *envfile.Data, overlay []string, opts envfile.Options) ([]string, error) {
	var optional []string
	for i, s := range overlay {
		if !strings.Contains(s, "=") {
			return nil, fmt.Errorf("%w %q: expected KEY=value", ErrInvalidVar, s)
		}
		entry, err := envfile.ParseLine(s, i+1, opts)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidVar, s, err)
		}
		if entry == nil {
			return nil, fmt.Errorf("%w %q: expected KEY=value", ErrInvalidVar, s)
		}
		data.Set(entry.Key, entry.Value)
		if entry.Optional {
			optional = append(optional, entry.Key)
		}
	}
	return optional, nil
}

func ResolveEnvPath(path, workdir string) (string, error) {
	if path == "" {
		path = "."
	}
	if workdir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(workdir, path)
	}
	return filepath.Abs(path)
}

const MaxEnvSearchDepth = 16

// FindEnvInParents walks up from dir looking for a .env file and returns
// the directory holding it, so the whole layer set of that directory loads.
func FindEnvInParents(dir string, maxDepth int) (string, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}
	for i := 0; i < maxDepth; i++ {
		if _, err := os.Stat(filepath.Join(dir, source.BaseFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no .env found in current or parent directories (searched up to %d levels)", maxDepth)
}

func MaskSecretValue(value string) string {
	length := len(value)
	if length == 0 {
		return ""
	}
	switch {
	case length <= 4:
		return strings.Repeat("*", length)
	case length <= 8:
		return strings.Repeat("*", length-2) + value[length-2:]
	default:
		return strings.Repeat("*", length-4) + value[length-4:]
	}
}
