package envfile

import (
	"errors"
	"regexp"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/xmazu/dotenvng/internal/logging"
)

var lineBreak = regexp.MustCompile(`\r?\n\r?`)

// Result is the unit returned by every parse operation and merged across
// files.
type Result struct {
	Data     *Data
	Errors   []ParseError
	Optional []string
}

func NewResult() *Result {
	return &Result{
		Data:     NewData(),
		Errors:   []ParseError{},
		Optional: []string{},
	}
}

func (r *Result) IsOptional(key string) bool {
	return slices.Contains(r.Optional, key)
}

// Merge folds other into r: data entries overwrite, errors and optional keys
// are appended in order.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Data.Merge(other.Data)
	r.Errors = append(r.Errors, other.Errors...)
	r.Optional = append(r.Optional, other.Optional...)
}

type Entry struct {
	Key      string
	Value    Value
	Optional bool
}

// ParseLine tokenizes and types a single line. It returns nil, nil for blank
// and comment lines and a ParseError for lines that cannot be stored.
func ParseLine(raw string, num int, opts Options) (*Entry, error) {
	line := Tokenize(raw, num)

	switch line.Type {
	case LineTypeEmpty, LineTypeComment:
		return nil, nil
	case LineTypeInvalid:
		return nil, ParseError{Line: num, Kind: ErrMissingKey, Data: raw}
	}

	if !line.Assigned {
		if !opts.AllowOrphanKeys {
			return nil, ParseError{Line: num, Kind: ErrOrphanKey, Data: raw}
		}
		line.Value = ""
	}

	if line.Value == "" && !opts.AllowEmptyVariables {
		return nil, ParseError{Line: num, Kind: ErrEmptyVariable, Data: raw}
	}

	return &Entry{
		Key:      line.Key,
		Value:    TypeValue(line.Value, opts),
		Optional: line.Optional,
	}, nil
}

// Parse parses a whole env text. Failures are collected per line and never
// stop the parse. label names the source in reported errors.
func Parse(content, label string, opts Options) *Result {
	log := logging.For("parser")
	lines := lineBreak.Split(content, -1)
	log.WithFields(logrus.Fields{"source": label, "lines": len(lines)}).Debug("parsing")

	result := NewResult()
	for i, raw := range lines {
		entry, err := ParseLine(raw, i+1, opts)
		if err != nil {
			var pe ParseError
			if !errors.As(err, &pe) {
				pe = ParseError{Line: i + 1, Data: raw}
			}
			pe.File = label
			log.WithFields(logrus.Fields{"line": pe.Line, "error": pe.Kind}).Debug("rejected line")
			result.Errors = append(result.Errors, pe)
			continue
		}
		if entry == nil {
			continue
		}
		log.WithFields(logrus.Fields{
			"line":  i + 1,
			"key":   entry.Key,
			"kind":  entry.Value.Kind,
			"value": logging.Mask(entry.Value.String()),
		}).Trace("parsed line")
		result.Data.Set(entry.Key, entry.Value)
		if entry.Optional {
			result.Optional = append(result.Optional, entry.Key)
		}
	}

	Interpolate(result.Data, result.Optional, opts)
	if opts.Normalize {
		result.Data = NormalizeKeys(result.Data)
	}

	log.WithFields(logrus.Fields{
		"keys":     logging.Keys(result.Data.Keys()),
		"errors":   len(result.Errors),
		"optional": logging.Keys(result.Optional),
	}).Debug("parsed")
	return result
}
