package envfile

import "fmt"

type ErrorKind string

const (
	ErrMissingKey    ErrorKind = "MISSING_KEY"
	ErrOrphanKey     ErrorKind = "ORPHAN_KEY"
	ErrEmptyVariable ErrorKind = "EMPTY_VARIABLE"
)

func (k ErrorKind) Description() string {
	switch k {
	case ErrMissingKey:
		return "line has no key"
	case ErrOrphanKey:
		return "key has no assignment"
	case ErrEmptyVariable:
		return "variable has no value"
	}
	return string(k)
}

// ParseError reports one line that could not be stored. File is empty when
// the text did not come from a file.
type ParseError struct {
	File string
	Line int
	Kind ErrorKind
	Data string
}

func (e ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Kind.Description())
	}
	return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Kind, e.Kind.Description())
}
