package envfile

import (
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindNull
	KindUndefined
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	}
	return "unknown"
}

// Value is a typed env value. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Null() Value            { return Value{Kind: KindNull} }
func Undefined() Value       { return Value{Kind: KindUndefined} }
func NaN() Value             { return Number(math.NaN()) }

func (v Value) IsString() bool { return v.Kind == KindString }

// String renders v the way it is substituted into other values and exported
// to a process environment.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return formatNumber(v.Num)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	}
	return ""
}

// Interface returns v as a plain Go value for encoders: string, float64,
// bool or nil. NaN has no JSON form and is returned as the string "NaN".
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		if math.IsNaN(v.Num) {
			return "NaN"
		}
		return v.Num
	case KindBool:
		return v.Bool
	}
	return nil
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	if abs := math.Abs(n); abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(n, 'g', -1, 64)
		// Exponents print without zero padding: 1e-7, not 1e-07.
		if i := strings.IndexByte(s, 'e'); i >= 0 && i+2 < len(s) {
			s = s[:i+2] + strings.TrimLeft(s[i+2:], "0")
		}
		return s
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
