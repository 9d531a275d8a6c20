package envfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		base      map[string]string
		overwrite bool
		disabled  bool
		key       string
		want      string
	}{
		{
			name:    "references earlier value",
			content: "A=x\nB=${A}-y",
			key:     "B",
			want:    "x-y",
		},
		{
			name:    "every reference in one pass",
			content: "A=x\nB=y\nC=${A}/${B}/${A}",
			key:     "C",
			want:    "x/y/x",
		},
		{
			name:    "unresolved reference kept",
			content: "A=${MISSING} and ${}",
			key:     "A",
			want:    "${MISSING} and ${}",
		},
		{
			name:    "resolved earlier values feed later ones",
			content: "A=x\nB=${A}\nC=${B}",
			key:     "C",
			want:    "x",
		},
		{
			name:    "substituted text is not rescanned",
			content: "C=${B}\nB=${A}\nA=x",
			key:     "C",
			want:    "${A}",
		},
		{
			name:    "typed values rendered",
			content: "N=1_000\nT=TRUE\nZ=null\nS=${N} ${T} ${Z}",
			key:     "S",
			want:    "1000 true null",
		},
		{
			name:    "quoted values interpolated",
			content: "A=x\nB=\"${A} quoted\"",
			key:     "B",
			want:    "x quoted",
		},
		{
			name:    "base environment used",
			content: "A=${HOME_DIR}/bin",
			base:    map[string]string{"HOME_DIR": "/home/me"},
			key:     "A",
			want:    "/home/me/bin",
		},
		{
			name:    "base wins without overwrite",
			content: "A=file\nB=${A}",
			base:    map[string]string{"A": "env"},
			key:     "B",
			want:    "env",
		},
		{
			name:      "file wins with overwrite",
			content:   "A=file\nB=${A}",
			base:      map[string]string{"A": "env"},
			overwrite: true,
			key:       "B",
			want:      "file",
		},
		{
			name:      "optional key yields to base even with overwrite",
			content:   "A?=file\nB=${A}",
			base:      map[string]string{"A": "env"},
			overwrite: true,
			key:       "B",
			want:      "env",
		},
		{
			name:     "disabled interpolation is a passthrough",
			content:  "A=x\nB=${A}",
			disabled: true,
			key:      "B",
			want:     "${A}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Base = tt.base
			if opts.Base == nil {
				opts.Base = map[string]string{}
			}
			opts.OverwriteExisting = tt.overwrite
			opts.InterpolationEnabled = !tt.disabled

			got := Parse(tt.content, "", opts)
			v, ok := got.Data.Get(tt.key)
			if !ok {
				t.Fatalf("%s missing from %v", tt.key, got.Data.Keys())
			}
			if v != String(tt.want) {
				t.Errorf("%s = %#v, want %q", tt.key, v, tt.want)
			}
		})
	}
}

func TestInterpolateUsesProcessEnvironment(t *testing.T) {
	t.Setenv("DOTENVNG_INTERPOLATE_TEST", "from-process")

	got := Parse("A=${DOTENVNG_INTERPOLATE_TEST}", "", DefaultOptions())
	if v, _ := got.Data.Get("A"); v != String("from-process") {
		t.Errorf("A = %v, want from-process", v)
	}
}

func TestEffectiveValues(t *testing.T) {
	data := NewData()
	data.Set("SHARED", String("file"))
	data.Set("OPTIONAL", String("file"))
	data.Set("ONLY_FILE", Number(3))
	base := map[string]string{"SHARED": "env", "OPTIONAL": "env", "ONLY_ENV": "env"}

	tests := []struct {
		name      string
		overwrite bool
		want      map[string]Value
	}{
		{
			name: "base kept",
			want: map[string]Value{
				"SHARED":    String("env"),
				"OPTIONAL":  String("env"),
				"ONLY_ENV":  String("env"),
				"ONLY_FILE": Number(3),
			},
		},
		{
			name:      "overwrite except optional",
			overwrite: true,
			want: map[string]Value{
				"SHARED":    String("file"),
				"OPTIONAL":  String("env"),
				"ONLY_ENV":  String("env"),
				"ONLY_FILE": Number(3),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Base = base
			opts.OverwriteExisting = tt.overwrite

			got := EffectiveValues(data, []string{"OPTIONAL"}, opts)
			if diff := cmp.Diff(tt.want, got.Map()); diff != "" {
				t.Errorf("EffectiveValues() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if v, _ := data.Get("SHARED"); v != String("file") {
		t.Errorf("EffectiveValues() modified its input: SHARED = %v", v)
	}
}
