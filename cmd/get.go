package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/xmazu/dotenvng/internal/envfile"
	"github.com/xmazu/dotenvng/internal/runenv"
	"github.com/xmazu/dotenvng/internal/source"
	"github.com/xmazu/dotenvng/internal/tui"
	"gopkg.in/yaml.v3"
)

var getCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Print parsed value(s)",
	Long: `Print one or all values of a .env file or layered directory.
Without --load, the nearest directory holding a .env (current or parent) is used.
Without KEY, all values are printed as JSON with their types (numbers, booleans,
null). With KEY, the raw value is printed (for scripts: $(dotenvng get KEY)).
Use --format shell, eval, yaml or table for other output, --effective to resolve values
against the process environment, and --masked to print a masked value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGet,
}

var (
	getParse     parseFlags
	getFormat    string
	getMasked    bool
	getEffective bool
)

func init() {
	getParse.register(getCmd, "Path to a .env file or directory (default: nearest .env in current or parent directories)")
	getCmd.Flags().StringVar(&getFormat, "format", "json", "Output format: json, shell, eval, yaml or table (raw value when KEY given)")
	getCmd.Flags().BoolVar(&getMasked, "masked", false, "Mask values instead of printing plaintext")
	getCmd.Flags().BoolVar(&getEffective, "effective", false, "Include the process environment and let it win as 'run' would")
	rootCmd.AddCommand(getCmd)
}

func stdout(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}

// loadTarget resolves load, defaulting to the nearest directory with a .env.
func loadTarget(load string) (string, error) {
	if load == "" {
		return runenv.FindEnvInParents("", runenv.MaxEnvSearchDepth)
	}
	return runenv.ResolveEnvPath(load, "")
}

func runGet(cmd *cobra.Command, args []string) error {
	path, err := loadTarget(getParse.load)
	if err != nil {
		return err
	}
	opts := getParse.options(cmd)
	opts.Base = envfile.Environ()

	result, err := source.Resolve(path, opts)
	if err != nil {
		return err
	}
	data := result.Data
	if getEffective {
		data = envfile.EffectiveValues(result.Data, result.Optional, opts)
	}
	out := stdout(cmd)

	if len(args) == 1 {
		key := args[0]
		v, ok := data.Get(key)
		if !ok {
			return fmt.Errorf("key %q not found", key)
		}
		value := v.String()

		if getMasked {
			return writeJSON(out, map[string]any{
				"key":          key,
				"masked_value": runenv.MaskSecretValue(value),
				"value_length": len(value),
			}, true)
		}
		switch getFormat {
		case "shell":
			fmt.Fprint(out, shellWord(key)+"="+shellWord(value))
		case "eval":
			fmt.Fprint(out, shellWord(key)+"="+shellQuote(value))
		default:
			fmt.Fprint(out, value)
		}
		return nil
	}

	if getMasked {
		masked := envfile.NewData()
		for _, k := range data.Keys() {
			v, _ := data.Get(k)
			masked.Set(k, envfile.String(runenv.MaskSecretValue(v.String())))
		}
		data = masked
	}

	switch getFormat {
	case "shell":
		var b strings.Builder
		for i, k := range sortedKeys(data) {
			if i > 0 {
				b.WriteString(" ")
			}
			v, _ := data.Get(k)
			b.WriteString(shellWord(k) + "=" + shellWord(v.String()))
		}
		fmt.Fprint(out, b.String())
		return nil
	case "eval":
		for _, k := range sortedKeys(data) {
			v, _ := data.Get(k)
			fmt.Fprintln(out, shellWord(k)+"="+shellQuote(v.String()))
		}
		return nil
	case "table":
		writeTable(out, data, result)
		return nil
	case "yaml":
		return writeYAML(out, data)
	case "json":
		typed := make(map[string]any, data.Len())
		for _, k := range data.Keys() {
			v, _ := data.Get(k)
			typed[k] = v.Interface()
		}
		return writeJSON(out, typed, false)
	}
	return fmt.Errorf("unknown format %q: use json, shell, eval, yaml or table", getFormat)
}

func sortedKeys(data *envfile.Data) []string {
	return runenv.SortedKeys(runenv.StringMap(data))
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeYAML prints data as a mapping in key order with typed scalars.
func writeYAML(w io.Writer, data *envfile.Data) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range data.Keys() {
		v, _ := data.Get(k)
		val := &yaml.Node{}
		if err := val.Encode(v.Interface()); err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, val)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// writeTable prints one key per line in file order with the value kind.
// Keys declared with ?= are marked optional.
func writeTable(w io.Writer, data *envfile.Data, result *envfile.Result) {
	const keyWidth, kindWidth = 20, 9
	for _, k := range data.Keys() {
		v, _ := data.Get(k)
		key := tui.FormatKeyDisplay(k)
		kind := tui.Type(v.Kind.String())
		line := key + pad(key, keyWidth) + "  " + kind + pad(kind, kindWidth) + "  " + v.String()
		if result.IsOptional(k) {
			line += " " + tui.Muted("(optional)")
		}
		fmt.Fprintln(w, line)
	}
}

func pad(rendered string, width int) string {
	if n := width - lipgloss.Width(rendered); n > 0 {
		return strings.Repeat(" ", n)
	}
	return ""
}

// shellQuote single-quotes s. A POSIX shell reads the result back verbatim,
// with no parameter, command or backtick expansion.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// shellWord leaves s bare when every rune is shell-safe and quotes it
// otherwise.
func shellWord(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool { return !shellSafe(r) }) < 0 {
		return s
	}
	return shellQuote(s)
}

func shellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("_-./:@%+,=", r)
}
