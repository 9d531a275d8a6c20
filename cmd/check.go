package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xmazu/dotenvng/internal/envfile"
	"github.com/xmazu/dotenvng/internal/source"
	"github.com/xmazu/dotenvng/internal/tui"
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Report parse errors in .env files",
	Long: `Parse a .env file or layered directory and list every malformed line:
missing keys (=value), orphan keys (KEY without =) and empty variables (KEY=)
when the options reject them. Exits with status 1 when any error is found.
Without a path, the nearest directory holding a .env (current or parent) is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

var (
	checkParse parseFlags
	checkJSON  bool
)

func init() {
	checkParse.register(checkCmd, "Path to a .env file or directory (same as the path argument)")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print errors as JSON")
	rootCmd.AddCommand(checkCmd)
}

type checkReport struct {
	Path   string       `json:"path"`
	Keys   int          `json:"keys"`
	Errors []checkError `json:"errors"`
}

type checkError struct {
	File        string `json:"file"`
	Line        int    `json:"line"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Data        string `json:"data"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	load := checkParse.load
	if len(args) == 1 {
		load = args[0]
	}
	path, err := loadTarget(load)
	if err != nil {
		return err
	}
	opts := checkParse.options(cmd)
	opts.Base = envfile.Environ()

	result, err := source.Resolve(path, opts)
	if err != nil {
		return err
	}
	out := stdout(cmd)

	report := checkReport{Path: path, Keys: result.Data.Len(), Errors: []checkError{}}
	for _, e := range result.Errors {
		report.Errors = append(report.Errors, checkError{
			File:        e.File,
			Line:        e.Line,
			Kind:        string(e.Kind),
			Description: e.Kind.Description(),
			Data:        e.Data,
		})
	}

	if checkJSON {
		if err := writeJSON(out, report, true); err != nil {
			return err
		}
	} else if len(result.Errors) == 0 {
		fmt.Fprintf(out, "%s %s: %s, no errors\n", tui.Success("✓"), path, tui.Count(report.Keys, "key"))
	} else {
		for _, e := range result.Errors {
			fmt.Fprintf(out, "%s %s %s\n", tui.Location(e.File, e.Line), tui.Error(e.Kind.Description()), tui.Muted(e.Data))
		}
		fmt.Fprintf(out, "\n%s in %s\n", tui.Count(len(result.Errors), "error"), path)
	}

	if len(result.Errors) > 0 {
		return &ExitError{Code: 1}
	}
	return nil
}
