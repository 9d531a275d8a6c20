package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xmazu/dotenvng/internal/config"
	"github.com/xmazu/dotenvng/internal/envfile"
	"github.com/xmazu/dotenvng/internal/source"
	"github.com/xmazu/dotenvng/internal/tui"
	"github.com/xmazu/dotenvng/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .dotenvng.yaml project file",
	Long: `Initialize a dotenvng project.

Finds the workspace root (monorepo markers or current directory) and writes
.dotenvng.yaml there with every parser option set to its default, so the team
shares one set of options. Creates an empty .env when the workspace has no env
files, and checks the existing ones.`,
	RunE: runInit,
}

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing .dotenvng.yaml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	wsRoot, err := workspace.FindRoot(".")
	if err != nil {
		return fmt.Errorf("find workspace root: %w", err)
	}

	projectPath := config.ProjectPath(wsRoot)
	if workspace.HasProjectFile(wsRoot) && !initForce {
		return fmt.Errorf("project already initialized at %s (%s exists).\n\nUse --force to reset it to the defaults.", wsRoot, config.ProjectFileName)
	}

	files, err := workspace.ListEnvFiles(wsRoot, workspace.ListOptions{Exclude: currentSettings().Exclude})
	if err != nil {
		return fmt.Errorf("list .env files: %w", err)
	}

	errOut := cmd.ErrOrStderr()
	if len(files) == 0 {
		envPath := filepath.Join(wsRoot, source.BaseFile)
		if err := os.WriteFile(envPath, nil, 0600); err != nil {
			return fmt.Errorf("create %s: %w", source.BaseFile, err)
		}
		fmt.Fprintf(errOut, "%s Created %s\n", tui.Success("✓"), envPath)
	}

	opts := config.Defaults().Options()
	opts.Base = envfile.Environ()
	var withErrors int
	for _, layer := range workspace.GroupLayers(files) {
		dir, err := filepath.Rel(wsRoot, layer.Dir)
		if err != nil {
			dir = layer.Dir
		}
		fmt.Fprintln(errOut, tui.Header(filepath.ToSlash(dir)+"/"))
		for _, f := range layer.Files {
			if !checkInitFile(errOut, f, opts) {
				withErrors++
			}
		}
	}

	if err := config.Defaults().Save(projectPath); err != nil {
		return fmt.Errorf("write %s: %w", config.ProjectFileName, err)
	}
	fmt.Fprintf(errOut, "%s Created %s\n", tui.Success("✓"), config.ProjectFileName)

	marker := workspace.FindMarker(wsRoot)
	fmt.Fprintf(errOut, "\n%s Initialized project at %s (%s)\n", tui.Success("✓"), wsRoot, workspace.FormatMarkerForDisplay(marker))
	if withErrors > 0 {
		fmt.Fprintf(errOut, "%s %s with problems, see %s\n", tui.Muted("•"), tui.Count(withErrors, "file"), tui.Label("dotenvng check"))
	}
	fmt.Fprintf(errOut, "%s Run a command with your env: %s\n", tui.Muted("Tip:"), tui.Label("dotenvng run --load . -- <command>"))
	return nil
}

// checkInitFile prints one line for an env file, tagged with its environment,
// and reports whether it parsed cleanly.
func checkInitFile(w io.Writer, path string, opts envfile.Options) bool {
	name := filepath.Base(path)
	if env := workspace.Environment(name); env != "" {
		name += " " + tui.Muted("["+env+"]")
	}
	result, err := source.ParseFile(path, opts)
	switch {
	case err != nil:
		fmt.Fprintf(w, "  %s %s: %v\n", tui.Error("✗"), name, err)
		return false
	case len(result.Errors) > 0:
		fmt.Fprintf(w, "  %s %s: %s\n", tui.Warning("⚠"), name, tui.Count(len(result.Errors), "parse error"))
		return false
	}
	fmt.Fprintf(w, "  %s %s: %s\n", tui.Success("✓"), name, tui.Count(result.Data.Len(), "key"))
	return true
}
