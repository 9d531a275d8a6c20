package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xmazu/dotenvng/internal/envfile"
	"github.com/xmazu/dotenvng/internal/ignore"
	"github.com/xmazu/dotenvng/internal/source"
	"github.com/xmazu/dotenvng/internal/tui"
	"github.com/xmazu/dotenvng/internal/workspace"
)

var lsCmd = &cobra.Command{
	Use:   "ls [directory]",
	Short: "List .env files in a directory tree",
	Long: `Discover and list .env and .env.* files under the given directory, each with
its key count and parse errors. Files of one directory are shown in merge order.
Without a directory, the workspace root (monorepo markers or .dotenvng.yaml) is
listed. Directories ignored by .gitignore and the configured exclude globs are
skipped; env files that are gitignored are listed and marked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

var (
	lsExclude     []string
	lsNoGitignore bool
)

func init() {
	lsCmd.Flags().StringArrayVar(&lsExclude, "exclude", nil, "Skip paths matching a gitignore-style glob (can be repeated)")
	lsCmd.Flags().BoolVar(&lsNoGitignore, "no-gitignore", false, "Do not apply the root .gitignore")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	explicitDir := len(args) == 1
	root := "."
	if explicitDir {
		root = args[0]
	} else {
		wsRoot, err := workspace.FindRoot(".")
		if err != nil {
			return fmt.Errorf("detect workspace: %w", err)
		}
		if workspace.IsWorkspace(wsRoot) {
			root = wsRoot
		}
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	s := currentSettings()
	files, err := workspace.ListEnvFiles(root, workspace.ListOptions{
		Exclude:     append(append([]string{}, s.Exclude...), lsExclude...),
		NoGitignore: lsNoGitignore,
	})
	if err != nil {
		return fmt.Errorf("list .env files: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	gitignore := &ignore.Matcher{}
	if !lsNoGitignore {
		if gitignore, err = ignore.LoadGitignore(root); err != nil {
			return err
		}
	}

	opts := s.Options()
	opts.Base = envfile.Environ()
	notes := make(map[string]string, len(files))
	paths := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			rel = f
		}
		paths = append(paths, rel)
		notes[rel] = fileNote(f, filepath.ToSlash(rel), gitignore, opts)
	}

	out := stdout(cmd)
	if !explicitDir && workspace.IsWorkspace(root) {
		marker := workspace.FindMarker(root)
		fmt.Fprintf(out, "%s%s (%s)\n\n", tui.Label("Workspace: "), root, workspace.FormatMarkerForDisplay(marker))
	}

	tree := workspace.BuildEnvTree(paths)
	tree.Walk(func(n *workspace.EnvTreeNode) {
		if n.File != "" {
			n.Note = notes[n.File]
		}
	})
	workspace.PrintEnvTree(out, tree, "", true)
	return nil
}

func fileNote(path, rel string, gitignore *ignore.Matcher, opts envfile.Options) string {
	var note string
	result, err := source.ParseFile(path, opts)
	if err != nil {
		note = tui.Error("unreadable")
	} else {
		note = tui.Muted(tui.Count(result.Data.Len(), "key"))
		if n := len(result.Errors); n > 0 {
			note += " " + tui.Warning(tui.Count(n, "error"))
		}
	}
	if gitignore.ShouldIgnore(rel, false) {
		note += " " + tui.Muted("(gitignored)")
	}
	return note
}
