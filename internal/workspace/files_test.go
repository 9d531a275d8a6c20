package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestListEnvFiles(t *testing.T) {
	t.Run("finds all .env files", func(t *testing.T) {
		tmp := t.TempDir()
		files := []string{
			filepath.Join(tmp, ".env"),
			filepath.Join(tmp, "apps", "web", ".env"),
			filepath.Join(tmp, "packages", "db", ".env"),
			filepath.Join(tmp, "packages", "db", ".env.local"),
		}
		for _, f := range files {
			touch(t, f, "KEY=value\n")
		}
		touch(t, filepath.Join(tmp, ".env.example"), "KEY=\n")

		got, err := ListEnvFiles(tmp, ListOptions{})
		if err != nil {
			t.Fatalf("ListEnvFiles: %v", err)
		}
		sort.Strings(got)
		sort.Strings(files)
		if diff := cmp.Diff(files, got); diff != "" {
			t.Errorf("ListEnvFiles() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("returns empty when no .env files", func(t *testing.T) {
		got, err := ListEnvFiles(t.TempDir(), ListOptions{})
		if err != nil {
			t.Fatalf("ListEnvFiles: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d files, want 0", len(got))
		}
	})

	t.Run("skips .env files in excluded dirs", func(t *testing.T) {
		tmp := t.TempDir()
		touch(t, filepath.Join(tmp, ".env"), "")
		touch(t, filepath.Join(tmp, "node_modules", ".env"), "")
		touch(t, filepath.Join(tmp, "apps", "web", ".turbo", ".env"), "")

		got, err := ListEnvFiles(tmp, ListOptions{})
		if err != nil {
			t.Fatalf("ListEnvFiles: %v", err)
		}
		if diff := cmp.Diff([]string{filepath.Join(tmp, ".env")}, got); diff != "" {
			t.Errorf("ListEnvFiles() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("applies exclude globs and gitignored directories", func(t *testing.T) {
		tmp := t.TempDir()
		touch(t, filepath.Join(tmp, ".gitignore"), "dist/\n.env.local\n")
		touch(t, filepath.Join(tmp, ".env"), "")
		touch(t, filepath.Join(tmp, ".env.local"), "")
		touch(t, filepath.Join(tmp, "dist", ".env"), "")
		touch(t, filepath.Join(tmp, "examples", "demo", ".env"), "")
		touch(t, filepath.Join(tmp, "apps", "api", ".env.test"), "")

		got, err := ListEnvFiles(tmp, ListOptions{Exclude: []string{"examples/", "**/.env.test"}})
		if err != nil {
			t.Fatalf("ListEnvFiles: %v", err)
		}
		sort.Strings(got)
		want := []string{filepath.Join(tmp, ".env"), filepath.Join(tmp, ".env.local")}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ListEnvFiles() mismatch (-want +got):\n%s", diff)
		}

		got, err = ListEnvFiles(tmp, ListOptions{NoGitignore: true})
		if err != nil {
			t.Fatalf("ListEnvFiles: %v", err)
		}
		if len(got) != 5 {
			t.Errorf("ListEnvFiles(NoGitignore) = %v, want 5 files", got)
		}
	})
}

func TestGroupLayers(t *testing.T) {
	files := []string{
		filepath.Join("b", ".env.local"),
		filepath.Join("a", ".env"),
		filepath.Join("b", ".env.production"),
		filepath.Join("b", ".env"),
	}
	want := []Layer{
		{Dir: "a", Files: []string{filepath.Join("a", ".env")}},
		{Dir: "b", Files: []string{
			filepath.Join("b", ".env"),
			filepath.Join("b", ".env.production"),
			filepath.Join("b", ".env.local"),
		}},
	}
	if diff := cmp.Diff(want, GroupLayers(files)); diff != "" {
		t.Errorf("GroupLayers() mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironment(t *testing.T) {
	tests := map[string]string{
		".env":            "",
		".env.local":      "",
		".env.production": "production",
		".env.test":       "test",
	}
	for name, want := range tests {
		if got := Environment(name); got != want {
			t.Errorf("Environment(%q) = %q, want %q", name, got, want)
		}
	}
}
