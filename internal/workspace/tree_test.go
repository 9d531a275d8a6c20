package workspace

import (
	"strings"
	"testing"
)

func TestIsEnvFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{"exact .env", ".env", true},
		{".env.local", ".env.local", true},
		{".env.production", ".env.production", true},
		{".env.example", ".env.example", false},
		{"not .env", "env", false},
		{"random file", "config.yaml", false},
		{"just prefix", ".env.", false},
		{"single char suffix", ".env.a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEnvFilename(tt.filename); got != tt.want {
				t.Errorf("IsEnvFilename(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestBuildEnvTree(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		check func(t *testing.T, root *EnvTreeNode)
	}{
		{
			name:  "single file",
			paths: []string{".env"},
			check: func(t *testing.T, root *EnvTreeNode) {
				if root.Name != "." {
					t.Errorf("root.Name = %q, want '.'", root.Name)
				}
				if len(root.Children) != 1 {
					t.Fatalf("len(root.Children) = %d, want 1", len(root.Children))
				}
				if root.Children[0].File != ".env" {
					t.Errorf("child.File = %q, want '.env'", root.Children[0].File)
				}
			},
		},
		{
			name:  "nested files",
			paths: []string{"packages/app/.env", "packages/api/.env"},
			check: func(t *testing.T, root *EnvTreeNode) {
				if len(root.Children) != 1 || root.Children[0].Name != "packages" {
					t.Fatalf("root.Children = %v, want only packages", root.Children)
				}
				if len(root.Children[0].Children) != 2 {
					t.Fatalf("len(packages.Children) = %d, want 2", len(root.Children[0].Children))
				}
			},
		},
		{
			name:  "files in merge order before directories",
			paths: []string{"apps/web/.env", ".env.local", ".env", ".env.staging", ".env.dev"},
			check: func(t *testing.T, root *EnvTreeNode) {
				var names []string
				for _, ch := range root.Children {
					names = append(names, ch.Name)
				}
				want := ".env,.env.dev,.env.staging,.env.local,apps"
				if got := strings.Join(names, ","); got != want {
					t.Errorf("children = %s, want %s", got, want)
				}
			},
		},
		{
			name:  "empty paths",
			paths: []string{},
			check: func(t *testing.T, root *EnvTreeNode) {
				if len(root.Children) != 0 {
					t.Errorf("len(root.Children) = %d, want 0", len(root.Children))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, BuildEnvTree(tt.paths))
		})
	}
}

func TestSortEnvTree(t *testing.T) {
	root := &EnvTreeNode{Name: ".", Children: []*EnvTreeNode{
		{Name: "z"},
		{Name: ".env.local", File: ".env.local"},
		{Name: "a"},
		{Name: ".env", File: ".env"},
	}}

	SortEnvTree(root)

	var names []string
	for _, ch := range root.Children {
		names = append(names, ch.Name)
	}
	if got, want := strings.Join(names, ","), ".env,.env.local,a,z"; got != want {
		t.Errorf("children = %s, want %s", got, want)
	}
}

func TestPrintEnvTree(t *testing.T) {
	root := BuildEnvTree([]string{".env", "apps/web/.env", "apps/web/.env.local"})
	root.Walk(func(n *EnvTreeNode) {
		if n.File == "apps/web/.env.local" {
			n.Note = "(2 keys)"
		}
	})

	var b strings.Builder
	PrintEnvTree(&b, root, "", true)

	want := strings.Join([]string{
		"├─ .env",
		"└─ apps",
		"   └─ web",
		"      ├─ .env",
		"      └─ .env.local  (2 keys)",
		"",
	}, "\n")
	if b.String() != want {
		t.Errorf("PrintEnvTree() =\n%s\nwant\n%s", b.String(), want)
	}
}
