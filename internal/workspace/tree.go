package workspace

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// EnvTreeNode is a directory (File empty) or an env file of the ls tree.
type EnvTreeNode struct {
	Name     string
	Children []*EnvTreeNode
	File     string // path as passed to BuildEnvTree, empty for directories
	Note     string // printed after the name
}

// BuildEnvTree nests slash or OS separated relative paths into a sorted tree
// rooted at ".".
func BuildEnvTree(paths []string) *EnvTreeNode {
	root := &EnvTreeNode{Name: "."}
	for _, p := range paths {
		dir, name := filepath.Split(filepath.ToSlash(p))
		cur := root
		for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
			if part != "" {
				cur = cur.subdir(part)
			}
		}
		cur.Children = append(cur.Children, &EnvTreeNode{Name: name, File: p})
	}
	SortEnvTree(root)
	return root
}

func (n *EnvTreeNode) subdir(name string) *EnvTreeNode {
	for _, ch := range n.Children {
		if ch.File == "" && ch.Name == name {
			return ch
		}
	}
	ch := &EnvTreeNode{Name: name}
	n.Children = append(n.Children, ch)
	return ch
}

// SortEnvTree puts files before directories. Files follow merge order,
// directories are alphabetical.
func SortEnvTree(node *EnvTreeNode) {
	if len(node.Children) == 0 {
		return
	}

	sort.SliceStable(node.Children, func(i, j int) bool {
		ci, cj := node.Children[i], node.Children[j]
		fileI := ci.File != ""
		fileJ := cj.File != ""
		if fileI != fileJ {
			return fileI
		}
		if fileI {
			return lessLayer(ci.Name, cj.Name)
		}
		return ci.Name < cj.Name
	})

	for _, ch := range node.Children {
		SortEnvTree(ch)
	}
}

// Walk calls fn for every file node.
func (n *EnvTreeNode) Walk(fn func(*EnvTreeNode)) {
	if n.File != "" {
		fn(n)
	}
	for _, ch := range n.Children {
		ch.Walk(fn)
	}
}

func PrintEnvTree(w io.Writer, node *EnvTreeNode, prefix string, last bool) {
	if node.Name != "." {
		conn := "├─ "
		if last {
			conn = "└─ "
		}
		line := prefix + conn + node.Name
		if node.Note != "" {
			line += "  " + node.Note
		}
		fmt.Fprintln(w, line)
	}

	childPrefix := prefix
	if node.Name != "." {
		if last {
			childPrefix += "   "
		} else {
			childPrefix += "│  "
		}
	}

	for i, ch := range node.Children {
		PrintEnvTree(w, ch, childPrefix, i == len(node.Children)-1)
	}
}

func IsEnvFilename(name string) bool {
	if name == ".env" {
		return true
	}
	if name == ".env.example" {
		return false
	}
	return strings.HasPrefix(name, ".env.") && len(name) > 5
}
