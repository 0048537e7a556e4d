package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Gitignore matches relative paths against the patterns of a project's
// .gitignore file. It supports the common subset: comments, blank
// lines, negation, directory-only patterns, anchored patterns and the
// *, ? and ** wildcards. Later patterns override earlier ones, as in
// git itself.
type Gitignore struct {
	patterns []gitignorePattern
}

type gitignorePattern struct {
	glob     string
	negate   bool
	dirOnly  bool
	anchored bool
}

// LoadGitignore reads root/.gitignore. A missing file yields an empty
// matcher, not an error.
func LoadGitignore(root string) (*Gitignore, error) {
	file, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Gitignore{}, nil
		}
		return nil, err
	}
	defer file.Close()

	g := &Gitignore{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if p, ok := parseGitignoreLine(scanner.Text()); ok {
			g.patterns = append(g.patterns, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func parseGitignoreLine(line string) (gitignorePattern, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return gitignorePattern{}, false
	}

	var p gitignorePattern
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		line = strings.TrimPrefix(line, "/")
		p.anchored = true
	} else if strings.Contains(line, "/") {
		// A slash anywhere in the pattern anchors it to the root.
		p.anchored = true
	}
	p.glob = line
	return p, line != ""
}

// Ignored reports whether the slash-separated relative path matches the
// loaded patterns. A nil matcher ignores nothing.
func (g *Gitignore) Ignored(rel string, isDir bool) bool {
	if g == nil {
		return false
	}
	ignored := false
	for _, p := range g.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if p.matches(rel) {
			ignored = !p.negate
		}
	}
	return ignored
}

func (p gitignorePattern) matches(rel string) bool {
	glob := p.glob
	if !p.anchored {
		glob = "**/" + glob
	}
	ok, _ := doublestar.Match(glob, rel)
	return ok
}
