// Package pyparse turns Python source bytes into the pyast syntax-tree
// abstraction. It is the only package that touches tree-sitter; the
// analysis core consumes pyast exclusively.
package pyparse

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/standardbeagle/pycheck/internal/pyast"
)

// Parser pool: tree-sitter parsers are not safe for concurrent use, and
// grammar setup is not free, so independent goroutines check one out per
// file the way the indexer pools its language parsers.
var parserPool = sync.Pool{
	New: func() any {
		p := tree_sitter.NewParser()
		language := tree_sitter.NewLanguage(tree_sitter_python.Language())
		if err := p.SetLanguage(language); err != nil {
			// The bundled grammar always matches the runtime ABI;
			// failing here means a broken build, not bad input.
			panic(fmt.Sprintf("pyparse: python grammar rejected: %v", err))
		}
		return p
	},
}

// Parse parses one file's content into a pyast module. Partial syntax
// errors do not fail the parse: malformed regions lower to opaque nodes
// and the rest of the file stays analyzable.
func Parse(content []byte) (*pyast.Module, error) {
	parser := parserPool.Get().(*tree_sitter.Parser)
	defer parserPool.Put(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("pyparse: parser returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("pyparse: tree has no root node")
	}

	l := &lowerer{src: content}
	mod := &pyast.Module{
		Base: pyast.Base{Loc: l.spanOf(root)},
		Body: l.lowerBlock(root),
	}
	return mod, nil
}
