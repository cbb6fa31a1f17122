package language

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/tildaslashalef/chisel/internal/chunker"
)

// treeSitterProvider parses content with a single tree-sitter grammar.
// A fresh parser is created per call, so a provider is safe to share
// across goroutines.
type treeSitterProvider struct {
	language *sitter.Language
}

func newTreeSitterProvider(lang *sitter.Language) Provider {
	return &treeSitterProvider{language: lang}
}

func (p *treeSitterProvider) Parse(ctx context.Context, content []byte) (chunker.Node, func(), error) {
	parser := sitter.NewParser()
	parser.SetLanguage(p.language)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		parser.Close()
		return nil, nil, fmt.Errorf("parsing content: %w", err)
	}

	release := func() {
		tree.Close()
		parser.Close()
	}
	return &treeNode{node: tree.RootNode()}, release, nil
}

// treeNode adapts a tree-sitter node to the chunker's node interface.
// Tree-sitter byte offsets are uint32; document sizes fit int on every
// platform we build for.
type treeNode struct {
	node *sitter.Node
}

func (t *treeNode) StartByte() int { return int(t.node.StartByte()) }

func (t *treeNode) EndByte() int { return int(t.node.EndByte()) }

func (t *treeNode) ChildCount() int { return int(t.node.ChildCount()) }

func (t *treeNode) Child(i int) chunker.Node {
	child := t.node.Child(i)
	if child == nil {
		return nil
	}
	return &treeNode{node: child}
}

func (t *treeNode) Kind() string { return t.node.Type() }
