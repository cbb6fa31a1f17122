package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/chisel/internal/loggy"
)

// fakeSelector returns a canned tree, or reports failure when root is nil.
type fakeSelector struct {
	root     *fakeNode
	language string
	closed   int
}

func (s *fakeSelector) Select(ctx context.Context, doc Document) (Selection, bool) {
	if s.root == nil {
		return Selection{}, false
	}
	return Selection{
		Root:     s.root,
		Language: s.language,
		Close:    func() { s.closed++ },
	}, true
}

// treeOver builds a flat tree whose children split text at the given offsets.
func treeOver(text string, cuts ...int) *fakeNode {
	parent := &fakeNode{kind: "source_file", end: len(text)}
	prev := 0
	for _, c := range cuts {
		parent.children = append(parent.children, leaf(prev, c))
		prev = c
	}
	parent.children = append(parent.children, leaf(prev, len(text)))
	return parent
}

func TestService_ChunkDocument_SyntaxPath(t *testing.T) {
	logger := loggy.NewNoopLogger()
	text := "package main\n\nfunc a() {\n\treturn\n}\n\nfunc b() {\n\treturn\n}\n"
	sel := &fakeSelector{root: treeOver(text, 13, 35), language: "Go"}

	svc := NewService(Config{MaxChunkChars: 20, FallbackWindowLines: 40, FallbackOverlapLines: 15}, sel, logger)
	res := svc.ChunkDocument(context.Background(), Document{Text: text, Ext: ".go"})

	require.NotNil(t, res)
	assert.Equal(t, "Go", res.Language)
	assert.False(t, res.Fallback)
	assert.Equal(t, 1, sel.closed, "tree must be released exactly once")

	// Chunks are in order, non-overlapping, and reconstruct the document.
	var b strings.Builder
	prevEnd := 0
	for _, c := range res.Chunks {
		assert.Equal(t, prevEnd, c.Start)
		assert.Equal(t, text[c.Start:c.End], c.Text)
		prevEnd = c.End
		b.WriteString(c.Text)
	}
	assert.Equal(t, text, b.String())
}

func TestService_ChunkDocument_FallbackPath(t *testing.T) {
	logger := loggy.NewNoopLogger()
	text := numberedLines(100)
	sel := &fakeSelector{}

	svc := NewService(DefaultConfig(), sel, logger)
	res := svc.ChunkDocument(context.Background(), Document{Text: text, Ext: ".xyz"})

	require.NotNil(t, res)
	assert.True(t, res.Fallback)
	assert.Empty(t, res.Language)
	assert.Len(t, res.Chunks, 4)
	assert.Equal(t, 0, res.Chunks[0].Start)
	assert.Equal(t, len(text), res.Chunks[len(res.Chunks)-1].End)
}

func TestService_ChunkDocument_EmptyDocument(t *testing.T) {
	logger := loggy.NewNoopLogger()
	svc := NewService(DefaultConfig(), &fakeSelector{}, logger)

	res := svc.ChunkDocument(context.Background(), Document{})
	require.NotNil(t, res)
	assert.Empty(t, res.Chunks)
}

func TestService_ChunkDocument_MergesSingleLineChunks(t *testing.T) {
	logger := loggy.NewNoopLogger()
	text := "x\ndef foo():\n    pass\n"
	sel := &fakeSelector{root: treeOver(text, 2), language: "Python"}

	svc := NewService(Config{MaxChunkChars: 10}, sel, logger)
	res := svc.ChunkDocument(context.Background(), Document{Text: text, Ext: ".py"})

	require.Len(t, res.Chunks, 1)
	assert.Equal(t, text, res.Chunks[0].Text)
}

func TestService_ChunkDocument_Deterministic(t *testing.T) {
	logger := loggy.NewNoopLogger()
	text := numberedLines(50)
	sel := &fakeSelector{root: treeOver(text, 40, 80, 120, 160), language: "Go"}
	svc := NewService(Config{MaxChunkChars: 80}, sel, logger)

	first := svc.ChunkDocument(context.Background(), Document{Text: text})
	for i := 0; i < 5; i++ {
		again := svc.ChunkDocument(context.Background(), Document{Text: text})
		assert.Equal(t, first.Chunks, again.Chunks)
		assert.Equal(t, first.Language, again.Language)
	}
}
