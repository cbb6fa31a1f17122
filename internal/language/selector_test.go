package language

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/chisel/internal/chunker"
	"github.com/tildaslashalef/chisel/internal/loggy"
)

// stubNode is a minimal syntax node for selector tests.
type stubNode struct {
	kind     string
	children []*stubNode
}

func (n *stubNode) StartByte() int  { return 0 }
func (n *stubNode) EndByte() int    { return 0 }
func (n *stubNode) ChildCount() int { return len(n.children) }
func (n *stubNode) Child(i int) chunker.Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}
func (n *stubNode) Kind() string { return n.kind }

// stubProvider returns a canned tree or error and records calls.
type stubProvider struct {
	root     *stubNode
	err      error
	delay    time.Duration
	calls    int
	released int
}

func (p *stubProvider) Parse(ctx context.Context, content []byte) (chunker.Node, func(), error) {
	p.calls++
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.root, func() { p.released++ }, nil
}

func cleanTree() *stubNode {
	return &stubNode{kind: "source_file", children: []*stubNode{{kind: "package_clause"}}}
}

func errorTree() *stubNode {
	return &stubNode{kind: "source_file", children: []*stubNode{{kind: "ERROR"}}}
}

func TestSelector_PrefersExtensionHint(t *testing.T) {
	first := &stubProvider{root: cleanTree()}
	hinted := &stubProvider{root: cleanTree()}
	registry := NewRegistry(
		Entry{Name: "Go", Extensions: []string{".go"}, Provider: first},
		Entry{Name: "Python", Extensions: []string{".py"}, Provider: hinted},
	)
	selector := NewSelector(registry, time.Second, loggy.NewNoopLogger())

	sel, ok := selector.Select(context.Background(), chunker.Document{Text: "x = 1\n", Ext: ".py"})
	require.True(t, ok)
	defer sel.Close()

	assert.Equal(t, "Python", sel.Language)
	assert.Equal(t, 1, hinted.calls)
	assert.Equal(t, 0, first.calls, "hinted grammar succeeded, others must not run")
}

func TestSelector_FallsThroughOnParseError(t *testing.T) {
	broken := &stubProvider{err: errors.New("parse failed")}
	working := &stubProvider{root: cleanTree()}
	registry := NewRegistry(
		Entry{Name: "Go", Extensions: []string{".go"}, Provider: broken},
		Entry{Name: "Python", Extensions: []string{".py"}, Provider: working},
	)
	selector := NewSelector(registry, time.Second, nil)

	sel, ok := selector.Select(context.Background(), chunker.Document{Text: "x = 1\n", Ext: ".go"})
	require.True(t, ok)
	defer sel.Close()

	assert.Equal(t, "Python", sel.Language)
	assert.Equal(t, 1, broken.calls)
}

func TestSelector_ReleasesRejectedTrees(t *testing.T) {
	rejected := &stubProvider{root: errorTree()}
	working := &stubProvider{root: cleanTree()}
	registry := NewRegistry(
		Entry{Name: "Go", Extensions: []string{".go"}, Provider: rejected},
		Entry{Name: "Python", Extensions: []string{".py"}, Provider: working},
	)
	selector := NewSelector(registry, time.Second, nil)

	sel, ok := selector.Select(context.Background(), chunker.Document{Text: "x = 1\n", Ext: ".go"})
	require.True(t, ok)
	sel.Close()

	assert.Equal(t, 1, rejected.released, "tree with errors must be released")
	assert.Equal(t, 1, working.released)
}

func TestSelector_AllGrammarsFail(t *testing.T) {
	registry := NewRegistry(
		Entry{Name: "Go", Extensions: []string{".go"}, Provider: &stubProvider{root: errorTree()}},
		Entry{Name: "Python", Extensions: []string{".py"}, Provider: &stubProvider{err: errors.New("nope")}},
	)
	selector := NewSelector(registry, time.Second, nil)

	_, ok := selector.Select(context.Background(), chunker.Document{Text: "\x00\x01\x02", Ext: ".bin"})
	assert.False(t, ok)
}

func TestSelector_TimeoutSkipsHangingGrammar(t *testing.T) {
	hanging := &stubProvider{root: cleanTree(), delay: time.Second}
	working := &stubProvider{root: cleanTree()}
	registry := NewRegistry(
		Entry{Name: "Go", Extensions: []string{".go"}, Provider: hanging},
		Entry{Name: "Python", Extensions: []string{".py"}, Provider: working},
	)
	selector := NewSelector(registry, 10*time.Millisecond, nil)

	start := time.Now()
	sel, ok := selector.Select(context.Background(), chunker.Document{Text: "x = 1\n", Ext: ".go"})
	require.True(t, ok)
	defer sel.Close()

	assert.Equal(t, "Python", sel.Language)
	assert.Less(t, time.Since(start), time.Second, "hanging grammar must be cut off by its timeout")
}

func TestSelector_CancelledContext(t *testing.T) {
	provider := &stubProvider{root: cleanTree()}
	registry := NewRegistry(
		Entry{Name: "Go", Extensions: []string{".go"}, Provider: provider},
	)
	selector := NewSelector(registry, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := selector.Select(ctx, chunker.Document{Text: "package main\n", Ext: ".go"})
	assert.False(t, ok)
	assert.Equal(t, 0, provider.calls)
}

func TestParseSucceeded(t *testing.T) {
	tests := []struct {
		name  string
		root  *stubNode
		check ErrorCheck
		want  bool
	}{
		{
			name:  "clean tree passes",
			root:  cleanTree(),
			check: CheckBoth,
			want:  true,
		},
		{
			name:  "error root fails",
			root:  &stubNode{kind: "ERROR"},
			check: CheckBoth,
			want:  false,
		},
		{
			name:  "error first child fails",
			root:  errorTree(),
			check: CheckBoth,
			want:  false,
		},
		{
			name:  "root-only check ignores first child",
			root:  errorTree(),
			check: CheckRootOnly,
			want:  true,
		},
		{
			name:  "first-child-only check ignores root",
			root:  &stubNode{kind: "ERROR", children: []*stubNode{{kind: "statement"}}},
			check: CheckFirstChildOnly,
			want:  true,
		},
		{
			name:  "childless root passes",
			root:  &stubNode{kind: "source_file"},
			check: CheckBoth,
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSucceeded(tt.root, tt.check))
		})
	}
}
