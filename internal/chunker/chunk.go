// Package chunker splits source documents into size-bounded chunks whose
// boundaries fall on syntax-tree node boundaries where a grammar is available,
// falling back to overlapping line windows where none is.
package chunker

// Span is a half-open byte range [Start, End) into a document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Chunk is one retrieval unit cut from a document.
type Chunk struct {
	Span
	Text string `json:"text"`
}

// Document is the raw text of a single file plus its extension hint.
// The extension (with leading dot, e.g. ".go") only reorders language
// selection priority; it never forces a choice.
type Document struct {
	Text string
	Ext  string
}

// Config holds the chunking parameters.
type Config struct {
	// MaxChunkChars is the target upper bound on chunk size in bytes.
	// Chunks corresponding to un-splittable leaf nodes may exceed it.
	MaxChunkChars int

	// FallbackWindowLines is the window size for line-based fallback chunking.
	FallbackWindowLines int

	// FallbackOverlapLines is the overlap between consecutive fallback windows.
	FallbackOverlapLines int
}

// DefaultConfig returns the default chunking parameters.
func DefaultConfig() Config {
	return Config{
		MaxChunkChars:        1500,
		FallbackWindowLines:  40,
		FallbackOverlapLines: 15,
	}
}

// Node is a read-only handle on a concrete syntax tree node. Implementations
// are provided by the language package; the chunking algorithm only ever
// reads byte ranges, child sequences, and node kinds. A parent's range covers
// its children's ranges, possibly with gaps; children appear left to right
// and never overlap. Trees live only for the duration of one chunking call.
type Node interface {
	StartByte() int
	EndByte() int
	ChildCount() int
	Child(i int) Node
	Kind() string
}

// nodeSpan returns the byte range covered by a node.
func nodeSpan(n Node) Span {
	return Span{Start: n.StartByte(), End: n.EndByte()}
}
