package chunker

import (
	"context"

	"github.com/tildaslashalef/chisel/internal/loggy"
)

// Selection is a successfully parsed document: the syntax tree root, the name
// of the language whose grammar produced it, and a Close func releasing the
// tree. Close must be called once chunking is done.
type Selection struct {
	Root     Node
	Language string
	Close    func()
}

// Selector picks the first grammar that parses a document. Implemented by the
// language package; a false return means no registered grammar succeeded.
type Selector interface {
	Select(ctx context.Context, doc Document) (Selection, bool)
}

// Result is the output of chunking one document.
type Result struct {
	Chunks   []Chunk
	Language string
	// Fallback is true when no grammar parsed the document and the
	// line-window strategy was used; chunks then overlap by design.
	Fallback bool
}

// Service is the chunking orchestrator. It is stateless across calls; one
// Service may chunk many documents concurrently.
type Service struct {
	cfg      Config
	selector Selector
	logger   *loggy.Logger
}

// NewService creates a new chunking service
func NewService(cfg Config, selector Selector, logger *loggy.Logger) *Service {
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = DefaultConfig().MaxChunkChars
	}
	if cfg.FallbackWindowLines <= 0 {
		cfg.FallbackWindowLines = DefaultConfig().FallbackWindowLines
	}
	if cfg.FallbackOverlapLines < 0 {
		cfg.FallbackOverlapLines = DefaultConfig().FallbackOverlapLines
	}
	return &Service{
		cfg:      cfg,
		selector: selector,
		logger:   logger,
	}
}

// ChunkDocument chunks one document. It never fails: parse problems degrade
// to the line-window fallback, and an empty document yields an empty result.
func (s *Service) ChunkDocument(ctx context.Context, doc Document) *Result {
	if len(doc.Text) == 0 {
		return &Result{}
	}

	sel, ok := s.selector.Select(ctx, doc)
	if !ok {
		s.logger.Debug("no grammar parsed document, using line-window fallback",
			"ext", doc.Ext, "bytes", len(doc.Text))
		spans := naiveChunk(doc.Text, s.cfg.FallbackWindowLines, s.cfg.FallbackOverlapLines)
		return &Result{Chunks: s.materialize(spans, doc.Text), Fallback: true}
	}
	defer sel.Close()

	spans := chunkNode(sel.Root, s.cfg.MaxChunkChars, 0)
	spans = coalesce(spans, len(doc.Text))
	spans = mergeSmall(spans, doc.Text)

	s.logger.Debug("chunked document",
		"language", sel.Language, "bytes", len(doc.Text), "chunks", len(spans))

	return &Result{Chunks: s.materialize(spans, doc.Text), Language: sel.Language}
}

// materialize converts byte spans into chunks carrying their text.
func (s *Service) materialize(spans []Span, text string) []Chunk {
	chunks := make([]Chunk, 0, len(spans))
	for _, sp := range spans {
		if sp.Len() == 0 {
			continue
		}
		chunks = append(chunks, Chunk{Span: sp, Text: text[sp.Start:sp.End]})
	}
	return chunks
}
