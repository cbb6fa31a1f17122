// Package cache persists chunking results in SQLite so repeated runs over an
// unchanged repository can skip parsing. Entries are keyed by file path and
// the commit hash the file was chunked at.
package cache

import (
	"errors"
	"time"

	"github.com/tildaslashalef/chisel/internal/chunker"
	"github.com/tildaslashalef/chisel/internal/ulid"
)

var (
	// ErrDocumentNotFound is returned when no cached document matches
	ErrDocumentNotFound = errors.New("document not found")
)

// Document is one chunked file at a specific commit
type Document struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	CommitHash string    `json:"commit_hash"`
	Language   string    `json:"language"`
	Fallback   bool      `json:"fallback"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Chunks are populated on reads that request them
	Chunks []*Chunk `json:"chunks,omitempty"`
}

// Chunk is one stored span of a document
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Position   int       `json:"position"`
	StartByte  int       `json:"start_byte"`
	EndByte    int       `json:"end_byte"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewDocument builds a cache document from a chunking result
func NewDocument(path, commitHash string, result *chunker.Result) *Document {
	now := time.Now()
	doc := &Document{
		ID:         ulid.DocumentID(),
		Path:       path,
		CommitHash: commitHash,
		Language:   result.Language,
		Fallback:   result.Fallback,
		ChunkCount: len(result.Chunks),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	doc.Chunks = make([]*Chunk, 0, len(result.Chunks))
	for i, c := range result.Chunks {
		doc.Chunks = append(doc.Chunks, &Chunk{
			ID:         ulid.ChunkID(),
			DocumentID: doc.ID,
			Position:   i,
			StartByte:  c.Start,
			EndByte:    c.End,
			Content:    c.Text,
			CreatedAt:  now,
		})
	}

	return doc
}

// Result converts a cached document back into a chunking result
func (d *Document) Result() *chunker.Result {
	chunks := make([]chunker.Chunk, 0, len(d.Chunks))
	for _, c := range d.Chunks {
		chunks = append(chunks, chunker.Chunk{
			Span: chunker.Span{Start: c.StartByte, End: c.EndByte},
			Text: c.Content,
		})
	}
	return &chunker.Result{
		Chunks:   chunks,
		Language: d.Language,
		Fallback: d.Fallback,
	}
}
