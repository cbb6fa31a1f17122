package cache

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/chisel/internal/chunker"
	"github.com/tildaslashalef/chisel/internal/loggy"
)

func newTestRepository(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock database")
	t.Cleanup(func() { db.Close() })

	return &SQLRepository{
		db:     db,
		logger: loggy.NewNoopLogger(),
	}, mock
}

func sampleDocument() *Document {
	now := time.Now()
	return &Document{
		ID:         "doc-01HX0000000000000000000001",
		Path:       "internal/server/handler.go",
		CommitHash: "a1b2c3d4",
		Language:   "Go",
		CreatedAt:  now,
		UpdatedAt:  now,
		Chunks: []*Chunk{
			{
				ID:        "chunk-01HX0000000000000000000002",
				Position:  0,
				StartByte: 0,
				EndByte:   120,
				Content:   "package server\n",
				CreatedAt: now,
			},
			{
				ID:        "chunk-01HX0000000000000000000003",
				Position:  1,
				StartByte: 120,
				EndByte:   300,
				Content:   "func handler() {}\n",
				CreatedAt: now,
			},
		},
	}
}

func TestSQLRepository_SaveDocument(t *testing.T) {
	repo, mock := newTestRepository(t)
	doc := sampleDocument()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM documents").
		WithArgs(doc.CommitHash, doc.Path).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			doc.Path,
			doc.CommitHash,
			doc.Language,
			doc.Fallback,
			len(doc.Chunks),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for _, chunk := range doc.Chunks {
		mock.ExpectExec("INSERT INTO chunks").
			WithArgs(
				chunk.ID,
				doc.ID,
				chunk.Position,
				chunk.StartByte,
				chunk.EndByte,
				chunk.Content,
				sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	err := repo.SaveDocument(context.Background(), doc)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_SaveDocument_RollsBackOnError(t *testing.T) {
	repo, mock := newTestRepository(t)
	doc := sampleDocument()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM documents").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.SaveDocument(context.Background(), doc)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_GetDocument(t *testing.T) {
	repo, mock := newTestRepository(t)
	doc := sampleDocument()

	docRows := sqlmock.NewRows([]string{
		"id", "path", "commit_hash", "language", "fallback", "chunk_count", "created_at", "updated_at",
	}).AddRow(
		doc.ID, doc.Path, doc.CommitHash, doc.Language, doc.Fallback, 2, doc.CreatedAt, doc.UpdatedAt,
	)
	mock.ExpectQuery("SELECT .+ FROM documents").
		WithArgs(doc.CommitHash, doc.Path).
		WillReturnRows(docRows)

	chunkRows := sqlmock.NewRows([]string{
		"id", "document_id", "position", "start_byte", "end_byte", "content", "created_at",
	})
	for _, chunk := range doc.Chunks {
		chunkRows.AddRow(chunk.ID, doc.ID, chunk.Position, chunk.StartByte, chunk.EndByte, chunk.Content, chunk.CreatedAt)
	}
	mock.ExpectQuery("SELECT .+ FROM chunks").
		WithArgs(doc.ID).
		WillReturnRows(chunkRows)

	got, err := repo.GetDocument(context.Background(), doc.Path, doc.CommitHash)
	require.NoError(t, err)

	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "Go", got.Language)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, 0, got.Chunks[0].Position)
	assert.Equal(t, 1, got.Chunks[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_GetDocument_NotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("SELECT .+ FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "path", "commit_hash", "language", "fallback", "chunk_count", "created_at", "updated_at",
		}))

	_, err := repo.GetDocument(context.Background(), "missing.go", "deadbeef")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_DeleteDocument_NotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("doc-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteDocument(context.Background(), "doc-missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepository_PurgeOtherCommits(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("a1b2c3d4").
		WillReturnResult(sqlmock.NewResult(0, 7))

	affected, err := repo.PurgeOtherCommits(context.Background(), "a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, int64(7), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewDocument_RoundTrip(t *testing.T) {
	result := &chunker.Result{
		Chunks: []chunker.Chunk{
			{Span: chunker.Span{Start: 0, End: 10}, Text: "0123456789"},
			{Span: chunker.Span{Start: 10, End: 15}, Text: "abcde"},
		},
		Language: "Python",
	}

	doc := NewDocument("app/main.py", "cafef00d", result)
	require.Len(t, doc.Chunks, 2)
	assert.Equal(t, 2, doc.ChunkCount)
	assert.Equal(t, doc.ID, doc.Chunks[0].DocumentID)
	assert.Equal(t, 0, doc.Chunks[0].Position)
	assert.Equal(t, 1, doc.Chunks[1].Position)

	back := doc.Result()
	assert.Equal(t, result.Chunks, back.Chunks)
	assert.Equal(t, "Python", back.Language)
	assert.False(t, back.Fallback)
}
