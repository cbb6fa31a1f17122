package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/chisel/internal/loggy"
)

// Repository defines the interface for chunk cache persistence
type Repository interface {
	SaveDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, path, commitHash string) (*Document, error)
	GetChunks(ctx context.Context, documentID string) ([]*Chunk, error)
	DeleteDocument(ctx context.Context, id string) error
	PurgeOtherCommits(ctx context.Context, commitHash string) (int64, error)
}

// SQLRepository implements Repository using SQLite
type SQLRepository struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLRepository creates a new chunk cache SQL repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) Repository {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &SQLRepository{
		db:     db,
		logger: logger,
	}
}

// SaveDocument stores a document and its chunks in one transaction,
// replacing any previous entry for the same path and commit.
func (r *SQLRepository) SaveDocument(ctx context.Context, doc *Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	delQuery := sq.Delete("documents").
		Where(sq.Eq{"path": doc.Path, "commit_hash": doc.CommitHash})

	delSQL, delArgs, err := delQuery.ToSql()
	if err != nil {
		return fmt.Errorf("generating SQL: %w", err)
	}

	if _, err := tx.ExecContext(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("deleting previous entry: %w", err)
	}

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	doc.ChunkCount = len(doc.Chunks)

	insQuery := sq.Insert("documents").
		Columns(
			"id",
			"path",
			"commit_hash",
			"language",
			"fallback",
			"chunk_count",
			"created_at",
			"updated_at",
		).
		Values(
			doc.ID,
			doc.Path,
			doc.CommitHash,
			doc.Language,
			doc.Fallback,
			doc.ChunkCount,
			doc.CreatedAt,
			doc.UpdatedAt,
		)

	insSQL, insArgs, err := insQuery.ToSql()
	if err != nil {
		return fmt.Errorf("generating SQL: %w", err)
	}

	if _, err := tx.ExecContext(ctx, insSQL, insArgs...); err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	for _, chunk := range doc.Chunks {
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		chunk.DocumentID = doc.ID

		chunkQuery := sq.Insert("chunks").
			Columns(
				"id",
				"document_id",
				"position",
				"start_byte",
				"end_byte",
				"content",
				"created_at",
			).
			Values(
				chunk.ID,
				chunk.DocumentID,
				chunk.Position,
				chunk.StartByte,
				chunk.EndByte,
				chunk.Content,
				chunk.CreatedAt,
			)

		chunkSQL, chunkArgs, err := chunkQuery.ToSql()
		if err != nil {
			return fmt.Errorf("generating SQL: %w", err)
		}

		if _, err := tx.ExecContext(ctx, chunkSQL, chunkArgs...); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	r.logger.Debug("saved document to cache",
		"path", doc.Path,
		"commit", doc.CommitHash,
		"chunks", len(doc.Chunks),
	)

	return nil
}

// GetDocument retrieves a cached document with its chunks
func (r *SQLRepository) GetDocument(ctx context.Context, path, commitHash string) (*Document, error) {
	query := sq.Select(
		"id",
		"path",
		"commit_hash",
		"language",
		"fallback",
		"chunk_count",
		"created_at",
		"updated_at",
	).
		From("documents").
		Where(sq.Eq{"path": path, "commit_hash": commitHash})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	row := r.db.QueryRowContext(ctx, sqlStr, args...)

	var doc Document
	err = row.Scan(
		&doc.ID,
		&doc.Path,
		&doc.CommitHash,
		&doc.Language,
		&doc.Fallback,
		&doc.ChunkCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Chunks, err = r.GetChunks(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	return &doc, nil
}

// GetChunks retrieves all chunks for a document in document order
func (r *SQLRepository) GetChunks(ctx context.Context, documentID string) ([]*Chunk, error) {
	query := sq.Select(
		"id",
		"document_id",
		"position",
		"start_byte",
		"end_byte",
		"content",
		"created_at",
	).
		From("chunks").
		Where(sq.Eq{"document_id": documentID}).
		OrderBy("position ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("generating SQL: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	var chunks []*Chunk
	for rows.Next() {
		var chunk Chunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Position,
			&chunk.StartByte,
			&chunk.EndByte,
			&chunk.Content,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteDocument removes a document; its chunks go with it via the
// foreign key cascade.
func (r *SQLRepository) DeleteDocument(ctx context.Context, id string) error {
	query := sq.Delete("documents").Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("generating SQL: %w", err)
	}

	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}

	return nil
}

// PurgeOtherCommits removes cached documents from commits other than the
// given one and reports how many documents were dropped.
func (r *SQLRepository) PurgeOtherCommits(ctx context.Context, commitHash string) (int64, error) {
	query := sq.Delete("documents").Where(sq.NotEq{"commit_hash": commitHash})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("generating SQL: %w", err)
	}

	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("executing query: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	if affected > 0 {
		r.logger.Debug("purged stale cache entries", "documents", affected)
	}

	return affected, nil
}
