package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/coeus/internal/core"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// AddChunks stores chunks with their embeddings in one transaction.
func (r *DocumentRepo) AddChunks(ctx context.Context, chunks []core.DocumentChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("got %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertChunks(ctx, tx, chunks, embeddings); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceSource swaps every chunk of source for the given ones. Either both
// the delete and the insert land or neither does.
func (r *DocumentRepo) ReplaceSource(ctx context.Context, source string, chunks []core.DocumentChunk, embeddings [][]float32) (int, error) {
	if len(chunks) != len(embeddings) {
		return 0, fmt.Errorf("got %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	removed, err := deleteChunks(ctx, tx, "WHERE source = ?", []any{source})
	if err != nil {
		return 0, err
	}
	if err := insertChunks(ctx, tx, chunks, embeddings); err != nil {
		return 0, err
	}
	return removed, tx.Commit()
}

func insertChunks(ctx context.Context, tx *sql.Tx, chunks []core.DocumentChunk, embeddings [][]float32) error {
	for i, c := range chunks {
		vecBlob, err := serializeVector(embeddings[i])
		if err != nil {
			return err
		}
		if c.LoadedAt.IsZero() {
			c.LoadedAt = time.Now()
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (source, chunk_index, start_word, end_word, content, tokens, loaded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.Source, c.Index, c.StartWord, c.EndWord, c.Text, c.Tokens, c.LoadedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s#%d: %w", c.Source, c.Index, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks_vec (rowid, embedding) VALUES (?, ?)`, id, vecBlob,
		); err != nil {
			return fmt.Errorf("failed to insert chunk vector: %w", err)
		}
	}
	return nil
}

func (r *DocumentRepo) SearchChunks(ctx context.Context, embedding []float32, k int) ([]core.Hit, error) {
	vecBlob, err := serializeVector(embedding)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.content, c.source, c.chunk_index, v.distance
		FROM chunks_vec v
		JOIN chunks c ON c.id = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`,
		vecBlob, k,
	)
	if err != nil {
		return nil, fmt.Errorf("chunk search failed: %w", err)
	}
	defer rows.Close()

	var hits []core.Hit
	for rows.Next() {
		var (
			hit    core.Hit
			source string
			index  int
		)
		if err := rows.Scan(&hit.ID, &hit.Content, &source, &index, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan chunk hit: %w", err)
		}
		hit.Label = fmt.Sprintf("source: %s, chunk %d", source, index)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (r *DocumentRepo) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

func (r *DocumentRepo) DeleteAllChunks(ctx context.Context) (int, error) {
	return r.deleteWhere(ctx, "", nil)
}

func (r *DocumentRepo) DeleteSource(ctx context.Context, source string) (int, error) {
	return r.deleteWhere(ctx, "WHERE source = ?", []any{source})
}

func (r *DocumentRepo) deleteWhere(ctx context.Context, where string, args []any) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n, err := deleteChunks(ctx, tx, where, args)
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func deleteChunks(ctx context.Context, tx *sql.Tx, where string, args []any) (int, error) {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks_vec WHERE rowid IN (SELECT id FROM chunks `+where+`)`, args...,
	); err != nil {
		return 0, fmt.Errorf("failed to delete chunk vectors: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM chunks `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *DocumentRepo) HasSource(ctx context.Context, source string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chunks WHERE source = ?)`, source,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check source: %w", err)
	}
	return exists, nil
}

// Sources lists loaded documents by name.
func (r *DocumentRepo) Sources(ctx context.Context) ([]core.DocumentInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source, COUNT(*), MIN(loaded_at)
		FROM chunks
		GROUP BY source
		ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var docs []core.DocumentInfo
	for rows.Next() {
		var (
			info     core.DocumentInfo
			loadedAt string
		)
		if err := rows.Scan(&info.Name, &info.Chunks, &loadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		info.LoadedAt = parseTimestamp(loadedAt)
		docs = append(docs, info)
	}
	return docs, rows.Err()
}

// parseTimestamp reads a DATETIME that went through an aggregate, where the
// driver hands back text instead of time.Time.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
