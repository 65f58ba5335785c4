package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sandevgo/coeus/internal/core"
)

type MemoryRepo struct {
	db *sql.DB
}

func NewMemoryRepo(db *sql.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

func (r *MemoryRepo) AddMemory(ctx context.Context, rec core.MemoryRecord, embedding []float32) (int64, error) {
	vecBlob, err := serializeVector(embedding)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO memories (session_id, ordinal, user_text, assistant_text, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Ordinal, rec.UserText, rec.AssistantText, rec.Content, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert memory: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO memories_vec (rowid, embedding) VALUES (?, ?)`, id, vecBlob,
	); err != nil {
		return 0, fmt.Errorf("failed to insert memory vector: %w", err)
	}

	return id, tx.Commit()
}

// SearchMemories returns the k nearest memories, closest first.
func (r *MemoryRepo) SearchMemories(ctx context.Context, embedding []float32, k int) ([]core.Hit, error) {
	vecBlob, err := serializeVector(embedding)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.content, m.created_at, v.distance
		FROM memories_vec v
		JOIN memories m ON m.id = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`,
		vecBlob, k,
	)
	if err != nil {
		return nil, fmt.Errorf("memory search failed: %w", err)
	}
	defer rows.Close()

	var hits []core.Hit
	for rows.Next() {
		var (
			hit       core.Hit
			createdAt time.Time
		)
		if err := rows.Scan(&hit.ID, &hit.Content, &createdAt, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan memory hit: %w", err)
		}
		hit.Label = createdAt.Local().Format(time.DateTime)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (r *MemoryRepo) CountMemories(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return n, nil
}

func (r *MemoryRepo) DeleteAllMemories(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories_vec`); err != nil {
		return 0, fmt.Errorf("failed to clear memory vectors: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM memories`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear memories: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

func (r *MemoryRepo) ListBySession(ctx context.Context, sessionID string) ([]core.MemoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, ordinal, user_text, assistant_text, content, created_at
		FROM memories
		WHERE session_id = ?
		ORDER BY created_at, ordinal`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session memories: %w", err)
	}
	defer rows.Close()

	records := []core.MemoryRecord{}
	for rows.Next() {
		var rec core.MemoryRecord
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.Ordinal, &rec.UserText, &rec.AssistantText, &rec.Content, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
