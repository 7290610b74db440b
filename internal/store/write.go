package store

import (
	"context"
	"fmt"

	"github.com/roach88/notelog/internal/ir"
)

// PutNotebook stores f under id, replacing any notebook already there.
//
// The blob and every transition row are written in one transaction: either
// the whole notebook is replaced or the library is unchanged.
func (s *Store) PutNotebook(ctx context.Context, id string, f ir.NotebookFile) error {
	raw, err := ir.EncodeFile(f)
	if err != nil {
		return fmt.Errorf("put notebook: %w", err)
	}
	blob, sum, err := packBlob(raw)
	if err != nil {
		return fmt.Errorf("put notebook: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put notebook: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notebooks (id, title, created_at, updated_at, blob, checksum)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			blob = excluded.blob,
			checksum = excluded.checksum
	`,
		id,
		f.Metadata.Title,
		int64(f.Metadata.CreatedAt),
		int64(f.Metadata.UpdatedAt),
		blob,
		sum,
	)
	if err != nil {
		return fmt.Errorf("put notebook: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transitions WHERE notebook_id = ?`, id); err != nil {
		return fmt.Errorf("put notebook: clear transitions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transitions
		(notebook_id, seq, annotation_id, from_state, to_state, event, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("put notebook: prepare: %w", err)
	}
	defer stmt.Close()

	for seq, t := range f.Transitions {
		_, err := stmt.ExecContext(ctx,
			id,
			seq,
			t.AnnotationID.String(),
			t.From.String(),
			t.To.String(),
			t.Event.Kind().String(),
			int64(t.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("put notebook: transition %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put notebook: commit: %w", err)
	}
	return nil
}

// DeleteNotebook removes id and its transition rows.
// Returns ErrNotFound if id is not in the library.
func (s *Store) DeleteNotebook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notebooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete notebook %q: %w", id, ErrNotFound)
	}
	return nil
}
