package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/ir"
)

// Summary is one library entry without its blob.
type Summary struct {
	ID          string
	Title       string
	CreatedAt   uint64
	UpdatedAt   uint64
	Transitions int
}

// TransitionRow is the indexed form of one transition record.
type TransitionRow struct {
	Seq          int64
	AnnotationID uuid.UUID
	From         ir.State
	To           ir.State
	Event        ir.EventKind
	Timestamp    uint64
}

// GetNotebook loads and decodes id.
//
// Returns ErrNotFound if id is not in the library and ErrChecksumMismatch
// if the stored blob was altered.
func (s *Store) GetNotebook(ctx context.Context, id string) (ir.NotebookFile, error) {
	raw, err := s.GetNotebookBytes(ctx, id)
	if err != nil {
		return ir.NotebookFile{}, err
	}
	f, err := ir.DecodeFile(raw)
	if err != nil {
		return ir.NotebookFile{}, fmt.Errorf("get notebook %q: %w", id, err)
	}
	return f, nil
}

// GetNotebookBytes returns the uncompressed encoded file of id, verified
// against its checksum but not decoded.
func (s *Store) GetNotebookBytes(ctx context.Context, id string) ([]byte, error) {
	var blob []byte
	var sum int64
	err := s.db.QueryRowContext(ctx, `
		SELECT blob, checksum FROM notebooks WHERE id = ?
	`, id).Scan(&blob, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get notebook %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get notebook %q: %w", id, err)
	}
	raw, err := unpackBlob(blob, sum)
	if err != nil {
		return nil, fmt.Errorf("get notebook %q: %w", id, err)
	}
	return raw, nil
}

// ListNotebooks returns every notebook in the library ordered by id.
//
// Returns an empty slice (not nil) for an empty library.
func (s *Store) ListNotebooks(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.title, n.created_at, n.updated_at, COUNT(t.seq)
		FROM notebooks n
		LEFT JOIN transitions t ON t.notebook_id = n.id
		GROUP BY n.id
		ORDER BY n.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query notebooks: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var created, updated int64
		if err := rows.Scan(&sm.ID, &sm.Title, &created, &updated, &sm.Transitions); err != nil {
			return nil, fmt.Errorf("scan notebook: %w", err)
		}
		sm.CreatedAt = uint64(created)
		sm.UpdatedAt = uint64(updated)
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notebooks: %w", err)
	}
	return out, nil
}

// ReadTransitions returns the indexed log of id in log order.
// When annotation is not uuid.Nil only that annotation's rows are returned.
//
// Returns an empty slice (not nil) if no rows match.
func (s *Store) ReadTransitions(ctx context.Context, id string, annotation uuid.UUID) ([]TransitionRow, error) {
	query := `
		SELECT seq, annotation_id, from_state, to_state, event, timestamp
		FROM transitions
		WHERE notebook_id = ?
		ORDER BY seq ASC
	`
	args := []any{id}
	if annotation != uuid.Nil {
		query = `
		SELECT seq, annotation_id, from_state, to_state, event, timestamp
		FROM transitions
		WHERE notebook_id = ? AND annotation_id = ?
		ORDER BY seq ASC
	`
		args = append(args, annotation.String())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	out := []TransitionRow{}
	for rows.Next() {
		row, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return out, nil
}

func scanTransition(rows *sql.Rows) (TransitionRow, error) {
	var row TransitionRow
	var annotation, from, to, event string
	var ts int64
	if err := rows.Scan(&row.Seq, &annotation, &from, &to, &event, &ts); err != nil {
		return TransitionRow{}, fmt.Errorf("scan transition: %w", err)
	}

	var err error
	if row.AnnotationID, err = uuid.Parse(annotation); err != nil {
		return TransitionRow{}, fmt.Errorf("scan transition %d: annotation_id: %w", row.Seq, err)
	}
	if row.From, err = ir.ParseState(from); err != nil {
		return TransitionRow{}, fmt.Errorf("scan transition %d: from_state: %w", row.Seq, err)
	}
	if row.To, err = ir.ParseState(to); err != nil {
		return TransitionRow{}, fmt.Errorf("scan transition %d: to_state: %w", row.Seq, err)
	}
	if row.Event, err = ir.ParseEventKind(event); err != nil {
		return TransitionRow{}, fmt.Errorf("scan transition %d: event: %w", row.Seq, err)
	}
	row.Timestamp = uint64(ts)
	return row, nil
}
