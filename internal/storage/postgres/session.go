package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, user_id, role, experience, topics_to_focus, description, created_at, updated_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.UserID, &s.Role, &s.Experience, &s.TopicsToFocus,
		&s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) InsertSession(ctx context.Context, s *model.Session) error {
	const q = `
INSERT INTO sessions (` + sessionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := r.db.Exec(ctx, q,
		s.ID, s.UserID, s.Role, s.Experience, s.TopicsToFocus, s.Description, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// AttachQuestions only bumps updated_at; questions reference their session
// through questions.session_id.
func (r *Repository) AttachQuestions(ctx context.Context, sessionID string, _ []string, at time.Time) error {
	const q = `UPDATE sessions SET updated_at = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, sessionID, at)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows)
	}
	return nil
}

func (r *Repository) FindSession(ctx context.Context, id string) (*model.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *Repository) FindSessionsByOwner(ctx context.Context, ownerID string) ([]*model.Session, error) {
	const q = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows)
	}
	return nil
}

// DeleteSessionCascade removes questions then the session in one transaction.
func (r *Repository) DeleteSessionCascade(ctx context.Context, id string) (int64, error) {
	var deleted int64
	err := r.execTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM questions WHERE session_id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		deleted = tag.RowsAffected()

		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
