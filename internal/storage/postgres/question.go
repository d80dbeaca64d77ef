package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"github.com/jackc/pgx/v5"
)

const questionColumns = `id, session_id, question, answer, note, is_pinned, created_at, updated_at`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	var q model.Question
	err := row.Scan(&q.ID, &q.SessionID, &q.Question, &q.Answer, &q.Note,
		&q.IsPinned, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// InsertQuestions sends the whole batch in one round trip inside a
// transaction. A failure rolls every statement back, so the written count is
// all or nothing.
func (r *Repository) InsertQuestions(ctx context.Context, questions []*model.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	const q = `
INSERT INTO questions (` + questionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	for _, qs := range questions {
		batch.Queue(q, qs.ID, qs.SessionID, qs.Question, qs.Answer, qs.Note, qs.IsPinned, qs.CreatedAt, qs.UpdatedAt)
	}

	err := r.execTx(ctx, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := range questions {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("batch insert question %d: %w", i, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return 0, err
	}
	return len(questions), nil
}

func (r *Repository) FindQuestion(ctx context.Context, id string) (*model.Question, error) {
	const q = `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	qs, err := scanQuestion(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return qs, nil
}

func (r *Repository) FindQuestionsBySessions(ctx context.Context, sessionIDs []string) ([]*model.Question, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	const q = `
SELECT ` + questionColumns + `
FROM questions
WHERE session_id = ANY($1)
ORDER BY is_pinned DESC, created_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, q, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []*model.Question
	for rows.Next() {
		qs, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, qs)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

// TogglePin flips the flag in a single statement so concurrent toggles
// never lose an update.
func (r *Repository) TogglePin(ctx context.Context, questionID string, at time.Time) (*model.Question, error) {
	const q = `
UPDATE questions SET is_pinned = NOT is_pinned, updated_at = $2
WHERE id = $1
RETURNING ` + questionColumns
	qs, err := scanQuestion(r.db.QueryRow(ctx, q, questionID, at))
	if err != nil {
		return nil, notFound(err)
	}
	return qs, nil
}

func (r *Repository) UpdateNote(ctx context.Context, questionID, note string, at time.Time) (*model.Question, error) {
	const q = `
UPDATE questions SET note = $2, updated_at = $3
WHERE id = $1
RETURNING ` + questionColumns
	qs, err := scanQuestion(r.db.QueryRow(ctx, q, questionID, note, at))
	if err != nil {
		return nil, notFound(err)
	}
	return qs, nil
}

func (r *Repository) DeleteQuestionsBySession(ctx context.Context, sessionID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM questions WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) DeleteQuestions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM questions WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	return nil
}
