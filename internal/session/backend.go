package session

import (
	"context"
	"errors"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
)

// ErrNotFound is returned by backends when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Backend is the persistence layer behind the Store. Implementations live in
// internal/storage. They store what they are given: ids and timestamps are
// assigned by the Store, ordering and ownership are enforced by the Store.
type Backend interface {
	InsertSession(ctx context.Context, s *model.Session) error
	// InsertQuestions writes a batch. On error it reports how many of the
	// leading questions remain written; transactional backends report 0.
	InsertQuestions(ctx context.Context, qs []*model.Question) (int, error)
	// AttachQuestions records question ids on the session for backends that
	// keep a forward reference list, and bumps updated_at.
	AttachQuestions(ctx context.Context, sessionID string, questionIDs []string, at time.Time) error

	FindSession(ctx context.Context, id string) (*model.Session, error)
	FindSessionsByOwner(ctx context.Context, ownerID string) ([]*model.Session, error)
	FindQuestion(ctx context.Context, id string) (*model.Question, error)
	FindQuestionsBySessions(ctx context.Context, sessionIDs []string) ([]*model.Question, error)

	TogglePin(ctx context.Context, questionID string, at time.Time) (*model.Question, error)
	UpdateNote(ctx context.Context, questionID, note string, at time.Time) (*model.Question, error)

	// DeleteQuestionsBySession is idempotent and safe to retry.
	DeleteQuestionsBySession(ctx context.Context, sessionID string) (int64, error)
	DeleteQuestions(ctx context.Context, ids []string) error
	DeleteSession(ctx context.Context, id string) error
}

// CascadeDeleter is implemented by backends that can remove a session and its
// questions in one transaction.
type CascadeDeleter interface {
	DeleteSessionCascade(ctx context.Context, id string) (int64, error)
}
