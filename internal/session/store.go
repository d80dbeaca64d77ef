// Package session owns sessions and their questions: persistence rules,
// display ordering, ownership and the use cases the HTTP layer exposes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
	"github.com/SeptianSamdany/interview-prep-ai/internal/metrics"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateParams describes a new session and its initial questions.
type CreateParams struct {
	OwnerID       string
	Role          string
	Experience    string
	TopicsToFocus string
	Description   string
	Pairs         []model.GeneratedPair
}

// cleanupTimeout bounds compensating deletes that outlive the request.
const cleanupTimeout = 10 * time.Second

type Store struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

type StoreOption func(*Store)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the ObjectID generator.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) { s.newID = gen }
}

func NewStore(backend Backend, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend: backend,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return primitive.NewObjectID().Hex() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidID reports whether id has the persisted identifier shape: 24 hex chars.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (s *Store) CreateSession(ctx context.Context, p CreateParams) (*model.Session, error) {
	if strings.TrimSpace(p.OwnerID) == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "Not authorized, no user")
	}
	if len(p.Pairs) == 0 {
		return nil, apperr.New(apperr.KindValidation, "At least one question is required")
	}
	if err := validatePairs(p.Pairs); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &model.Session{
		ID:            s.newID(),
		UserID:        p.OwnerID,
		Role:          p.Role,
		Experience:    p.Experience,
		TopicsToFocus: p.TopicsToFocus,
		Description:   p.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.backend.InsertSession(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create session", err)
	}

	qs := s.newQuestions(sess.ID, p.Pairs, now)
	written, err := s.backend.InsertQuestions(ctx, qs)
	if err == nil {
		err = s.backend.AttachQuestions(ctx, sess.ID, questionIDs(qs), now)
	}
	if err != nil {
		s.cleanup(ctx, sess.ID)
		return nil, apperr.Wrap(apperr.KindPartialCreation, "failed to create session questions", err).
			WithDetail(fmt.Sprintf("%d of %d questions written before failure; session removed", written, len(qs)))
	}
	metrics.RecordQuestionsPersisted(len(qs))

	sess.Questions = qs
	sortQuestions(sess.Questions)
	return sess, nil
}

// cleanupContext detaches compensating writes from the request: a create
// usually fails because the request was cancelled or timed out.
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}

// cleanup removes a half-created session. Failures are logged; the
// questions-first order means a retry can never leave orphans behind.
func (s *Store) cleanup(ctx context.Context, sessionID string) {
	ctx, cancel := cleanupContext(ctx)
	defer cancel()

	if _, err := s.backend.DeleteQuestionsBySession(ctx, sessionID); err != nil {
		s.logger.Error("cleanup of partial session questions failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if err := s.backend.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("cleanup of partial session failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

// GetSessionsByOwner returns the owner's sessions newest first, each with
// its questions in display order.
func (s *Store) GetSessionsByOwner(ctx context.Context, ownerID string) ([]*model.Session, error) {
	sessions, err := s.backend.FindSessionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load sessions", err)
	}
	if len(sessions) == 0 {
		return []*model.Session{}, nil
	}

	ids := make([]string, len(sessions))
	byID := make(map[string]*model.Session, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
		sess.Questions = []*model.Question{}
		byID[sess.ID] = sess
	}

	qs, err := s.backend.FindQuestionsBySessions(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load questions", err)
	}
	for _, q := range qs {
		if sess, ok := byID[q.SessionID]; ok {
			sess.Questions = append(sess.Questions, q)
		}
	}

	for _, sess := range sessions {
		sortQuestions(sess.Questions)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// GetSessionByID returns one session with questions pinned first.
func (s *Store) GetSessionByID(ctx context.Context, id, ownerID string) (*model.Session, error) {
	sess, err := s.ownedSession(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	qs, err := s.backend.FindQuestionsBySessions(ctx, []string{sess.ID})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load questions", err)
	}
	if qs == nil {
		qs = []*model.Question{}
	}
	sortQuestions(qs)
	sess.Questions = qs
	return sess, nil
}

// ownedSession resolves id and checks ownership without loading questions.
func (s *Store) ownedSession(ctx context.Context, id, ownerID string) (*model.Session, error) {
	if !ValidID(id) {
		return nil, apperr.New(apperr.KindInvalidID, "Invalid session ID format")
	}

	sess, err := s.backend.FindSession(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "Session not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load session", err)
	}
	if sess.UserID != ownerID {
		return nil, apperr.New(apperr.KindForbidden, "Not authorized to access this session")
	}
	return sess, nil
}

// AppendQuestions adds pairs to an existing session. Ownership is the
// caller's concern. A failed batch is rolled back so the session never
// holds a partial append.
func (s *Store) AppendQuestions(ctx context.Context, sessionID string, pairs []model.GeneratedPair) (int, error) {
	if !ValidID(sessionID) {
		return 0, apperr.New(apperr.KindInvalidID, "Invalid session ID format")
	}
	if len(pairs) == 0 {
		return 0, nil
	}
	if err := validatePairs(pairs); err != nil {
		return 0, err
	}

	now := s.now()
	qs := s.newQuestions(sessionID, pairs, now)
	ids := questionIDs(qs)

	written, err := s.backend.InsertQuestions(ctx, qs)
	if err == nil {
		err = s.backend.AttachQuestions(ctx, sessionID, ids, now)
	}
	if err != nil {
		// Deleting ids that were never written is a no-op, so the whole
		// batch is removed regardless of how far the insert got.
		rctx, cancel := cleanupContext(ctx)
		derr := s.backend.DeleteQuestions(rctx, ids)
		cancel()
		if derr != nil {
			s.logger.Error("rollback of appended questions failed",
				zap.String("session_id", sessionID), zap.Error(derr))
		}
		return 0, apperr.Wrap(apperr.KindInternal, "failed to add questions", err).
			WithDetail(fmt.Sprintf("%d of %d questions written before failure; rolled back", written, len(qs)))
	}

	metrics.RecordQuestionsPersisted(len(qs))
	return len(qs), nil
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (*model.Question, error) {
	if !ValidID(questionID) {
		return nil, apperr.New(apperr.KindInvalidID, "Invalid question ID format")
	}
	q, err := s.backend.FindQuestion(ctx, questionID)
	if err != nil {
		return nil, questionErr(err, "failed to load question")
	}
	return q, nil
}

// TogglePin flips the pinned flag atomically in the backend.
func (s *Store) TogglePin(ctx context.Context, questionID string) (*model.Question, error) {
	if !ValidID(questionID) {
		return nil, apperr.New(apperr.KindInvalidID, "Invalid question ID format")
	}
	q, err := s.backend.TogglePin(ctx, questionID, s.now())
	if err != nil {
		return nil, questionErr(err, "failed to update question")
	}
	return q, nil
}

func (s *Store) UpdateNote(ctx context.Context, questionID, note string) (*model.Question, error) {
	if !ValidID(questionID) {
		return nil, apperr.New(apperr.KindInvalidID, "Invalid question ID format")
	}
	q, err := s.backend.UpdateNote(ctx, questionID, note, s.now())
	if err != nil {
		return nil, questionErr(err, "failed to update question")
	}
	return q, nil
}

// DeleteSession removes the session and every question referencing it and
// returns how many questions were removed. Questions go first.
func (s *Store) DeleteSession(ctx context.Context, id, ownerID string) (int64, error) {
	if _, err := s.ownedSession(ctx, id, ownerID); err != nil {
		return 0, err
	}

	if cd, ok := s.backend.(CascadeDeleter); ok {
		n, err := cd.DeleteSessionCascade(ctx, id)
		if err != nil {
			return 0, apperr.Wrap(apperr.KindInternal, "failed to delete session", err)
		}
		return n, nil
	}

	n, err := s.backend.DeleteQuestionsBySession(ctx, id)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "failed to delete session questions", err)
	}
	if err := s.backend.DeleteSession(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return 0, apperr.Wrap(apperr.KindInternal, "failed to delete session", err).
			WithDetail(fmt.Sprintf("%d questions already removed; retry is safe", n))
	}
	return n, nil
}

func (s *Store) newQuestions(sessionID string, pairs []model.GeneratedPair, now time.Time) []*model.Question {
	qs := make([]*model.Question, len(pairs))
	for i, p := range pairs {
		qs[i] = &model.Question{
			ID:        s.newID(),
			SessionID: sessionID,
			Question:  p.Question,
			Answer:    p.Answer,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return qs
}

func validatePairs(pairs []model.GeneratedPair) error {
	for i, p := range pairs {
		if strings.TrimSpace(p.Question) == "" || strings.TrimSpace(p.Answer) == "" {
			return apperr.Newf(apperr.KindValidation,
				"question %d must have a non-empty question and answer", i+1)
		}
	}
	return nil
}

func questionErr(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "Question not found")
	}
	return apperr.Wrap(apperr.KindInternal, msg, err)
}

func questionIDs(qs []*model.Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

// sortQuestions orders pinned questions first, then oldest first. Questions
// from one batch share a timestamp, so the id keeps insertion order.
func sortQuestions(qs []*model.Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		a, b := qs[i], qs[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
