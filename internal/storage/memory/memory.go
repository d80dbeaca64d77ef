// Package memory is an in-process session.Backend for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/internal/session"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
)

type Backend struct {
	mu        sync.RWMutex
	sessions  map[string]model.Session
	questions map[string]model.Question
}

var _ session.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		sessions:  make(map[string]model.Session),
		questions: make(map[string]model.Question),
	}
}

func (b *Backend) InsertSession(_ context.Context, s *model.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := *s
	cp.Questions = nil
	b.sessions[s.ID] = cp
	return nil
}

func (b *Backend) InsertQuestions(_ context.Context, qs []*model.Question) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, q := range qs {
		b.questions[q.ID] = *q
	}
	return len(qs), nil
}

func (b *Backend) AttachQuestions(_ context.Context, sessionID string, _ []string, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[sessionID]
	if !ok {
		return session.ErrNotFound
	}
	s.UpdatedAt = at
	b.sessions[sessionID] = s
	return nil
}

func (b *Backend) FindSession(_ context.Context, id string) (*model.Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &s, nil
}

func (b *Backend) FindSessionsByOwner(_ context.Context, ownerID string) ([]*model.Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*model.Session
	for _, s := range b.sessions {
		if s.UserID == ownerID {
			cp := s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (b *Backend) FindQuestion(_ context.Context, id string) (*model.Question, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q, ok := b.questions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &q, nil
}

func (b *Backend) FindQuestionsBySessions(_ context.Context, sessionIDs []string) ([]*model.Question, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	want := make(map[string]struct{}, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = struct{}{}
	}

	var out []*model.Question
	for _, q := range b.questions {
		if _, ok := want[q.SessionID]; ok {
			cp := q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (b *Backend) TogglePin(_ context.Context, questionID string, at time.Time) (*model.Question, error) {
	return b.updateQuestion(questionID, func(q *model.Question) {
		q.IsPinned = !q.IsPinned
		q.UpdatedAt = at
	})
}

func (b *Backend) UpdateNote(_ context.Context, questionID, note string, at time.Time) (*model.Question, error) {
	return b.updateQuestion(questionID, func(q *model.Question) {
		q.Note = note
		q.UpdatedAt = at
	})
}

func (b *Backend) updateQuestion(id string, fn func(*model.Question)) (*model.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.questions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	fn(&q)
	b.questions[id] = q
	return &q, nil
}

func (b *Backend) DeleteQuestionsBySession(_ context.Context, sessionID string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int64
	for id, q := range b.questions {
		if q.SessionID == sessionID {
			delete(b.questions, id)
			n++
		}
	}
	return n, nil
}

func (b *Backend) DeleteQuestions(_ context.Context, ids []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range ids {
		delete(b.questions, id)
	}
	return nil
}

func (b *Backend) DeleteSession(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.sessions[id]; !ok {
		return session.ErrNotFound
	}
	delete(b.sessions, id)
	return nil
}

// DeleteSessionCascade removes the session and its questions under one lock.
func (b *Backend) DeleteSessionCascade(_ context.Context, id string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int64
	for qid, q := range b.questions {
		if q.SessionID == id {
			delete(b.questions, qid)
			n++
		}
	}
	delete(b.sessions, id)
	return n, nil
}
