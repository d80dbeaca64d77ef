// Package firestore is the session.Backend on Cloud Firestore. Sessions and
// questions are top-level collections; questions carry session_id.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SeptianSamdany/interview-prep-ai/internal/session"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
)

// Firestore caps "in" filters at 30 values.
const inQueryLimit = 30

type Store struct {
	client *firestore.Client
}

var (
	_ session.Backend        = (*Store)(nil)
	_ session.CascadeDeleter = (*Store)(nil)
)

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) questionsCol() *firestore.CollectionRef {
	return s.client.Collection("questions")
}

type sessionDoc struct {
	UserID        string    `firestore:"user_id"`
	Role          string    `firestore:"role"`
	Experience    string    `firestore:"experience"`
	TopicsToFocus string    `firestore:"topics_to_focus"`
	Description   string    `firestore:"description"`
	CreatedAt     time.Time `firestore:"created_at"`
	UpdatedAt     time.Time `firestore:"updated_at"`
}

type questionDoc struct {
	SessionID string    `firestore:"session_id"`
	Question  string    `firestore:"question"`
	Answer    string    `firestore:"answer"`
	Note      string    `firestore:"note"`
	IsPinned  bool      `firestore:"is_pinned"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func toSession(id string, d *sessionDoc) *model.Session {
	return &model.Session{
		ID:            id,
		UserID:        d.UserID,
		Role:          d.Role,
		Experience:    d.Experience,
		TopicsToFocus: d.TopicsToFocus,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func toQuestion(id string, d *questionDoc) *model.Question {
	return &model.Question{
		ID:        id,
		SessionID: d.SessionID,
		Question:  d.Question,
		Answer:    d.Answer,
		Note:      d.Note,
		IsPinned:  d.IsPinned,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func decodeQuestion(snap *firestore.DocumentSnapshot) (*model.Question, error) {
	var doc questionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode questionDoc: %w", err)
	}
	return toQuestion(snap.Ref.ID, &doc), nil
}

func (s *Store) InsertSession(ctx context.Context, sess *model.Session) error {
	doc := sessionDoc{
		UserID:        sess.UserID,
		Role:          sess.Role,
		Experience:    sess.Experience,
		TopicsToFocus: sess.TopicsToFocus,
		Description:   sess.Description,
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	}
	if _, err := s.sessionsCol().Doc(sess.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore InsertSession: %w", err)
	}
	return nil
}

// InsertQuestions writes the batch in one transaction: all or nothing.
func (s *Store) InsertQuestions(ctx context.Context, qs []*model.Question) (int, error) {
	if len(qs) == 0 {
		return 0, nil
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, q := range qs {
			doc := questionDoc{
				SessionID: q.SessionID,
				Question:  q.Question,
				Answer:    q.Answer,
				Note:      q.Note,
				IsPinned:  q.IsPinned,
				CreatedAt: q.CreatedAt,
				UpdatedAt: q.UpdatedAt,
			}
			if err := tx.Create(s.questionsCol().Doc(q.ID), doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("firestore InsertQuestions: %w", err)
	}
	return len(qs), nil
}

// AttachQuestions bumps updated_at; questions point at their session.
func (s *Store) AttachQuestions(ctx context.Context, sessionID string, _ []string, at time.Time) error {
	_, err := s.sessionsCol().Doc(sessionID).Update(ctx, []firestore.Update{
		{Path: "updated_at", Value: at},
	})
	if err != nil {
		return notFound(err, "firestore AttachQuestions")
	}
	return nil
}

func (s *Store) FindSession(ctx context.Context, id string) (*model.Session, error) {
	snap, err := s.sessionsCol().Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, "firestore FindSession")
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore FindSession decode: %w", err)
	}
	return toSession(id, &doc), nil
}

func (s *Store) FindSessionsByOwner(ctx context.Context, ownerID string) ([]*model.Session, error) {
	iter := s.sessionsCol().Where("user_id", "==", ownerID).OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var out []*model.Session
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore FindSessionsByOwner: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}
		out = append(out, toSession(snap.Ref.ID, &doc))
	}
	return out, nil
}

func (s *Store) FindQuestion(ctx context.Context, id string) (*model.Question, error) {
	snap, err := s.questionsCol().Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, "firestore FindQuestion")
	}
	return decodeQuestion(snap)
}

func (s *Store) FindQuestionsBySessions(ctx context.Context, sessionIDs []string) ([]*model.Question, error) {
	var out []*model.Question
	for start := 0; start < len(sessionIDs); start += inQueryLimit {
		end := min(start+inQueryLimit, len(sessionIDs))

		iter := s.questionsCol().Where("session_id", "in", sessionIDs[start:end]).Documents(ctx)
		for {
			snap, err := iter.Next()
			if err != nil {
				if err == iterator.Done {
					break
				}
				iter.Stop()
				return nil, fmt.Errorf("firestore FindQuestionsBySessions: %w", err)
			}
			q, err := decodeQuestion(snap)
			if err != nil {
				iter.Stop()
				return nil, err
			}
			out = append(out, q)
		}
		iter.Stop()
	}
	return out, nil
}

// TogglePin reads and flips the flag inside a transaction.
func (s *Store) TogglePin(ctx context.Context, questionID string, at time.Time) (*model.Question, error) {
	ref := s.questionsCol().Doc(questionID)

	var out *model.Question
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		q, err := decodeQuestion(snap)
		if err != nil {
			return err
		}
		q.IsPinned = !q.IsPinned
		q.UpdatedAt = at

		out = q
		return tx.Update(ref, []firestore.Update{
			{Path: "is_pinned", Value: q.IsPinned},
			{Path: "updated_at", Value: at},
		})
	})
	if err != nil {
		return nil, notFound(err, "firestore TogglePin")
	}
	return out, nil
}

func (s *Store) UpdateNote(ctx context.Context, questionID, note string, at time.Time) (*model.Question, error) {
	ref := s.questionsCol().Doc(questionID)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "note", Value: note},
		{Path: "updated_at", Value: at},
	})
	if err != nil {
		return nil, notFound(err, "firestore UpdateNote")
	}
	return s.FindQuestion(ctx, questionID)
}

func (s *Store) DeleteQuestionsBySession(ctx context.Context, sessionID string) (int64, error) {
	iter := s.questionsCol().Where("session_id", "==", sessionID).Documents(ctx)
	defer iter.Stop()

	var n int64
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return n, fmt.Errorf("firestore DeleteQuestionsBySession: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return n, fmt.Errorf("firestore DeleteQuestionsBySession: %w", err)
		}
		n++
	}
	return n, nil
}

func (s *Store) DeleteQuestions(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.questionsCol().Doc(id).Delete(ctx); err != nil {
			return fmt.Errorf("firestore DeleteQuestions: %w", err)
		}
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.sessionsCol().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return notFound(err, "firestore DeleteSession")
	}
	return nil
}

// DeleteSessionCascade reads the session's questions and deletes them with
// the session in one transaction.
func (s *Store) DeleteSessionCascade(ctx context.Context, id string) (int64, error) {
	var n int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		n = 0
		snaps, err := tx.Documents(s.questionsCol().Where("session_id", "==", id)).GetAll()
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			if err := tx.Delete(snap.Ref); err != nil {
				return err
			}
			n++
		}
		return tx.Delete(s.sessionsCol().Doc(id))
	})
	if err != nil {
		return 0, fmt.Errorf("firestore DeleteSessionCascade: %w", err)
	}
	return n, nil
}

func notFound(err error, op string) error {
	if status.Code(err) == codes.NotFound {
		return session.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
