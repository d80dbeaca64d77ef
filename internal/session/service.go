package session

import (
	"context"
	"strings"

	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"go.uber.org/zap"
)

// Generator produces question/answer pairs. *ai.Service implements it.
type Generator interface {
	GenerateQuestions(ctx context.Context, role, experience, topicsToFocus string, count int) ([]model.GeneratedPair, error)
}

// Service is the use-case layer behind the HTTP handlers. ownerID is the
// authenticated user id; an empty value is rejected before anything else.
type Service struct {
	store     *Store
	generator Generator
	logger    *zap.Logger
}

func NewService(store *Store, generator Generator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, generator: generator, logger: logger}
}

// CreateSession persists a session. Supplied questions are stored as is;
// with none supplied, NumberOfQuestions pairs are generated first and the
// session is only written if generation succeeds.
func (s *Service) CreateSession(ctx context.Context, ownerID string, req model.CreateSessionReq) (*model.Session, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Role) == "" || strings.TrimSpace(req.Experience) == "" ||
		strings.TrimSpace(req.TopicsToFocus) == "" {
		return nil, apperr.New(apperr.KindValidation, "Missing required fields: role, experience, topics_to_focus")
	}

	pairs := req.Questions
	if len(pairs) == 0 {
		if req.NumberOfQuestions <= 0 {
			return nil, apperr.New(apperr.KindValidation, "Provide questions or a positive number_of_questions")
		}
		generated, err := s.generator.GenerateQuestions(ctx, req.Role, req.Experience, req.TopicsToFocus, req.NumberOfQuestions)
		if err != nil {
			return nil, err
		}
		pairs = generated
	}

	sess, err := s.store.CreateSession(ctx, CreateParams{
		OwnerID:       ownerID,
		Role:          req.Role,
		Experience:    req.Experience,
		TopicsToFocus: req.TopicsToFocus,
		Description:   req.Description,
		Pairs:         pairs,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("user_id", ownerID),
		zap.Int("questions", len(sess.Questions)),
	)
	return sess, nil
}

func (s *Service) ListSessions(ctx context.Context, ownerID string) (*model.SessionListRes, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	sessions, err := s.store.GetSessionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &model.SessionListRes{Sessions: sessions, Count: len(sessions)}, nil
}

func (s *Service) GetSession(ctx context.Context, id, ownerID string) (*model.Session, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.GetSessionByID(ctx, id, ownerID)
}

func (s *Service) DeleteSession(ctx context.Context, id, ownerID string) (*model.DeleteSessionRes, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	n, err := s.store.DeleteSession(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session deleted",
		zap.String("session_id", id),
		zap.Int64("deleted_questions", n),
	)
	return &model.DeleteSessionRes{DeletedQuestionCount: n}, nil
}

// AppendQuestions stores client-supplied pairs on a session the caller owns.
func (s *Service) AppendQuestions(ctx context.Context, ownerID, sessionID string, pairs []model.GeneratedPair) (int, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	if strings.TrimSpace(sessionID) == "" || pairs == nil {
		return 0, apperr.New(apperr.KindValidation, "Invalid input data")
	}
	if _, err := s.store.ownedSession(ctx, sessionID, ownerID); err != nil {
		return 0, err
	}
	return s.store.AppendQuestions(ctx, sessionID, pairs)
}

// LoadMoreQuestions generates count more pairs from the session's own role,
// experience and topics and appends whatever the model returned.
func (s *Service) LoadMoreQuestions(ctx context.Context, ownerID, sessionID string, count int) (int, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	sess, err := s.store.ownedSession(ctx, sessionID, ownerID)
	if err != nil {
		return 0, err
	}

	pairs, err := s.generator.GenerateQuestions(ctx, sess.Role, sess.Experience, sess.TopicsToFocus, count)
	if err != nil {
		return 0, err
	}
	n, err := s.store.AppendQuestions(ctx, sess.ID, pairs)
	if err != nil {
		return 0, err
	}

	if n != count {
		s.logger.Info("load more appended a different number of questions",
			zap.String("session_id", sess.ID),
			zap.Int("requested", count),
			zap.Int("appended", n),
		)
	}
	return n, nil
}

func (s *Service) TogglePin(ctx context.Context, ownerID, questionID string) (*model.Question, error) {
	if err := s.authorizeQuestion(ctx, ownerID, questionID); err != nil {
		return nil, err
	}
	return s.store.TogglePin(ctx, questionID)
}

func (s *Service) UpdateNote(ctx context.Context, ownerID, questionID, note string) (*model.Question, error) {
	if err := s.authorizeQuestion(ctx, ownerID, questionID); err != nil {
		return nil, err
	}
	return s.store.UpdateNote(ctx, questionID, note)
}

// authorizeQuestion checks that the question's session belongs to ownerID.
// A question whose session is already gone reports NotFound.
func (s *Service) authorizeQuestion(ctx context.Context, ownerID, questionID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if _, err := s.store.ownedSession(ctx, q.SessionID, ownerID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.New(apperr.KindNotFound, "Question not found")
		}
		return err
	}
	return nil
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return apperr.New(apperr.KindUnauthenticated, "Not authorized, no user")
	}
	return nil
}
