// Package ai turns free-form generative model output into validated
// question/answer pairs and concept explanations.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
	"github.com/SeptianSamdany/interview-prep-ai/internal/metrics"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"go.uber.org/zap"
)

// MaxQuestionCount caps how many pairs a single request may ask for.
const MaxQuestionCount = 50

const (
	msgGenerateQuestions = "failed to generate questions"
	msgExplain           = "failed to generate explanation"
	msgConfiguration     = "AI service configuration error"
	msgQuota             = "AI service quota exceeded"
	msgMalformed         = "AI response parsing error"
)

// Completer is a text-completion model reached over the network.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ExplanationCache stores explanations by question text.
type ExplanationCache interface {
	GetExplanation(ctx context.Context, question string) (*model.Explanation, bool, error)
	SetExplanation(ctx context.Context, question string, exp *model.Explanation) error
}

type Service struct {
	completer Completer
	cache     ExplanationCache
	timeout   time.Duration
	logger    *zap.Logger
}

type Option func(*Service)

// WithTimeout bounds every model call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithExplanationCache(c ExplanationCache) Option {
	return func(s *Service) { s.cache = c }
}

func NewService(completer Completer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		completer: completer,
		timeout:   30 * time.Second,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateQuestions asks the model for count pairs. The model may return more
// or fewer; callers must use len of the result, not count.
func (s *Service) GenerateQuestions(ctx context.Context, role, experience, topicsToFocus string, count int) ([]model.GeneratedPair, error) {
	if err := validateGenerateInput(role, experience, topicsToFocus, count); err != nil {
		return nil, err
	}

	raw, err := s.complete(ctx, "generate_questions", questionAnswerPrompt(role, experience, topicsToFocus, count))
	if err != nil {
		return nil, classify(err, msgGenerateQuestions)
	}

	pairs, err := parsePairs(raw)
	if err != nil {
		s.logMalformed("generate_questions", raw, err)
		return nil, err
	}

	if len(pairs) != count {
		s.logger.Info("model returned a different number of questions",
			zap.Int("requested", count),
			zap.Int("returned", len(pairs)),
		)
	}
	return pairs, nil
}

// ExplainConcept returns a title and explanation for a single question.
func (s *Service) ExplainConcept(ctx context.Context, question string) (*model.Explanation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperr.New(apperr.KindValidation, "Missing required field: question")
	}

	if s.cache != nil {
		exp, ok, err := s.cache.GetExplanation(ctx, question)
		if err != nil {
			s.logger.Warn("explanation cache read failed", zap.Error(err))
		} else if ok {
			return exp, nil
		}
	}

	raw, err := s.complete(ctx, "explain_concept", conceptExplainPrompt(question))
	if err != nil {
		return nil, classify(err, msgExplain)
	}

	exp, err := parseExplanation(raw)
	if err != nil {
		s.logMalformed("explain_concept", raw, err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetExplanation(ctx, question, exp); err != nil {
			s.logger.Warn("explanation cache write failed", zap.Error(err))
		}
	}
	return exp, nil
}

func (s *Service) complete(ctx context.Context, op, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.completer.Complete(ctx, prompt)
	outcome := "success"
	if err != nil {
		outcome = apperr.KindOf(classify(err, "")).String()
		s.logger.Error("model call failed", zap.String("operation", op), zap.Error(err))
	}
	metrics.RecordAICall(op, outcome, time.Since(start))
	return raw, err
}

func (s *Service) logMalformed(op, raw string, err error) {
	s.logger.Error("model returned unusable output",
		zap.String("operation", op),
		zap.String("preview", Preview(raw)),
		zap.Error(err),
	)
}

func validateGenerateInput(role, experience, topicsToFocus string, count int) error {
	if strings.TrimSpace(role) == "" || strings.TrimSpace(experience) == "" ||
		strings.TrimSpace(topicsToFocus) == "" || count == 0 {
		return apperr.New(apperr.KindValidation,
			"Missing required fields: role, experience, topics_to_focus, number_of_questions")
	}
	if count < 0 || count > MaxQuestionCount {
		return apperr.Newf(apperr.KindValidation,
			"number_of_questions must be between 1 and %d", MaxQuestionCount)
	}
	return nil
}

// classify maps a completer failure onto the error taxonomy. Errors the
// provider already classified keep their kind; anything else, timeouts
// included, becomes a generic upstream failure carrying fallback.
func classify(err error, fallback string) *apperr.Error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case apperr.KindConfiguration:
			return apperr.Wrap(apperr.KindConfiguration, msgConfiguration, err).WithDetail("Invalid or missing API key")
		case apperr.KindQuotaExceeded:
			return apperr.Wrap(apperr.KindQuotaExceeded, msgQuota, err).WithDetail("Please try again later")
		case apperr.KindMalformedResponse:
			return apperr.Wrap(apperr.KindMalformedResponse, msgMalformed, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindUpstream, fallback, err).WithDetail("model call timed out")
	case strings.Contains(msg, "api key"):
		return apperr.Wrap(apperr.KindConfiguration, msgConfiguration, err).WithDetail("Invalid or missing API key")
	case strings.Contains(msg, "quota"):
		return apperr.Wrap(apperr.KindQuotaExceeded, msgQuota, err).WithDetail("Please try again later")
	}
	return apperr.Wrap(apperr.KindUpstream, fallback, err)
}

func parsePairs(raw string) ([]model.GeneratedPair, error) {
	span, err := Extract(raw)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(span, &items); err != nil {
		return nil, apperr.Wrap(apperr.KindMalformedResponse, msgMalformed, err).
			WithDetail("expected a JSON array of question/answer objects")
	}

	pairs := make([]model.GeneratedPair, 0, len(items))
	for _, item := range items {
		var fields map[string]any
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		q, qok := nonEmptyString(fields["question"])
		a, aok := nonEmptyString(fields["answer"])
		if !qok || !aok {
			continue
		}
		pairs = append(pairs, model.GeneratedPair{Question: q, Answer: a})
	}

	if len(pairs) == 0 {
		return nil, apperr.New(apperr.KindMalformedResponse, msgMalformed).
			WithDetail("no element had a non-empty question and answer")
	}
	return pairs, nil
}

func parseExplanation(raw string) (*model.Explanation, error) {
	span, err := Extract(raw)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(span, &fields); err != nil {
		// A single wrapped object is accepted.
		var items []map[string]any
		if aerr := json.Unmarshal(span, &items); aerr != nil || len(items) != 1 {
			return nil, apperr.Wrap(apperr.KindMalformedResponse, msgMalformed, err).
				WithDetail("expected a JSON object with title and explanation")
		}
		fields = items[0]
	}

	title, tok := nonEmptyString(fields["title"])
	text, eok := nonEmptyString(fields["explanation"])
	if !tok || !eok {
		return nil, apperr.New(apperr.KindMalformedResponse, msgMalformed).
			WithDetail("title and explanation must be non-empty strings")
	}
	return &model.Explanation{Title: title, Explanation: text}, nil
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
