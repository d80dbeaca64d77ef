package firestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SeptianSamdany/interview-prep-ai/internal/session"
)

func TestNewStoreRequiresProject(t *testing.T) {
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected an error without a project id")
	}
}

func TestNotFound(t *testing.T) {
	err := notFound(status.Error(codes.NotFound, "no such document"), "op")
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("NotFound status should map to ErrNotFound, got %v", err)
	}

	err = notFound(status.Error(codes.Unavailable, "try later"), "op")
	if errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Unavailable must not map to ErrNotFound")
	}
}

func TestToQuestion(t *testing.T) {
	now := time.Now().UTC()
	q := toQuestion("0123456789abcdef01234567", &questionDoc{
		SessionID: "aaaaaaaaaaaaaaaaaaaaaaaa",
		Question:  "What is an index?",
		Answer:    "A data structure...",
		IsPinned:  true,
		CreatedAt: now,
	})
	if q.ID != "0123456789abcdef01234567" || q.SessionID != "aaaaaaaaaaaaaaaaaaaaaaaa" || !q.IsPinned {
		t.Fatalf("unexpected question: %+v", q)
	}
}
