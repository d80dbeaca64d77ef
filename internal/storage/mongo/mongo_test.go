package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/internal/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

func TestObjectIDMapping(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := objectID(oid.Hex())
	if err != nil || got != oid {
		t.Fatalf("objectID(%s) = %v, %v", oid.Hex(), got, err)
	}
	if _, err := objectID("not-24-hex"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a malformed id, got %v", err)
	}
	if _, err := objectIDs([]string{oid.Hex(), "zz"}); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	if !errors.Is(notFound(mongodrv.ErrNoDocuments), session.ErrNotFound) {
		t.Fatalf("ErrNoDocuments should map to ErrNotFound")
	}
	other := errors.New("socket closed")
	if notFound(other) != other {
		t.Fatalf("other errors must pass through")
	}
}

func TestQuestionDocRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := questionDoc{
		ID:        primitive.NewObjectID(),
		Session:   primitive.NewObjectID(),
		Question:  "What is an index?",
		Answer:    "A data structure...",
		IsPinned:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"_id", "session", "isPinned", "createdAt"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("stored document missing %q: %v", key, fields)
		}
	}

	q := doc.model()
	if q.ID != doc.ID.Hex() || q.SessionID != doc.Session.Hex() || !q.IsPinned {
		t.Fatalf("unexpected model: %+v", q)
	}
}
