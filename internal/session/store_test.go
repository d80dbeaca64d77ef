package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
	"github.com/SeptianSamdany/interview-prep-ai/internal/session"
	"github.com/SeptianSamdany/interview-prep-ai/internal/storage/memory"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
)

// countingBackend records lookups and can fail question inserts. It embeds
// the interface so the memory backend's cascade delete is hidden.
type countingBackend struct {
	session.Backend
	lookups      int
	failInsertAt int
}

func (b *countingBackend) FindSession(ctx context.Context, id string) (*model.Session, error) {
	b.lookups++
	return b.Backend.FindSession(ctx, id)
}

func (b *countingBackend) FindQuestion(ctx context.Context, id string) (*model.Question, error) {
	b.lookups++
	return b.Backend.FindQuestion(ctx, id)
}

func (b *countingBackend) InsertQuestions(ctx context.Context, qs []*model.Question) (int, error) {
	if b.failInsertAt > 0 && len(qs) >= b.failInsertAt {
		n, _ := b.Backend.InsertQuestions(ctx, qs[:b.failInsertAt-1])
		return n, errors.New("connection reset by peer")
	}
	return b.Backend.InsertQuestions(ctx, qs)
}

// cancellingBackend cancels the request while inserting questions, the way a
// client disconnect does, and refuses deletes on a done context like a real
// driver.
type cancellingBackend struct {
	session.Backend
	cancel context.CancelFunc
}

func (b *cancellingBackend) InsertQuestions(ctx context.Context, qs []*model.Question) (int, error) {
	n, _ := b.Backend.InsertQuestions(ctx, qs[:1])
	b.cancel()
	return n, ctx.Err()
}

func (b *cancellingBackend) DeleteQuestionsBySession(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return b.Backend.DeleteQuestionsBySession(ctx, id)
}

func (b *cancellingBackend) DeleteQuestions(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Backend.DeleteQuestions(ctx, ids)
}

func (b *cancellingBackend) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Backend.DeleteSession(ctx, id)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%024x", n)
	}
}

// steppingClock advances one minute on every call.
func steppingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestStore(b session.Backend) *session.Store {
	return session.NewStore(b, nil,
		session.WithIDGenerator(sequentialIDs()),
		session.WithClock(steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
	)
}

func pairs(texts ...string) []model.GeneratedPair {
	out := make([]model.GeneratedPair, len(texts))
	for i, t := range texts {
		out[i] = model.GeneratedPair{Question: t, Answer: "answer to " + t}
	}
	return out
}

func createSession(t *testing.T, st *session.Store, owner string, qs ...string) *model.Session {
	t.Helper()
	sess, err := st.CreateSession(context.Background(), session.CreateParams{
		OwnerID:       owner,
		Role:          "Backend Engineer",
		Experience:    "3 years",
		TopicsToFocus: "Node.js,SQL",
		Pairs:         pairs(qs...),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return sess
}

func TestCreateSessionWithOnePair(t *testing.T) {
	st := newTestStore(memory.New())

	sess, err := st.CreateSession(context.Background(), session.CreateParams{
		OwnerID:       "u1",
		Role:          "Backend Engineer",
		Experience:    "3 years",
		TopicsToFocus: "Node.js,SQL",
		Pairs:         []model.GeneratedPair{{Question: "What is an index?", Answer: "A data structure..."}},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if len(sess.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(sess.Questions))
	}
	q := sess.Questions[0]
	if q.Question != "What is an index?" || q.SessionID != sess.ID || q.IsPinned {
		t.Fatalf("unexpected question: %+v", q)
	}
	if !session.ValidID(sess.ID) || !session.ValidID(q.ID) {
		t.Fatalf("generated ids are not 24 hex chars: %q %q", sess.ID, q.ID)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	cases := map[string][]model.GeneratedPair{
		"no pairs":       nil,
		"missing answer": {{Question: "Q?"}},
		"blank question": {{Question: "  ", Answer: "A"}},
	}

	for name, ps := range cases {
		t.Run(name, func(t *testing.T) {
			mem := memory.New()
			st := newTestStore(mem)

			_, err := st.CreateSession(context.Background(), session.CreateParams{
				OwnerID: "u1", Role: "r", Experience: "e", TopicsToFocus: "t", Pairs: ps,
			})
			if !errors.Is(err, apperr.Validation) {
				t.Fatalf("expected Validation, got %v", err)
			}
			if got, _ := mem.FindSessionsByOwner(context.Background(), "u1"); len(got) != 0 {
				t.Fatalf("nothing should be persisted, found %d sessions", len(got))
			}
		})
	}
}

func TestCreateSessionPartialFailureSelfCleans(t *testing.T) {
	mem := memory.New()
	cb := &countingBackend{Backend: mem, failInsertAt: 2}
	st := newTestStore(cb)

	_, err := st.CreateSession(context.Background(), session.CreateParams{
		OwnerID: "u1", Role: "r", Experience: "e", TopicsToFocus: "t",
		Pairs: pairs("one", "two", "three"),
	})
	if !errors.Is(err, apperr.PartialCreation) {
		t.Fatalf("expected PartialCreation, got %v", err)
	}

	ctx := context.Background()
	if got, _ := mem.FindSessionsByOwner(ctx, "u1"); len(got) != 0 {
		t.Fatalf("session should be removed, found %d", len(got))
	}
	// the session took the first generated id
	qs, _ := mem.FindQuestionsBySessions(ctx, []string{fmt.Sprintf("%024x", 1)})
	if len(qs) != 0 {
		t.Fatalf("orphan questions left behind: %d", len(qs))
	}
}

func TestTogglePinTwiceRestores(t *testing.T) {
	st := newTestStore(memory.New())
	sess := createSession(t, st, "u1", "Q1")
	qid := sess.Questions[0].ID
	ctx := context.Background()

	first, err := st.TogglePin(ctx, qid)
	if err != nil {
		t.Fatalf("TogglePin: %v", err)
	}
	if !first.IsPinned {
		t.Fatalf("expected pinned after first toggle")
	}

	second, err := st.TogglePin(ctx, qid)
	if err != nil {
		t.Fatalf("TogglePin: %v", err)
	}
	if second.IsPinned != sess.Questions[0].IsPinned {
		t.Fatalf("two toggles must restore the original value")
	}
}

func TestTogglePinMissingQuestion(t *testing.T) {
	st := newTestStore(memory.New())

	_, err := st.TogglePin(context.Background(), "0123456789abcdef01234567")
	if !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	_, err = st.TogglePin(context.Background(), "bad")
	if !errors.Is(err, apperr.InvalidID) {
		t.Fatalf("expected InvalidID, got %v", err)
	}
}

func TestGetSessionByIDOrdersPinnedFirst(t *testing.T) {
	st := newTestStore(memory.New())
	ctx := context.Background()

	sess := createSession(t, st, "u1", "t1")
	if _, err := st.AppendQuestions(ctx, sess.ID, pairs("t2")); err != nil {
		t.Fatalf("AppendQuestions: %v", err)
	}
	if _, err := st.AppendQuestions(ctx, sess.ID, pairs("t3")); err != nil {
		t.Fatalf("AppendQuestions: %v", err)
	}

	got, err := st.GetSessionByID(ctx, sess.ID, "u1")
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if _, err := st.TogglePin(ctx, got.Questions[1].ID); err != nil {
		t.Fatalf("TogglePin: %v", err)
	}

	got, err = st.GetSessionByID(ctx, sess.ID, "u1")
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	var order []string
	for _, q := range got.Questions {
		order = append(order, q.Question)
	}
	want := []string{"t2", "t1", "t3"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if !got.Questions[0].IsPinned {
		t.Fatalf("first question should be pinned")
	}
}

func TestBatchKeepsInsertionOrder(t *testing.T) {
	st := newTestStore(memory.New())
	sess := createSession(t, st, "u1", "a", "b", "c", "d")

	got, err := st.GetSessionByID(context.Background(), sess.ID, "u1")
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	for i, want := range []string{"a", "b", "c", "d"} {
		if got.Questions[i].Question != want {
			t.Fatalf("question %d = %q, want %q", i, got.Questions[i].Question, want)
		}
	}
}

func TestGetSessionByIDErrors(t *testing.T) {
	st := newTestStore(memory.New())
	sess := createSession(t, st, "ownerA", "Q1")

	cases := []struct {
		name  string
		id    string
		owner string
		want  *apperr.Error
	}{
		{"wrong owner", sess.ID, "ownerB", apperr.Forbidden},
		{"missing", "ffffffffffffffffffffffff", "ownerA", apperr.NotFound},
		{"short id", "abc", "ownerA", apperr.InvalidID},
		{"non hex", "zzzzzzzzzzzzzzzzzzzzzzzz", "ownerA", apperr.InvalidID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := st.GetSessionByID(context.Background(), tc.id, tc.owner)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want.Kind, err)
			}
		})
	}
}

func TestInvalidIDRejectedBeforeLookup(t *testing.T) {
	cb := &countingBackend{Backend: memory.New()}
	st := newTestStore(cb)
	ctx := context.Background()

	if _, err := st.GetSessionByID(ctx, "not-24-hex", "u1"); !errors.Is(err, apperr.InvalidID) {
		t.Fatalf("GetSessionByID: expected InvalidID, got %v", err)
	}
	if _, err := st.DeleteSession(ctx, "not-24-hex", "u1"); !errors.Is(err, apperr.InvalidID) {
		t.Fatalf("DeleteSession: expected InvalidID, got %v", err)
	}
	if _, err := st.GetQuestion(ctx, "not-24-hex"); !errors.Is(err, apperr.InvalidID) {
		t.Fatalf("GetQuestion: expected InvalidID, got %v", err)
	}
	if cb.lookups != 0 {
		t.Fatalf("expected no backend lookups, got %d", cb.lookups)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	backends := map[string]func() session.Backend{
		"transactional": func() session.Backend { return memory.New() },
		"two step":      func() session.Backend { return &countingBackend{Backend: memory.New()} },
	}

	for name, newBackend := range backends {
		t.Run(name, func(t *testing.T) {
			b := newBackend()
			st := newTestStore(b)
			ctx := context.Background()

			sess := createSession(t, st, "u1", "a", "b")
			if _, err := st.AppendQuestions(ctx, sess.ID, pairs("c")); err != nil {
				t.Fatalf("AppendQuestions: %v", err)
			}
			other := createSession(t, st, "u1", "keep")

			n, err := st.DeleteSession(ctx, sess.ID, "u1")
			if err != nil {
				t.Fatalf("DeleteSession: %v", err)
			}
			if n != 3 {
				t.Fatalf("deleted count = %d, want 3", n)
			}

			left, _ := b.FindQuestionsBySessions(ctx, []string{sess.ID})
			if len(left) != 0 {
				t.Fatalf("%d questions survived their session", len(left))
			}
			if _, err := st.GetSessionByID(ctx, sess.ID, "u1"); !errors.Is(err, apperr.NotFound) {
				t.Fatalf("expected NotFound after delete, got %v", err)
			}
			kept, err := st.GetSessionByID(ctx, other.ID, "u1")
			if err != nil || len(kept.Questions) != 1 {
				t.Fatalf("unrelated session damaged: %v %+v", err, kept)
			}
		})
	}
}

func TestDeleteSessionForbidden(t *testing.T) {
	mem := memory.New()
	st := newTestStore(mem)
	sess := createSession(t, st, "ownerA", "Q1")

	_, err := st.DeleteSession(context.Background(), sess.ID, "ownerB")
	if !errors.Is(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	qs, _ := mem.FindQuestionsBySessions(context.Background(), []string{sess.ID})
	if len(qs) != 1 {
		t.Fatalf("questions must survive a forbidden delete")
	}
}

func TestGetSessionsByOwnerNewestFirst(t *testing.T) {
	st := newTestStore(memory.New())
	first := createSession(t, st, "u1", "a")
	second := createSession(t, st, "u1", "b", "c")
	createSession(t, st, "u2", "x")

	got, err := st.GetSessionsByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetSessionsByOwner: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("sessions not newest first: %s, %s", got[0].ID, got[1].ID)
	}
	if len(got[0].Questions) != 2 || len(got[1].Questions) != 1 {
		t.Fatalf("questions not populated per session")
	}
}

func TestAppendQuestionsEmptyIsNoop(t *testing.T) {
	st := newTestStore(memory.New())
	sess := createSession(t, st, "u1", "a")

	n, err := st.AppendQuestions(context.Background(), sess.ID, []model.GeneratedPair{})
	if err != nil || n != 0 {
		t.Fatalf("AppendQuestions = %d, %v", n, err)
	}
}

func TestAppendQuestionsRollsBackOnFailure(t *testing.T) {
	mem := memory.New()
	cb := &countingBackend{Backend: mem}
	st := newTestStore(cb)
	sess := createSession(t, st, "u1", "a")

	cb.failInsertAt = 2
	_, err := st.AppendQuestions(context.Background(), sess.ID, pairs("b", "c"))
	if err == nil {
		t.Fatalf("expected an error")
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("expected an internal store error, got %v", err)
	}

	qs, _ := mem.FindQuestionsBySessions(context.Background(), []string{sess.ID})
	if len(qs) != 1 {
		t.Fatalf("partial append left %d questions, want 1", len(qs))
	}
}

func TestCreateSessionCleansUpAfterCancelledRequest(t *testing.T) {
	mem := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := newTestStore(&cancellingBackend{Backend: mem, cancel: cancel})

	_, err := st.CreateSession(ctx, session.CreateParams{
		OwnerID: "u1", Role: "r", Experience: "e", TopicsToFocus: "t",
		Pairs: pairs("a", "b", "c"),
	})
	if !errors.Is(err, apperr.PartialCreation) {
		t.Fatalf("expected PartialCreation, got %v", err)
	}

	bg := context.Background()
	if got, _ := mem.FindSessionsByOwner(bg, "u1"); len(got) != 0 {
		t.Fatalf("cancelled create left %d sessions behind", len(got))
	}
	if n, _ := mem.DeleteQuestionsBySession(bg, fmt.Sprintf("%024x", 1)); n != 0 {
		t.Fatalf("cancelled create left %d questions behind", n)
	}
}

func TestAppendRollsBackAfterCancelledRequest(t *testing.T) {
	mem := memory.New()
	sess := createSession(t, newTestStore(mem), "u1", "first")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := session.NewStore(&cancellingBackend{Backend: mem, cancel: cancel}, nil)

	if _, err := st.AppendQuestions(ctx, sess.ID, pairs("x", "y")); !errors.Is(err, apperr.Internal) {
		t.Fatalf("expected Internal, got %v", err)
	}

	qs, err := mem.FindQuestionsBySessions(context.Background(), []string{sess.ID})
	if err != nil || len(qs) != 1 {
		t.Fatalf("expected only the original question, got %d (%v)", len(qs), err)
	}
}
