package interview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestFixture(t *testing.T, expiresAt time.Time) (*Engine, *MemStore, *Session) {
	t.Helper()

	store := NewMemStore()
	tpl := &Template{
		ID:           uuid.New(),
		OrgID:        "org-1",
		JobTitle:     "Backend Engineer",
		CompanyName:  "Acme",
		Competencies: []string{"Go", "Distributed systems"},
		Config: TemplateConfig{
			MaxDurationMinutes: 20,
			Depth:              DepthModerate,
			VoiceID:            "nova",
			Language:           "en",
		},
	}
	store.PutTemplate(tpl)

	candID := uuid.New()
	store.PutCandidate(&Candidate{ID: candID, Name: "Jordan Fisher", Email: "jordan@example.com"})

	sess := &Session{
		ID:          uuid.New(),
		Token:       uuid.NewString(),
		TemplateID:  tpl.ID,
		CandidateID: &candID,
		Status:      StatusInvited,
		InvitedAt:   testNow.Add(-time.Hour),
		ExpiresAt:   expiresAt,
	}
	store.PutSession(sess)

	engine, err := NewEngine(store, func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine, store, sess
}

func TestResolveUnknownToken(t *testing.T) {
	engine, _, _ := newTestFixture(t, testNow.Add(time.Hour))
	if _, err := engine.Resolve(context.Background(), "no-such-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartMovesSessionForward(t *testing.T) {
	engine, _, sess := newTestFixture(t, testNow.Add(time.Hour))

	started, err := engine.Start(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != StatusInProgress {
		t.Fatalf("unexpected status: %s", started.Status)
	}
	if started.StartedAt == nil || !started.StartedAt.Equal(testNow) {
		t.Fatalf("startedAt not stamped with clock time: %v", started.StartedAt)
	}
}

func TestStartTwiceIsRejected(t *testing.T) {
	engine, _, sess := newTestFixture(t, testNow.Add(time.Hour))
	ctx := context.Background()

	first, err := engine.Start(ctx, sess.Token)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	_, err = engine.Start(ctx, sess.Token)
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transition.Action != ActionStart || transition.Status != StatusInProgress {
		t.Fatalf("transition error does not name action and state: %+v", transition)
	}

	resolved, err := engine.Resolve(ctx, sess.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolved.Session.StartedAt.Equal(*first.StartedAt) {
		t.Fatalf("startedAt clobbered by second start: %v vs %v", resolved.Session.StartedAt, first.StartedAt)
	}
}

func TestLazyExpiry(t *testing.T) {
	engine, store, sess := newTestFixture(t, testNow.Add(-time.Minute))
	ctx := context.Background()

	if _, err := engine.Resolve(ctx, sess.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired from resolve, got %v", err)
	}

	stored, err := store.GetSessionByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("get stored session: %v", err)
	}
	if stored.Status != StatusExpired {
		t.Fatalf("lazy expiry not persisted, status = %s", stored.Status)
	}

	if _, err := engine.Start(ctx, sess.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired from start, got %v", err)
	}
}

func TestStartedSessionOutlivesDeadline(t *testing.T) {
	engine, store, sess := newTestFixture(t, testNow.Add(time.Minute))
	ctx := context.Background()

	if _, err := engine.Start(ctx, sess.Token); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Push the stored deadline into the past; a session that started before
	// its deadline is still allowed to finish.
	store.mu.Lock()
	store.sessions[sess.ID].ExpiresAt = testNow.Add(-time.Minute)
	store.mu.Unlock()

	if _, err := engine.AppendTurn(ctx, sess.Token, Turn{Role: RoleInterviewer, Content: "Hi"}); err != nil {
		t.Fatalf("turn after deadline on in_progress session: %v", err)
	}
	if _, err := engine.Complete(ctx, sess.Token, nil); err != nil {
		t.Fatalf("complete after deadline on in_progress session: %v", err)
	}
}

func TestTurnBeforeStartIsInvalidTransition(t *testing.T) {
	engine, _, sess := newTestFixture(t, testNow.Add(time.Hour))

	_, err := engine.AppendTurn(context.Background(), sess.Token, Turn{Role: RoleCandidate, Content: "Hello"})
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transition.Action != ActionTurn || transition.Status != StatusInvited {
		t.Fatalf("transition error does not name action and state: %+v", transition)
	}
}

func TestAppendTurnRejectsMalformedTurns(t *testing.T) {
	engine, _, sess := newTestFixture(t, testNow.Add(time.Hour))
	ctx := context.Background()
	if _, err := engine.Start(ctx, sess.Token); err != nil {
		t.Fatalf("start: %v", err)
	}

	cases := []Turn{
		{Role: RoleCandidate, Content: "   "},
		{Role: "moderator", Content: "hello"},
		{},
	}
	for _, turn := range cases {
		if _, err := engine.AppendTurn(ctx, sess.Token, turn); !errors.Is(err, ErrInvalidTurn) {
			t.Fatalf("expected ErrInvalidTurn for %+v, got %v", turn, err)
		}
	}

	// A malformed turn is not an unrecognized action; the two must stay
	// distinguishable for callers branching on the sentinel.
	if _, err := engine.AppendTurn(ctx, sess.Token, Turn{}); errors.Is(err, ErrInvalidAction) {
		t.Fatalf("malformed turn reported as ErrInvalidAction")
	}
}

func TestCompleteFlattensTranscript(t *testing.T) {
	engine, _, sess := newTestFixture(t, testNow.Add(time.Hour))
	ctx := context.Background()

	if _, err := engine.Start(ctx, sess.Token); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := engine.AppendTurn(ctx, sess.Token, Turn{Role: RoleInterviewer, Content: "Hi"}); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if _, err := engine.AppendTurn(ctx, sess.Token, Turn{Role: RoleCandidate, Content: "Hello"}); err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	completed, err := engine.Complete(ctx, sess.Token, map[string]any{"duration_seconds": 312})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Fatalf("unexpected status: %s", completed.Status)
	}
	if completed.Transcript != "INTERVIEWER: Hi\n\nCANDIDATE: Hello" {
		t.Fatalf("unexpected transcript: %q", completed.Transcript)
	}
	if completed.CompletedAt == nil || !completed.CompletedAt.Equal(testNow) {
		t.Fatalf("completedAt not stamped: %v", completed.CompletedAt)
	}
	if completed.Metrics["duration_seconds"] != 312 {
		t.Fatalf("metrics not persisted: %+v", completed.Metrics)
	}
}

func TestMutationsAfterCompletion(t *testing.T) {
	engine, _, sess := newTestFixture(t, testNow.Add(time.Hour))
	ctx := context.Background()

	if _, err := engine.Start(ctx, sess.Token); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := engine.AppendTurn(ctx, sess.Token, Turn{Role: RoleInterviewer, Content: "Hi"}); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if _, err := engine.Complete(ctx, sess.Token, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := engine.AppendTurn(ctx, sess.Token, Turn{Role: RoleCandidate, Content: "late"}); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted for turn, got %v", err)
	}
	if _, err := engine.Complete(ctx, sess.Token, nil); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted for second complete, got %v", err)
	}
	if _, err := engine.Start(ctx, sess.Token); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted for start, got %v", err)
	}

	// Read access still works and serves the stored transcript.
	resolved, err := engine.Resolve(ctx, sess.Token)
	if err != nil {
		t.Fatalf("resolve completed session: %v", err)
	}
	if resolved.Session.Transcript != "INTERVIEWER: Hi" {
		t.Fatalf("stored transcript not served: %q", resolved.Session.Transcript)
	}
}

func TestConcurrentTurnsBothSurvive(t *testing.T) {
	engine, _, sess := newTestFixture(t, testNow.Add(time.Hour))
	ctx := context.Background()

	if _, err := engine.Start(ctx, sess.Token); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, content := range []string{"first", "second"} {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			_, err := engine.AppendTurn(ctx, sess.Token, Turn{Role: RoleCandidate, Content: content})
			errs <- err
		}(content)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent append: %v", err)
		}
	}

	resolved, err := engine.Resolve(ctx, sess.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved.Session.Turns) != 2 {
		t.Fatalf("lost a turn: %d stored", len(resolved.Session.Turns))
	}
	seen := map[string]bool{}
	for _, turn := range resolved.Session.Turns {
		seen[turn.Content] = true
	}
	if !seen["first"] || !seen["second"] {
		t.Fatalf("missing turn content: %+v", resolved.Session.Turns)
	}
}

func TestResolveLoadsTemplateAndCandidate(t *testing.T) {
	engine, _, sess := newTestFixture(t, testNow.Add(time.Hour))

	resolved, err := engine.Resolve(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Template == nil || resolved.Template.JobTitle != "Backend Engineer" {
		t.Fatalf("template not resolved: %+v", resolved.Template)
	}
	if resolved.Candidate == nil || resolved.Candidate.Name != "Jordan Fisher" {
		t.Fatalf("candidate not resolved: %+v", resolved.Candidate)
	}
}
