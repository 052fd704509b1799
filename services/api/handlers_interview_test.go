package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voxhire/services/interview"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type apiFixture struct {
	api    *API
	router http.Handler
	store  *interview.MemStore
	token  string
}

func newAPIFixture(t *testing.T, expiresAt time.Time) *apiFixture {
	t.Helper()

	store := interview.NewMemStore()
	tpl := &interview.Template{
		ID:           uuid.New(),
		OrgID:        "org-1",
		JobTitle:     "Backend Engineer",
		CompanyName:  "Acme",
		Competencies: []string{"Go", "Distributed systems"},
		MustAsk:      []string{"Are you authorized to work in the EU?"},
		Config: interview.TemplateConfig{
			MaxDurationMinutes: 20,
			Depth:              interview.DepthModerate,
			VoiceID:            "aura-2-thalia-en",
			Language:           "en",
		},
	}
	store.PutTemplate(tpl)

	cand := &interview.Candidate{ID: uuid.New(), Name: "Jordan Fisher", Email: "jordan@example.com"}
	store.PutCandidate(cand)

	token := uuid.NewString()
	store.PutSession(&interview.Session{
		ID:          uuid.New(),
		Token:       token,
		TemplateID:  tpl.ID,
		CandidateID: &cand.ID,
		Status:      interview.StatusInvited,
		InvitedAt:   testNow.Add(-time.Hour),
		ExpiresAt:   expiresAt,
	})

	engine, err := interview.NewEngine(store, func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	a := &API{
		cfg: Config{
			VoiceAPIKey:        "dk_test_key",
			VoiceThinkModel:    "gpt-4o-mini",
			VoiceThinkProvider: "open_ai",
			AllowedOrigins:     []string{"*"},
		},
		log:    zerolog.Nop(),
		engine: engine,
	}
	return &apiFixture{api: a, router: a.Routes(), store: store, token: token}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) action(t *testing.T, body any) *httptest.ResponseRecorder {
	return f.do(t, http.MethodPost, "/v1/interviews/"+f.token+"/actions", body)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestInterviewReadUnknownToken(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))

	rec := f.do(t, http.MethodGet, "/v1/interviews/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestInterviewReadReturnsView(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))

	rec := f.do(t, http.MethodGet, "/v1/interviews/"+f.token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var view interviewView
	decodeBody(t, rec, &view)
	if view.Status != "invited" {
		t.Errorf("status = %q, want invited", view.Status)
	}
	if view.JobTitle != "Backend Engineer" || view.CompanyName != "Acme" {
		t.Errorf("template context = %q at %q", view.JobTitle, view.CompanyName)
	}
	if view.CandidateName != "Jordan Fisher" {
		t.Errorf("candidate_name = %q", view.CandidateName)
	}
	if view.Transcript != "" {
		t.Errorf("transcript leaked before completion: %q", view.Transcript)
	}
}

func TestExpiredLinkReturnsGone(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(-time.Minute))

	rec := f.do(t, http.MethodGet, "/v1/interviews/"+f.token, nil)
	if rec.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "expired" {
		t.Errorf("body status = %q, want expired", body["status"])
	}

	// The lazy transition persisted: starting afterwards is still rejected.
	rec = f.action(t, map[string]any{"action": "start"})
	if rec.Code != http.StatusGone {
		t.Fatalf("start after expiry = %d, want 410", rec.Code)
	}
}

func TestUnknownActionRejected(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))

	rec := f.action(t, map[string]any{"action": "pause"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pause") {
		t.Errorf("error should name the action, got %s", rec.Body.String())
	}
}

func TestStartReturnsVoicePayload(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))

	rec := f.action(t, map[string]any{"action": "start"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Session sessionView       `json:"session"`
		Voice   VoiceAgentPayload `json:"voice"`
	}
	decodeBody(t, rec, &resp)

	if resp.Session.Status != "in_progress" {
		t.Errorf("session status = %q, want in_progress", resp.Session.Status)
	}
	if resp.Voice.APIKey != "dk_test_key" {
		t.Errorf("apiKey = %q", resp.Voice.APIKey)
	}
	if !strings.Contains(resp.Voice.Instructions, "Backend Engineer") ||
		!strings.Contains(resp.Voice.Instructions, "Jordan Fisher") {
		t.Errorf("instructions missing template context:\n%s", resp.Voice.Instructions)
	}
	if resp.Voice.Config.MaxDuration != 20 || resp.Voice.Config.Voice != "aura-2-thalia-en" {
		t.Errorf("config = %+v", resp.Voice.Config)
	}
	if len(resp.Voice.Config.PacingSchedule) != 5 {
		t.Fatalf("pacing schedule has %d directives, want 5", len(resp.Voice.Config.PacingSchedule))
	}
	if got := resp.Voice.Config.PacingSchedule[0].TriggerMinute; got != 10 {
		t.Errorf("first checkpoint at %v, want 10", got)
	}

	// Second start must not restart the interview.
	rec = f.action(t, map[string]any{"action": "start"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second start = %d, want 409", rec.Code)
	}
}

func TestStartWithoutVoiceCredential(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))
	f.api.cfg.VoiceAPIKey = ""

	rec := f.action(t, map[string]any{"action": "start"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	// The credential check ran before the transition: the session is still
	// startable once the deployment is fixed.
	rec = f.do(t, http.MethodGet, "/v1/interviews/"+f.token, nil)
	var view interviewView
	decodeBody(t, rec, &view)
	if view.Status != "invited" {
		t.Errorf("status = %q, want invited", view.Status)
	}
}

func TestTurnRequiresPayload(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))
	f.action(t, map[string]any{"action": "start"})

	rec := f.action(t, map[string]any{"action": "turn"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = f.action(t, map[string]any{
		"action":           "turn",
		"conversationTurn": map[string]string{"role": "moderator", "content": "hi"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown role = %d, want 400", rec.Code)
	}
}

func TestTurnRejectsLegacyFieldName(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))
	f.action(t, map[string]any{"action": "start"})

	// The wire field is conversationTurn; unknown keys are rejected outright.
	rec := f.action(t, map[string]any{
		"action": "turn",
		"turn":   map[string]string{"role": "interviewer", "content": "Hi"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTurnBeforeStartConflicts(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))

	rec := f.action(t, map[string]any{
		"action":           "turn",
		"conversationTurn": map[string]string{"role": "interviewer", "content": "Hi"},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCompleteFlattensTranscript(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))
	f.action(t, map[string]any{"action": "start"})

	for _, turn := range []map[string]string{
		{"role": "interviewer", "content": "Tell me about yourself."},
		{"role": "candidate", "content": "I build backend systems in Go."},
	} {
		rec := f.action(t, map[string]any{"action": "turn", "conversationTurn": turn})
		if rec.Code != http.StatusOK {
			t.Fatalf("turn = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	rec := f.action(t, map[string]any{
		"action":  "complete",
		"metrics": map[string]any{"duration_seconds": 540},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete = %d, body %s", rec.Code, rec.Body.String())
	}

	var view sessionView
	decodeBody(t, rec, &view)
	want := "INTERVIEWER: Tell me about yourself.\n\nCANDIDATE: I build backend systems in Go."
	if view.Transcript != want {
		t.Errorf("transcript = %q, want %q", view.Transcript, want)
	}
	if view.Status != "completed" {
		t.Errorf("status = %q, want completed", view.Status)
	}

	// Completion is terminal: further mutations conflict, reads still work.
	rec = f.action(t, map[string]any{
		"action":           "turn",
		"conversationTurn": map[string]string{"role": "candidate", "content": "one more thing"},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("turn after complete = %d, want 409", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/interviews/"+f.token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read after complete = %d, want 200", rec.Code)
	}
	var readView interviewView
	decodeBody(t, rec, &readView)
	if readView.Transcript != want {
		t.Errorf("read transcript = %q, want %q", readView.Transcript, want)
	}
}

func TestStaffRoutesRequireIdentity(t *testing.T) {
	f := newAPIFixture(t, testNow.Add(24*time.Hour))

	rec := f.do(t, http.MethodGet, "/v1/templates", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
