package seeder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const validSeed = `
templates:
  - job_title: Backend Engineer
    company_name: Acme
    job_description: Build and run our Go services.
    competencies:
      - Go
      - Distributed systems
    must_ask_questions:
      - Are you authorized to work in the EU?
    config:
      max_duration_minutes: 30
      depth: deep
    invites:
      - name: Jordan Fisher
        email: jordan@example.com
        expires_in_hours: 72
`

func TestParseValidSeed(t *testing.T) {
	seed, err := Parse(strings.NewReader(validSeed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(seed.Templates) != 1 {
		t.Fatalf("templates = %d, want 1", len(seed.Templates))
	}
	tpl := seed.Templates[0]
	if tpl.JobTitle != "Backend Engineer" || tpl.CompanyName != "Acme" {
		t.Errorf("template = %q at %q", tpl.JobTitle, tpl.CompanyName)
	}
	if len(tpl.Competencies) != 2 {
		t.Errorf("competencies = %v", tpl.Competencies)
	}
	if tpl.Config["depth"] != "deep" {
		t.Errorf("config depth = %v", tpl.Config["depth"])
	}
	if len(tpl.Invites) != 1 || tpl.Invites[0].ExpiresInHours != 72 {
		t.Errorf("invites = %+v", tpl.Invites)
	}
}

func TestParseRejectsBadSeeds(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty", "templates: []"},
		{"missing job title", "templates:\n  - company_name: Acme\n    competencies: [Go]"},
		{"missing competencies", "templates:\n  - job_title: SRE\n    company_name: Acme"},
		{"unknown field", "templates:\n  - job_title: SRE\n    company_name: Acme\n    competencies: [Go]\n    tite: typo"},
		{"invite without email", "templates:\n  - job_title: SRE\n    company_name: Acme\n    competencies: [Go]\n    invites:\n      - name: Sam"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.yaml)); err == nil {
				t.Fatal("Parse accepted a bad seed")
			}
		})
	}
}

func TestApplyCreatesTemplatesAndInvites(t *testing.T) {
	var gotPaths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Org-ID") != "org-1" || r.Header.Get("X-User-ID") != "user-1" {
			t.Errorf("missing identity headers on %s", r.URL.Path)
		}
		gotPaths = append(gotPaths, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		switch {
		case r.URL.Path == "/v1/templates":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "11111111-1111-1111-1111-111111111111"})
		case strings.HasSuffix(r.URL.Path, "/invites"):
			_ = json.NewEncoder(w).Encode(map[string]string{
				"session_id": "22222222-2222-2222-2222-222222222222",
				"token":      "tok-abc",
				"expires_at": "2026-03-13T15:00:00Z",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	seed, err := Parse(strings.NewReader(validSeed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	client := NewClient(srv.URL, "user-1", "org-1", zerolog.Nop())
	issued, err := client.Apply(context.Background(), seed)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(issued) != 1 {
		t.Fatalf("issued = %d, want 1", len(issued))
	}
	if issued[0].Token != "tok-abc" || issued[0].Email != "jordan@example.com" {
		t.Errorf("issued = %+v", issued[0])
	}

	wantPaths := []string{
		"/v1/templates",
		"/v1/templates/11111111-1111-1111-1111-111111111111/invites",
	}
	if len(gotPaths) != len(wantPaths) {
		t.Fatalf("paths = %v, want %v", gotPaths, wantPaths)
	}
	for i := range wantPaths {
		if gotPaths[i] != wantPaths[i] {
			t.Errorf("path[%d] = %q, want %q", i, gotPaths[i], wantPaths[i])
		}
	}
}

func TestApplyStopsOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	seed, err := Parse(strings.NewReader(validSeed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	client := NewClient(srv.URL, "user-1", "org-1", zerolog.Nop())
	if _, err := client.Apply(context.Background(), seed); err == nil {
		t.Fatal("Apply should surface the API error")
	}
}
