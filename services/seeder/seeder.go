package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// SeedFile is the declarative template catalog voxctl applies against the
// staff API. One file describes templates plus the invites to issue under
// each.
type SeedFile struct {
	Templates []SeedTemplate `yaml:"templates"`
}

type SeedTemplate struct {
	JobTitle       string         `yaml:"job_title"`
	CompanyName    string         `yaml:"company_name"`
	JobDescription string         `yaml:"job_description"`
	Competencies   []string       `yaml:"competencies"`
	MustAsk        []string       `yaml:"must_ask_questions"`
	Config         map[string]any `yaml:"config"`
	Invites        []SeedInvite   `yaml:"invites"`
}

type SeedInvite struct {
	Name           string `yaml:"name"`
	Email          string `yaml:"email"`
	ExpiresInHours int    `yaml:"expires_in_hours"`
}

// Parse decodes and validates a seed file. Unknown keys are rejected so a
// typoed field fails here instead of being silently dropped by the API.
func Parse(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed SeedFile
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	if len(seed.Templates) == 0 {
		return nil, errors.New("seed file has no templates")
	}
	for i, tpl := range seed.Templates {
		if strings.TrimSpace(tpl.JobTitle) == "" {
			return nil, fmt.Errorf("template %d: job_title is required", i)
		}
		if strings.TrimSpace(tpl.CompanyName) == "" {
			return nil, fmt.Errorf("template %d: company_name is required", i)
		}
		if len(tpl.Competencies) == 0 {
			return nil, fmt.Errorf("template %d (%s): at least one competency is required", i, tpl.JobTitle)
		}
		for j, inv := range tpl.Invites {
			if strings.TrimSpace(inv.Name) == "" || strings.TrimSpace(inv.Email) == "" {
				return nil, fmt.Errorf("template %d invite %d: name and email are required", i, j)
			}
		}
	}
	return &seed, nil
}

// Client applies seed files through the staff HTTP API rather than writing to
// the database directly, so seeding exercises the same validation and audit
// path as the dashboard.
type Client struct {
	base   string
	userID string
	orgID  string
	http   *http.Client
	log    zerolog.Logger
}

func NewClient(base, userID, orgID string, log zerolog.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		userID: userID,
		orgID:  orgID,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// IssuedInvite pairs a created session token with the candidate it was
// issued to, for printing after apply.
type IssuedInvite struct {
	JobTitle  string    `json:"job_title"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Apply creates every template in the seed file and issues its invites.
func (c *Client) Apply(ctx context.Context, seed *SeedFile) ([]IssuedInvite, error) {
	var issued []IssuedInvite

	for _, tpl := range seed.Templates {
		tplID, err := c.createTemplate(ctx, tpl)
		if err != nil {
			return issued, fmt.Errorf("template %q: %w", tpl.JobTitle, err)
		}
		c.log.Info().Str("id", tplID).Str("job_title", tpl.JobTitle).Msg("template created")

		for _, inv := range tpl.Invites {
			got, err := c.CreateInvite(ctx, tplID, inv)
			if err != nil {
				return issued, fmt.Errorf("invite %q under %q: %w", inv.Email, tpl.JobTitle, err)
			}
			got.JobTitle = tpl.JobTitle
			got.Email = inv.Email
			issued = append(issued, got)
		}
	}
	return issued, nil
}

func (c *Client) createTemplate(ctx context.Context, tpl SeedTemplate) (string, error) {
	payload := map[string]any{
		"job_title":          tpl.JobTitle,
		"company_name":       tpl.CompanyName,
		"job_description":    tpl.JobDescription,
		"competencies":       tpl.Competencies,
		"must_ask_questions": tpl.MustAsk,
	}
	if tpl.Config != nil {
		payload["config"] = tpl.Config
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/v1/templates", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// CreateInvite issues a single invite under an existing template.
func (c *Client) CreateInvite(ctx context.Context, templateID string, inv SeedInvite) (IssuedInvite, error) {
	payload := map[string]any{
		"candidate": map[string]string{"name": inv.Name, "email": inv.Email},
	}
	if inv.ExpiresInHours > 0 {
		payload["expires_in_hours"] = inv.ExpiresInHours
	}

	var resp struct {
		SessionID string    `json:"session_id"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := c.post(ctx, "/v1/templates/"+templateID+"/invites", payload, &resp); err != nil {
		return IssuedInvite{}, err
	}
	return IssuedInvite{SessionID: resp.SessionID, Token: resp.Token, ExpiresAt: resp.ExpiresAt}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", c.userID)
	req.Header.Set("X-Org-ID", c.orgID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
