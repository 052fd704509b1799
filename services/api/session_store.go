package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voxhire/pkg/db"
	"voxhire/services/interview"
)

// sessionStore implements interview.Store on postgres. Every mutation is a
// single conditional UPDATE (or one transaction) keyed on the current status,
// so concurrent requests across processes serialize in the database rather
// than behind an in-process lock.
type sessionStore struct {
	pool *pgxpool.Pool
}

func newSessionStore(pool *pgxpool.Pool) *sessionStore {
	return &sessionStore{pool: pool}
}

const sessionColumns = `id, token, template_id, candidate_id, status, invited_at,
	expires_at, started_at, completed_at, turns, metrics, full_transcript`

type sessionRow struct {
	ID             uuid.UUID  `db:"id"`
	Token          string     `db:"token"`
	TemplateID     uuid.UUID  `db:"template_id"`
	CandidateID    *uuid.UUID `db:"candidate_id"`
	Status         string     `db:"status"`
	InvitedAt      time.Time  `db:"invited_at"`
	ExpiresAt      time.Time  `db:"expires_at"`
	StartedAt      *time.Time `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	Turns          []byte     `db:"turns"`
	Metrics        []byte     `db:"metrics"`
	FullTranscript string     `db:"full_transcript"`
}

func (r *sessionRow) toDomain() (*interview.Session, error) {
	var turns []interview.Turn
	if len(r.Turns) > 0 {
		if err := json.Unmarshal(r.Turns, &turns); err != nil {
			return nil, interview.StorageError(err)
		}
	}

	var metrics map[string]any
	if len(r.Metrics) > 0 {
		if err := json.Unmarshal(r.Metrics, &metrics); err != nil {
			return nil, interview.StorageError(err)
		}
	}

	return &interview.Session{
		ID:          r.ID,
		Token:       r.Token,
		TemplateID:  r.TemplateID,
		CandidateID: r.CandidateID,
		Status:      interview.Status(r.Status),
		InvitedAt:   r.InvitedAt,
		ExpiresAt:   r.ExpiresAt,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Turns:       turns,
		Metrics:     metrics,
		Transcript:  r.FullTranscript,
	}, nil
}

func (s *sessionStore) GetSessionByToken(ctx context.Context, token string) (*interview.Session, error) {
	var row sessionRow
	err := db.Get(ctx, s.pool, &row,
		`SELECT `+sessionColumns+` FROM interview_sessions WHERE token = $1`, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interview.ErrNotFound
		}
		return nil, interview.StorageError(err)
	}
	return row.toDomain()
}

func (s *sessionStore) getSessionByID(ctx context.Context, id uuid.UUID) (*interview.Session, error) {
	var row sessionRow
	err := db.Get(ctx, s.pool, &row,
		`SELECT `+sessionColumns+` FROM interview_sessions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interview.ErrNotFound
		}
		return nil, interview.StorageError(err)
	}
	return row.toDomain()
}

const templateColumns = `id, org_id, job_title, company_name, job_description,
	competencies, must_ask, config, created_at`

type templateRow struct {
	ID             uuid.UUID `db:"id"`
	OrgID          string    `db:"org_id"`
	JobTitle       string    `db:"job_title"`
	CompanyName    string    `db:"company_name"`
	JobDescription string    `db:"job_description"`
	Competencies   []byte    `db:"competencies"`
	MustAsk        []byte    `db:"must_ask"`
	Config         []byte    `db:"config"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *templateRow) toDomain() (*interview.Template, error) {
	tpl := &interview.Template{
		ID:             r.ID,
		OrgID:          r.OrgID,
		JobTitle:       r.JobTitle,
		CompanyName:    r.CompanyName,
		JobDescription: r.JobDescription,
		CreatedAt:      r.CreatedAt,
	}
	if len(r.Competencies) > 0 {
		if err := json.Unmarshal(r.Competencies, &tpl.Competencies); err != nil {
			return nil, interview.StorageError(err)
		}
	}
	if len(r.MustAsk) > 0 {
		if err := json.Unmarshal(r.MustAsk, &tpl.MustAsk); err != nil {
			return nil, interview.StorageError(err)
		}
	}
	if len(r.Config) > 0 {
		if err := json.Unmarshal(r.Config, &tpl.Config); err != nil {
			return nil, interview.StorageError(err)
		}
	}
	return tpl, nil
}

func (s *sessionStore) GetTemplate(ctx context.Context, id uuid.UUID) (*interview.Template, error) {
	var row templateRow
	err := db.Get(ctx, s.pool, &row,
		`SELECT `+templateColumns+` FROM interview_templates WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interview.ErrNotFound
		}
		return nil, interview.StorageError(err)
	}
	return row.toDomain()
}

// ListTemplates returns an org's templates, newest first.
func (s *sessionStore) ListTemplates(ctx context.Context, orgID string) ([]*interview.Template, error) {
	var rows []*templateRow
	err := db.Select(ctx, s.pool, &rows,
		`SELECT `+templateColumns+` FROM interview_templates
		 WHERE org_id = $1 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, interview.StorageError(err)
	}

	out := make([]*interview.Template, 0, len(rows))
	for _, row := range rows {
		tpl, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}

func (s *sessionStore) GetCandidate(ctx context.Context, id uuid.UUID) (*interview.Candidate, error) {
	var cand interview.Candidate
	err := db.Get(ctx, s.pool, &cand,
		`SELECT id, name, email FROM candidates WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interview.ErrNotFound
		}
		return nil, interview.StorageError(err)
	}
	return &cand, nil
}

func (s *sessionStore) ExpireSession(ctx context.Context, id uuid.UUID) error {
	_, err := db.Exec(ctx, s.pool,
		`UPDATE interview_sessions SET status = 'expired'
		 WHERE id = $1 AND status = 'invited'`, id)
	if err != nil {
		return interview.StorageError(err)
	}
	return nil
}

func (s *sessionStore) StartSession(ctx context.Context, id uuid.UUID, at time.Time) (*interview.Session, error) {
	var row sessionRow
	err := db.Get(ctx, s.pool, &row,
		`UPDATE interview_sessions SET status = 'in_progress', started_at = $2
		 WHERE id = $1 AND status = 'invited' AND expires_at > $2
		 RETURNING `+sessionColumns, id, at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.denyFromCurrent(ctx, id, interview.ActionStart, at)
		}
		return nil, interview.StorageError(err)
	}
	return row.toDomain()
}

func (s *sessionStore) AppendTurn(ctx context.Context, id uuid.UUID, turn interview.Turn) (*interview.Session, error) {
	payload, err := json.Marshal([]interview.Turn{turn})
	if err != nil {
		return nil, interview.StorageError(err)
	}

	var row sessionRow
	err = db.Get(ctx, s.pool, &row,
		`UPDATE interview_sessions SET turns = turns || $2::jsonb
		 WHERE id = $1 AND status = 'in_progress'
		 RETURNING `+sessionColumns, id, payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.denyFromCurrent(ctx, id, interview.ActionTurn, time.Time{})
		}
		return nil, interview.StorageError(err)
	}
	return row.toDomain()
}

func (s *sessionStore) CompleteSession(ctx context.Context, id uuid.UUID, at time.Time, metrics map[string]any, flatten interview.FlattenFunc) (*interview.Session, error) {
	var metricsJSON []byte
	if metrics != nil {
		raw, err := json.Marshal(metrics)
		if err != nil {
			return nil, interview.StorageError(err)
		}
		metricsJSON = raw
	}

	ctx, cancel := context.WithTimeout(ctx, db.DefaultTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, interview.StorageError(err)
	}
	defer tx.Rollback(ctx)

	// The status flip and the transcript write commit together, so the
	// flattened transcript is written exactly once and always matches the
	// final turn sequence.
	var turnsRaw []byte
	err = tx.QueryRow(ctx,
		`UPDATE interview_sessions
		 SET status = 'completed', completed_at = $2, metrics = COALESCE($3::jsonb, metrics)
		 WHERE id = $1 AND status = 'in_progress'
		 RETURNING turns`, id, at, metricsJSON).Scan(&turnsRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.denyFromCurrent(ctx, id, interview.ActionComplete, time.Time{})
		}
		return nil, interview.StorageError(err)
	}

	var turns []interview.Turn
	if len(turnsRaw) > 0 {
		if err := json.Unmarshal(turnsRaw, &turns); err != nil {
			return nil, interview.StorageError(err)
		}
	}

	var row sessionRow
	err = pgxscan.Get(ctx, tx, &row,
		`UPDATE interview_sessions SET full_transcript = $2
		 WHERE id = $1 RETURNING `+sessionColumns, id, flatten(turns))
	if err != nil {
		return nil, interview.StorageError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, interview.StorageError(err)
	}
	return row.toDomain()
}

// denyFromCurrent re-reads the session after a guarded update matched zero
// rows and maps the observed state to the error taxonomy. at, when non-zero,
// distinguishes a start that lost to its own deadline from a bad transition.
func (s *sessionStore) denyFromCurrent(ctx context.Context, id uuid.UUID, action interview.Action, at time.Time) error {
	sess, err := s.getSessionByID(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status == interview.StatusInvited {
		if !at.IsZero() && at.After(sess.ExpiresAt) {
			if err := s.ExpireSession(ctx, id); err != nil {
				return err
			}
			return interview.ErrExpired
		}
		return interview.DenyTransition(action, sess.Status)
	}
	return interview.DenyTransition(action, sess.Status)
}
