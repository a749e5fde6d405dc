package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"trialbridge/internal/trials/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo reads trials from the trials table.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new Postgres trial repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// List returns every trial ordered by position.
func (r *Repo) List(ctx context.Context) ([]domain.Trial, error) {
	query := `
		SELECT id, title, condition, phase, sponsor, location, distance, match_score,
			description, eligibility_criteria, duration, compensation, requirements,
			next_steps, contact_email, enrollment_status, spots_remaining, criteria
		FROM trials
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trials: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Trial, 0)
	for rows.Next() {
		var t domain.Trial
		var criteria []byte
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Condition,
			&t.Phase,
			&t.Sponsor,
			&t.Location,
			&t.Distance,
			&t.MatchScore,
			&t.Description,
			&t.EligibilityCriteria,
			&t.Duration,
			&t.Compensation,
			&t.Requirements,
			&t.NextSteps,
			&t.ContactEmail,
			&t.EnrollmentStatus,
			&t.SpotsRemaining,
			&criteria,
		); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		if err := json.Unmarshal(criteria, &t.Criteria); err != nil {
			return nil, fmt.Errorf("decode criteria of trial %s: %w", t.ID, err)
		}
		items = append(items, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate trials: %w", rows.Err())
	}

	return items, nil
}

// Seed inserts trials in order when the table is empty and reports how many
// rows were written.
func (r *Repo) Seed(ctx context.Context, trials []domain.Trial) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trials`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trials: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	query := `
		INSERT INTO trials (id, position, title, condition, phase, sponsor, location, distance,
			match_score, description, eligibility_criteria, duration, compensation, requirements,
			next_steps, contact_email, enrollment_status, spots_remaining, criteria)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING`

	batch := &pgx.Batch{}
	for i, t := range trials {
		criteria, err := json.Marshal(t.Criteria)
		if err != nil {
			return 0, fmt.Errorf("encode criteria of trial %s: %w", t.ID, err)
		}
		batch.Queue(query,
			t.ID, i, t.Title, t.Condition, t.Phase, t.Sponsor, t.Location, t.Distance,
			t.MatchScore, t.Description, nonNil(t.EligibilityCriteria), t.Duration, t.Compensation,
			nonNil(t.Requirements), nonNil(t.NextSteps), t.ContactEmail, t.EnrollmentStatus, t.SpotsRemaining,
			string(criteria),
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("seed trials: %w", err)
	}
	return len(trials), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
