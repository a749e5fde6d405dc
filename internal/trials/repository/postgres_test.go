package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"trialbridge/internal/trials/domain"
	"trialbridge/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DATABASE_URL inside a throwaway schema with the
// migrations applied.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres repository test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "trials_test_" + uuid.NewString()[:8]
	admin, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		_ = admin.Close(context.Background())
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.RunMigrations(ctx, pool))
	return pool
}

func seedTrial(id string, score int) domain.Trial {
	return domain.Trial{
		ID:                  id,
		Title:               fmt.Sprintf("Trial %s", id),
		Condition:           "Melanoma",
		Phase:               "Phase II",
		Sponsor:             "Sponsor",
		Location:            "Boston, MA",
		Distance:            "1 mile",
		MatchScore:          score,
		Description:         "Description",
		EligibilityCriteria: []string{"Age 18+ years"},
		Duration:            "12 months",
		Compensation:        "None",
		ContactEmail:        "coordinator@example.org",
		EnrollmentStatus:    "Actively Recruiting",
		SpotsRemaining:      3,
	}
}

func TestRepoSeedAndListKeepPosition(t *testing.T) {
	pool := testPool(t)
	repo := New(pool)
	ctx := context.Background()

	minAge := 18.0
	first := seedTrial("NCT00000009", 60)
	first.Criteria = domain.Criteria{
		Inclusion: domain.InclusionCriteria{AgeRange: &domain.Range{Min: &minAge}, Diagnoses: []string{"melanoma"}},
		Exclusion: domain.ExclusionCriteria{Pregnancy: true},
	}
	seeded := []domain.Trial{first, seedTrial("NCT00000001", 95), seedTrial("NCT00000005", 80)}

	n, err := repo.Seed(ctx, seeded)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []string{"NCT00000009", "NCT00000001", "NCT00000005"},
		[]string{listed[0].ID, listed[1].ID, listed[2].ID})
	assert.Equal(t, []string{"Age 18+ years"}, listed[0].EligibilityCriteria)
	assert.Empty(t, listed[0].Requirements)

	require.NotNil(t, listed[0].Criteria.Inclusion.AgeRange)
	assert.Equal(t, 18.0, *listed[0].Criteria.Inclusion.AgeRange.Min)
	assert.Equal(t, []string{"melanoma"}, listed[0].Criteria.Inclusion.Diagnoses)
	assert.True(t, listed[0].Criteria.Exclusion.Pregnancy)

	catalog, err := LoadCatalog(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())
}

func TestRepoSeedSkipsPopulatedTable(t *testing.T) {
	pool := testPool(t)
	repo := New(pool)
	ctx := context.Background()

	_, err := repo.Seed(ctx, []domain.Trial{seedTrial("NCT00000001", 90)})
	require.NoError(t, err)

	n, err := repo.Seed(ctx, []domain.Trial{seedTrial("NCT00000002", 70), seedTrial("NCT00000003", 50)})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "NCT00000001", listed[0].ID)
}
