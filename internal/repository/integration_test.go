package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/deppfellow/testtable-service/internal/config"
	"github.com/deppfellow/testtable-service/internal/database"
	"github.com/deppfellow/testtable-service/internal/model"
	"github.com/deppfellow/testtable-service/internal/model/testtable"
)

func isDockerRunning(ctx context.Context) bool {
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// setupPostgres starts a throwaway PostgreSQL, applies the migrations and
// returns a pool connected to it.
func setupPostgres(t *testing.T) (*pgxpool.Pool, *config.Config) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	if !isDockerRunning(ctx) {
		t.Skip("docker is not available")
	}

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testtable"),
		postgres.WithUsername("testtable"),
		postgres.WithPassword("testtable"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "starting postgres container")
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     host,
			Port:     port.Int(),
			User:     "testtable",
			Password: "testtable",
			Name:     "testtable",
			SSLMode:  "disable",
		},
	}

	logger := zerolog.Nop()
	require.NoError(t, database.Migrate(ctx, &logger, cfg))
	// A second run must be a no-op.
	require.NoError(t, database.Migrate(ctx, &logger, cfg))

	pool, err := pgxpool.New(ctx, database.DSN(cfg.Database))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool, cfg
}

func TestTestTableRepository_Postgres(t *testing.T) {
	pool, cfg := setupPostgres(t)
	ctx := context.Background()

	clock := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	repo := NewTestTableRepository(pool, WithClock(func() time.Time { return clock }))

	fields := testtable.Fields{
		Name:           "Test Event",
		EventDate:      model.Date{Year: 2024, Month: time.January, Day: 15},
		EventTimestamp: time.Date(2024, 1, 15, 10, 30, 0, 250000000, time.UTC),
		Metadata:       testtable.Metadata{Item: "Sample Item", Description: "Sample Description"},
	}

	t.Run("insert then find returns the same record", func(t *testing.T) {
		inserted, err := repo.Insert(ctx, fields)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, inserted.ID)
		assert.True(t, inserted.CreatedAt.Equal(inserted.UpdatedAt))

		found, err := repo.FindByID(ctx, inserted.ID)
		require.NoError(t, err)
		require.NotNil(t, found)

		assert.Equal(t, fields.Name, found.Name)
		assert.Equal(t, fields.EventDate, found.EventDate)
		assert.True(t, fields.EventTimestamp.Equal(found.EventTimestamp))
		assert.Equal(t, fields.Metadata, found.Metadata)
		assert.True(t, inserted.CreatedAt.Equal(found.CreatedAt))
	})

	t.Run("unknown id is absent", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)

		exists, err := repo.ExistsByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update keeps created_at and advances updated_at", func(t *testing.T) {
		inserted, err := repo.Insert(ctx, fields)
		require.NoError(t, err)

		clock = clock.Add(time.Minute)
		changed := fields
		changed.Name = "Updated Event"
		changed.Metadata = testtable.Metadata{Item: "Updated Item"}

		updated, err := repo.Update(ctx, inserted.ID, changed)
		require.NoError(t, err)
		require.NotNil(t, updated)

		assert.Equal(t, "Updated Event", updated.Name)
		assert.Equal(t, changed.Metadata, updated.Metadata)
		assert.True(t, inserted.CreatedAt.Equal(updated.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	})

	t.Run("update with a clock running backwards does not rewind updated_at", func(t *testing.T) {
		inserted, err := repo.Insert(ctx, fields)
		require.NoError(t, err)

		clock = clock.Add(-time.Hour)
		updated, err := repo.Update(ctx, inserted.ID, fields)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.False(t, updated.UpdatedAt.Before(inserted.UpdatedAt))
		clock = clock.Add(2 * time.Hour)
	})

	t.Run("update of a missing id creates nothing", func(t *testing.T) {
		id := uuid.New()
		updated, err := repo.Update(ctx, id, fields)
		require.NoError(t, err)
		assert.Nil(t, updated)

		exists, err := repo.ExistsByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete is final", func(t *testing.T) {
		inserted, err := repo.Insert(ctx, fields)
		require.NoError(t, err)

		deleted, err := repo.DeleteByID(ctx, inserted.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		found, err := repo.FindByID(ctx, inserted.ID)
		require.NoError(t, err)
		assert.Nil(t, found)

		deleted, err = repo.DeleteByID(ctx, inserted.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("unicode and empty metadata survive storage", func(t *testing.T) {
		f := fields
		f.Name = "Événement 🎉 テスト"
		f.Metadata = testtable.Metadata{}

		inserted, err := repo.Insert(ctx, f)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, inserted.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, f.Name, found.Name)
		assert.Equal(t, testtable.Metadata{}, found.Metadata)
	})

	t.Run("find all lists every stored row", func(t *testing.T) {
		inserted, err := repo.Insert(ctx, fields)
		require.NoError(t, err)

		seen := map[uuid.UUID]bool{}
		for tt, err := range repo.FindAll(ctx) {
			require.NoError(t, err)
			seen[tt.ID] = true
		}
		assert.True(t, seen[inserted.ID])
		assert.GreaterOrEqual(t, len(seen), 5)
	})

	t.Run("migrations roll back and reapply", func(t *testing.T) {
		logger := zerolog.Nop()
		require.NoError(t, database.MigrateTo(ctx, &logger, cfg, 0))

		_, err := repo.ExistsByID(ctx, uuid.New())
		require.Error(t, err, "test_table must be gone")

		require.NoError(t, database.Migrate(ctx, &logger, cfg))
		exists, err := repo.ExistsByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, exists)

		assert.Error(t, database.MigrateTo(ctx, &logger, cfg, 99))
	})
}
