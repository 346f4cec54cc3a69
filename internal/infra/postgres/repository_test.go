package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"engagement-engine/internal/domain"
)

// setupTestDB creates a PostgreSQL testcontainer and returns a connected GORM DB.
//
// Prerequisites:
//   - Docker must be running
//   - OR skip tests with: go test -short
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := postgresContainer.Run(ctx,
		"postgres:16-alpine",
		postgresContainer.WithDatabase("testdb"),
		postgresContainer.WithUsername("testuser"),
		postgresContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container (is Docker running? use -short to skip): %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, err := gorm.Open(postgresDriver.Open(connStr), &gorm.Config{
		Logger: nil, // Silent logger for tests
	})
	require.NoError(t, err, "Failed to connect to test database")

	err = db.AutoMigrate(&ContentModel{}, &PromotionRecordModel{})
	require.NoError(t, err, "Failed to run migrations")

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func seedItem(t *testing.T, repo *Repository, id string, tier domain.Tier, likes int64) *domain.ContentItem {
	t.Helper()

	item := domain.NewContentItem(id, "author-"+id, time.Now().UTC().Add(-time.Hour))
	item.Tier = tier
	item.Counters.Likes = likes
	require.NoError(t, repo.Track(context.Background(), item))

	return item
}

func TestRepository_TrackAndGetCounters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	seedItem(t, repo, "c1", domain.TierPost, 20)

	item, err := repo.GetCounters(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", item.ID)
	assert.Equal(t, domain.TierPost, item.Tier)
	assert.Equal(t, int64(20), item.Counters.Likes)
}

func TestRepository_Track_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	seedItem(t, repo, "c1", domain.TierPost, 20)

	// Re-tracking must not clobber existing state.
	dup := domain.NewContentItem("c1", "someone-else", time.Now().UTC())
	require.NoError(t, repo.Track(ctx, dup))

	item, err := repo.GetCounters(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "author-c1", item.AuthorID)
	assert.Equal(t, int64(20), item.Counters.Likes)
}

func TestRepository_GetCounters_NotTracked(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)

	_, err := repo.GetCounters(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotTracked)
}

func TestRepository_UpdateTier(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	seedItem(t, repo, "c1", domain.TierPost, 0)

	require.NoError(t, repo.UpdateTier(ctx, "c1", domain.TierSpot))

	item, err := repo.GetCounters(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierSpot, item.Tier)

	// Regressions and tier skips are refused.
	assert.Error(t, repo.UpdateTier(ctx, "c1", domain.TierPost))

	seedItem(t, repo, "c2", domain.TierPost, 0)
	assert.Error(t, repo.UpdateTier(ctx, "c2", domain.TierChallenge))
}

func TestRepository_ListByTier(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	seedItem(t, repo, "p1", domain.TierPost, 0)
	seedItem(t, repo, "s1", domain.TierSpot, 0)
	seedItem(t, repo, "s2", domain.TierSpot, 0)

	spots, err := repo.ListByTier(ctx, domain.TierSpot)
	require.NoError(t, err)
	assert.Len(t, spots, 2)

	all, err := repo.ListTracked(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepository_Delete_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	seedItem(t, repo, "c1", domain.TierPost, 0)

	require.NoError(t, repo.Delete(ctx, "c1"))
	require.NoError(t, repo.Delete(ctx, "c1"))

	_, err := repo.GetCounters(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotTracked)
}

func TestRepository_Append_DedupsTransition(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	rec, err := domain.NewPromotionRecord("c1", domain.TierPost, domain.TierSpot, time.Now().UTC())
	require.NoError(t, err)

	inserted, err := repo.Append(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Append(ctx, rec)
	require.NoError(t, err)
	assert.False(t, inserted, "second append of the same transition must be a no-op")

	records, err := repo.ListByContent(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRepository_Append_ConcurrentSingleWinner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	rec, err := domain.NewPromotionRecord("c1", domain.TierSpot, domain.TierChallenge, time.Now().UTC())
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan bool, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := repo.Append(ctx, rec)
			if err == nil {
				results <- inserted
			}
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for inserted := range results {
		if inserted {
			winners++
		}
	}

	assert.Equal(t, 1, winners, "exactly one writer should insert the record")
}

func TestRepository_ListByContent_Order(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	first, err := domain.NewPromotionRecord("c1", domain.TierPost, domain.TierSpot, base)
	require.NoError(t, err)
	second, err := domain.NewPromotionRecord("c1", domain.TierSpot, domain.TierChallenge, base.Add(30*time.Minute))
	require.NoError(t, err)

	_, err = repo.Append(ctx, second)
	require.NoError(t, err)
	_, err = repo.Append(ctx, first)
	require.NoError(t, err)

	records, err := repo.ListByContent(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.TierSpot, records[0].ToTier)
	assert.Equal(t, domain.TierChallenge, records[1].ToTier)
}
