package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"engagement-engine/internal/domain"
	"engagement-engine/internal/ranking"
)

type rankHarness struct {
	store  *fakeStore
	promos *fakePromotionLog
	index  *ranking.Index
	scores *ScoreService
	svc    *RankService
}

func newRankHarness(t *testing.T, items ...*domain.ContentItem) *rankHarness {
	t.Helper()

	store := newFakeStore(items...)
	promos := newFakePromotionLog()
	index := ranking.New()
	scores := NewScoreService(store, nil, index, testScoringConfig(), zap.NewNop())

	return &rankHarness{
		store:  store,
		promos: promos,
		index:  index,
		scores: scores,
		svc:    NewRankService(store, promos, scores, index, zap.NewNop()),
	}
}

func (h *rankHarness) refreshAll(t *testing.T) {
	t.Helper()
	items, err := h.store.ListTracked(context.Background())
	require.NoError(t, err)
	for _, item := range items {
		h.scores.RefreshItem(context.Background(), item)
	}
}

func TestRankService_GetTopRanked(t *testing.T) {
	spot := spotItem("s1", 30) // score 90
	h := newRankHarness(t,
		freshItem("c1", domain.Counters{Likes: 20}), // score 60
		freshItem("c2", domain.Counters{Views: 5}),  // score 10
		spot,
	)
	h.refreshAll(t)

	rows, err := h.svc.GetTopRanked(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "s1", rows[0].ContentID)
	assert.Equal(t, domain.TierSpot, rows[0].Tier)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, "c1", rows[1].ContentID)
	assert.Equal(t, domain.TierPost, rows[1].Tier)
}

func TestRankService_GetTopRanked_DropsDeletedItems(t *testing.T) {
	h := newRankHarness(t,
		freshItem("c1", domain.Counters{Likes: 20}),
		freshItem("c2", domain.Counters{Views: 5}),
	)
	h.refreshAll(t)

	// Deleted from the store but still lingering in the index: the page
	// skips it instead of failing.
	require.NoError(t, h.store.Delete(context.Background(), "c1"))

	rows, err := h.svc.GetTopRanked(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c2", rows[0].ContentID)
	assert.Equal(t, 1, rows[0].Rank)
}

func TestRankService_GetScore(t *testing.T) {
	h := newRankHarness(t, freshItem("c1", domain.Counters{Likes: 20}))

	snap, err := h.svc.GetScore(context.Background(), "c1")
	require.NoError(t, err)
	assert.InDelta(t, 60.0, snap.Score, 0.01)

	_, err = h.svc.GetScore(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotTracked)
}

func TestRankService_GetTier(t *testing.T) {
	h := newRankHarness(t,
		freshItem("c1", domain.Counters{Likes: 20}),
		freshItem("c2", domain.Counters{Views: 5}),
	)
	h.refreshAll(t)

	tier, pct, err := h.svc.GetTier(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierPost, tier)
	assert.Equal(t, 1.0, pct)

	_, _, err = h.svc.GetTier(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotTracked)
}

func TestRankService_GetTier_RanksOnDemandAfterRestart(t *testing.T) {
	// No refreshAll: the index is cold, as right after a restart.
	h := newRankHarness(t, freshItem("c1", domain.Counters{Likes: 20}))

	tier, pct, err := h.svc.GetTier(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierPost, tier)
	assert.Equal(t, 1.0, pct)
	assert.Equal(t, 1, h.index.Len())
}

func TestRankService_GetPromotions(t *testing.T) {
	h := newRankHarness(t, spotItem("s1", 10))

	rec, err := domain.NewPromotionRecord("s1", domain.TierPost, domain.TierSpot, time.Now())
	require.NoError(t, err)
	_, err = h.promos.Append(context.Background(), rec)
	require.NoError(t, err)

	recs, err := h.svc.GetPromotions(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.TierSpot, recs[0].ToTier)

	_, err = h.svc.GetPromotions(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotTracked)
}
