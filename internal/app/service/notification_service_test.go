package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"engagement-engine/internal/domain"
)

func newNotificationService(t *testing.T, dispatched *fakeDispatcher) *NotificationService {
	t.Helper()
	guard, _ := testGuard(t)
	return NewNotificationService(dispatched, guard, testCache(t), testNotificationConfig(), zap.NewNop())
}

func likeEvent(contentID string) domain.EngagementEvent {
	return domain.EngagementEvent{
		Kind:       domain.EventLike,
		ContentID:  contentID,
		ActorID:    "actor-1",
		OccurredAt: time.Now(),
	}
}

func TestNotificationService_LikeMilestoneFiresOnExactMultiple(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	item := freshItem("c1", domain.Counters{Likes: 50})
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)

	intents := dispatched.byKind(domain.IntentLikeMilestone)
	require.Len(t, intents, 1)
	assert.Equal(t, "author-1", intents[0].UserID)
	assert.Equal(t, "50", intents[0].Payload["milestone"])
}

func TestNotificationService_LikeMilestoneFiresWhenCounterRacesPastMultiple(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	// Two likes delivered close together: both re-read the counter after
	// it already moved past 50. The crossed multiple still fires, once.
	item := freshItem("c1", domain.Counters{Likes: 51})
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)

	intents := dispatched.byKind(domain.IntentLikeMilestone)
	require.Len(t, intents, 1)
	assert.Equal(t, "50", intents[0].Payload["milestone"])
}

func TestNotificationService_LikeMilestoneSilentBeforeFirstMultiple(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	for _, likes := range []int64{1, 30, 49} {
		item := freshItem("c1", domain.Counters{Likes: likes})
		svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)
	}

	assert.Empty(t, dispatched.byKind(domain.IntentLikeMilestone))
}

func TestNotificationService_LikeMilestoneDedupsDuplicateDelivery(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	item := freshItem("c1", domain.Counters{Likes: 100})
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)

	// Both crossed multiples announced, each exactly once.
	intents := dispatched.byKind(domain.IntentLikeMilestone)
	require.Len(t, intents, 2)
	assert.Equal(t, "50", intents[0].Payload["milestone"])
	assert.Equal(t, "100", intents[1].Payload["milestone"])
}

func TestNotificationService_DistinctMilestonesBothFire(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	item := freshItem("c1", domain.Counters{Likes: 50})
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)

	item.Counters.Likes = 100
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)

	intents := dispatched.byKind(domain.IntentLikeMilestone)
	require.Len(t, intents, 2)
	assert.Equal(t, "50", intents[0].Payload["milestone"])
	assert.Equal(t, "100", intents[1].Payload["milestone"])
}

func TestNotificationService_LikeMilestoneWithoutWatermarkStore(t *testing.T) {
	guard, _ := testGuard(t)
	dispatched := &fakeDispatcher{}
	svc := NewNotificationService(dispatched, guard, nil, testNotificationConfig(), zap.NewNop())

	// Degraded mode: only a landed-on multiple fires, and history is
	// never replayed.
	item := freshItem("c1", domain.Counters{Likes: 50})
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)

	item.Counters.Likes = 51
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)

	intents := dispatched.byKind(domain.IntentLikeMilestone)
	require.Len(t, intents, 1)
	assert.Equal(t, "50", intents[0].Payload["milestone"])
}

func TestNotificationService_PopularityEntryOncePerLifetime(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	item := freshItem("c1", domain.Counters{Likes: 40})
	ev := domain.EngagementEvent{Kind: domain.EventView, ContentID: "c1"}

	svc.EvaluateEvent(context.Background(), item, ev, 120)
	svc.EvaluateEvent(context.Background(), item, ev, 150)

	intents := dispatched.byKind(domain.IntentPopularityEntry)
	require.Len(t, intents, 1)
	assert.Equal(t, "120.00", intents[0].Payload["score"])
}

func TestNotificationService_PopularityEntryBelowThreshold(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	item := freshItem("c1", domain.Counters{Likes: 10})
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 99.99)

	assert.Empty(t, dispatched.byKind(domain.IntentPopularityEntry))
}

func TestNotificationService_PopularityEntryClosedForOldContent(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	item := domain.NewContentItem("c1", "author-1", time.Now().Add(-15*24*time.Hour))
	item.Counters = domain.Counters{Likes: 500}
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 150)

	assert.Empty(t, dispatched.byKind(domain.IntentPopularityEntry))
}

func TestNotificationService_CommentReplyPassThrough(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	item := freshItem("c1", domain.Counters{Replies: 3})
	ev := domain.EngagementEvent{
		Kind:      domain.EventReply,
		ContentID: "c1",
		ActorID:   "actor-2",
		ReplyID:   "r-7",
	}
	svc.EvaluateEvent(context.Background(), item, ev, 10)

	intents := dispatched.byKind(domain.IntentCommentReply)
	require.Len(t, intents, 1)
	assert.Equal(t, "author-1", intents[0].UserID)
	assert.Equal(t, "r-7", intents[0].Payload["reply_id"])
	assert.Equal(t, "actor-2", intents[0].Payload["actor_id"])
}

func TestNotificationService_ReplyWithoutIDStaysSilent(t *testing.T) {
	dispatched := &fakeDispatcher{}
	svc := newNotificationService(t, dispatched)

	item := freshItem("c1", domain.Counters{Replies: 1})
	ev := domain.EngagementEvent{Kind: domain.EventReply, ContentID: "c1"}
	svc.EvaluateEvent(context.Background(), item, ev, 10)

	assert.Empty(t, dispatched.byKind(domain.IntentCommentReply))
}

func TestNotificationService_DispatchFailureIsSwallowed(t *testing.T) {
	dispatched := &fakeDispatcher{err: assert.AnError}
	svc := newNotificationService(t, dispatched)

	item := freshItem("c1", domain.Counters{Likes: 50})
	// Must not panic or surface the error; the event path stays healthy.
	svc.EvaluateEvent(context.Background(), item, likeEvent("c1"), 10)
}
