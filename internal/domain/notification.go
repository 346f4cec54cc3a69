package domain

import "fmt"

// IntentKind identifies the notification variant. The set is closed:
// dispatch decisions switch over these constants rather than open-ended
// subtype dispatch.
type IntentKind string

const (
	IntentLikeMilestone    IntentKind = "like_milestone"
	IntentPopularityEntry  IntentKind = "popularity_entry"
	IntentCommentReply     IntentKind = "comment_reply"
	IntentChallengeReached IntentKind = "challenge_reached"
	// IntentStepGoalReached is produced by the step-counting service, not
	// this engine; it is part of the shared intent vocabulary so the
	// dispatch collaborator sees one closed set.
	IntentStepGoalReached IntentKind = "step_goal_reached"
)

// NotificationIntent is a request to notify a user. The engine decides
// that and what to send; delivery channel, localization, and retries
// belong to the external dispatch collaborator.
type NotificationIntent struct {
	UserID    string            `json:"user_id"`
	Kind      IntentKind        `json:"kind"`
	ContentID string            `json:"content_id"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// NewLikeMilestoneIntent builds the intent for crossing a like milestone.
// milestone is the crossed multiple index (likes/interval).
func NewLikeMilestoneIntent(item *ContentItem, milestone int64, interval int64) NotificationIntent {
	return NotificationIntent{
		UserID:    item.AuthorID,
		Kind:      IntentLikeMilestone,
		ContentID: item.ID,
		Payload: map[string]string{
			"milestone": fmt.Sprintf("%d", milestone*interval),
		},
	}
}

// NewPopularityEntryIntent builds the one-time "entered popular" intent.
func NewPopularityEntryIntent(item *ContentItem, score float64) NotificationIntent {
	return NotificationIntent{
		UserID:    item.AuthorID,
		Kind:      IntentPopularityEntry,
		ContentID: item.ID,
		Payload: map[string]string{
			"score": fmt.Sprintf("%.2f", score),
		},
	}
}

// NewCommentReplyIntent builds the per-reply pass-through intent.
func NewCommentReplyIntent(item *ContentItem, replyID, actorID string) NotificationIntent {
	return NotificationIntent{
		UserID:    item.AuthorID,
		Kind:      IntentCommentReply,
		ContentID: item.ID,
		Payload: map[string]string{
			"reply_id": replyID,
			"actor_id": actorID,
		},
	}
}

// NewChallengeReachedIntent builds the intent for entering the terminal tier.
func NewChallengeReachedIntent(item *ContentItem) NotificationIntent {
	return NotificationIntent{
		UserID:    item.AuthorID,
		Kind:      IntentChallengeReached,
		ContentID: item.ID,
	}
}
