package dto

import (
	"time"

	"engagement-engine/internal/app/service"
	"engagement-engine/internal/domain"
)

// ScoreResponse represents a computed score snapshot.
type ScoreResponse struct {
	ContentID  string  `json:"content_id"`
	Score      float64 `json:"score"`
	ComputedAt string  `json:"computed_at"`
}

// FromSnapshot converts a domain.ScoreSnapshot to ScoreResponse.
func FromSnapshot(s domain.ScoreSnapshot) ScoreResponse {
	return ScoreResponse{
		ContentID:  s.ContentID,
		Score:      s.Score,
		ComputedAt: s.ComputedAt.Format(time.RFC3339),
	}
}

// RankedItemResponse represents a single row of the global ranking.
type RankedItemResponse struct {
	Rank      int     `json:"rank"`
	ContentID string  `json:"content_id"`
	Score     float64 `json:"score"`
	Tier      string  `json:"tier"`
	CreatedAt string  `json:"created_at"`
}

// RankingsResponse represents the rankings page.
type RankingsResponse struct {
	Items []RankedItemResponse `json:"items"`
	Count int                  `json:"count"`
}

// FromRankedItems converts service.RankedItem rows to RankingsResponse.
func FromRankedItems(items []service.RankedItem) RankingsResponse {
	out := RankingsResponse{
		Items: make([]RankedItemResponse, len(items)),
		Count: len(items),
	}
	for i, item := range items {
		out.Items[i] = RankedItemResponse{
			Rank:      item.Rank,
			ContentID: item.ContentID,
			Score:     item.Score,
			Tier:      string(item.Tier),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}

// TierResponse represents an item's tier and overall standing.
type TierResponse struct {
	ContentID  string  `json:"content_id"`
	Tier       string  `json:"tier"`
	Percentile float64 `json:"percentile"`
}

// PromotionResponse represents one promotion audit record.
type PromotionResponse struct {
	ContentID  string `json:"content_id"`
	FromTier   string `json:"from_tier"`
	ToTier     string `json:"to_tier"`
	ExecutedAt string `json:"executed_at"`
}

// PromotionsResponse represents an item's full promotion trail.
type PromotionsResponse struct {
	ContentID  string              `json:"content_id"`
	Promotions []PromotionResponse `json:"promotions"`
}

// FromPromotionRecords converts domain.PromotionRecord rows to PromotionsResponse.
func FromPromotionRecords(contentID string, recs []domain.PromotionRecord) PromotionsResponse {
	out := PromotionsResponse{
		ContentID:  contentID,
		Promotions: make([]PromotionResponse, len(recs)),
	}
	for i, rec := range recs {
		out.Promotions[i] = PromotionResponse{
			ContentID:  rec.ContentID,
			FromTier:   string(rec.FromTier),
			ToTier:     string(rec.ToTier),
			ExecutedAt: rec.ExecutedAt.Format(time.RFC3339),
		}
	}
	return out
}

// SweepResponse represents the outcome of a manually triggered sweep.
type SweepResponse struct {
	Scanned             int    `json:"scanned"`
	PromotedToSpot      int    `json:"promoted_to_spot"`
	PromotedToChallenge int    `json:"promoted_to_challenge"`
	Skipped             int    `json:"skipped"`
	Elapsed             string `json:"elapsed"`
}

// FromSweepResult converts a service.SweepResult to SweepResponse.
func FromSweepResult(res service.SweepResult) SweepResponse {
	return SweepResponse{
		Scanned:             res.Scanned,
		PromotedToSpot:      res.PromotedToSpot,
		PromotedToChallenge: res.PromotedToChallenge,
		Skipped:             res.Skipped,
		Elapsed:             res.Elapsed.String(),
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
