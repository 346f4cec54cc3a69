// Package domain contains the core business logic and entities.
package domain

// ScoreWeights holds the per-signal multipliers for the engagement score.
type ScoreWeights struct {
	Reply float64
	Like  float64
	View  float64
}

// DefaultScoreWeights returns the production weights: likes count most,
// views next, replies least.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Reply: 1, Like: 3, View: 2}
}

// DecayParams holds the time-decay curve parameters.
type DecayParams struct {
	// Days is the window over which the weight falls from 1.0 to MinWeight.
	Days float64
	// MinWeight is the floor the weight never drops below.
	MinWeight float64
}

// DefaultDecayParams returns the production decay window: 14 days down
// to a 0.1 floor.
func DefaultDecayParams() DecayParams {
	return DecayParams{Days: 14, MinWeight: 0.1}
}

// DecayWeight returns the age multiplier applied to engagement signals.
//
// Curve:
//
//	weight(0)            = 1.0
//	weight(a)            = 1 - a/Days   (linear, 0 < a < Days)
//	weight(a >= Days)    = MinWeight
//
// Negative ages clamp to 0. The function is monotonically non-increasing
// and has no failure modes.
func DecayWeight(ageDays float64, p DecayParams) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	if p.Days <= 0 {
		return 1.0
	}
	w := 1 - ageDays/p.Days
	if w < p.MinWeight {
		return p.MinWeight
	}
	return w
}

// ComputeScore computes the decaying popularity score for a content item.
//
// Formula:
//
//	score = weight(age) * (Reply*replies + Like*likes + View*views)
//
// Deterministic given (counters, age); no hidden state. Negative counters
// are treated as 0 — callers should log the clamp as a data-integrity
// warning via Counters.Sanitize, not treat it as an error.
func ComputeScore(c Counters, ageDays float64, w ScoreWeights, p DecayParams) float64 {
	c, _ = c.Sanitize()

	raw := w.Reply*float64(c.Replies) +
		w.Like*float64(c.Likes) +
		w.View*float64(c.Views)

	return roundTo2Decimals(DecayWeight(ageDays, p) * raw)
}

// roundTo2Decimals rounds a float to 2 decimal places.
func roundTo2Decimals(value float64) float64 {
	return float64(int(value*100+0.5)) / 100
}
