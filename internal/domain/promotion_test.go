package domain

import (
	"testing"
	"time"
)

func TestNewPromotionRecord(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		from    Tier
		to      Tier
		wantErr bool
	}{
		{"post to spot", TierPost, TierSpot, false},
		{"spot to challenge", TierSpot, TierChallenge, false},
		{"skip a tier", TierPost, TierChallenge, true},
		{"demotion", TierSpot, TierPost, true},
		{"out of challenge", TierChallenge, TierSpot, true},
		{"unknown tier", "legend", TierSpot, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewPromotionRecord("c1", tt.from, tt.to, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v -> %v", tt.from, tt.to)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.FromTier != tt.from || rec.ToTier != tt.to {
				t.Errorf("record tiers = %v -> %v, want %v -> %v", rec.FromTier, rec.ToTier, tt.from, tt.to)
			}
		})
	}
}

func TestPromotionRecordGuardKey(t *testing.T) {
	rec, err := NewPromotionRecord("abc", TierPost, TierSpot, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	want := "promotion:abc:post:spot"
	if rec.GuardKey() != want {
		t.Errorf("GuardKey() = %q, want %q", rec.GuardKey(), want)
	}
}
