// Package scoring computes composite relevance scores for candidate posts.
// All functions are pure: no I/O, no clock reads, no shared state.
package scoring

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidInput is returned for negative or NaN inputs.
var ErrInvalidInput = errors.New("scoring: invalid input")

const (
	weightRecency = 0.6
	weightImpact  = 0.4

	// recencyDecayMinutes solves 100*e^(-30/k) ≈ 37 so a 30-minute-old
	// post scores ~37 and a 2-hour-old post ~1.8.
	recencyDecayMinutes = 30.0

	// impactSaturation is the audience size at which impact reaches 100.
	impactSaturation = 1e7
)

// Recency maps a post's age to [0,100] with exponential decay: ~100 under
// two minutes, ~37 at 30 minutes, ~2 at two hours. Posts timestamped in
// the future score as age zero.
func Recency(postCreatedAt, now time.Time) (float64, error) {
	if postCreatedAt.IsZero() || now.IsZero() {
		return 0, ErrInvalidInput
	}
	ageMinutes := now.Sub(postCreatedAt).Minutes()
	if ageMinutes < 0 {
		ageMinutes = 0
	}
	return clamp(100 * math.Exp(-ageMinutes/recencyDecayMinutes)), nil
}

// Impact maps audience and engagement counters to [0,100] on a log scale,
// so typical accounts land mid-range and very large ones saturate.
// log1p keeps a zero count contributing zero instead of diverging.
func Impact(followerCount, likes, reposts int64) (float64, error) {
	if followerCount < 0 || likes < 0 || reposts < 0 {
		return 0, ErrInvalidInput
	}
	reach := float64(followerCount + likes + reposts)
	return clamp(100 * math.Log1p(reach) / math.Log1p(impactSaturation)), nil
}

// Composite combines recency and impact sub-scores as 0.6*recency +
// 0.4*impact, rounded to two decimals for stable sort ordering.
func Composite(recency, impact float64) (float64, error) {
	if !validScore(recency) || !validScore(impact) {
		return 0, ErrInvalidInput
	}
	return math.Round((weightRecency*recency+weightImpact*impact)*100) / 100, nil
}

func validScore(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
