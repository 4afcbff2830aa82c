package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecencyAnchors(t *testing.T) {
	now := time.Now()

	fresh, err := Recency(now.Add(-90*time.Second), now)
	require.NoError(t, err)
	assert.Greater(t, fresh, 95.0, "under two minutes should score near 100")

	half, err := Recency(now.Add(-30*time.Minute), now)
	require.NoError(t, err)
	assert.InDelta(t, 37.0, half, 2.0, "30 minutes should score ~37")

	old, err := Recency(now.Add(-2*time.Hour), now)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, old, 1.0, "two hours should score ~1")
}

func TestRecencyStrictlyDecreasing(t *testing.T) {
	now := time.Now()
	prev := math.Inf(1)
	for _, age := range []time.Duration{0, 5 * time.Minute, 20 * time.Minute, time.Hour, 3 * time.Hour} {
		s, err := Recency(now.Add(-age), now)
		require.NoError(t, err)
		assert.Less(t, s, prev, "recency must fall as age grows (age=%s)", age)
		prev = s
	}
}

func TestRecencyFuturePostScoresAsNew(t *testing.T) {
	now := time.Now()
	s, err := Recency(now.Add(5*time.Minute), now)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, s, 0.001)
}

func TestRecencyZeroTime(t *testing.T) {
	_, err := Recency(time.Time{}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImpactBounds(t *testing.T) {
	zero, err := Impact(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, zero, "zero audience must contribute zero")

	typical, err := Impact(10_000, 50, 10)
	require.NoError(t, err)
	assert.Greater(t, typical, 30.0)
	assert.Less(t, typical, 80.0, "typical accounts land mid-range")

	huge, err := Impact(50_000_000, 100_000, 20_000)
	require.NoError(t, err)
	assert.Equal(t, 100.0, huge, "very large accounts saturate at 100")
}

func TestImpactNegativeInput(t *testing.T) {
	_, err := Impact(-1, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Impact(0, -5, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Impact(0, 0, -5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompositeWeights(t *testing.T) {
	total, err := Composite(100, 0)
	require.NoError(t, err)
	assert.Equal(t, 60.0, total)

	total, err = Composite(0, 100)
	require.NoError(t, err)
	assert.Equal(t, 40.0, total)

	total, err = Composite(50, 50)
	require.NoError(t, err)
	assert.Equal(t, 50.0, total)
}

func TestCompositeMonotoneAndBounded(t *testing.T) {
	for r := 0.0; r <= 100; r += 20 {
		prev := -1.0
		for i := 0.0; i <= 100; i += 20 {
			total, err := Composite(r, i)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, total, 0.0)
			assert.LessOrEqual(t, total, 100.0)
			assert.GreaterOrEqual(t, total, prev, "non-decreasing in impact")
			prev = total
		}
	}
}

func TestCompositeInvalidInput(t *testing.T) {
	for _, tc := range [][2]float64{{-1, 50}, {50, -1}, {101, 0}, {0, 101}, {math.NaN(), 0}, {0, math.NaN()}} {
		_, err := Composite(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidInput, "inputs %v", tc)
	}
}

func TestCompositeRounding(t *testing.T) {
	total, err := Composite(33.333, 66.667)
	require.NoError(t, err)
	assert.Equal(t, math.Round(total*100)/100, total, "total carries at most two decimals")
}
