package flashcard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/flashdeck/internal/flashcard"
)

func TestCalculateInterval_Buckets(t *testing.T) {
	expected := []int{1, 3, 7, 14}
	for r, days := range expected {
		assert.Equal(t, days, flashcard.CalculateInterval(flashcard.Rating(r)), "rating %d", r)
	}
}

func TestCalculateInterval_Clamps(t *testing.T) {
	tests := []struct {
		name     string
		rating   flashcard.Rating
		expected int
	}{
		{"negative clamps to again", -1, 1},
		{"far negative clamps to again", -100, 1},
		{"above easy clamps to easy", 4, 14},
		{"far above clamps to easy", 99, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, flashcard.CalculateInterval(tt.rating))
		})
	}
}

func TestRating_Names(t *testing.T) {
	assert.Equal(t, "Again", flashcard.Again.String())
	assert.Equal(t, "Hard", flashcard.Hard.String())
	assert.Equal(t, "Good", flashcard.Good.String())
	assert.Equal(t, "Easy", flashcard.Easy.String())
	assert.Equal(t, "Unknown", flashcard.Rating(9).String())
	assert.True(t, flashcard.Easy.Valid())
	assert.False(t, flashcard.Rating(-1).Valid())
}

func TestNormalizeDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2024, 3, 10, 23, 59, 59, 999, loc)

	day := flashcard.NormalizeDay(ts)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), day)
}

func TestComputeNextDue_IsWholeDays(t *testing.T) {
	now := time.Date(2024, 1, 30, 17, 45, 0, 0, time.UTC)

	next := flashcard.ComputeNextDue(now, flashcard.Good)

	assert.Equal(t, time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC), next)
}

func TestIsDue_NilIsDue(t *testing.T) {
	assert.True(t, flashcard.IsDue(time.Now(), nil))
}

func TestIsDue_DayBoundaries(t *testing.T) {
	for rating := flashcard.Again; rating <= flashcard.Easy; rating++ {
		reviewDay := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
		next := flashcard.ComputeNextDue(reviewDay, rating)
		interval := flashcard.CalculateInterval(rating)

		for d := 0; d < interval; d++ {
			now := reviewDay.AddDate(0, 0, d)
			assert.False(t, flashcard.IsDue(now, &next), "rating %s day +%d", rating, d)
		}
		for d := interval; d < interval+3; d++ {
			now := time.Date(2024, 5, 1, 0, 0, 1, 0, time.UTC).AddDate(0, 0, d)
			assert.True(t, flashcard.IsDue(now, &next), "rating %s day +%d", rating, d)
		}
	}
}

func TestIsDue_IgnoresTimeOfDay(t *testing.T) {
	next := time.Date(2024, 5, 8, 23, 0, 0, 0, time.UTC)
	earlySameDay := time.Date(2024, 5, 8, 0, 30, 0, 0, time.UTC)

	assert.True(t, flashcard.IsDue(earlySameDay, &next))
}
