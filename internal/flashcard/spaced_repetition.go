package flashcard

import "time"

// Rating is the learner's answer to a card.
type Rating int

const (
	Again Rating = iota
	Hard
	Good
	Easy
)

const (
	MinRating = Again
	MaxRating = Easy
)

// intervals holds the review gap in days for each rating.
var intervals = [...]int{1, 3, 7, 14}

func (r Rating) String() string {
	switch r {
	case Again:
		return "Again"
	case Hard:
		return "Hard"
	case Good:
		return "Good"
	case Easy:
		return "Easy"
	default:
		return "Unknown"
	}
}

// Valid reports whether r is one of the four ratings.
func (r Rating) Valid() bool {
	return r >= MinRating && r <= MaxRating
}

// Clamp returns the nearest valid rating.
func (r Rating) Clamp() Rating {
	if r < MinRating {
		return MinRating
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}

// CalculateInterval returns the review interval in days for rating.
// Out-of-range ratings clamp to the nearest endpoint.
func CalculateInterval(rating Rating) int {
	return intervals[rating.Clamp()]
}

// NormalizeDay truncates t to midnight in t's own location.
func NormalizeDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ComputeNextDue returns the day the card becomes due again: the review day
// plus the rating's interval, in whole calendar days.
func ComputeNextDue(now time.Time, rating Rating) time.Time {
	return NormalizeDay(now).AddDate(0, 0, CalculateInterval(rating))
}

// IsDue reports whether a card with the given next due date should be shown
// on the day of now. A card that was never scheduled is always due.
func IsDue(now time.Time, nextDue *time.Time) bool {
	if nextDue == nil {
		return true
	}
	return !NormalizeDay(nextDue.In(now.Location())).After(NormalizeDay(now))
}
