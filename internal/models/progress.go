package models

import "time"

// ProgressRecord is one user's scheduling state for one card.
type ProgressRecord struct {
	Rating     int        `json:"rating"`
	LastReview *time.Time `json:"lastReview"`
	NextDue    *time.Time `json:"nextDue"`
	Interval   int        `json:"interval"`
}

// NewProgress is the record of a card the user has never rated.
func NewProgress() ProgressRecord {
	return ProgressRecord{Rating: 0, Interval: 1}
}

// Reviewed reports whether the record holds a rating.
func (p ProgressRecord) Reviewed() bool {
	return p.LastReview != nil
}

type CardWithProgress struct {
	Card
	Progress ProgressRecord `json:"progress"`
	IsDue    bool           `json:"isDue"`
}

type DeckFlashcards struct {
	Deck       string             `json:"deck"`
	Cards      []CardWithProgress `json:"cards"`
	TotalCards int                `json:"totalCards"`
	DueCards   int                `json:"dueCards"`
	Skipped    []SkippedRow       `json:"skipped,omitempty"`
}

type RatingResult struct {
	CardID     string    `json:"cardId"`
	Rating     int       `json:"rating"`
	LastReview time.Time `json:"lastReview"`
	NextDue    time.Time `json:"nextDue"`
	Interval   int       `json:"interval"`
}

// DeckDueSummary is one deck's entry in a user's due-card overview. Error is
// set instead of the counts when the deck could not be read.
type DeckDueSummary struct {
	TotalCards int                `json:"totalCards"`
	DueCount   int                `json:"dueCount"`
	DueCards   []CardWithProgress `json:"dueCards"`
	Error      string             `json:"error,omitempty"`
	ErrorCode  string             `json:"errorCode,omitempty"`
}

type UserDueCards struct {
	DueCardsByDeck map[string]DeckDueSummary `json:"dueCardsByDeck"`
	TotalDue       int                       `json:"totalDue"`
}
