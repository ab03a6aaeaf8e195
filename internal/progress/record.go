package progress

import (
	"strconv"
	"strings"
	"time"

	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

// ReadRecord decodes a user's progress from a row. Missing columns, empty
// cells and unparseable values all decode to the New state.
func ReadRecord(row repository.Row, cols UserColumns) models.ProgressRecord {
	rec := models.NewProgress()
	if !cols.Complete() {
		return rec
	}

	lastReview := parseTime(row.Value(cols.LastReview))
	nextDue := parseTime(row.Value(cols.NextDue))
	if lastReview == nil && nextDue == nil {
		return rec
	}

	if r, err := strconv.Atoi(strings.TrimSpace(row.Value(cols.Rating))); err == nil {
		rating := flashcard.Rating(r).Clamp()
		rec.Rating = int(rating)
		rec.Interval = flashcard.CalculateInterval(rating)
	}
	rec.LastReview = lastReview
	rec.NextDue = nextDue
	return rec
}

// RatingUpdates returns the three cell writes that record a review.
func RatingUpdates(row int, cols UserColumns, rating flashcard.Rating, reviewed, nextDue time.Time) []repository.CellUpdate {
	return []repository.CellUpdate{
		{Row: row, Col: cols.Rating, Value: strconv.Itoa(int(rating))},
		{Row: row, Col: cols.LastReview, Value: reviewed.Format(time.RFC3339)},
		{Row: row, Col: cols.NextDue, Value: nextDue.Format(time.RFC3339)},
	}
}

// ClearUpdates returns the writes that empty the user's progress cells on
// every row that holds a value.
func ClearUpdates(rows []repository.Row, cols UserColumns) []repository.CellUpdate {
	var updates []repository.CellUpdate
	for _, row := range rows {
		for _, col := range cols.Present() {
			if row.Value(col) != "" {
				updates = append(updates, repository.CellUpdate{Row: row.Index, Col: col, Value: ""})
			}
		}
	}
	return updates
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
