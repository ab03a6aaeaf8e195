package models

import "time"

// Mandatory and well-known deck column names.
const (
	ColumnID          = "id"
	ColumnSideA       = "sideA"
	ColumnSideB       = "sideB"
	ColumnSideC       = "sideC"
	ColumnTags        = "tags"
	ColumnCreatedBy   = "createdBy"
	ColumnDateCreated = "dateCreated"
	ColumnStudyConfig = "studyConfig"
	ColumnAudioURL    = "audioUrl"
	ColumnImageURL    = "imageUrl"
	ColumnAttribution = "attribution"
)

// RequiredColumns must all be present in a deck's header row.
var RequiredColumns = []string{ColumnID, ColumnSideA, ColumnSideB}

// DeckColumns is the header row written for newly created decks.
var DeckColumns = []string{
	ColumnID, ColumnSideA, ColumnSideB, ColumnSideC, ColumnTags,
	ColumnCreatedBy, ColumnDateCreated, ColumnStudyConfig,
	ColumnAudioURL, ColumnImageURL, ColumnAttribution,
}

// Card is one flashcard row of a deck. Multimedia references are kept in
// their own columns rather than inline in the side text.
type Card struct {
	ID          string     `json:"id" validate:"required"`
	SideA       string     `json:"sideA" validate:"required"`
	SideB       string     `json:"sideB" validate:"required"`
	SideC       string     `json:"sideC,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	DateCreated *time.Time `json:"dateCreated,omitempty"`
	StudyConfig string     `json:"studyConfig,omitempty"`
	AudioURL    string     `json:"audioUrl,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Attribution string     `json:"attribution,omitempty"`

	// Row is the card's row index in the deck table.
	Row int `json:"-"`
}

// SkippedRow records a deck row that could not be read as a card.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
