package deck

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report column names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Contents is a deck as read from the store.
type Contents struct {
	Table   repository.Table
	Rows    []repository.Row
	Cards   []models.Card
	Skipped []models.SkippedRow
}

// Layout maps the well-known deck columns to header positions (-1 when a
// column is absent).
type Layout map[string]int

// ParseLayout locates the deck columns in a header row and reports the
// mandatory ones that are missing.
func ParseLayout(headers []string) (Layout, []string) {
	layout := make(Layout, len(models.DeckColumns))
	for _, name := range models.DeckColumns {
		layout[name] = repository.ColumnIndex(headers, name)
	}
	var missing []string
	for _, name := range models.RequiredColumns {
		if layout[name] < 0 {
			missing = append(missing, name)
		}
	}
	return layout, missing
}

func (l Layout) value(row repository.Row, column string) string {
	pos, ok := l[column]
	if !ok || pos < 0 {
		return ""
	}
	return strings.TrimSpace(row.Value(pos))
}

// ReadCards loads every valid card of a deck together with its rows. Rows
// that fail validation are skipped and reported instead of failing the deck.
func ReadCards(ctx context.Context, store repository.TabularStore, deckName string) (*Contents, error) {
	log := logger.FromContext(ctx).WithPrefix("deck").WithField("deck", deckName)

	table, err := store.GetTable(ctx, deckName)
	if err != nil {
		if stderrors.Is(err, repository.ErrTableNotFound) {
			return nil, errors.NewDeckNotFoundError(deckName)
		}
		return nil, errors.NewInternalError(err)
	}

	headers, err := table.Headers(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	layout, missing := ParseLayout(headers)
	if len(missing) > 0 {
		log.Warn("deck is missing mandatory columns: %v", missing)
		return nil, errors.NewSchemaError(deckName, missing)
	}

	rows, err := table.Rows(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	cards, skipped := ParseRows(ctx, layout, rows)
	if len(skipped) > 0 {
		log.Warn("skipped %d of %d rows", len(skipped), len(rows))
	}
	log.Debug("read %d cards", len(cards))
	return &Contents{Table: table, Rows: rows, Cards: cards, Skipped: skipped}, nil
}

// ParseRows converts table rows into cards. Duplicate ids after the first
// occurrence are skipped.
func ParseRows(ctx context.Context, layout Layout, rows []repository.Row) ([]models.Card, []models.SkippedRow) {
	log := logger.FromContext(ctx).WithPrefix("deck")

	cards := make([]models.Card, 0, len(rows))
	var skipped []models.SkippedRow
	seen := make(map[string]int, len(rows))

	for _, row := range rows {
		card := CardFromRow(layout, row)
		if err := validate.Struct(card); err != nil {
			reason := describe(err)
			log.Debug("skipping row %d: %s", row.Index, reason)
			skipped = append(skipped, models.SkippedRow{Row: row.Index, Reason: reason})
			continue
		}
		if first, dup := seen[card.ID]; dup {
			reason := fmt.Sprintf("duplicate id %q (first seen in row %d)", card.ID, first)
			log.Debug("skipping row %d: %s", row.Index, reason)
			skipped = append(skipped, models.SkippedRow{Row: row.Index, Reason: reason})
			continue
		}
		seen[card.ID] = row.Index
		cards = append(cards, card)
	}
	return cards, skipped
}

// CardFromRow decodes one row. It does not validate.
func CardFromRow(layout Layout, row repository.Row) models.Card {
	card := models.Card{
		ID:          layout.value(row, models.ColumnID),
		SideA:       layout.value(row, models.ColumnSideA),
		SideB:       layout.value(row, models.ColumnSideB),
		SideC:       layout.value(row, models.ColumnSideC),
		Tags:        SplitTags(layout.value(row, models.ColumnTags)),
		CreatedBy:   layout.value(row, models.ColumnCreatedBy),
		StudyConfig: layout.value(row, models.ColumnStudyConfig),
		AudioURL:    layout.value(row, models.ColumnAudioURL),
		ImageURL:    layout.value(row, models.ColumnImageURL),
		Attribution: layout.value(row, models.ColumnAttribution),
		Row:         row.Index,
	}
	if raw := layout.value(row, models.ColumnDateCreated); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			card.DateCreated = &t
		}
	}
	return card
}

// SplitTags parses a comma-separated tag cell.
func SplitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "missing " + strings.Join(fields, ", ")
}
