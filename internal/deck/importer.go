package deck

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
	"github.com/xuri/excelize/v2"
)

// Supported import formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ImportResult summarizes one import. Skipped rows carry their 1-based line
// number in the source file.
type ImportResult struct {
	Deck     string              `json:"deck"`
	Imported int                 `json:"imported"`
	Skipped  []models.SkippedRow `json:"skipped,omitempty"`
}

// Importer creates decks from spreadsheet files.
type Importer struct {
	store repository.TabularStore
}

func NewImporter(store repository.TabularStore) *Importer {
	return &Importer{store: store}
}

// ImportFile imports a .csv or .xlsx file. An empty deck name uses the file
// name without its extension.
func (i *Importer) ImportFile(ctx context.Context, path, deckName string) (*ImportResult, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	format := FormatXLSX
	if ext == FormatCSV {
		format = FormatCSV
	}
	if deckName == "" {
		deckName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return i.Import(ctx, deckName, format, f)
}

// Import reads records in the given format and stores them as a new deck.
// The first record is the header row.
func (i *Importer) Import(ctx context.Context, deckName, format string, r io.Reader) (*ImportResult, error) {
	log := logger.FromContext(ctx).WithPrefix("importer").WithField("deck", deckName)
	log.Info("importing deck: format=%s", format)

	deckName = strings.TrimSpace(deckName)
	if deckName == "" {
		return nil, errors.NewBadRequestError("deck name is required")
	}

	var records [][]string
	var err error
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return nil, errors.NewBadRequestError(fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		log.Error("failed to read records: %v", err)
		return nil, errors.NewBadRequestError(err.Error())
	}
	if len(records) == 0 {
		return nil, errors.NewBadRequestError("file has no header row")
	}

	headers := make([]string, len(records[0]))
	for j, h := range records[0] {
		headers[j] = strings.TrimSpace(h)
	}
	layout, missing := ParseLayout(headers)
	if len(missing) > 0 {
		return nil, errors.NewSchemaError(deckName, missing)
	}

	rows := make([]repository.Row, 0, len(records)-1)
	rowPos := make(map[int]int, len(records)-1)
	for j, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		values := make([]string, len(headers))
		copy(values, rec)
		rowPos[j+2] = len(rows)
		rows = append(rows, repository.Row{Index: j + 2, Values: values})
	}
	cards, skipped := ParseRows(ctx, layout, rows)
	values := make([][]string, 0, len(cards))
	for _, c := range cards {
		values = append(values, rows[rowPos[c.Row]].Values)
	}

	// The table and its rows are written together so a failed import can be
	// retried under the same name.
	if _, err := i.store.CreateTable(ctx, deckName, headers, values...); err != nil {
		if stderrors.Is(err, repository.ErrTableExists) {
			return nil, errors.NewBadRequestError(fmt.Sprintf("deck %s already exists", deckName))
		}
		if stderrors.Is(err, repository.ErrDuplicateColumn) {
			return nil, errors.NewBadRequestError(err.Error())
		}
		log.Error("failed to create deck: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("deck imported: %d cards, %d skipped", len(cards), len(skipped))
	return &ImportResult{Deck: deckName, Imported: len(cards), Skipped: skipped}, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// readXLSX returns the rows of the first sheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
