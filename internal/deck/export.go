package deck

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/repository"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// Export writes a deck as an .xlsx workbook. All columns are written,
// progress columns included.
func Export(ctx context.Context, store repository.TabularStore, deckName string, w io.Writer) error {
	log := logger.FromContext(ctx).WithPrefix("export").WithField("deck", deckName)

	table, err := store.GetTable(ctx, deckName)
	if err != nil {
		if stderrors.Is(err, repository.ErrTableNotFound) {
			return errors.NewDeckNotFoundError(deckName)
		}
		return errors.NewInternalError(err)
	}
	headers, err := table.Headers(ctx)
	if err != nil {
		return errors.NewInternalError(err)
	}
	rows, err := table.Rows(ctx)
	if err != nil {
		return errors.NewInternalError(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeRow(f, 1, headers); err != nil {
		return errors.NewInternalError(err)
	}
	for i, row := range rows {
		if err := writeRow(f, i+2, row.Values); err != nil {
			return errors.NewInternalError(err)
		}
	}
	if err := f.Write(w); err != nil {
		log.Error("failed to write workbook: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("exported %d rows", len(rows))
	return nil
}

func writeRow(f *excelize.File, line int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	return f.SetSheetRow(exportSheet, cell, &values)
}
