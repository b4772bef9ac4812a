// Package report renders summaries as spreadsheets.
package report

import (
	"fmt"
	"io"

	"vehicle_parking/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	UsageSheet   = "Usage"
)

// sheetWriter appends rows to one sheet at a time.
type sheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func newSheetWriter() *sheetWriter {
	return &sheetWriter{file: excelize.NewFile()}
}

func (w *sheetWriter) addSheet(name string) error {
	if len(name) > 31 {
		name = name[:31]
	}
	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) writeHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.writeRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
	endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
	return w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
}

func (w *sheetWriter) writeRow(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

// WriteAdminSummary writes one row per lot, in summary order, to out.
func WriteAdminSummary(out io.Writer, summary domain.AdminSummary) error {
	w := newSheetWriter()
	defer w.file.Close()

	if err := w.addSheet(SummarySheet); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Lot ID", "Location", "Pincode", "Available", "Occupied", "Revenue"}); err != nil {
		return err
	}
	for _, lot := range summary.Lots {
		row := []any{lot.LotID, lot.Name, lot.PostalCode, lot.Available, lot.Occupied, lot.Revenue}
		if err := w.writeRow(row); err != nil {
			return fmt.Errorf("write lot %d: %w", lot.LotID, err)
		}
	}
	return w.file.Write(out)
}

// WriteUserSummary writes reservation counts per location.
func WriteUserSummary(out io.Writer, summary domain.UserSummary) error {
	w := newSheetWriter()
	defer w.file.Close()

	if err := w.addSheet(UsageSheet); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Location", "Reservations"}); err != nil {
		return err
	}
	for _, u := range summary.Usage {
		if err := w.writeRow([]any{u.LocationName, u.Count}); err != nil {
			return err
		}
	}
	return w.file.Write(out)
}
