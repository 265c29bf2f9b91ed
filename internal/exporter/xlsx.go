package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"pasc/pkg/contracts/domain"
)

// WriteSummaryXLSX writes the summarized table as an Excel workbook with a
// frozen header row and numeric cells, so the file opens ready to sort and
// filter.
func (w *CSVWriter) WriteSummaryXLSX(rows []domain.Row, opts SummaryOptions) error {
	fullPath := w.resolvePath(SummaryXLSXFilename)

	slog.Info("writing Excel report",
		slog.String("file", SummaryXLSXFilename),
		slog.Int("record_count", len(rows)))

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	headers := SummaryHeaders(opts)
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &cells); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return fmt.Errorf("failed to resolve last column: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	for i, row := range rows {
		cells := summaryCells(row, opts)
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to resolve cell for row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if len(rows) > 0 {
		if err := styleSummaryColumns(f, sheet, headers, len(rows)); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "B", 22); err != nil {
		return fmt.Errorf("failed to set column widths: %w", err)
	}
	if err := f.SetColWidth(sheet, "C", lastCol, 16); err != nil {
		return fmt.Errorf("failed to set column widths: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save %s: %w", filepath.Base(fullPath), err)
	}
	return nil
}

// styleSummaryColumns applies number formats to the measurement columns:
// two decimals everywhere, whole numbers for the index column. Identity
// and coordinate columns keep the general format so full precision shows.
func styleSummaryColumns(f *excelize.File, sheet string, headers []string, rowCount int) error {
	numStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}
	intStyle, err := f.NewStyle(&excelize.Style{NumFmt: 1}) // 0
	if err != nil {
		return fmt.Errorf("failed to create integer style: %w", err)
	}

	lastRow := rowCount + 1
	for i, h := range headers {
		if i < 2 || h == "Lat" || h == "Lon" {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to resolve column %d: %w", i+1, err)
		}
		style := numStyle
		if h == domain.ColAQI {
			style = intStyle
		}
		if err := f.SetCellStyle(sheet, col+"2", col+strconv.Itoa(lastRow), style); err != nil {
			return fmt.Errorf("failed to style column %s: %w", h, err)
		}
	}
	return nil
}

// summaryCells renders one row as typed workbook cells in summary column
// order. A missing value is a nil cell, except the index column which
// defaults to zero like the CSV rendering.
func summaryCells(row domain.Row, opts SummaryOptions) []interface{} {
	cells := []interface{}{row.Sensor, row.Time.In(opts.Timezone).Format(timestampLayout)}
	for _, col := range summaryValueColumns {
		v, ok := row.Value(col)
		switch {
		case col == domain.ColAQI:
			if !ok {
				v = 0
			}
			cells = append(cells, int64(v))
		case ok:
			cells = append(cells, math.Round(v*100)/100)
		default:
			cells = append(cells, nil)
		}
	}
	if row.Lat != nil && row.Lon != nil {
		cells = append(cells, *row.Lat, *row.Lon)
	} else {
		cells = append(cells, nil, nil)
	}
	for _, col := range summaryTrailingColumns {
		if v, ok := row.Value(col); ok {
			cells = append(cells, math.Round(v*100)/100)
		} else {
			cells = append(cells, nil)
		}
	}
	if opts.IncludeWind {
		for _, col := range summaryWindColumns {
			if v, ok := row.Value(col); ok {
				cells = append(cells, math.Round(v*100)/100)
			} else {
				cells = append(cells, nil)
			}
		}
	}
	return cells
}
