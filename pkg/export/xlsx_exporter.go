package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Report"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the title and scope lines, a blank row, then the table.
// Cells of numeric columns are stored as numbers and the header row is frozen.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", defaultSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	for _, line := range []string{data.Title, data.Scope} {
		if line == "" {
			continue
		}
		if err := f.SetCellValue(defaultSheet, fmt.Sprintf("A%d", row), line); err != nil {
			return nil, fmt.Errorf("write preamble: %w", err)
		}
		row++
	}
	if row > 1 {
		row++
	}
	headerRow := row

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := writeRow(f, headerRow, data.Headers, nil); err != nil {
		return nil, err
	}
	if err := styleRow(f, headerRow, len(data.Headers), bold); err != nil {
		return nil, err
	}

	numeric := data.numericColumns()
	for _, r := range data.Rows {
		row++
		if err := writeRow(f, row, data.record(r), numeric); err != nil {
			return nil, err
		}
	}
	if data.Totals != nil {
		row++
		if err := writeRow(f, row, data.record(data.Totals), numeric); err != nil {
			return nil, err
		}
		if err := styleRow(f, row, len(data.Headers), bold); err != nil {
			return nil, err
		}
	}

	last, _ := excelize.ColumnNumberToName(len(data.Headers))
	if err := f.SetColWidth(defaultSheet, "A", last, 16); err != nil {
		return nil, fmt.Errorf("size columns: %w", err)
	}
	topLeft, _ := excelize.CoordinatesToCellName(1, headerRow+1)
	if err := f.SetPanes(defaultSheet, &excelize.Panes{Freeze: true, YSplit: headerRow, TopLeftCell: topLeft, ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, cells []string, numeric []bool) error {
	for col, raw := range cells {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		var value interface{} = raw
		if numeric != nil && numeric[col] {
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				value = n
			}
		}
		if err := f.SetCellValue(defaultSheet, cell, value); err != nil {
			return fmt.Errorf("write cell %s: %w", cell, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, row, width, style int) error {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(width, row)
	if err := f.SetCellStyle(defaultSheet, first, last, style); err != nil {
		return fmt.Errorf("style row %d: %w", row, err)
	}
	return nil
}
