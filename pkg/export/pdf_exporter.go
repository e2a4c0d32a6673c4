package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPortraitWidth  = 190.0
	pdfLandscapeWidth = 277.0
	pdfWideTable      = 6
)

// PDFExporter renders datasets as a single A4 table.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render lays out the title block, the header row, the records and a bold
// totals row. Numeric columns are right aligned and tables wider than six
// columns switch to landscape.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, width := "P", pdfPortraitWidth
	if len(data.Headers) > pdfWideTable {
		orientation, width = "L", pdfLandscapeWidth
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, data.Title, "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Arial", "", 8)
	meta := "Generated " + e.now().UTC().Format("2006-01-02 15:04 MST")
	if data.Scope != "" {
		meta = data.Scope + " | " + meta
	}
	pdf.CellFormat(0, 5, meta, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	colWidth := width / float64(len(data.Headers))
	align := make([]string, len(data.Headers))
	for i, numeric := range data.numericColumns() {
		align[i] = "L"
		if numeric {
			align[i] = "R"
		}
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range data.Headers {
		pdf.CellFormat(colWidth, 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for i, cell := range data.record(row) {
			pdf.CellFormat(colWidth, 6, cell, "1", 0, align[i], false, 0, "")
		}
		pdf.Ln(-1)
	}
	if data.Totals != nil {
		pdf.SetFont("Arial", "B", 9)
		for i, cell := range data.record(data.Totals) {
			pdf.CellFormat(colWidth, 6, cell, "1", 0, align[i], true, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
