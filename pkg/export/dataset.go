package export

import (
	"fmt"
	"strconv"
	"strings"
)

// Format names a rendered document type.
type Format string

// Supported export formats.
const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

var contentTypes = map[Format]string{
	FormatCSV:  "text/csv",
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Dataset is a report flattened to a table. Rows are keyed by header; a
// missing key renders as an empty cell. Totals, when set, is rendered after
// the rows and keyed the same way.
type Dataset struct {
	Title   string
	Scope   string
	Headers []string
	Rows    []map[string]string
	Totals  map[string]string
}

// Document is a rendered dataset ready to be served or written to disk.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ParseFormat normalises a user supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Render dispatches the dataset to the exporter for the given format.
func Render(data Dataset, format Format, basename string) (*Document, error) {
	if basename == "" {
		basename = "report"
	}
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("%s export requires at least one header", format)
	}
	var (
		body []byte
		err  error
	)
	switch format {
	case FormatCSV:
		body, err = NewCSVExporter().Render(data)
	case FormatPDF:
		body, err = NewPDFExporter().Render(data)
	case FormatXLSX:
		body, err = NewXLSXExporter().Render(data)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &Document{Filename: basename + "." + string(format), ContentType: contentTypes[format], Body: body}, nil
}

// record lays a keyed row out in header order.
func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		out[i] = row[h]
	}
	return out
}

// numericColumns reports, per header, whether every non-empty cell parses as
// a number. Empty columns are not numeric.
func (d Dataset) numericColumns() []bool {
	numeric := make([]bool, len(d.Headers))
	for i, h := range d.Headers {
		seen := false
		numeric[i] = true
		for _, row := range d.Rows {
			v := row[h]
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric[i] = false
				break
			}
		}
		numeric[i] = numeric[i] && seen
	}
	return numeric
}
