package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
)

// Format identifies a report artifact encoding.
type Format string

const (
	// FormatCSV is the primary spreadsheet-compatible encoding.
	FormatCSV Format = "csv"
	// FormatJSON encodes rows as an array of column-name keyed objects.
	FormatJSON Format = "json"
	// FormatHTML renders a static table for quick inspection.
	FormatHTML Format = "html"
)

// SupportedFormats lists the encodings Encode accepts, primary format first.
func SupportedFormats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatHTML}
}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(name string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatCSV:
		return FormatCSV, true
	case FormatJSON:
		return FormatJSON, true
	case FormatHTML:
		return FormatHTML, true
	default:
		return "", false
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/csv"
	}
}

// Extension returns the artifact filename extension for the format.
func (f Format) Extension() string { return string(f) }

// Encode serializes rows in the given format.
func Encode(w io.Writer, format Format, rows []Row) error {
	switch format {
	case FormatCSV:
		return EncodeCSV(w, rows)
	case FormatJSON:
		return EncodeJSON(w, rows)
	case FormatHTML:
		return EncodeHTML(w, rows)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// EncodeCSV writes the header row followed by one record per row in schema
// order. The header is written even when rows is empty.
func EncodeCSV(w io.Writer, rows []Row) error {
	columns := Schema()
	writer := csv.NewWriter(w)
	headers := make([]string, len(columns))
	for i, column := range columns {
		headers[i] = column.Name
	}
	if err := writer.Write(headers); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, column := range columns {
			record[i] = column.value(row)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// EncodeJSON writes rows as an indented array of objects keyed by the exact
// column names.
func EncodeJSON(w io.Writer, rows []Row) error {
	columns := Schema()
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(columns))
		for _, column := range columns {
			obj[column.Name] = column.value(row)
		}
		out = append(out, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// EncodeHTML writes rows as a minimal standalone HTML table.
func EncodeHTML(w io.Writer, rows []Row) error {
	columns := Schema()
	buf := &strings.Builder{}
	buf.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>Chemical Inventory</title></head><body><table>")
	buf.WriteString("<thead><tr>")
	for _, column := range columns {
		buf.WriteString("<th>")
		buf.WriteString(html.EscapeString(column.Name))
		buf.WriteString("</th>")
	}
	buf.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		buf.WriteString("<tr>")
		for _, column := range columns {
			buf.WriteString("<td>")
			buf.WriteString(html.EscapeString(column.value(row)))
			buf.WriteString("</td>")
		}
		buf.WriteString("</tr>")
	}
	buf.WriteString("</tbody></table></body></html>")
	_, err := io.WriteString(w, buf.String())
	return err
}
