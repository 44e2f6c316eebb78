// Package schema embeds the canonical report column listing so servers and
// tooling can expose the published contract without recomputing it.
package schema

import (
	_ "embed"
	"encoding/json"
	"sync"
)

// Document describes the report table: a contract version and the column
// headers in output order.
type Document struct {
	Version string   `json:"version"`
	Columns []string `json:"columns"`
}

//go:embed report-columns.json
var reportColumns []byte

var (
	once sync.Once
	doc  Document
	err  error
)

// ReportColumns returns the column listing embedded at build time. The
// spellings and order are consumed by downstream spreadsheets; a sync test
// keeps them aligned with the encoder's schema.
func ReportColumns() (Document, error) {
	once.Do(func() {
		err = json.Unmarshal(reportColumns, &doc)
	})
	return doc, err
}
