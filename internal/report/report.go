package report

import (
	"fmt"

	"chemstock/pkg/chemdb"
	"chemstock/pkg/jsonapi"
)

// Report is the outcome of one conversion run.
type Report struct {
	Rows []Row
}

// Build indexes the document's reference records once, then extracts one row
// per container in input order.
func Build(doc jsonapi.Document) (Report, error) {
	return BuildWithIndex(doc.Data, chemdb.BuildReferenceIndex(doc.Included))
}

// BuildWithIndex extracts rows against a prebuilt reference index. The first
// failing container aborts the build; no partial report is returned.
func BuildWithIndex(data []jsonapi.Resource, idx chemdb.ReferenceIndex) (Report, error) {
	rows := make([]Row, 0, len(data))
	for i, res := range data {
		container, err := chemdb.ContainerFromResource(res)
		if err != nil {
			return Report{}, fmt.Errorf("data[%d]: %w", i, err)
		}
		row, err := ExtractRow(container, idx)
		if err != nil {
			return Report{}, fmt.Errorf("data[%d]: %w", i, err)
		}
		rows = append(rows, row)
	}
	return Report{Rows: rows}, nil
}
