package report

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"chemstock/pkg/chemdb"
	"chemstock/pkg/jsonapi"
)

const sampleDocument = `{
	"data": [
		{
			"id": "c1",
			"type": "node--chemical_container",
			"attributes": {
				"field_chemical_product_name": "Acetone",
				"field_chemical_amount": 500,
				"field_chemical_unit_of_measure": "mL",
				"field_chemical_container_id": "C-001",
				"field_chemical_product_number": "P-99",
				"field_chemical_received": "2023-01-01",
				"field_chemical_expiration": "2025-01-01"
			},
			"relationships": {
				"field_chemical_type": {"data": {"id": "T1", "type": "node--chemdb_type"}},
				"field_chemical_space": {"data": {"id": "S1", "type": "node--space"}},
				"og_audience": {"data": [{"id": "G1", "type": "node--laboratory"}]}
			}
		}
	],
	"included": [
		{
			"id": "T1",
			"type": "node--chemdb_type",
			"attributes": {
				"field_chemdb_cas_number": "123-45-6",
				"field_chemdb_physical_state": "L",
				"field_chemdb_chemical_formula": "H2O"
			}
		},
		{"id": "S1", "type": "node--space", "attributes": {"title": "Room 204"}},
		{"id": "G1", "type": "node--laboratory", "attributes": {"title": "Smith Lab"}}
	]
}`

func parseDocument(t *testing.T, raw string) jsonapi.Document {
	t.Helper()
	doc, err := jsonapi.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func TestBuildSampleDocument(t *testing.T) {
	rep, err := Build(parseDocument(t, sampleDocument))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(rep.Rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rep.Rows))
	}
	row := rep.Rows[0]
	want := Row{
		ChemicalName:    "Acetone",
		CASNumber:       "123-45-6",
		GroupName:       "Smith Lab",
		Location:        "Room 204",
		PhysicalState:   "Liquid",
		ChemicalFormula: "H2O",
		Amount:          "500",
		Units:           "mL",
		ContainerID:     "C-001",
		Manufacturer:    "Acetone",
		ProductName:     "Acetone",
		ProductNumber:   "P-99",
		DateReceived:    "2023-01-01",
		ExpirationDate:  "2025-01-01",
	}
	if row != want {
		t.Fatalf("unexpected row:\n got %+v\nwant %+v", row, want)
	}
	if row.ChemicalName != row.Manufacturer || row.Manufacturer != row.ProductName {
		t.Fatal("Chemical Name, Manufacturer and Product Name must stay identical")
	}
}

func TestBuildPreservesContainerOrder(t *testing.T) {
	names := []string{"Acetone", "Benzene", "Chloroform", "Decane"}
	data := make([]string, len(names))
	for i, name := range names {
		data[i] = fmt.Sprintf(`{
			"id": "c%d",
			"type": "node--chemical_container",
			"attributes": {
				"field_chemical_product_name": %q,
				"field_chemical_amount": %d,
				"field_chemical_unit_of_measure": "mL",
				"field_chemical_container_id": "C-%03d",
				"field_chemical_product_number": "P-1",
				"field_chemical_received": "2023-01-01",
				"field_chemical_expiration": "2025-01-01"
			},
			"relationships": {
				"field_chemical_type": {"data": {"id": "T1"}},
				"field_chemical_space": {"data": {"id": "S1"}},
				"og_audience": {"data": [{"id": "G1"}]}
			}
		}`, name, (i+1)*100, i+1)
	}
	raw := fmt.Sprintf(`{"data": [%s], "included": [
		{"id": "T1", "type": "node--chemdb_type", "attributes": {"field_chemdb_cas_number": "1-1-1", "field_chemdb_physical_state": "S", "field_chemdb_chemical_formula": "X"}},
		{"id": "S1", "type": "node--space", "attributes": {"title": "Room 1"}},
		{"id": "G1", "type": "node--laboratory", "attributes": {"title": "Lab 1"}}
	]}`, strings.Join(data, ","))

	rep, err := Build(parseDocument(t, raw))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(rep.Rows) != len(names) {
		t.Fatalf("expected %d rows, got %d", len(names), len(rep.Rows))
	}
	for i, row := range rep.Rows {
		if row.ChemicalName != names[i] {
			t.Fatalf("row %d out of order: expected %s, got %s", i, names[i], row.ChemicalName)
		}
	}
}

func TestBuildEmptyData(t *testing.T) {
	raw := `{"data": [], "included": [
		{"id": "T1", "type": "node--chemdb_type", "attributes": {"field_chemdb_physical_state": "G"}}
	]}`
	rep, err := Build(parseDocument(t, raw))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(rep.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rep.Rows))
	}
}

func TestBuildMissingChemicalTypeReference(t *testing.T) {
	raw := strings.Replace(sampleDocument,
		`{"id": "T1", "type": "node--chemdb_type"}`,
		`{"id": "T-missing", "type": "node--chemdb_type"}`, 1)
	_, err := Build(parseDocument(t, raw))
	var missing chemdb.MissingReferenceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingReferenceError, got %v", err)
	}
	if missing.Kind != chemdb.KindChemicalType || missing.ReferenceID != "T-missing" {
		t.Fatalf("unexpected error detail: %+v", missing)
	}
	if !strings.Contains(err.Error(), "data[0]") {
		t.Fatalf("error should name the failing container position: %v", err)
	}
}

func TestBuildAbortsOnFirstFailure(t *testing.T) {
	raw := strings.Replace(sampleDocument, `{"id": "S1", "type": "node--space", "attributes": {"title": "Room 204"}},`, "", 1)
	rep, err := Build(parseDocument(t, raw))
	if err == nil {
		t.Fatal("expected failure for missing space record")
	}
	if len(rep.Rows) != 0 {
		t.Fatalf("failed build must not return partial rows, got %d", len(rep.Rows))
	}
}

func sampleContainer() chemdb.Container {
	return chemdb.Container{
		ID:            "c1",
		ProductName:   "Acetone",
		Amount:        "500",
		UnitOfMeasure: "mL",
		ContainerID:   "C-001",
		ProductNumber: "P-99",
		Received:      "2023-01-01",
		Expiration:    "2025-01-01",
		TypeRef:       "T1",
		SpaceRef:      "S1",
		AudienceRefs:  []string{"G1", "G2"},
	}
}

func sampleIndex(t *testing.T, state string) chemdb.ReferenceIndex {
	t.Helper()
	raw := fmt.Sprintf(`{"data": [], "included": [
		{"id": "T1", "type": "node--chemdb_type", "attributes": {"field_chemdb_cas_number": "123-45-6", "field_chemdb_physical_state": %q, "field_chemdb_chemical_formula": "H2O"}},
		{"id": "S1", "type": "node--space", "attributes": {"title": "Room 204"}},
		{"id": "G1", "type": "node--laboratory", "attributes": {"title": "Smith Lab"}},
		{"id": "G2", "type": "node--laboratory", "attributes": {"title": "Jones Lab"}}
	]}`, state)
	return chemdb.BuildReferenceIndex(parseDocument(t, raw).Included)
}

func TestExtractRowPhysicalStates(t *testing.T) {
	labels := map[string]string{"S": "Solid", "L": "Liquid", "G": "Gas"}
	for code, label := range labels {
		row, err := ExtractRow(sampleContainer(), sampleIndex(t, code))
		if err != nil {
			t.Fatalf("state %s: %v", code, err)
		}
		if row.PhysicalState != label {
			t.Fatalf("state %s: expected %s, got %s", code, label, row.PhysicalState)
		}
	}
}

func TestExtractRowUnknownPhysicalState(t *testing.T) {
	_, err := ExtractRow(sampleContainer(), sampleIndex(t, "Q"))
	var unknown chemdb.UnknownPhysicalStateError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownPhysicalStateError, got %v", err)
	}
	if unknown.Code != "Q" || unknown.ContainerID != "c1" {
		t.Fatalf("unexpected error detail: %+v", unknown)
	}
}

func TestExtractRowFirstAudienceWins(t *testing.T) {
	row, err := ExtractRow(sampleContainer(), sampleIndex(t, "L"))
	if err != nil {
		t.Fatalf("extract row: %v", err)
	}
	if row.GroupName != "Smith Lab" {
		t.Fatalf("expected first audience Smith Lab, got %s", row.GroupName)
	}
}

func TestExtractRowMissingRelationships(t *testing.T) {
	idx := sampleIndex(t, "L")

	noType := sampleContainer()
	noType.TypeRef = ""
	var missingRel chemdb.MissingRelationshipError
	if _, err := ExtractRow(noType, idx); !errors.As(err, &missingRel) || missingRel.Relationship != chemdb.RelationshipChemicalType {
		t.Fatalf("expected missing chemical type relationship, got %v", err)
	}

	noSpace := sampleContainer()
	noSpace.SpaceRef = ""
	if _, err := ExtractRow(noSpace, idx); !errors.As(err, &missingRel) || missingRel.Relationship != chemdb.RelationshipSpace {
		t.Fatalf("expected missing space relationship, got %v", err)
	}

	noAudience := sampleContainer()
	noAudience.AudienceRefs = nil
	if _, err := ExtractRow(noAudience, idx); !errors.As(err, &missingRel) || missingRel.Relationship != chemdb.RelationshipAudience {
		t.Fatalf("expected missing audience relationship, got %v", err)
	}
}

func TestExtractRowMissingLaboratoryReference(t *testing.T) {
	container := sampleContainer()
	container.AudienceRefs = []string{"G-unknown"}
	_, err := ExtractRow(container, sampleIndex(t, "L"))
	var missing chemdb.MissingReferenceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingReferenceError, got %v", err)
	}
	if missing.Kind != chemdb.KindLaboratory || missing.ReferenceID != "G-unknown" {
		t.Fatalf("unexpected error detail: %+v", missing)
	}
}
