package jsonapi

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseValidDocument(t *testing.T) {
	raw := []byte(`{
		"data": [
			{
				"id": "c1",
				"type": "node--chemical_container",
				"attributes": {"field_chemical_product_name": "Acetone"},
				"relationships": {
					"field_chemical_type": {"data": {"id": "t1", "type": "node--chemdb_type"}},
					"og_audience": {"data": [{"id": "g1", "type": "node--laboratory"}]}
				}
			}
		],
		"included": [
			{"id": "t1", "type": "node--chemdb_type", "attributes": {"field_chemdb_cas_number": "67-64-1"}}
		]
	}`)

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	if len(doc.Data) != 1 || len(doc.Included) != 1 {
		t.Fatalf("expected 1 data and 1 included resource, got %d/%d", len(doc.Data), len(doc.Included))
	}
	container := doc.Data[0]
	if container.ID != "c1" || container.Type != "node--chemical_container" {
		t.Fatalf("unexpected container resource: %+v", container)
	}
	typeRef, ok := container.Relationships["field_chemical_type"].First()
	if !ok || typeRef.ID != "t1" {
		t.Fatalf("expected to-one linkage t1, got %+v ok=%v", typeRef, ok)
	}
	audience := container.Relationships["og_audience"].Data
	if len(audience) != 1 || audience[0].ID != "g1" {
		t.Fatalf("expected to-many linkage [g1], got %+v", audience)
	}
}

func TestParseEmptyCollections(t *testing.T) {
	doc, err := Parse([]byte(`{"data": [], "included": []}`))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	if len(doc.Data) != 0 || len(doc.Included) != 0 {
		t.Fatalf("expected empty collections, got %d/%d", len(doc.Data), len(doc.Included))
	}
}

func TestParseMissingCollections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{name: "absent data", raw: `{"included": []}`, want: ErrMissingData},
		{name: "null data", raw: `{"data": null, "included": []}`, want: ErrMissingData},
		{name: "absent included", raw: `{"data": []}`, want: ErrMissingIncluded},
		{name: "null included", raw: `{"data": [], "included": null}`, want: ErrMissingIncluded},
	}
	for _, tc := range cases {
		if _, err := Parse([]byte(tc.raw)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"data": [,]}`)); err == nil {
		t.Fatal("expected decode error for invalid JSON")
	}
}

func TestParseRejectsIncompleteIncludedResource(t *testing.T) {
	raw := []byte(`{"data": [], "included": [{"type": "node--space"}]}`)
	_, err := Parse(raw)
	var resErr IncludedResourceError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected IncludedResourceError, got %v", err)
	}
	if resErr.Index != 0 || resErr.Field != "id" {
		t.Fatalf("unexpected error detail: %+v", resErr)
	}
	if !strings.Contains(resErr.Error(), "included[0]") {
		t.Fatalf("error message should name the resource position: %s", resErr.Error())
	}

	raw = []byte(`{"data": [], "included": [{"id": "s1"}]}`)
	if _, err := Parse(raw); !errors.As(err, &resErr) || resErr.Field != "type" {
		t.Fatalf("expected missing type error, got %v", err)
	}
}

func TestRelationshipLinkageShapes(t *testing.T) {
	var rel Relationship
	if err := json.Unmarshal([]byte(`{"data": {"id": "a", "type": "node--space"}}`), &rel); err != nil {
		t.Fatalf("unmarshal to-one linkage: %v", err)
	}
	if len(rel.Data) != 1 || rel.Data[0].ID != "a" {
		t.Fatalf("expected single linkage, got %+v", rel.Data)
	}

	if err := json.Unmarshal([]byte(`{"data": [{"id": "a"}, {"id": "b"}]}`), &rel); err != nil {
		t.Fatalf("unmarshal to-many linkage: %v", err)
	}
	if len(rel.Data) != 2 || rel.Data[1].ID != "b" {
		t.Fatalf("expected two linkages, got %+v", rel.Data)
	}

	if err := json.Unmarshal([]byte(`{"data": null}`), &rel); err != nil {
		t.Fatalf("unmarshal null linkage: %v", err)
	}
	if len(rel.Data) != 0 {
		t.Fatalf("expected empty linkage, got %+v", rel.Data)
	}

	if err := json.Unmarshal([]byte(`{}`), &rel); err != nil {
		t.Fatalf("unmarshal absent linkage: %v", err)
	}
	if len(rel.Data) != 0 {
		t.Fatalf("expected empty linkage for absent data, got %+v", rel.Data)
	}
}

func TestRelationshipFirst(t *testing.T) {
	rel := Relationship{Data: []ResourceIdentifier{{ID: "x"}, {ID: "y"}}}
	ref, ok := rel.First()
	if !ok || ref.ID != "x" {
		t.Fatalf("expected first linkage x, got %+v ok=%v", ref, ok)
	}
	if _, ok := (Relationship{}).First(); ok {
		t.Fatal("empty relationship should report no linkage")
	}
}

func TestRelationshipMarshalRoundTrip(t *testing.T) {
	one := Relationship{Data: []ResourceIdentifier{{ID: "a", Type: "node--space"}}}
	b, err := json.Marshal(one)
	if err != nil {
		t.Fatalf("marshal to-one: %v", err)
	}
	if !strings.Contains(string(b), `"data":{`) {
		t.Fatalf("to-one linkage should encode as an object: %s", b)
	}
	var back Relationship
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal round trip: %v", err)
	}
	if len(back.Data) != 1 || back.Data[0].ID != "a" {
		t.Fatalf("round trip lost linkage: %+v", back.Data)
	}

	many := Relationship{Data: []ResourceIdentifier{{ID: "a"}, {ID: "b"}}}
	b, err = json.Marshal(many)
	if err != nil {
		t.Fatalf("marshal to-many: %v", err)
	}
	if !strings.Contains(string(b), `"data":[`) {
		t.Fatalf("to-many linkage should encode as a list: %s", b)
	}
}
