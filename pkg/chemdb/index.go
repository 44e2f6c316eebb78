package chemdb

import (
	"encoding/json"

	"chemstock/pkg/jsonapi"
)

// ReferenceIndex resolves relationship identifiers to reference records. It
// is built once per run from the document's included collection and read-only
// afterwards; lookups never mutate it.
type ReferenceIndex struct {
	chemicalTypes map[string]ChemicalType
	spaces        map[string]Space
	laboratories  map[string]Laboratory
}

// BuildReferenceIndex scans the included collection and indexes the three
// recognized reference kinds by resource id. Resources of other kinds are
// skipped, duplicate ids keep the last occurrence, and an empty or nil
// collection yields an index with three empty tables. Building never fails.
func BuildReferenceIndex(included []jsonapi.Resource) ReferenceIndex {
	idx := ReferenceIndex{
		chemicalTypes: make(map[string]ChemicalType),
		spaces:        make(map[string]Space),
		laboratories:  make(map[string]Laboratory),
	}
	for _, res := range included {
		switch Kind(res.Type) {
		case KindChemicalType:
			attrs := rawAttributes(res)
			idx.chemicalTypes[res.ID] = ChemicalType{
				CASNumber:       scalarText(attrs[attrCASNumber]),
				PhysicalState:   PhysicalState(scalarText(attrs[attrPhysicalState])),
				ChemicalFormula: scalarText(attrs[attrChemicalFormula]),
			}
		case KindSpace:
			idx.spaces[res.ID] = Space{Title: scalarText(rawAttributes(res)[attrTitle])}
		case KindLaboratory:
			idx.laboratories[res.ID] = Laboratory{Title: scalarText(rawAttributes(res)[attrTitle])}
		}
	}
	return idx
}

// ChemicalType looks up a chemical type record by id.
func (idx ReferenceIndex) ChemicalType(id string) (ChemicalType, bool) {
	record, ok := idx.chemicalTypes[id]
	return record, ok
}

// Space looks up a space record by id.
func (idx ReferenceIndex) Space(id string) (Space, bool) {
	record, ok := idx.spaces[id]
	return record, ok
}

// Laboratory looks up a laboratory record by id.
func (idx ReferenceIndex) Laboratory(id string) (Laboratory, bool) {
	record, ok := idx.laboratories[id]
	return record, ok
}

// Counts reports the number of indexed records per kind.
func (idx ReferenceIndex) Counts() (chemicalTypes, spaces, laboratories int) {
	return len(idx.chemicalTypes), len(idx.spaces), len(idx.laboratories)
}

// rawAttributes decodes a resource's attribute object into raw values. The
// index tolerates undecodable attributes so that building stays error-free;
// affected records keep zero values and fail later at extraction if used.
func rawAttributes(res jsonapi.Resource) map[string]json.RawMessage {
	attrs := map[string]json.RawMessage{}
	if len(res.Attributes) > 0 {
		_ = json.Unmarshal(res.Attributes, &attrs)
	}
	return attrs
}
