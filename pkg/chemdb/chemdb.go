// Package chemdb defines the chemical inventory records carried by backend
// export documents and the reference index used to resolve the relationships
// between them.
package chemdb

import (
	"bytes"
	"encoding/json"
	"fmt"

	"chemstock/pkg/jsonapi"
)

// Kind discriminates the resource kinds understood by the inventory pipeline.
type Kind string

const (
	// KindChemicalContainer tags primary container records.
	KindChemicalContainer Kind = "node--chemical_container"
	// KindChemicalType tags chemical type reference records.
	KindChemicalType Kind = "node--chemdb_type"
	// KindSpace tags space (location) reference records.
	KindSpace Kind = "node--space"
	// KindLaboratory tags laboratory (owning group) reference records.
	KindLaboratory Kind = "node--laboratory"
)

// Relationship names carried by container records.
const (
	// RelationshipChemicalType links a container to its chemical type record.
	RelationshipChemicalType = "field_chemical_type"
	// RelationshipSpace links a container to its space record.
	RelationshipSpace = "field_chemical_space"
	// RelationshipAudience links a container to its owning laboratories.
	// The linkage is a list; only the first entry feeds the report.
	RelationshipAudience = "og_audience"
)

// Container attribute names carried by the backend.
const (
	attrProductName   = "field_chemical_product_name"
	attrAmount        = "field_chemical_amount"
	attrUnitOfMeasure = "field_chemical_unit_of_measure"
	attrContainerID   = "field_chemical_container_id"
	attrProductNumber = "field_chemical_product_number"
	attrReceived      = "field_chemical_received"
	attrExpiration    = "field_chemical_expiration"
)

// Reference record attribute names.
const (
	attrCASNumber       = "field_chemdb_cas_number"
	attrPhysicalState   = "field_chemdb_physical_state"
	attrChemicalFormula = "field_chemdb_chemical_formula"
	attrTitle           = "title"
)

// PhysicalState is the single-letter state code carried by chemical type
// records.
type PhysicalState string

const (
	// PhysicalStateSolid marks a solid chemical.
	PhysicalStateSolid PhysicalState = "S"
	// PhysicalStateLiquid marks a liquid chemical.
	PhysicalStateLiquid PhysicalState = "L"
	// PhysicalStateGas marks a gaseous chemical.
	PhysicalStateGas PhysicalState = "G"
)

// Label resolves the state code to its display label. The mapping covers
// exactly S, L and G; any other code reports false and must not be defaulted.
func (p PhysicalState) Label() (string, bool) {
	switch p {
	case PhysicalStateSolid:
		return "Solid", true
	case PhysicalStateLiquid:
		return "Liquid", true
	case PhysicalStateGas:
		return "Gas", true
	default:
		return "", false
	}
}

// ChemicalType is the attribute subset kept from a chemical type record.
type ChemicalType struct {
	CASNumber       string
	PhysicalState   PhysicalState
	ChemicalFormula string
}

// Space is the attribute subset kept from a space record.
type Space struct {
	Title string
}

// Laboratory is the attribute subset kept from a laboratory record.
type Laboratory struct {
	Title string
}

// Container is one physical chemical container as decoded from a primary
// resource. Attribute values keep the exact scalar text the document carried;
// relationship identifiers stay unresolved until extraction.
type Container struct {
	ID            string
	ProductName   string
	Amount        string
	UnitOfMeasure string
	ContainerID   string
	ProductNumber string
	Received      string
	Expiration    string
	TypeRef       string
	SpaceRef      string
	AudienceRefs  []string
}

// containerAttributes lists the attributes every container must carry.
var containerAttributes = []string{
	attrProductName,
	attrAmount,
	attrUnitOfMeasure,
	attrContainerID,
	attrProductNumber,
	attrReceived,
	attrExpiration,
}

// ContainerFromResource decodes a primary container resource. The resource
// must carry the container kind, and all seven output attributes must be
// present in the attributes object; a violation is a malformed-document
// failure naming the container and the field. Relationship linkages are
// captured as identifier lists and validated later by the extractor.
func ContainerFromResource(res jsonapi.Resource) (Container, error) {
	if res.Type != string(KindChemicalContainer) {
		return Container{}, WrongKindError{ID: res.ID, Got: Kind(res.Type), Want: KindChemicalContainer}
	}
	attrs := map[string]json.RawMessage{}
	if len(res.Attributes) > 0 {
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			return Container{}, fmt.Errorf("%s: decode attributes: %w", containerRef(res.ID), err)
		}
	}
	values := make(map[string]string, len(containerAttributes))
	for _, name := range containerAttributes {
		raw, ok := attrs[name]
		if !ok {
			return Container{}, MissingAttributeError{ContainerID: res.ID, Attribute: name}
		}
		values[name] = scalarText(raw)
	}

	container := Container{
		ID:            res.ID,
		ProductName:   values[attrProductName],
		Amount:        values[attrAmount],
		UnitOfMeasure: values[attrUnitOfMeasure],
		ContainerID:   values[attrContainerID],
		ProductNumber: values[attrProductNumber],
		Received:      values[attrReceived],
		Expiration:    values[attrExpiration],
	}
	if ref, ok := res.Relationships[RelationshipChemicalType].First(); ok {
		container.TypeRef = ref.ID
	}
	if ref, ok := res.Relationships[RelationshipSpace].First(); ok {
		container.SpaceRef = ref.ID
	}
	for _, ref := range res.Relationships[RelationshipAudience].Data {
		container.AudienceRefs = append(container.AudienceRefs, ref.ID)
	}
	return container, nil
}

// scalarText renders a raw JSON scalar to the exact text the document
// carried: strings unquote, numbers keep their literal form, null renders
// empty, and composite values fall back to their compact JSON.
func scalarText(raw json.RawMessage) string {
	value := bytes.TrimSpace(raw)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return ""
	}
	if value[0] == '"' {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			return s
		}
	}
	return string(value)
}
