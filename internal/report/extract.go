package report

import "chemstock/pkg/chemdb"

// ExtractRow resolves one container against the reference index and builds
// its output row. It is a pure function of its arguments: on any resolution
// failure the typed cause is returned and no partial row is produced.
func ExtractRow(container chemdb.Container, idx chemdb.ReferenceIndex) (Row, error) {
	if container.TypeRef == "" {
		return Row{}, chemdb.MissingRelationshipError{ContainerID: container.ID, Relationship: chemdb.RelationshipChemicalType}
	}
	chemType, ok := idx.ChemicalType(container.TypeRef)
	if !ok {
		return Row{}, chemdb.MissingReferenceError{Kind: chemdb.KindChemicalType, ContainerID: container.ID, ReferenceID: container.TypeRef}
	}
	state, ok := chemType.PhysicalState.Label()
	if !ok {
		return Row{}, chemdb.UnknownPhysicalStateError{ContainerID: container.ID, Code: string(chemType.PhysicalState)}
	}

	if container.SpaceRef == "" {
		return Row{}, chemdb.MissingRelationshipError{ContainerID: container.ID, Relationship: chemdb.RelationshipSpace}
	}
	space, ok := idx.Space(container.SpaceRef)
	if !ok {
		return Row{}, chemdb.MissingReferenceError{Kind: chemdb.KindSpace, ContainerID: container.ID, ReferenceID: container.SpaceRef}
	}

	if len(container.AudienceRefs) == 0 {
		return Row{}, chemdb.MissingRelationshipError{ContainerID: container.ID, Relationship: chemdb.RelationshipAudience}
	}
	// Only the first audience entry feeds the report.
	labRef := container.AudienceRefs[0]
	lab, ok := idx.Laboratory(labRef)
	if !ok {
		return Row{}, chemdb.MissingReferenceError{Kind: chemdb.KindLaboratory, ContainerID: container.ID, ReferenceID: labRef}
	}

	return Row{
		ChemicalName:    container.ProductName,
		CASNumber:       chemType.CASNumber,
		GroupName:       lab.Title,
		Location:        space.Title,
		PhysicalState:   state,
		ChemicalFormula: chemType.ChemicalFormula,
		Amount:          container.Amount,
		Units:           container.UnitOfMeasure,
		ContainerID:     container.ContainerID,
		Manufacturer:    container.ProductName,
		ProductName:     container.ProductName,
		ProductNumber:   container.ProductNumber,
		DateReceived:    container.Received,
		ExpirationDate:  container.Expiration,
	}, nil
}
