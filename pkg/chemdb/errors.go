package chemdb

import "fmt"

// MissingReferenceError reports a relationship identifier with no matching
// entry in the reference index. Extraction never substitutes a default for a
// missing reference.
type MissingReferenceError struct {
	Kind        Kind
	ContainerID string
	ReferenceID string
}

func (e MissingReferenceError) Error() string {
	return fmt.Sprintf("%s: no %s record for reference %s", containerRef(e.ContainerID), e.Kind, e.ReferenceID)
}

// MissingRelationshipError reports a container without a usable linkage for
// one of its required relationships.
type MissingRelationshipError struct {
	ContainerID  string
	Relationship string
}

func (e MissingRelationshipError) Error() string {
	return fmt.Sprintf("%s: missing %s relationship", containerRef(e.ContainerID), e.Relationship)
}

// UnknownPhysicalStateError reports a physical-state code outside S, L and G.
type UnknownPhysicalStateError struct {
	ContainerID string
	Code        string
}

func (e UnknownPhysicalStateError) Error() string {
	return fmt.Sprintf("%s: unknown physical state code %q", containerRef(e.ContainerID), e.Code)
}

// MissingAttributeError reports a container attribute absent from the
// document.
type MissingAttributeError struct {
	ContainerID string
	Attribute   string
}

func (e MissingAttributeError) Error() string {
	return fmt.Sprintf("%s: missing attribute %s", containerRef(e.ContainerID), e.Attribute)
}

// WrongKindError reports a resource delivered under an unexpected kind tag.
type WrongKindError struct {
	ID   string
	Got  Kind
	Want Kind
}

func (e WrongKindError) Error() string {
	return fmt.Sprintf("resource %s has kind %q, want %s", e.ID, e.Got, e.Want)
}

func containerRef(id string) string {
	if id == "" {
		return "container"
	}
	return "container " + id
}
