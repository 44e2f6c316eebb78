// Package jsonapi models the subset of the JSON:API document format emitted
// by the inventory backend: a primary data collection plus a bundled included
// collection of auxiliary resources.
package jsonapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Document is a parsed export document. Data holds the primary resources in
// their original order; Included holds the auxiliary resources bundled with
// them.
type Document struct {
	Data     []Resource `json:"data"`
	Included []Resource `json:"included"`
}

// Resource is a single JSON:API resource object. Attributes stay raw so each
// consumer decodes only the subset it declares.
type Resource struct {
	ID            string                  `json:"id,omitempty"`
	Type          string                  `json:"type"`
	Attributes    json.RawMessage         `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
}

// ResourceIdentifier references another resource in the document by id and
// type.
type ResourceIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// Relationship carries the linkage data of one relationship entry. The wire
// form is a single identifier object, a list of identifiers, or null; all
// three normalize to a slice.
type Relationship struct {
	Data []ResourceIdentifier
}

// First returns the first linkage entry and whether one exists.
func (r Relationship) First() (ResourceIdentifier, bool) {
	if len(r.Data) == 0 {
		return ResourceIdentifier{}, false
	}
	return r.Data[0], true
}

// UnmarshalJSON accepts both to-one and to-many linkage shapes.
func (r *Relationship) UnmarshalJSON(b []byte) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return err
	}
	r.Data = nil
	linkage := bytes.TrimSpace(envelope.Data)
	if len(linkage) == 0 || bytes.Equal(linkage, []byte("null")) {
		return nil
	}
	if linkage[0] == '[' {
		return json.Unmarshal(linkage, &r.Data)
	}
	var one ResourceIdentifier
	if err := json.Unmarshal(linkage, &one); err != nil {
		return err
	}
	r.Data = []ResourceIdentifier{one}
	return nil
}

// MarshalJSON writes to-one linkages back as a single object and everything
// else as a list, mirroring the backend's own encoding.
func (r Relationship) MarshalJSON() ([]byte, error) {
	if len(r.Data) == 1 {
		return json.Marshal(struct {
			Data ResourceIdentifier `json:"data"`
		}{Data: r.Data[0]})
	}
	return json.Marshal(struct {
		Data []ResourceIdentifier `json:"data"`
	}{Data: r.Data})
}

// ErrMissingData indicates the document lacks the top-level data collection.
var ErrMissingData = errors.New("jsonapi: document missing data collection")

// ErrMissingIncluded indicates the document lacks the included collection.
var ErrMissingIncluded = errors.New("jsonapi: document missing included collection")

// IncludedResourceError reports an included resource without a required
// structural field.
type IncludedResourceError struct {
	Index int
	Field string
}

func (e IncludedResourceError) Error() string {
	return fmt.Sprintf("jsonapi: included[%d] missing %s", e.Index, e.Field)
}

// Parse decodes and validates an export document. Both top-level collections
// must be present (empty collections are valid), and every included resource
// must carry an id and a type so the reference index can key it. Validation
// failures are fatal to the run; no partially parsed document is returned.
func Parse(raw []byte) (Document, error) {
	var envelope struct {
		Data     *[]Resource `json:"data"`
		Included *[]Resource `json:"included"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Document{}, fmt.Errorf("jsonapi: decode document: %w", err)
	}
	if envelope.Data == nil {
		return Document{}, ErrMissingData
	}
	if envelope.Included == nil {
		return Document{}, ErrMissingIncluded
	}
	doc := Document{Data: *envelope.Data, Included: *envelope.Included}
	for i, res := range doc.Included {
		if res.ID == "" {
			return Document{}, IncludedResourceError{Index: i, Field: "id"}
		}
		if res.Type == "" {
			return Document{}, IncludedResourceError{Index: i, Field: "type"}
		}
	}
	return doc, nil
}
