package locator

import (
	"fmt"
	"strings"
)

// FieldName names one field-bearing cell of a notification
type FieldName string

const (
	FieldDate              FieldName = "date"
	FieldReference         FieldName = "reference"
	FieldValueDate         FieldName = "valueDate"
	FieldSum               FieldName = "sum"
	FieldEntryType         FieldName = "entryType"
	FieldTypeDescription   FieldName = "typeDescription"
	FieldAdditionalDetails FieldName = "additionalDetails"
)

// AllFields lists every field a schema must declare, in table order
func AllFields() []FieldName {
	return []FieldName{
		FieldDate,
		FieldReference,
		FieldValueDate,
		FieldSum,
		FieldEntryType,
		FieldTypeDescription,
		FieldAdditionalDetails,
	}
}

// FieldSpec declares where one field lives. Path holds element-child
// indices starting at <body>; text and comment nodes are never counted.
type FieldSpec struct {
	Name     FieldName `json:"name" yaml:"name"`
	Path     []int     `json:"path" yaml:"path"`
	Optional bool      `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Schema is a versioned declaration of field positions. A change in the
// provider's rendering gets a new version; existing versions never change.
type Schema struct {
	Version string      `json:"version" yaml:"version"`
	Fields  []FieldSpec `json:"fields" yaml:"fields"`
}

// BulbankV1Version tags the two-column key/value table Bulbank renders
const BulbankV1Version = "bulbank/v1"

// BulbankV1 returns the schema for the key/value notification table:
// body > table > tbody > tr[row] > td[1]. Row 0 is the caption row.
func BulbankV1() Schema {
	cell := func(row int) []int { return []int{0, 0, row, 1} }
	return Schema{
		Version: BulbankV1Version,
		Fields: []FieldSpec{
			{Name: FieldDate, Path: cell(1)},
			{Name: FieldReference, Path: cell(2)},
			{Name: FieldValueDate, Path: cell(3)},
			{Name: FieldSum, Path: cell(4)},
			{Name: FieldEntryType, Path: cell(5)},
			{Name: FieldTypeDescription, Path: cell(6)},
			{Name: FieldAdditionalDetails, Path: cell(7), Optional: true},
		},
	}
}

// Validate checks the schema once, before any document is located
func (s Schema) Validate() error {
	if strings.TrimSpace(s.Version) == "" {
		return fmt.Errorf("schema version cannot be empty")
	}

	declared := make(map[FieldName]bool)
	for _, f := range s.Fields {
		if declared[f.Name] {
			return fmt.Errorf("schema %s: field %s declared twice", s.Version, f.Name)
		}
		declared[f.Name] = true

		if len(f.Path) == 0 {
			return fmt.Errorf("schema %s: field %s has an empty path", s.Version, f.Name)
		}
		for i, offset := range f.Path {
			if offset < 0 {
				return fmt.Errorf("schema %s: field %s has negative offset %d at step %d", s.Version, f.Name, offset, i)
			}
		}
		if f.Optional && f.Name != FieldAdditionalDetails {
			return fmt.Errorf("schema %s: field %s cannot be optional", s.Version, f.Name)
		}
	}

	for _, name := range AllFields() {
		if !declared[name] {
			return fmt.Errorf("schema %s: field %s is not declared", s.Version, name)
		}
	}
	if len(declared) != len(AllFields()) {
		return fmt.Errorf("schema %s: declares fields outside the notification layout", s.Version)
	}

	return nil
}
