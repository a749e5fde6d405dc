// Package domain holds the eligibility intake wizard: the form catalog and
// the pure state transitions over it.
package domain

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// CategoryID identifies one step of the wizard.
type CategoryID string

// The ten intake categories, in wizard order.
const (
	CategoryDemographics   CategoryID = "demographics"
	CategoryDiagnosis      CategoryID = "diagnosis"
	CategoryMedicalHistory CategoryID = "medical-history"
	CategoryTreatments     CategoryID = "treatments"
	CategoryLaboratory     CategoryID = "laboratory"
	CategoryFunctional     CategoryID = "functional"
	CategoryGenetic        CategoryID = "genetic"
	CategoryReproductive   CategoryID = "reproductive"
	CategorySafety         CategoryID = "safety"
	CategoryAdministrative CategoryID = "administrative"
)

// InputKind is how a field is rendered and what its value looks like.
type InputKind string

const (
	InputText     InputKind = "text"
	InputNumber   InputKind = "number"
	InputDate     InputKind = "date"
	InputTextarea InputKind = "textarea"
	InputSelect   InputKind = "select"
	InputRadio    InputKind = "radio"
)

// Valid reports whether k is a known input kind.
func (k InputKind) Valid() bool {
	switch k {
	case InputText, InputNumber, InputDate, InputTextarea, InputSelect, InputRadio:
		return true
	}
	return false
}

// HasOptions reports whether values must come from the field's option list.
func (k InputKind) HasOptions() bool {
	return k == InputSelect || k == InputRadio
}

// FormField describes one question.
type FormField struct {
	Name        string    `yaml:"name" json:"name"`
	Label       string    `yaml:"label" json:"label"`
	Kind        InputKind `yaml:"type" json:"inputKind"`
	Placeholder string    `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Required    bool      `yaml:"required,omitempty" json:"required,omitempty"`
	Options     []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Step        string    `yaml:"step,omitempty" json:"numericStep,omitempty"`
}

// HasOption reports whether value is one of the field's options.
func (f FormField) HasOption(value string) bool {
	for _, option := range f.Options {
		if option == value {
			return true
		}
	}
	return false
}

// Category is one wizard step with its fields.
type Category struct {
	ID     CategoryID  `yaml:"id" json:"id"`
	Label  string      `yaml:"label" json:"label"`
	Fields []FormField `yaml:"fields" json:"fields"`
}

// Field looks up a field by name.
func (c Category) Field(name string) (FormField, bool) {
	for _, field := range c.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FormField{}, false
}

// Catalog is the immutable, ordered list of categories the wizard walks.
type Catalog struct {
	categories []Category
	index      map[CategoryID]int
}

// ErrEmptyCatalog is returned for a catalog without categories.
var ErrEmptyCatalog = errors.New("catalog has no categories")

// NewCatalog validates categories and builds a catalog over a copy of them.
func NewCatalog(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		categories: make([]Category, len(categories)),
		index:      make(map[CategoryID]int, len(categories)),
	}
	for i, category := range categories {
		if category.ID == "" {
			return nil, fmt.Errorf("category %d: missing id", i)
		}
		if _, dup := c.index[category.ID]; dup {
			return nil, fmt.Errorf("category %q: duplicate id", category.ID)
		}

		names := make(map[string]struct{}, len(category.Fields))
		for _, field := range category.Fields {
			if field.Name == "" {
				return nil, fmt.Errorf("category %q: field without name", category.ID)
			}
			if _, dup := names[field.Name]; dup {
				return nil, fmt.Errorf("category %q: duplicate field %q", category.ID, field.Name)
			}
			names[field.Name] = struct{}{}
			if !field.Kind.Valid() {
				return nil, fmt.Errorf("category %q field %q: unknown input kind %q", category.ID, field.Name, field.Kind)
			}
			if field.Kind.HasOptions() && len(field.Options) == 0 {
				return nil, fmt.Errorf("category %q field %q: %s field needs options", category.ID, field.Name, field.Kind)
			}
		}

		copied := category
		copied.Fields = append([]FormField(nil), category.Fields...)
		c.categories[i] = copied
		c.index[category.ID] = i
	}
	return c, nil
}

// ParseCatalog reads a catalog from YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse intake catalog: %w", err)
	}
	return NewCatalog(doc.Categories)
}

// DefaultCatalog returns the built-in ten-category intake form.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}

// LastIndex returns the index of the final category.
func (c *Catalog) LastIndex() int {
	return len(c.categories) - 1
}

// Categories returns the categories in wizard order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// At returns the category at index.
func (c *Catalog) At(index int) (Category, bool) {
	if index < 0 || index >= len(c.categories) {
		return Category{}, false
	}
	return c.categories[index], true
}

// Lookup returns the category with the given id.
func (c *Catalog) Lookup(id CategoryID) (Category, bool) {
	i, ok := c.index[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// IndexOf returns the wizard position of id.
func (c *Catalog) IndexOf(id CategoryID) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}
