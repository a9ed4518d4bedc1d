package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Overrides lists extra alternatives loaded from a YAML file:
//
//	fields:
//	  - name: neto_pagar
//	    patterns:
//	      - 'Neto\s+a\s+pagar.*?"([\d,]+)"'
type Overrides struct {
	Fields []FieldOverride `yaml:"fields"`
}

// FieldOverride adds patterns to one concept
type FieldOverride struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// ParseOverrides decodes an overrides document
func ParseOverrides(data []byte) (Overrides, error) {
	var o Overrides
	if err := yaml.UnmarshalStrict(data, &o); err != nil {
		return Overrides{}, fmt.Errorf("failed to parse pattern overrides: %w", err)
	}
	for i, f := range o.Fields {
		if f.Name == "" {
			return Overrides{}, fmt.Errorf("pattern override %d has no name", i)
		}
	}
	return o, nil
}

// LoadOverrides reads and decodes an overrides file
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, fmt.Errorf("failed to read pattern overrides: %w", err)
	}
	return ParseOverrides(data)
}

// Apply appends the override alternatives after the built-in ones, so an
// override never changes which pattern wins on text the catalog already
// matches.
func (c *Catalog) Apply(o Overrides) error {
	for _, f := range o.Fields {
		if err := c.Add(f.Name, f.Patterns...); err != nil {
			return err
		}
	}
	return nil
}

// CatalogFromFile returns the default catalog extended with the overrides
// in path. An empty path yields the default catalog.
func CatalogFromFile(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}
	o, err := LoadOverrides(path)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(o); err != nil {
		return nil, err
	}
	return c, nil
}
