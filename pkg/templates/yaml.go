package templates

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Templates map[string]Template `yaml:"templates"`
}

// Parse decodes a YAML catalog of the form
//
//	templates:
//	  welcome:
//	    version: "1.0"
//	    title: "Hi {{name}}"
//	    message:
//	      conditions:
//	        - if: "{{hasProfile}}"
//	          then: "Welcome back"
//	      default: "Welcome"
//
// and validates every template. Templates are returned sorted by name.
func Parse(data []byte) ([]Template, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Join(ErrLoadCatalog, err)
	}

	out := make([]Template, 0, len(file.Templates))
	for name, tpl := range file.Templates {
		tpl.Name = name
		if err := tpl.Validate(); err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	slices.SortFunc(out, func(a, b Template) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// LoadFile reads and parses a YAML catalog from path.
func LoadFile(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	return Parse(data)
}
