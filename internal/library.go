package internal

import (
	"fmt"
	"os"

	"github.com/dsljs/dsl/macro"
	"gopkg.in/yaml.v3"
)

// LibraryMacro is one shared macro declared in a YAML library file.
type LibraryMacro struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Body    string `yaml:"body"`
}

// Library is the document layout of a macro library file:
//
//	macros:
//	  - name: log
//	    pattern: LOG $msg
//	    body: console.log($msg);
type Library struct {
	Macros []LibraryMacro `yaml:"macros"`
}

// LoadLibrary reads and compiles the macros of a YAML library file.
func LoadLibrary(path string) ([]*macro.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLibrary(data)
}

// ParseLibrary compiles the macros declared in a YAML document.
func ParseLibrary(data []byte) ([]*macro.Definition, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("invalid macro library: %w", err)
	}

	defs := make([]*macro.Definition, 0, len(lib.Macros))
	for i, m := range lib.Macros {
		def, err := macro.NewDefinition(m.Pattern, m.Body)
		if err != nil {
			name := m.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("macro %s: %w", name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
