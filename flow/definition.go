package flow

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefinitionFiles are the file names looked up in a flow directory, in order.
var DefinitionFiles = []string{"flow.yaml", "flow.yml", "flow.dag.yaml"}

// Input describes one declared flow input.
type Input struct {
	Type    string `yaml:"type"`
	Default any    `yaml:"default"`
}

// Definition is the parsed content of a flow.yaml file.
type Definition struct {
	Name         string           `yaml:"name"`
	Description  string           `yaml:"description"`
	Instructions string           `yaml:"instructions"`
	Knowledge    string           `yaml:"knowledge"`
	TopK         int              `yaml:"top_k"`
	Temperature  float64          `yaml:"temperature"`
	Inputs       map[string]Input `yaml:"inputs"`

	// Dir is the directory the definition was loaded from.
	Dir string `yaml:"-"`
}

// LoadDefinition reads the flow definition from dir.
func LoadDefinition(dir string) (*Definition, error) {
	for _, name := range DefinitionFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		def, err := ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		def.Dir = dir
		return def, nil
	}
	return nil, fmt.Errorf("%w: no flow definition in %s", os.ErrNotExist, dir)
}

// ParseDefinition parses and validates a flow definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	if def.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if def.Instructions == "" {
		return nil, fmt.Errorf("%w: instructions are required", ErrInvalidDefinition)
	}
	if def.TopK <= 0 {
		def.TopK = 3
	}
	if def.Inputs == nil {
		def.Inputs = map[string]Input{}
	}
	if _, ok := def.Inputs["question"]; !ok {
		def.Inputs["question"] = Input{Type: "string"}
	}
	if _, ok := def.Inputs["chat_history"]; !ok {
		def.Inputs["chat_history"] = Input{Type: "list", Default: []any{}}
	}
	return &def, nil
}

// KnowledgePath returns the knowledge file resolved against the flow directory.
func (d *Definition) KnowledgePath() string {
	if d.Knowledge == "" || filepath.IsAbs(d.Knowledge) {
		return d.Knowledge
	}
	return filepath.Join(d.Dir, d.Knowledge)
}

// Resolve fills missing inputs with their defaults. Inputs declared without
// a default are required.
func (d *Definition) Resolve(inputs Inputs) (Inputs, error) {
	resolved := make(Inputs, len(inputs)+len(d.Inputs))
	for k, v := range inputs {
		resolved[k] = v
	}
	for name, in := range d.Inputs {
		if _, ok := resolved[name]; ok {
			continue
		}
		if in.Default == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, name)
		}
		resolved[name] = in.Default
	}
	return resolved, nil
}
