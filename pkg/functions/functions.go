package functions

import (
	"encoding/json"
	"fmt"
)

// Function is a tool declaration as sent by OpenAI compatible clients.
type Function struct {
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Strict      bool                   `json:"strict,omitempty" yaml:"strict,omitempty"`
}
type Functions []Function

type Tool struct {
	Type     string   `json:"type" yaml:"type"`
	Function Function `json:"function,omitempty" yaml:"function,omitempty"`
}
type Tools []Tool

// ParseTools decodes a JSON array of tool declarations. Entries of a type
// other than "function" are skipped.
func ParseTools(data []byte) (Tools, error) {
	var tools Tools
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, fmt.Errorf("cannot decode tools: %w", err)
	}
	for i, t := range tools {
		if t.Type == "function" && t.Function.Name == "" {
			return nil, fmt.Errorf("tool %d has no function name", i)
		}
	}
	return tools, nil
}

func (t Tools) Functions() Functions {
	var fs Functions
	for _, tool := range t {
		if tool.Type != "function" {
			continue
		}
		fs = append(fs, tool.Function)
	}
	return fs
}

// Names returns the function names in declaration order.
func (f Functions) Names() []string {
	names := make([]string, 0, len(f))
	for _, fn := range f {
		names = append(names, fn.Name)
	}
	return names
}

// Select returns a list of functions containing the function with the given name
func (f Functions) Select(name string) Functions {
	var funcs Functions

	for _, f := range f {
		if f.Name == name {
			funcs = []Function{f}
			break
		}
	}

	return funcs
}
