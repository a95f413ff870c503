package functions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// XMLToolCallFormat holds the literal delimiters of an attribute-style XML tool
// call syntax:
//
//	<ScopeStart>
//	<ToolStart>NAME<ToolSep>
//	<KeyStart>KEY<KeyValSep>VALUE<ValEnd>
//	<ToolEnd>
//	<ScopeEnd>
type XMLToolCallFormat struct {
	ScopeStart string `yaml:"scope_start" json:"scope_start"`
	ScopeEnd   string `yaml:"scope_end" json:"scope_end"`
	ToolStart  string `yaml:"tool_start" json:"tool_start"`
	ToolSep    string `yaml:"tool_sep" json:"tool_sep"`
	ToolEnd    string `yaml:"tool_end" json:"tool_end"`
	KeyStart   string `yaml:"key_start" json:"key_start"`
	KeyValSep  string `yaml:"key_val_sep" json:"key_val_sep"`
	ValEnd     string `yaml:"val_end" json:"val_end"`
}

const DefaultXMLFormatPreset = "minimax-m2"

var xmlFormatPresets = map[string]XMLToolCallFormat{
	"minimax-m2": {
		ScopeStart: "<minimax:tool_call>",
		ScopeEnd:   "</minimax:tool_call>",
		ToolStart:  `<invoke name="`,
		ToolSep:    `">`,
		ToolEnd:    "</invoke>",
		KeyStart:   `<parameter name="`,
		KeyValSep:  `">`,
		ValEnd:     "</parameter>",
	},
	"function-calls": {
		ScopeStart: "<function_calls>",
		ScopeEnd:   "</function_calls>",
		ToolStart:  `<invoke name="`,
		ToolSep:    `">`,
		ToolEnd:    "</invoke>",
		KeyStart:   `<parameter name="`,
		KeyValSep:  `">`,
		ValEnd:     "</parameter>",
	},
}

// GetXMLFormatPreset returns a copy of a named preset, or nil if the name is unknown.
func GetXMLFormatPreset(name string) *XMLToolCallFormat {
	f, ok := xmlFormatPresets[name]
	if !ok {
		return nil
	}
	return &f
}

// XMLFormatPresetNames lists the known presets, sorted.
func XMLFormatPresetNames() []string {
	names := make([]string, 0, len(xmlFormatPresets))
	for name := range xmlFormatPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var ErrInvalidFormat = errors.New("invalid tool call format")

func (f *XMLToolCallFormat) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: format is required", ErrInvalidFormat)
	}
	fields := []struct{ name, value string }{
		{"scope_start", f.ScopeStart},
		{"scope_end", f.ScopeEnd},
		{"tool_start", f.ToolStart},
		{"tool_sep", f.ToolSep},
		{"tool_end", f.ToolEnd},
		{"key_start", f.KeyStart},
		{"key_val_sep", f.KeyValSep},
		{"val_end", f.ValEnd},
	}
	var missing []string
	for _, field := range fields {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidFormat, strings.Join(missing, ", "))
	}
	return nil
}

// Render writes invocations back into the tag syntax, one block holding one
// invoke per invocation.
func (f *XMLToolCallFormat) Render(invocations []Invocation) string {
	if len(invocations) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(f.ScopeStart)
	sb.WriteString("\n")
	for _, inv := range invocations {
		sb.WriteString(f.ToolStart)
		sb.WriteString(inv.Name)
		sb.WriteString(f.ToolSep)
		sb.WriteString("\n")
		for _, p := range inv.Parameters {
			sb.WriteString(f.KeyStart)
			sb.WriteString(p.Name)
			sb.WriteString(f.KeyValSep)
			sb.WriteString(p.Value)
			sb.WriteString(f.ValEnd)
			sb.WriteString("\n")
		}
		sb.WriteString(f.ToolEnd)
		sb.WriteString("\n")
	}
	sb.WriteString(f.ScopeEnd)
	return sb.String()
}
