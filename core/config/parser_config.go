// Package config loads the per-model settings of the tool-call parser.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"dario.cat/mergo"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mudler/m2context/pkg/functions"
	"github.com/mudler/m2context/pkg/reasoning"
	"github.com/mudler/m2context/pkg/turn"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid parser config")

// ParserConfig describes how the output of one model is parsed.
type ParserConfig struct {
	Name string `yaml:"name" json:"name"`

	// Format is the name of a tool call syntax preset
	Format string `yaml:"format" json:"format"`
	// XMLFormat overrides the preset with custom delimiters
	XMLFormat *functions.XMLToolCallFormat `yaml:"xml_format,omitempty" json:"xml_format,omitempty"`

	// BuiltinTools are resolved by the server rather than by the client
	BuiltinTools []string `yaml:"builtin_tools,omitempty" json:"builtin_tools,omitempty"`

	Reasoning reasoning.Config `yaml:"reasoning,omitempty" json:"reasoning,omitempty"`

	// Template is a text/template used to render conversations into prompts.
	// Empty selects the built-in one.
	Template string `yaml:"template,omitempty" json:"template,omitempty"`

	CallIDPrefix string `yaml:"call_id_prefix,omitempty" json:"call_id_prefix,omitempty"`
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		Name:         functions.DefaultXMLFormatPreset,
		Format:       functions.DefaultXMLFormatPreset,
		CallIDPrefix: "call_",
	}
}

// LoadParserConfig reads a YAML config file and fills in defaults.
func LoadParserConfig(file string) (*ParserConfig, error) {
	c := &ParserConfig{}
	f, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("LoadParserConfig cannot read config file %q: %w", file, err)
	}
	if err := yaml.Unmarshal(f, c); err != nil {
		return nil, fmt.Errorf("LoadParserConfig cannot unmarshal config file %q: %w", file, err)
	}

	if err := c.SetDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

// SetDefaults fills every unset field from DefaultParserConfig.
func (c *ParserConfig) SetDefaults() error {
	defaults := DefaultParserConfig()
	if err := mergo.Merge(c, defaults); err != nil {
		return fmt.Errorf("cannot apply parser config defaults: %w", err)
	}
	return nil
}

func (c *ParserConfig) Validate() error {
	if _, err := c.ToolCallFormat(); err != nil {
		return err
	}

	for i, p := range c.Reasoning.TagPairs {
		if p.Start == "" || p.End == "" {
			return fmt.Errorf("%w: reasoning tag pair %d needs both start and end", ErrInvalidConfig, i)
		}
	}

	seen := make(map[string]struct{}, len(c.BuiltinTools))
	for _, t := range c.BuiltinTools {
		if t == "" {
			return fmt.Errorf("%w: empty builtin tool name", ErrInvalidConfig)
		}
		if _, ok := seen[t]; ok {
			return fmt.Errorf("%w: builtin tool %q listed twice", ErrInvalidConfig, t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// ToolCallFormat resolves the delimiters to use, preferring XMLFormat.
func (c *ParserConfig) ToolCallFormat() (functions.XMLToolCallFormat, error) {
	if c.XMLFormat != nil {
		if err := c.XMLFormat.Validate(); err != nil {
			return functions.XMLToolCallFormat{}, err
		}
		return *c.XMLFormat, nil
	}

	f := functions.GetXMLFormatPreset(c.Format)
	if f == nil {
		names := functions.XMLFormatPresetNames()
		if suggestion := closestPreset(c.Format, names); suggestion != "" {
			return functions.XMLToolCallFormat{}, fmt.Errorf("%w: unknown preset %q, did you mean %q?",
				functions.ErrInvalidFormat, c.Format, suggestion)
		}
		return functions.XMLToolCallFormat{}, fmt.Errorf("%w: unknown preset %q, known presets: %v",
			functions.ErrInvalidFormat, c.Format, names)
	}
	return *f, nil
}

func closestPreset(name string, names []string) string {
	if name == "" {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, names)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// TurnOptions builds the turn parser options for a turn generated from prompt.
func (c *ParserConfig) TurnOptions(prompt string) ([]turn.Option, error) {
	format, err := c.ToolCallFormat()
	if err != nil {
		return nil, err
	}

	opts := []turn.Option{turn.WithFormat(format)}
	if c.Reasoning.Enabled() {
		pair, forced := c.Reasoning.Resolve(prompt)
		opts = append(opts,
			turn.WithReasoningTags(pair),
			turn.WithThinkingForcedOpen(forced),
		)
	}
	if c.CallIDPrefix != "" {
		opts = append(opts, turn.WithCallIDPrefix(c.CallIDPrefix))
	}
	return opts, nil
}

// IsBuiltinTool reports whether name is one of the builtin tools.
func (c *ParserConfig) IsBuiltinTool(name string) bool {
	return slices.Contains(c.BuiltinTools, name)
}
