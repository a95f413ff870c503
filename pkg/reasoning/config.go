package reasoning

// TagPair represents a start/end tag pair delimiting reasoning content
type TagPair struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

type Config struct {
	// DisableReasoning turns reasoning tags into plain text
	DisableReasoning *bool `yaml:"disable,omitempty" json:"disable,omitempty"`
	// ThinkingForcedOpen starts every turn inside reasoning, for templates that
	// already emit the opening tag. When unset it is detected from the prompt.
	ThinkingForcedOpen *bool     `yaml:"thinking_forced_open,omitempty" json:"thinking_forced_open,omitempty"`
	TagPairs           []TagPair `yaml:"tag_pairs,omitempty" json:"tag_pairs,omitempty"`
}
