package reasoning

import (
	"strings"
)

// DefaultTagPair is the pair emitted by MiniMax-M2 and most open reasoning models.
var DefaultTagPair = TagPair{Start: "<think>", End: "</think>"}

// KnownTagPairs lists the reasoning delimiters used by common model families,
// more specific tokens first.
var KnownTagPairs = []TagPair{
	{Start: "<|START_THINKING|>", End: "<|END_THINKING|>"}, // Command-R models
	{Start: "<|inner_prefix|>", End: "<|inner_suffix|>"},   // Apertus models
	{Start: "<seed:think>", End: "</seed:think>"},          // Seed models
	{Start: "<think>", End: "</think>"},                    // MiniMax, DeepSeek, GLM
	{Start: "<thinking>", End: "</thinking>"},              // General thinking tag
	{Start: "[THINK]", End: "[/THINK]"},                    // Magistral models
}

// Enabled reports whether reasoning tags should be recognized at all.
func (c Config) Enabled() bool {
	return c.DisableReasoning == nil || !*c.DisableReasoning
}

// TagPair returns the first configured pair, or DefaultTagPair.
func (c Config) TagPair() TagPair {
	for _, p := range c.TagPairs {
		if p.Start != "" && p.End != "" {
			return p
		}
	}
	return DefaultTagPair
}

// Resolve returns the tag pair to watch in a turn generated from prompt and
// whether the turn starts inside reasoning. An explicit ThinkingForcedOpen
// wins over detection. When the prompt itself opened a reasoning block, the
// pair that opened it is returned so its end tag is the one recognized.
func (c Config) Resolve(prompt string) (TagPair, bool) {
	pair := c.TagPair()
	if !c.Enabled() {
		return pair, false
	}
	if c.ThinkingForcedOpen != nil {
		return pair, *c.ThinkingForcedOpen
	}
	if detected, ok := DetectThinkingTagPair(prompt, c.completePairs()...); ok {
		return detected, true
	}
	return pair, false
}

func (c Config) completePairs() []TagPair {
	var pairs []TagPair
	for _, p := range c.TagPairs {
		if p.Start != "" && p.End != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// DetectThinkingTagPair returns the pair whose start token the prompt ends
// with, ignoring trailing whitespace. Only the given pairs are checked, or
// KnownTagPairs when none are given. When the prompt already opened the
// reasoning block the model output starts with reasoning and no opening tag.
func DetectThinkingTagPair(prompt string, pairs ...TagPair) (TagPair, bool) {
	trimmed := strings.TrimRight(prompt, " \t\n\r")
	if trimmed == "" {
		return TagPair{}, false
	}
	if len(pairs) == 0 {
		pairs = KnownTagPairs
	}
	for _, p := range pairs {
		if p.Start != "" && strings.HasSuffix(trimmed, p.Start) {
			return p, true
		}
	}
	return TagPair{}, false
}
