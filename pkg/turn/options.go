package turn

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mudler/m2context/pkg/functions"
	"github.com/mudler/m2context/pkg/reasoning"
	"github.com/mudler/m2context/pkg/sentence"
)

type options struct {
	format         functions.XMLToolCallFormat
	author         sentence.Author
	reasoningTags  *reasoning.TagPair
	thinkingForced bool
	newCallID      func() string
}

// Option configures a Parser.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		format:    *functions.GetXMLFormatPreset(functions.DefaultXMLFormatPreset),
		author:    sentence.Author{Role: sentence.RoleAssistant},
		newCallID: NewCallID,
	}
}

// NewCallID returns a fresh tool call id.
func NewCallID() string {
	return fmt.Sprintf("call_%s", uuid.New().String())
}

// WithFormat sets the tool-call tag syntax. Defaults to the minimax-m2 preset.
func WithFormat(format functions.XMLToolCallFormat) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithAuthor sets the author of the produced messages. Defaults to assistant.
func WithAuthor(author sentence.Author) Option {
	return func(o *options) {
		o.author = author
	}
}

// WithReasoningTags recognizes in-band reasoning tags outside tool-call blocks.
func WithReasoningTags(pair reasoning.TagPair) Option {
	return func(o *options) {
		o.reasoningTags = &pair
	}
}

// WithThinkingForcedOpen starts each turn on the think channel.
func WithThinkingForcedOpen(forced bool) Option {
	return func(o *options) {
		o.thinkingForced = forced
	}
}

// WithCallIDGenerator overrides how tool call ids are generated.
func WithCallIDGenerator(f func() string) Option {
	return func(o *options) {
		if f != nil {
			o.newCallID = f
		}
	}
}

// WithCallIDPrefix generates ids as prefix followed by a uuid.
func WithCallIDPrefix(prefix string) Option {
	return func(o *options) {
		o.newCallID = func() string {
			return prefix + uuid.New().String()
		}
	}
}
