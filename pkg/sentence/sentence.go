// Package sentence is the normalized representation of conversation turns:
// who said it, and the ordered text, reasoning and tool-call segments.
package sentence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var (
	ErrEmptyMessage     = errors.New("message has no content")
	ErrEmptyToolName    = errors.New("tool call has an empty name")
	ErrInvalidArguments = errors.New("tool call arguments are not a JSON object")
)

// Message is one finalized conversation turn. It is immutable: NewMessage
// copies its input and the accessors hand out copies.
type Message struct {
	author  Author
	content []Content
	// truncated is set when the stream ended inside a tool-call block
	truncated bool
}

// NewMessage validates and seals a message.
func NewMessage(author Author, content ...Content) (Message, error) {
	if _, err := ParseRole(string(author.Role)); err != nil {
		return Message{}, err
	}
	if len(content) == 0 {
		return Message{}, ErrEmptyMessage
	}
	content = append([]Content(nil), content...)
	for i, c := range content {
		switch c := c.(type) {
		case TextContent:
			channel, err := ParseChannel(string(c.Channel))
			if err != nil {
				return Message{}, fmt.Errorf("content segment %d: %w", i, err)
			}
			c.Channel = channel
			content[i] = c
		case ToolCallContent:
			if c.Name == "" {
				return Message{}, ErrEmptyToolName
			}
			if !isJSONObject(c.Arguments) {
				return Message{}, fmt.Errorf("%w: tool %q: %q", ErrInvalidArguments, c.Name, c.Arguments)
			}
		case nil:
			return Message{}, fmt.Errorf("content segment %d is nil", i)
		default:
			return Message{}, fmt.Errorf("unsupported content segment %T", c)
		}
	}

	return Message{author: author, content: content}, nil
}

// MustNewMessage is NewMessage for static content that is known to be valid.
func MustNewMessage(author Author, content ...Content) Message {
	m, err := NewMessage(author, content...)
	if err != nil {
		panic(err)
	}
	return m
}

// Validate checks a message that may not have been built by NewMessage,
// such as the zero Message.
func (m Message) Validate() error {
	_, err := NewMessage(m.author, m.content...)
	return err
}

// MarkIncomplete returns a copy of the message flagged as cut off, for turns
// whose stream ended inside a tool-call block.
func (m Message) MarkIncomplete() Message {
	m.content = append([]Content(nil), m.content...)
	m.truncated = true
	return m
}

func isJSONObject(s string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil && obj != nil
}

func (m Message) Author() Author {
	return m.author
}

func (m Message) Role() Role {
	return m.author.Role
}

// Content returns a copy of the ordered segments.
func (m Message) Content() []Content {
	return append([]Content(nil), m.content...)
}

// Text concatenates every text segment on the given channel, in order.
func (m Message) Text(channel Channel) string {
	var sb strings.Builder
	for _, c := range m.content {
		if t, ok := c.(TextContent); ok && t.Channel == channel {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

func (m Message) ToolCalls() []ToolCallContent {
	var calls []ToolCallContent
	for _, c := range m.content {
		if tc, ok := c.(ToolCallContent); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

func (m Message) HasToolCalls() bool {
	for _, c := range m.content {
		if _, ok := c.(ToolCallContent); ok {
			return true
		}
	}
	return false
}

// Incomplete reports whether the message was cut off inside a tool-call
// block or any of its tool calls was force-sealed.
func (m Message) Incomplete() bool {
	if m.truncated {
		return true
	}
	for _, c := range m.content {
		if tc, ok := c.(ToolCallContent); ok && tc.Incomplete {
			return true
		}
	}
	return false
}

// ToOpenAI converts the message to the OpenAI chat wire type. Final text
// becomes Content, reasoning becomes ReasoningContent.
func (m Message) ToOpenAI() openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:             string(m.author.Role),
		Content:          m.Text(ChannelFinal),
		ReasoningContent: m.Text(ChannelThink),
	}

	if m.author.Role == RoleTool {
		out.ToolCallID = m.author.Name
	} else {
		out.Name = m.author.Name
	}

	for i, tc := range m.ToolCalls() {
		index := i
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			Index: &index,
			ID:    tc.CallID,
			Type:  openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}

	return out
}
