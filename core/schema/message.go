// Package schema holds the OpenAI-style chat messages accepted as conversation
// history.
package schema

import (
	"encoding/json"
	"strings"
)

type Message struct {
	// The message role
	Role string `json:"role,omitempty" yaml:"role"`

	// The message name (used for tools calls)
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// The message content, either a string or a list of content parts
	Content interface{} `json:"content" yaml:"content"`

	// Already flattened content, used when Content is empty
	StringContent string `json:"string_content,omitempty" yaml:"string_content,omitempty"`

	ReasoningContent string `json:"reasoning_content,omitempty" yaml:"reasoning_content,omitempty"`

	ToolCalls []ToolCall `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`

	// Id of the call a tool message answers
	ToolCallID string `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`
}

type ToolCall struct {
	Index        int          `json:"index" yaml:"index"`
	ID           string       `json:"id" yaml:"id"`
	Type         string       `json:"type" yaml:"type"`
	FunctionCall FunctionCall `json:"function" yaml:"function"`
}

type FunctionCall struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Arguments string `json:"arguments" yaml:"arguments"`
}

type Messages []Message

// Text flattens the message content into a single string. Multimodal content
// keeps only its text parts, concatenated in order.
func (m Message) Text() string {
	switch ct := m.Content.(type) {
	case string:
		return ct
	case []interface{}:
		// parts may be decoded maps or already typed structs
		data, _ := json.Marshal(ct)
		parts := []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{}
		json.Unmarshal(data, &parts)

		var sb strings.Builder
		for _, p := range parts {
			if p.Type == "" || p.Type == "text" {
				sb.WriteString(p.Text)
			}
		}
		return sb.String()
	}
	return m.StringContent
}

// ParseMessages decodes a JSON array of chat messages.
func ParseMessages(data []byte) (Messages, error) {
	var msgs Messages
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
