package conversation

import (
	"errors"
	"fmt"

	"github.com/mudler/m2context/core/schema"
	"github.com/mudler/m2context/pkg/sentence"
)

// ErrToolCallsNotSupported is returned for externally supplied assistant
// messages that carry tool calls. Those turns go through the turn parser.
var ErrToolCallsNotSupported = errors.New("assistant messages with tool calls are not supported yet")

// ConvertMessages normalizes chat messages into sentences. It fails on the
// first message with an unknown role and returns nothing in that case.
func ConvertMessages(msgs schema.Messages) ([]sentence.Message, error) {
	out := make([]sentence.Message, 0, len(msgs))
	for i, m := range msgs {
		msg, err := ConvertMessage(m)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func ConvertMessage(m schema.Message) (sentence.Message, error) {
	role, err := sentence.ParseRole(m.Role)
	if err != nil {
		return sentence.Message{}, err
	}

	author := sentence.Author{Role: role, Name: m.Name}
	switch role {
	case sentence.RoleAssistant:
		if len(m.ToolCalls) > 0 {
			return sentence.Message{}, ErrToolCallsNotSupported
		}
	case sentence.RoleTool:
		if m.ToolCallID != "" {
			author.Name = m.ToolCallID
		}
	}

	var content []sentence.Content
	if role == sentence.RoleAssistant && m.ReasoningContent != "" {
		content = append(content, sentence.Reasoning(m.ReasoningContent))
	}
	content = append(content, sentence.Text(m.Text()))

	return sentence.NewMessage(author, content...)
}
