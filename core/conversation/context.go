// Package conversation keeps the history of one conversation, feeds model
// output through the turn parser and tells the serving loop when a builtin
// tool has to run.
package conversation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mudler/m2context/core/schema"
	"github.com/mudler/m2context/pkg/sentence"
	"github.com/mudler/m2context/pkg/turn"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrNegativeTokenDelta = errors.New("token counts cannot decrease")
	ErrMissingCallID      = errors.New("tool result without a call id")
)

// Context is the state of a single conversation. It is not safe for
// concurrent use; independent conversations use independent contexts.
type Context struct {
	opts *options

	messages []sentence.Message
	tools    map[string]struct{}

	promptTokens int
	outputTokens int

	parser *turn.Parser
}

// New creates a context seeded with history and the names of the tools it
// resolves itself.
func New(initial schema.Messages, availableTools []string, opts ...Option) (*Context, error) {
	history, err := ConvertMessages(initial)
	if err != nil {
		return nil, fmt.Errorf("could not convert initial messages: %w", err)
	}

	tools := make(map[string]struct{}, len(availableTools))
	for _, t := range availableTools {
		tools[t] = struct{}{}
	}

	c := &Context{
		opts:     newOptions(opts...),
		messages: history,
		tools:    tools,
	}
	xlog.Debug("Conversation created", "id", c.opts.id, "messages", len(history), "tools", len(tools))
	return c, nil
}

func (c *Context) ID() string {
	return c.opts.id
}

// Messages returns a copy of the history.
func (c *Context) Messages() []sentence.Message {
	return slices.Clone(c.messages)
}

// AvailableTools returns the builtin tool names, sorted.
func (c *Context) AvailableTools() []string {
	names := make([]string, 0, len(c.tools))
	for t := range c.tools {
		names = append(names, t)
	}
	slices.Sort(names)
	return names
}

// AppendMessage appends a finalized message. Messages that would break the
// history, such as the zero Message, are rejected.
func (c *Context) AppendMessage(msg sentence.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("cannot append message: %w", err)
	}
	c.messages = append(c.messages, msg)
	return nil
}

// AppendMessages converts and appends chat messages. Nothing is appended if
// any of them fails to convert.
func (c *Context) AppendMessages(msgs schema.Messages) error {
	converted, err := ConvertMessages(msgs)
	if err != nil {
		return err
	}
	c.messages = append(c.messages, converted...)
	return nil
}

// AppendToolResult records the output of a tool call as a tool message.
func (c *Context) AppendToolResult(callID, result string) error {
	if callID == "" {
		return ErrMissingCallID
	}
	msg, err := sentence.NewMessage(sentence.Author{Role: sentence.RoleTool, Name: callID}, sentence.Text(result))
	if err != nil {
		return err
	}
	c.messages = append(c.messages, msg)
	return nil
}

// UpdateTokenCounts adds to the running token counters.
func (c *Context) UpdateTokenCounts(promptDelta, outputDelta int) error {
	if promptDelta < 0 || outputDelta < 0 {
		return fmt.Errorf("%w: prompt %d, output %d", ErrNegativeTokenDelta, promptDelta, outputDelta)
	}
	c.promptTokens += promptDelta
	c.outputTokens += outputDelta
	c.opts.recorder.TokensCounted(promptDelta, outputDelta)
	return nil
}

func (c *Context) NumPromptTokens() int {
	return c.promptTokens
}

func (c *Context) NumOutputTokens() int {
	return c.outputTokens
}

// NeedsBuiltinToolCall reports whether the last message is an assistant turn
// calling at least one of the available tools.
func (c *Context) NeedsBuiltinToolCall() bool {
	return len(c.BuiltinToolCalls()) > 0
}

// BuiltinToolCalls returns the calls of the last assistant turn that target
// available tools. Names are matched exactly.
func (c *Context) BuiltinToolCalls() []sentence.ToolCallContent {
	if len(c.messages) == 0 {
		return nil
	}
	last := c.messages[len(c.messages)-1]
	if last.Role() != sentence.RoleAssistant {
		return nil
	}

	var calls []sentence.ToolCallContent
	for _, tc := range last.ToolCalls() {
		if _, ok := c.tools[tc.Name]; ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// AppendOutput feeds generated text into the current turn, starting one if
// needed.
func (c *Context) AppendOutput(text string) {
	c.turnParser().Append(text)
}

func (c *Context) BeginReasoning() {
	c.turnParser().BeginReasoning()
}

func (c *Context) EndReasoning() {
	c.turnParser().EndReasoning()
}

// TurnInProgress reports whether output was appended since the last
// FinalizeTurn.
func (c *Context) TurnInProgress() bool {
	return c.parser != nil
}

// FinalizeTurn seals the current turn and appends it to the history. The
// returned error reports tool call parameters that could not be encoded; the
// messages are appended regardless. Without a turn in progress it does
// nothing.
func (c *Context) FinalizeTurn() ([]sentence.Message, error) {
	if c.parser == nil {
		return nil, nil
	}
	p := c.parser
	c.parser = nil

	msgs := p.Finalize()
	c.messages = append(c.messages, msgs...)
	for _, m := range msgs {
		c.opts.recorder.TurnFinalized(m)
		xlog.Debug("Turn finalized", "id", c.opts.id, "tool_calls", len(m.ToolCalls()), "incomplete", m.Incomplete())
	}
	return msgs, p.Err()
}

func (c *Context) turnParser() *turn.Parser {
	if c.parser == nil {
		c.parser = turn.NewParser(c.opts.turnOpts...)
	}
	return c.parser
}

// OpenAIMessages returns the history in the OpenAI chat wire format.
func (c *Context) OpenAIMessages() []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, m.ToOpenAI())
	}
	return out
}
