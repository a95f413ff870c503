package sentence

// ContentKind names the variant of a Content segment on the wire.
type ContentKind string

const (
	KindText     ContentKind = "text"
	KindToolCall ContentKind = "tool_call"
)

// Content is one ordered segment of a Message. The set of implementations is
// closed: TextContent and ToolCallContent.
type Content interface {
	Kind() ContentKind
	isContent()
}

// TextContent is a run of text on a single channel.
type TextContent struct {
	Text    string  `json:"text" yaml:"text"`
	Channel Channel `json:"channel" yaml:"channel"`
}

func (TextContent) Kind() ContentKind { return KindText }
func (TextContent) isContent()        {}

// ToolCallContent is a tool invocation emitted by the assistant.
// Arguments holds a JSON object string.
type ToolCallContent struct {
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments" yaml:"arguments"`
	CallID    string `json:"call_id,omitempty" yaml:"call_id,omitempty"`
	// Incomplete is set when the invocation was force-sealed (truncated stream
	// or a missing close tag), so the arguments may be partial.
	Incomplete bool `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

func (ToolCallContent) Kind() ContentKind { return KindToolCall }
func (ToolCallContent) isContent()        {}

// Text returns a final-channel text segment.
func Text(text string) TextContent {
	return TextContent{Text: text, Channel: ChannelFinal}
}

// Reasoning returns a think-channel text segment.
func Reasoning(text string) TextContent {
	return TextContent{Text: text, Channel: ChannelThink}
}
