package sentence

import "encoding/json"

type authorView struct {
	Role Role   `json:"role" yaml:"role"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

type textView struct {
	Type    ContentKind `json:"type" yaml:"type"`
	Text    string      `json:"text" yaml:"text"`
	Channel Channel     `json:"channel" yaml:"channel"`
}

type toolCallView struct {
	Type       ContentKind `json:"type" yaml:"type"`
	Name       string      `json:"name" yaml:"name"`
	Arguments  string      `json:"arguments" yaml:"arguments"`
	CallID     string      `json:"call_id,omitempty" yaml:"call_id,omitempty"`
	Incomplete bool        `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

type messageView struct {
	Author     authorView `json:"author" yaml:"author"`
	Content    []any      `json:"content" yaml:"content"`
	Incomplete bool       `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

func (m Message) view() messageView {
	v := messageView{
		Author:     authorView{Role: m.author.Role, Name: m.author.Name},
		Content:    make([]any, 0, len(m.content)),
		Incomplete: m.Incomplete(),
	}
	for _, c := range m.content {
		switch c := c.(type) {
		case TextContent:
			v.Content = append(v.Content, textView{Type: KindText, Text: c.Text, Channel: c.Channel})
		case ToolCallContent:
			v.Content = append(v.Content, toolCallView{
				Type:       KindToolCall,
				Name:       c.Name,
				Arguments:  c.Arguments,
				CallID:     c.CallID,
				Incomplete: c.Incomplete,
			})
		}
	}
	return v
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.view())
}

func (m Message) MarshalYAML() (any, error) {
	return m.view(), nil
}
