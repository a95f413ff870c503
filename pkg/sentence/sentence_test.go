package sentence_test

import (
	"encoding/json"

	. "github.com/mudler/m2context/pkg/sentence"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"
)

var _ = Describe("Sentence", func() {
	Context("roles and channels", func() {
		It("parses every known role", func() {
			for _, r := range []string{"system", "user", "assistant", "developer", "tool"} {
				role, err := ParseRole(r)
				Expect(err).ToNot(HaveOccurred())
				Expect(role.String()).To(Equal(r))
			}
		})

		It("rejects unknown roles", func() {
			_, err := ParseRole("narrator")
			Expect(err).To(MatchError(ErrUnknownRole))
			Expect(err.Error()).To(ContainSubstring("narrator"))
		})

		It("treats a missing channel as final", func() {
			c, err := ParseChannel("")
			Expect(err).ToNot(HaveOccurred())
			Expect(c).To(Equal(ChannelFinal))

			_, err = ParseChannel("analysis")
			Expect(err).To(MatchError(ErrUnknownChannel))
		})
	})

	Context("NewMessage", func() {
		It("rejects unknown roles and channels", func() {
			_, err := NewMessage(Author{Role: "narrator"}, Text("x"))
			Expect(err).To(MatchError(ErrUnknownRole))

			_, err = NewMessage(Author{}, Text("x"))
			Expect(err).To(MatchError(ErrUnknownRole))

			_, err = NewMessage(Author{Role: RoleAssistant}, TextContent{Text: "x", Channel: "bogus"})
			Expect(err).To(MatchError(ErrUnknownChannel))
		})

		It("validates messages that were not built by NewMessage", func() {
			Expect(Message{}.Validate()).ToNot(Succeed())
			Expect(MustNewMessage(Author{Role: RoleUser}, Text("hi")).Validate()).To(Succeed())
		})

		It("requires at least one segment", func() {
			_, err := NewMessage(Author{Role: RoleAssistant})
			Expect(err).To(MatchError(ErrEmptyMessage))
		})

		It("requires a tool name", func() {
			_, err := NewMessage(Author{Role: RoleAssistant}, ToolCallContent{Arguments: "{}"})
			Expect(err).To(MatchError(ErrEmptyToolName))
		})

		It("requires JSON object arguments", func() {
			for _, args := range []string{"", "[]", `"x"`, "null", "{"} {
				_, err := NewMessage(Author{Role: RoleAssistant}, ToolCallContent{Name: "python", Arguments: args})
				Expect(err).To(MatchError(ErrInvalidArguments), args)
			}
		})

		It("defaults text to the final channel", func() {
			m := MustNewMessage(Author{Role: RoleUser}, TextContent{Text: "hi"})
			Expect(m.Content()).To(Equal([]Content{TextContent{Text: "hi", Channel: ChannelFinal}}))
		})

		It("does not share the caller's slice", func() {
			segments := []Content{Text("a")}
			m := MustNewMessage(Author{Role: RoleUser}, segments...)
			segments[0] = Text("b")
			Expect(m.Text(ChannelFinal)).To(Equal("a"))

			out := m.Content()
			out[0] = Text("c")
			Expect(m.Text(ChannelFinal)).To(Equal("a"))
		})

		It("reports incomplete tool calls", func() {
			m := MustNewMessage(Author{Role: RoleAssistant},
				Reasoning("thinking"),
				ToolCallContent{Name: "python", Arguments: `{"code":"1+"}`, Incomplete: true},
			)
			Expect(m.Incomplete()).To(BeTrue())
			Expect(m.HasToolCalls()).To(BeTrue())
			Expect(m.ToolCalls()).To(HaveLen(1))
			Expect(m.Text(ChannelThink)).To(Equal("thinking"))
		})

		It("can be flagged as cut off without touching the original", func() {
			m := MustNewMessage(Author{Role: RoleAssistant}, Text("Hello "))
			cut := m.MarkIncomplete()
			Expect(cut.Incomplete()).To(BeTrue())
			Expect(cut.Text(ChannelFinal)).To(Equal("Hello "))
			Expect(m.Incomplete()).To(BeFalse())

			dat, err := json.Marshal(cut)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(dat)).To(ContainSubstring(`"incomplete":true`))
		})
	})

	Context("serialization", func() {
		var m Message

		BeforeEach(func() {
			m = MustNewMessage(Author{Role: RoleAssistant},
				Reasoning("let me check"),
				Text("Checking."),
				ToolCallContent{Name: "get_weather", Arguments: `{"location":"San Francisco"}`, CallID: "call_1"},
			)
		})

		It("marshals to tagged JSON", func() {
			dat, err := json.Marshal(m)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(dat)).To(MatchJSON(`{
				"author": {"role": "assistant"},
				"content": [
					{"type": "text", "text": "let me check", "channel": "think"},
					{"type": "text", "text": "Checking.", "channel": "final"},
					{"type": "tool_call", "name": "get_weather", "arguments": "{\"location\":\"San Francisco\"}", "call_id": "call_1"}
				]
			}`))
		})

		It("marshals to YAML", func() {
			dat, err := yaml.Marshal(m)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(dat)).To(ContainSubstring("role: assistant"))
			Expect(string(dat)).To(ContainSubstring("type: tool_call"))
			Expect(string(dat)).To(ContainSubstring("channel: think"))
		})

		It("converts to the OpenAI wire message", func() {
			out := m.ToOpenAI()
			Expect(out.Role).To(Equal(openai.ChatMessageRoleAssistant))
			Expect(out.Content).To(Equal("Checking."))
			Expect(out.ReasoningContent).To(Equal("let me check"))
			Expect(out.ToolCalls).To(HaveLen(1))
			Expect(out.ToolCalls[0].ID).To(Equal("call_1"))
			Expect(out.ToolCalls[0].Type).To(Equal(openai.ToolTypeFunction))
			Expect(out.ToolCalls[0].Function.Name).To(Equal("get_weather"))
			Expect(*out.ToolCalls[0].Index).To(Equal(0))
		})

		It("maps a tool author name to the tool call id", func() {
			out := MustNewMessage(Author{Role: RoleTool, Name: "call_1"}, Text("20 degrees")).ToOpenAI()
			Expect(out.ToolCallID).To(Equal("call_1"))
			Expect(out.Name).To(BeEmpty())
		})
	})
})
