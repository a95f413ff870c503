package conversation_test

import (
	"fmt"

	"github.com/mudler/m2context/core/conversation"
	"github.com/mudler/m2context/core/schema"
	"github.com/mudler/m2context/pkg/reasoning"
	"github.com/mudler/m2context/pkg/sentence"
	"github.com/mudler/m2context/pkg/turn"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const pythonTurn = "<minimax:tool_call>\n<invoke name=\"python\">\n" +
	"<parameter name=\"code\">print(1)</parameter>\n</invoke>\n</minimax:tool_call>"

type fakeRecorder struct {
	turns          []sentence.Message
	prompt, output int
}

func (r *fakeRecorder) TurnFinalized(msg sentence.Message) { r.turns = append(r.turns, msg) }
func (r *fakeRecorder) TokensCounted(prompt, output int) {
	r.prompt += prompt
	r.output += output
}

func pythonCall() sentence.Message {
	return sentence.MustNewMessage(
		sentence.Author{Role: sentence.RoleAssistant},
		sentence.ToolCallContent{Name: "python", Arguments: `{"code":"print(1)"}`, CallID: "call_1"},
	)
}

var _ = Describe("Context", func() {
	Context("NeedsBuiltinToolCall", func() {
		It("is false on an empty context", func() {
			c, err := conversation.New(nil, []string{"python"})
			Expect(err).ToNot(HaveOccurred())
			Expect(c.NeedsBuiltinToolCall()).To(BeFalse())
		})

		It("is true for a call to an available tool", func() {
			c, err := conversation.New(nil, []string{"python"})
			Expect(err).ToNot(HaveOccurred())
			Expect(c.AppendMessage(pythonCall())).To(Succeed())
			Expect(c.NeedsBuiltinToolCall()).To(BeTrue())
			Expect(c.BuiltinToolCalls()).To(HaveLen(1))
		})

		It("is false when the tool is not available", func() {
			c, err := conversation.New(nil, []string{"browser"})
			Expect(err).ToNot(HaveOccurred())
			Expect(c.AppendMessage(pythonCall())).To(Succeed())
			Expect(c.NeedsBuiltinToolCall()).To(BeFalse())
		})

		It("matches names exactly", func() {
			c, err := conversation.New(nil, []string{"Python", " python"})
			Expect(err).ToNot(HaveOccurred())
			Expect(c.AppendMessage(pythonCall())).To(Succeed())
			Expect(c.NeedsBuiltinToolCall()).To(BeFalse())
		})

		It("only looks at the last message", func() {
			c, err := conversation.New(nil, []string{"python"})
			Expect(err).ToNot(HaveOccurred())
			Expect(c.AppendMessage(pythonCall())).To(Succeed())
			Expect(c.AppendToolResult("call_1", "1")).To(Succeed())
			Expect(c.NeedsBuiltinToolCall()).To(BeFalse())
		})

		It("is false for assistant text", func() {
			c, err := conversation.New(schema.Messages{{Role: "assistant", Content: "done"}}, []string{"python"})
			Expect(err).ToNot(HaveOccurred())
			Expect(c.NeedsBuiltinToolCall()).To(BeFalse())
		})
	})

	It("rejects unknown roles and appends nothing", func() {
		c, err := conversation.New(schema.Messages{{Role: "user", Content: "hi"}}, nil)
		Expect(err).ToNot(HaveOccurred())

		err = c.AppendMessages(schema.Messages{
			{Role: "assistant", Content: "ok"},
			{Role: "narrator", Content: "meanwhile"},
		})
		Expect(err).To(MatchError(sentence.ErrUnknownRole))
		Expect(c.Messages()).To(HaveLen(1))
	})

	It("rejects messages that break the history", func() {
		c, err := conversation.New(nil, nil)
		Expect(err).ToNot(HaveOccurred())

		Expect(c.AppendMessage(sentence.Message{})).To(MatchError(sentence.ErrUnknownRole))
		Expect(c.Messages()).To(BeEmpty())

		Expect(c.AppendMessage(sentence.MustNewMessage(sentence.Author{Role: sentence.RoleUser}, sentence.Text("hi")))).To(Succeed())
		Expect(c.Messages()).To(HaveLen(1))
	})

	It("fails to build from history with unknown roles", func() {
		_, err := conversation.New(schema.Messages{{Role: "narrator"}}, nil)
		Expect(err).To(MatchError(sentence.ErrUnknownRole))
	})

	It("keeps token counters monotonic", func() {
		rec := &fakeRecorder{}
		c, err := conversation.New(nil, nil, conversation.WithRecorder(rec))
		Expect(err).ToNot(HaveOccurred())

		Expect(c.UpdateTokenCounts(10, 2)).To(Succeed())
		Expect(c.UpdateTokenCounts(0, 3)).To(Succeed())
		Expect(c.UpdateTokenCounts(-1, 0)).To(MatchError(conversation.ErrNegativeTokenDelta))
		Expect(c.NumPromptTokens()).To(Equal(10))
		Expect(c.NumOutputTokens()).To(Equal(5))
		Expect(rec.prompt).To(Equal(10))
		Expect(rec.output).To(Equal(5))
	})

	It("returns sorted tool names", func() {
		c, err := conversation.New(nil, []string{"python", "browser"})
		Expect(err).ToNot(HaveOccurred())
		Expect(c.AvailableTools()).To(Equal([]string{"browser", "python"}))
	})

	It("uses the given id", func() {
		c, err := conversation.New(nil, nil, conversation.WithID("conv-1"))
		Expect(err).ToNot(HaveOccurred())
		Expect(c.ID()).To(Equal("conv-1"))

		other, err := conversation.New(nil, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(other.ID()).ToNot(BeEmpty())
	})

	Context("streaming turns", func() {
		It("parses output into history and detects the builtin call", func() {
			rec := &fakeRecorder{}
			c, err := conversation.New(schema.Messages{{Role: "user", Content: "compute"}}, []string{"python"},
				conversation.WithRecorder(rec),
				conversation.WithTurnOptions(turn.WithCallIDGenerator(func() string { return "call_x" })))
			Expect(err).ToNot(HaveOccurred())

			for i := 0; i < len(pythonTurn); i += 7 {
				c.AppendOutput(pythonTurn[i:min(i+7, len(pythonTurn))])
			}
			Expect(c.TurnInProgress()).To(BeTrue())
			Expect(c.NeedsBuiltinToolCall()).To(BeFalse())

			msgs, err := c.FinalizeTurn()
			Expect(err).ToNot(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(c.TurnInProgress()).To(BeFalse())
			Expect(c.Messages()).To(HaveLen(2))
			Expect(c.NeedsBuiltinToolCall()).To(BeTrue())
			Expect(c.BuiltinToolCalls()[0].Arguments).To(Equal(`{"code":"print(1)"}`))
			Expect(rec.turns).To(HaveLen(1))

			Expect(c.AppendToolResult("call_x", "1")).To(Succeed())
			c.AppendOutput("The answer is 1.")
			_, err = c.FinalizeTurn()
			Expect(err).ToNot(HaveOccurred())

			history := c.Messages()
			Expect(history).To(HaveLen(4))
			Expect(history[3].Content()).To(Equal([]sentence.Content{sentence.Text("The answer is 1.")}))
		})

		It("does not leak a truncated turn into the next one", func() {
			c, err := conversation.New(nil, []string{"python"})
			Expect(err).ToNot(HaveOccurred())

			c.AppendOutput(pythonTurn[:len(pythonTurn)/2])
			msgs, err := c.FinalizeTurn()
			Expect(err).ToNot(HaveOccurred())
			Expect(msgs[0].Incomplete()).To(BeTrue())

			c.AppendOutput("fresh")
			msgs, err = c.FinalizeTurn()
			Expect(err).ToNot(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Content()).To(Equal([]sentence.Content{sentence.Text("fresh")}))
		})

		It("does nothing without a turn in progress", func() {
			c, err := conversation.New(nil, nil)
			Expect(err).ToNot(HaveOccurred())
			msgs, err := c.FinalizeTurn()
			Expect(err).ToNot(HaveOccurred())
			Expect(msgs).To(BeEmpty())
			Expect(c.Messages()).To(BeEmpty())
		})

		It("routes reasoning markers and in-band tags", func() {
			c, err := conversation.New(nil, nil, conversation.WithTurnOptions(turn.WithReasoningTags(reasoning.DefaultTagPair)))
			Expect(err).ToNot(HaveOccurred())

			c.AppendOutput("<think>plan</think>")
			c.BeginReasoning()
			c.AppendOutput("more")
			c.EndReasoning()
			c.AppendOutput("done")
			msgs, err := c.FinalizeTurn()
			Expect(err).ToNot(HaveOccurred())
			Expect(msgs[0].Text(sentence.ChannelThink)).To(Equal("planmore"))
			Expect(msgs[0].Text(sentence.ChannelFinal)).To(Equal("done"))
		})
	})

	It("requires a call id for tool results", func() {
		c, err := conversation.New(nil, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(c.AppendToolResult("", "x")).To(MatchError(conversation.ErrMissingCallID))
	})

	It("exports the history in OpenAI format", func() {
		c, err := conversation.New(schema.Messages{{Role: "user", Content: "weather?"}}, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(c.AppendMessage(pythonCall())).To(Succeed())
		Expect(c.AppendToolResult("call_1", "1")).To(Succeed())

		out := c.OpenAIMessages()
		Expect(out).To(HaveLen(3))
		Expect(out[0].Content).To(Equal("weather?"))
		Expect(out[1].ToolCalls).To(HaveLen(1))
		Expect(out[1].ToolCalls[0].Function.Name).To(Equal("python"))
		Expect(out[2].Role).To(Equal("tool"))
		Expect(out[2].ToolCallID).To(Equal("call_1"))
	})
})

var _ = Describe("Manager", func() {
	It("creates, finds and deletes contexts", func() {
		m := conversation.NewManager()
		c, err := m.Create(nil, []string{"python"}, conversation.WithID("a"))
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Len()).To(Equal(1))

		got, ok := m.Get("a")
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(c))

		_, err = m.Create(nil, nil, conversation.WithID("a"))
		Expect(err).To(MatchError(conversation.ErrDuplicateID))

		Expect(m.Delete("a")).To(BeTrue())
		Expect(m.Delete("a")).To(BeFalse())
		Expect(m.Len()).To(Equal(0))
	})

	It("keeps conversations independent", func() {
		m := conversation.NewManager()
		done := make(chan struct{})
		for i := range 8 {
			go func() {
				defer GinkgoRecover()
				defer func() { done <- struct{}{} }()

				c, err := m.Create(nil, []string{"python"}, conversation.WithID(fmt.Sprintf("conv-%d", i)))
				Expect(err).ToNot(HaveOccurred())
				c.AppendOutput(pythonTurn)
				_, err = c.FinalizeTurn()
				Expect(err).ToNot(HaveOccurred())
				Expect(c.Messages()).To(HaveLen(1))
			}()
		}
		for range 8 {
			<-done
		}
		Expect(m.IDs()).To(HaveLen(8))
	})

	It("propagates conversion errors", func() {
		m := conversation.NewManager()
		_, err := m.Create(schema.Messages{{Role: "narrator"}}, nil)
		Expect(err).To(MatchError(sentence.ErrUnknownRole))
		Expect(m.Len()).To(Equal(0))
	})
})
