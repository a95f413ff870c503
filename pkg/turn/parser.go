// Package turn assembles one model turn from streamed text into sentence
// messages: plain text, reasoning and tool calls, in arrival order.
package turn

import (
	"errors"
	"strings"

	"github.com/mudler/m2context/pkg/functions"
	"github.com/mudler/m2context/pkg/sentence"
	"github.com/mudler/xlog"
)

// Parser accumulates the text of an assistant turn and seals it into a
// Message on Finalize. It is not safe for concurrent use; text must be
// appended in generation order.
type Parser struct {
	opts *options

	scanner     *functions.TagScanner
	invocations *functions.InvocationParser
	open        bool

	segments    []sentence.Content
	text        strings.Builder
	textChannel sentence.Channel
	hasText     bool
	blockText   strings.Builder
	// truncated is set when a tool-call block was still open at the end
	truncated bool

	messages []sentence.Message
	errs     []error
}

func NewParser(opts ...Option) *Parser {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Parser{opts: o}
}

// Open reports whether a turn is being accumulated.
func (p *Parser) Open() bool {
	return p.open
}

// Messages returns the messages sealed so far.
func (p *Parser) Messages() []sentence.Message {
	return append([]sentence.Message(nil), p.messages...)
}

// Err returns the argument serialization problems seen so far, if any. The
// affected parameters were left out of their tool call arguments.
func (p *Parser) Err() error {
	return errors.Join(p.errs...)
}

func (p *Parser) startTurn() {
	var sopts []functions.ScannerOption
	if p.opts.reasoningTags != nil {
		sopts = append(sopts, functions.WithReasoningTags(p.opts.reasoningTags.Start, p.opts.reasoningTags.End))
	}
	p.scanner = functions.NewTagScanner(p.opts.format, sopts...)
	if p.opts.thinkingForced {
		p.scanner.SetReasoning(true)
	}
	p.invocations = functions.NewInvocationParser()
	p.open = true
}

// Append feeds the next piece of generated text, opening a turn if needed.
func (p *Parser) Append(text string) {
	if !p.open {
		p.startTurn()
	}
	p.handle(p.scanner.Feed(text))
}

// BeginReasoning switches to the think channel from an out-of-band marker.
func (p *Parser) BeginReasoning() {
	p.setReasoning(true)
}

// EndReasoning switches back to the final channel from an out-of-band marker.
func (p *Parser) EndReasoning() {
	p.setReasoning(false)
}

func (p *Parser) setReasoning(on bool) {
	if !p.open {
		p.startTurn()
	}
	p.handle(p.scanner.Flush())
	p.scanner.SetReasoning(on)
}

// Finalize seals the open turn into exactly one Message, force-closing any
// open tool-call block, and returns every message this parser produced. With
// no open turn it returns the same messages again.
func (p *Parser) Finalize() []sentence.Message {
	if !p.open {
		return p.Messages()
	}

	p.handle(p.scanner.Finalize())
	p.flushBlockText()
	p.flushText()

	segments := dropBlankText(p.segments)
	if len(segments) == 0 {
		segments = []sentence.Content{sentence.Text("")}
	}

	msg, err := sentence.NewMessage(p.opts.author, segments...)
	if err != nil {
		xlog.Error("Could not seal turn, keeping an empty assistant message", "error", err)
		msg = sentence.MustNewMessage(sentence.Author{Role: sentence.RoleAssistant, Name: p.opts.author.Name}, sentence.Text(""))
	}
	if p.truncated {
		msg = msg.MarkIncomplete()
	}
	if msg.Incomplete() {
		xlog.Warn("Turn finalized incomplete", "tool_calls", len(msg.ToolCalls()), "block_cut_off", p.truncated)
	}

	p.messages = append(p.messages, msg)
	p.segments = nil
	p.truncated = false
	p.scanner = nil
	p.invocations = nil
	p.open = false

	return p.Messages()
}

func (p *Parser) handle(events []functions.ScanEvent) {
	for _, ev := range events {
		if inv, ok := p.invocations.Handle(ev); ok {
			p.addToolCall(inv)
			continue
		}

		switch ev := ev.(type) {
		case functions.TextEvent:
			switch ev.State {
			case functions.ScanOutside:
				p.addText(ev.Text, channelOf(ev.Reasoning))
			case functions.ScanInBlock:
				p.blockText.WriteString(ev.Text)
			case functions.ScanInInvocation:
				if strings.TrimSpace(ev.Text) != "" {
					xlog.Debug("Dropping text between tool call parameters", "text", ev.Text)
				}
			}
		case functions.BlockStartEvent:
			p.blockText.Reset()
		case functions.InvocationStartEvent:
			p.flushBlockText()
		case functions.BlockEndEvent:
			p.flushBlockText()
			if ev.Forced {
				p.truncated = true
			}
		}
	}
}

func channelOf(reasoning bool) sentence.Channel {
	if reasoning {
		return sentence.ChannelThink
	}
	return sentence.ChannelFinal
}

func (p *Parser) addText(text string, channel sentence.Channel) {
	if p.hasText && p.textChannel != channel {
		p.flushText()
	}
	p.text.WriteString(text)
	p.textChannel = channel
	p.hasText = true
}

func (p *Parser) flushText() {
	if !p.hasText {
		return
	}
	p.segments = append(p.segments, sentence.TextContent{Text: p.text.String(), Channel: p.textChannel})
	p.text.Reset()
	p.hasText = false
}

// flushBlockText keeps stray text found between invocations of a block.
// Formatting whitespace is dropped.
func (p *Parser) flushBlockText() {
	text := p.blockText.String()
	p.blockText.Reset()
	if strings.TrimSpace(text) == "" {
		return
	}
	p.addText(text, sentence.ChannelFinal)
}

func (p *Parser) addToolCall(inv functions.Invocation) {
	p.flushText()

	args, err := inv.Arguments()
	if err != nil {
		xlog.Warn("Omitting tool call parameters that cannot be encoded", "tool", inv.Name, "error", err)
		p.errs = append(p.errs, err)
	}

	p.segments = append(p.segments, sentence.ToolCallContent{
		Name:       inv.Name,
		Arguments:  args,
		CallID:     p.opts.newCallID(),
		Incomplete: inv.Incomplete,
	})
}

func dropBlankText(segments []sentence.Content) []sentence.Content {
	out := make([]sentence.Content, 0, len(segments))
	for _, s := range segments {
		if t, ok := s.(sentence.TextContent); ok && strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
