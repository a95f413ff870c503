package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	cliContext "github.com/mudler/m2context/core/cli/context"
	"github.com/mudler/m2context/core/conversation"
	"github.com/mudler/m2context/metrics"
	"github.com/mudler/m2context/pkg/sentence"
	"github.com/mudler/m2context/pkg/signals"
	"github.com/mudler/m2context/pkg/xio"
	"github.com/mudler/xlog"
	"github.com/prometheus/common/expfmt"
)

type ParseCMD struct {
	Input string `arg:"" optional:"" default:"-" help:"File with the raw model output, - reads standard input"`

	ChunkSize    int      `env:"M2CONTEXT_CHUNK_SIZE" default:"16" help:"Feed the output in chunks of at most this many bytes, 0 uses 32KiB"`
	Tools        []string `env:"M2CONTEXT_TOOLS" help:"Builtin tool names, added to the ones in the config"`
	Prompt       string   `help:"Prompt the output was generated from, used to detect an already open reasoning block"`
	Output       string   `short:"o" default:"json" enum:"json,yaml,openai" help:"Output format [${enum}]"`
	PrintMetrics bool     `help:"Print the collected metrics after the result"`

	streams ioStreams
}

type parseResult struct {
	Messages             any                        `json:"messages" yaml:"messages"`
	NeedsBuiltinToolCall bool                       `json:"needs_builtin_tool_call" yaml:"needs_builtin_tool_call"`
	BuiltinToolCalls     []sentence.ToolCallContent `json:"builtin_tool_calls,omitempty" yaml:"builtin_tool_calls,omitempty"`
	Incomplete           bool                       `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

func (p *ParseCMD) Run(ctx *cliContext.Context) error {
	cfg, err := loadConfig(ctx.Config)
	if err != nil {
		return err
	}
	turnOpts, err := cfg.TurnOptions(p.Prompt)
	if err != nil {
		return err
	}

	m, err := metrics.SetupMetrics()
	if err != nil {
		return err
	}
	defer m.Shutdown(context.Background())

	tools := slices.Concat(cfg.BuiltinTools, p.Tools)
	c, err := conversation.New(nil, tools,
		conversation.WithTurnOptions(turnOpts...),
		conversation.WithRecorder(m),
	)
	if err != nil {
		return err
	}

	src, closeInput, err := p.streams.openInput(p.Input)
	if err != nil {
		return err
	}
	defer closeInput()

	// the first interrupt stops reading and seals what was generated so far
	streamCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer signals.RegisterGracefulTerminationHandler(cancel)()

	feed := xio.WriterFunc(func(b []byte) (int, error) {
		c.AppendOutput(string(b))
		return len(b), nil
	})
	n, err := xio.Copy(streamCtx, feed, src, p.ChunkSize)
	switch {
	case errors.Is(err, context.Canceled):
		xlog.Warn("Input interrupted, finalizing the partial turn", "bytes", n)
	case err != nil:
		return err
	}

	msgs, err := c.FinalizeTurn()
	if err != nil {
		xlog.Warn("Some tool call parameters were dropped", "error", err)
	}

	result := parseResult{
		NeedsBuiltinToolCall: c.NeedsBuiltinToolCall(),
		BuiltinToolCalls:     c.BuiltinToolCalls(),
	}
	for _, msg := range msgs {
		result.Incomplete = result.Incomplete || msg.Incomplete()
	}

	format := p.Output
	if format == "openai" {
		result.Messages = openAIMessages(msgs)
		format = "json"
	} else {
		result.Messages = msgs
	}

	out := p.streams.out()
	if err := writeOutput(out, format, result); err != nil {
		return err
	}

	if p.PrintMetrics {
		families, err := m.Gather()
		if err != nil {
			return err
		}
		for _, f := range families {
			if _, err := expfmt.MetricFamilyToText(out, f); err != nil {
				return fmt.Errorf("cannot write metrics: %w", err)
			}
		}
	}
	return nil
}
