package cli

import (
	cliContext "github.com/mudler/m2context/core/cli/context"
)

type ConvertCMD struct {
	Input  string `arg:"" optional:"" default:"-" help:"JSON file with a list of chat messages, - reads standard input"`
	Output string `short:"o" default:"json" enum:"json,yaml,openai" help:"Output format [${enum}]"`

	streams ioStreams
}

func (c *ConvertCMD) Run(ctx *cliContext.Context) error {
	msgs, err := readMessages(c.streams, c.Input)
	if err != nil {
		return err
	}
	if c.Output == "openai" {
		return writeOutput(c.streams.out(), "json", openAIMessages(msgs))
	}
	return writeOutput(c.streams.out(), c.Output, msgs)
}
