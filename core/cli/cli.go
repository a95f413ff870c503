package cli

import (
	cliContext "github.com/mudler/m2context/core/cli/context"
)

var CLI struct {
	cliContext.Context `embed:""`

	Parse   ParseCMD   `cmd:"" help:"Parse raw model output into conversation messages" default:"withargs"`
	Convert ConvertCMD `cmd:"" help:"Normalize OpenAI style chat messages"`
	Render  RenderCMD  `cmd:"" help:"Render chat messages into a model prompt"`
}
