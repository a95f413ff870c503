package cli

import (
	"fmt"
	"os"

	cliContext "github.com/mudler/m2context/core/cli/context"
	"github.com/mudler/m2context/pkg/functions"
	"github.com/mudler/m2context/pkg/templates"
	"github.com/mudler/xlog"
)

type RenderCMD struct {
	Input string `arg:"" optional:"" default:"-" help:"JSON file with a list of chat messages, - reads standard input"`

	TemplatesPath      string `env:"M2CONTEXT_TEMPLATES_PATH" type:"path" help:"Directory holding <name>.tmpl prompt templates"`
	ToolsFile          string `type:"path" help:"JSON file with OpenAI tool declarations to list in the prompt"`
	NoGenerationPrompt bool   `help:"Do not open an assistant turn at the end of the prompt"`

	streams ioStreams
}

func (r *RenderCMD) Run(ctx *cliContext.Context) error {
	cfg, err := loadConfig(ctx.Config)
	if err != nil {
		return err
	}
	format, err := cfg.ToolCallFormat()
	if err != nil {
		return err
	}

	msgs, err := readMessages(r.streams, r.Input)
	if err != nil {
		return err
	}

	var tools functions.Functions
	if r.ToolsFile != "" {
		data, err := os.ReadFile(r.ToolsFile)
		if err != nil {
			return err
		}
		declared, err := functions.ParseTools(data)
		if err != nil {
			return err
		}
		tools = declared.Functions()
		xlog.Debug("Tools declared", "tools", tools.Names())
	}

	e := templates.NewEvaluator(r.TemplatesPath, format)
	prompt, err := e.TemplateMessages(cfg.Template, msgs, tools, !r.NoGenerationPrompt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(r.streams.out(), prompt)
	return err
}
