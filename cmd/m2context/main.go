package main

import (
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/mudler/m2context/core/cli"
	"github.com/mudler/xlog"
)

func main() {
	var err error

	// Initialize xlog at a level of INFO, we will set the desired level after we parse the CLI options
	xlog.SetLogger(xlog.NewLogger(xlog.LogLevel("info"), "text"))

	// handle loading environment variables from .env files
	envFiles := []string{".env", "m2context.env"}
	homeDir, err := os.UserHomeDir()
	if err == nil {
		envFiles = append(envFiles, filepath.Join(homeDir, ".config/m2context.env"))
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			xlog.Debug("env file found, loading environment variables from file", "envFile", envFile)
			err = godotenv.Load(envFile)
			if err != nil {
				xlog.Error("failed to load environment variables from file", "error", err, "envFile", envFile)
				continue
			}
		}
	}

	ctx := kong.Parse(&cli.CLI,
		kong.Description(
			`  m2context parses MiniMax-M2 style model output into conversation messages.

Tool calls written in the <minimax:tool_call> syntax become structured calls,
reasoning goes to its own channel, and truncated output is flagged incomplete.
`,
		),
		kong.UsageOnError(),
	)

	logLevel := "info"
	if cli.CLI.LogLevel == nil {
		cli.CLI.LogLevel = &logLevel
	}
	xlog.SetLogger(xlog.NewLogger(xlog.LogLevel(*cli.CLI.LogLevel), *cli.CLI.LogFormat))

	err = ctx.Run(&cli.CLI.Context)
	if err != nil {
		xlog.Fatal("Error running the application", "error", err)
	}
}
