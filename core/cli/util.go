package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mudler/m2context/core/config"
	"github.com/mudler/m2context/core/conversation"
	"github.com/mudler/m2context/core/schema"
	"github.com/mudler/m2context/pkg/sentence"
	"github.com/mudler/xlog"
	"gopkg.in/yaml.v3"
)

type ioStreams struct {
	stdin  io.Reader
	stdout io.Writer
}

func (s ioStreams) in() io.Reader {
	if s.stdin == nil {
		return os.Stdin
	}
	return s.stdin
}

func (s ioStreams) out() io.Writer {
	if s.stdout == nil {
		return os.Stdout
	}
	return s.stdout
}

// readInput reads a file, or standard input for "-".
func (s ioStreams) readInput(file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(s.in())
	}
	return os.ReadFile(file)
}

// openInput opens a file, or standard input for "-".
func (s ioStreams) openInput(file string) (io.Reader, func() error, error) {
	if file == "" || file == "-" {
		return s.in(), func() error { return nil }, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func loadConfig(file string) (*config.ParserConfig, error) {
	var cfg *config.ParserConfig
	if file == "" {
		c := config.DefaultParserConfig()
		cfg = &c
	} else {
		var err error
		if cfg, err = config.LoadParserConfig(file); err != nil {
			return nil, err
		}
		xlog.Debug("Parser config loaded", "file", file, "name", cfg.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readMessages(s ioStreams, file string) ([]sentence.Message, error) {
	data, err := s.readInput(file)
	if err != nil {
		return nil, err
	}
	raw, err := schema.ParseMessages(data)
	if err != nil {
		return nil, fmt.Errorf("cannot decode messages: %w", err)
	}
	return conversation.ConvertMessages(raw)
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
}

func openAIMessages(msgs []sentence.Message) any {
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToOpenAI())
	}
	return out
}
