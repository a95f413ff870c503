// Package templates renders conversations back into model prompts using Go
// templates with the sprig function set.
package templates

import (
	"github.com/mudler/m2context/pkg/functions"
	"github.com/mudler/m2context/pkg/sentence"
	"github.com/mudler/xlog"
)

// DefaultPromptTemplate follows the MiniMax-M2 chat layout: declared tools go
// into the system turn and the reasoning block is left open for the generation.
const DefaultPromptTemplate = `{{- define "tools" }}

# Tools
You may call one or more tools to assist with the user query.
Here are the tools available in JSONSchema format:

<tools>
{{- range .Tools }}
<tool>{{ toJson . }}</tool>
{{- end }}
</tools>

When making tool calls, use XML format to invoke tools and pass parameters:

{{ .ToolCallExample }}
{{- end }}
{{- $system := false }}
{{- if .Messages }}{{ $first := index .Messages 0 }}{{ $system = or (eq $first.Role "system") (eq $first.Role "developer") }}{{ end }}
{{- if and .Tools (not $system) }}]~!b[]~b]system
You are a helpful assistant.{{ template "tools" $ }}[e~[
{{ end }}
{{- range .Messages }}
{{- if or (eq .Role "system") (eq .Role "developer") }}]~!b[]~b]system
{{ .Content | trim }}{{ if and (eq .Index 0) $.Tools }}{{ template "tools" $ }}{{ end }}[e~[
{{ else if eq .Role "user" }}]~b]user
{{ .Content | trim }}[e~[
{{ else if eq .Role "assistant" }}]~b]ai
{{ if .Reasoning }}<think>
{{ .Reasoning | trim }}
</think>

{{ end }}{{ .Content | trim }}{{ if .ToolCalls }}
{{ .ToolCalls }}{{ end }}[e~[
{{ else if eq .Role "tool" }}]~b]tool
<response>{{ .Content | trim }}</response>[e~[
{{ end }}
{{- end }}
{{- if .AddGenerationPrompt }}]~b]ai
<think>
{{ end }}`

// MessageData is the view of one message given to prompt templates.
type MessageData struct {
	Role      string
	Name      string
	Content   string
	Reasoning string
	// ToolCalls holds the calls rendered back into the tool call syntax
	ToolCalls string
	Index     int
	Last      bool
}

type PromptData struct {
	Messages []MessageData
	Tools    functions.Functions
	// ToolCallExample shows the tool call syntax with placeholder names
	ToolCallExample     string
	AddGenerationPrompt bool
}

var exampleInvocation = functions.Invocation{
	Name: "tool-name-1",
	Parameters: []functions.Parameter{
		{Name: "param-key-1", Value: "param-value-1"},
		{Name: "param-key-2", Value: "param-value-2"},
	},
}

type Evaluator struct {
	cache  *TemplateCache
	format functions.XMLToolCallFormat
}

// NewEvaluator returns an Evaluator loading named templates from
// templatesPath and rendering tool calls with format.
func NewEvaluator(templatesPath string, format functions.XMLToolCallFormat) *Evaluator {
	return &Evaluator{
		cache:  NewTemplateCache(templatesPath),
		format: format,
	}
}

// TemplateMessages renders msgs with the named or inline template, or with
// DefaultPromptTemplate when templateName is empty.
func (e *Evaluator) TemplateMessages(templateName string, msgs []sentence.Message, tools functions.Functions, addGenerationPrompt bool) (string, error) {
	if templateName == "" {
		templateName = DefaultPromptTemplate
	}

	data := PromptData{
		Tools:               tools,
		ToolCallExample:     e.format.Render([]functions.Invocation{exampleInvocation}),
		AddGenerationPrompt: addGenerationPrompt,
	}
	for i, m := range msgs {
		data.Messages = append(data.Messages, MessageData{
			Role:      m.Role().String(),
			Name:      m.Author().Name,
			Content:   m.Text(sentence.ChannelFinal),
			Reasoning: m.Text(sentence.ChannelThink),
			ToolCalls: e.renderToolCalls(m.ToolCalls()),
			Index:     i,
			Last:      i == len(msgs)-1,
		})
	}

	return e.cache.EvaluateTemplate(templateName, data)
}

func (e *Evaluator) renderToolCalls(calls []sentence.ToolCallContent) string {
	invocations := make([]functions.Invocation, 0, len(calls))
	for _, tc := range calls {
		inv, err := functions.InvocationFromArguments(tc.Name, tc.Arguments)
		if err != nil {
			xlog.Warn("Rendering tool call without its arguments", "tool", tc.Name, "error", err)
			inv = functions.Invocation{Name: tc.Name}
		}
		invocations = append(invocations, inv)
	}
	return e.format.Render(invocations)
}
