package functions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mudler/xlog"
)

var ErrInvalidParameterValue = errors.New("parameter value is not valid UTF-8")

type Parameter struct {
	Name  string
	Value string
}

// Invocation is one tool call found inside a block.
type Invocation struct {
	Name       string
	Parameters []Parameter
	// Incomplete is set when the invocation was sealed without its close tag.
	Incomplete bool
}

// Set stores a parameter, overwriting the value of an earlier parameter with
// the same name in place.
func (inv *Invocation) Set(name, value string) {
	for i := range inv.Parameters {
		if inv.Parameters[i].Name == name {
			inv.Parameters[i].Value = value
			return
		}
	}
	inv.Parameters = append(inv.Parameters, Parameter{Name: name, Value: value})
}

// Arguments serializes the parameters as a JSON object, keys in parameter
// order and every value a JSON string. Parameters that cannot be encoded are
// left out and reported in the returned error; the JSON is always usable.
func (inv Invocation) Arguments() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	var errs []error
	out := []byte{'{'}
	written := 0
	for _, p := range inv.Parameters {
		if !utf8.ValidString(p.Name) || !utf8.ValidString(p.Value) {
			errs = append(errs, fmt.Errorf("%w: tool %q parameter %q", ErrInvalidParameterValue, inv.Name, p.Name))
			continue
		}

		buf.Reset()
		if err := enc.Encode(p.Name); err != nil {
			errs = append(errs, fmt.Errorf("tool %q parameter %q: %w", inv.Name, p.Name, err))
			continue
		}
		key := bytes.TrimRight(buf.Bytes(), "\n")
		key = append([]byte(nil), key...)

		buf.Reset()
		if err := enc.Encode(p.Value); err != nil {
			errs = append(errs, fmt.Errorf("tool %q parameter %q: %w", inv.Name, p.Name, err))
			continue
		}
		value := bytes.TrimRight(buf.Bytes(), "\n")

		if written > 0 {
			out = append(out, ',')
		}
		out = append(out, key...)
		out = append(out, ':')
		out = append(out, value...)
		written++
	}
	out = append(out, '}')

	return string(out), errors.Join(errs...)
}

// InvocationFromArguments rebuilds an invocation from a JSON object of
// arguments, keeping key order. String values are used as is, anything else
// keeps its JSON text.
func InvocationFromArguments(name, arguments string) (Invocation, error) {
	inv := Invocation{Name: name}
	if strings.TrimSpace(arguments) == "" {
		return inv, nil
	}

	dec := json.NewDecoder(strings.NewReader(arguments))
	tok, err := dec.Token()
	if err != nil {
		return Invocation{}, fmt.Errorf("tool %q arguments: %w", name, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Invocation{}, fmt.Errorf("tool %q arguments: not a JSON object", name)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Invocation{}, fmt.Errorf("tool %q arguments: %w", name, err)
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Invocation{}, fmt.Errorf("tool %q argument %q: %w", name, key, err)
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			value = strings.TrimSpace(string(raw))
		}
		inv.Set(key, value)
	}
	return inv, nil
}

// InvocationParser builds Invocations from TagScanner events.
type InvocationParser struct {
	current   *Invocation
	paramName string
	inParam   bool
	value     strings.Builder
}

func NewInvocationParser() *InvocationParser {
	return &InvocationParser{}
}

// Open reports whether an invocation is being collected.
func (p *InvocationParser) Open() bool {
	return p.current != nil
}

// Handle consumes one scanner event. It returns the sealed invocation when the
// event closes one.
func (p *InvocationParser) Handle(ev ScanEvent) (Invocation, bool) {
	switch ev := ev.(type) {
	case InvocationStartEvent:
		if p.current != nil {
			xlog.Debug("Invocation started before the previous one was closed", "previous", p.current.Name, "next", ev.Name)
		}
		p.current = &Invocation{Name: ev.Name}
		p.inParam = false
		p.value.Reset()
	case ParameterStartEvent:
		if p.current == nil {
			return Invocation{}, false
		}
		p.paramName = ev.Name
		p.inParam = true
		p.value.Reset()
	case TextEvent:
		if p.inParam && ev.State == ScanInParameterValue {
			p.value.WriteString(ev.Text)
		}
	case ParameterEndEvent:
		if p.current == nil || !p.inParam {
			return Invocation{}, false
		}
		p.current.Set(p.paramName, strings.TrimSpace(p.value.String()))
		p.inParam = false
		p.value.Reset()
	case InvocationEndEvent:
		if p.current == nil {
			return Invocation{}, false
		}
		if p.inParam {
			p.current.Set(p.paramName, strings.TrimSpace(p.value.String()))
			p.inParam = false
			p.value.Reset()
		}
		inv := *p.current
		inv.Incomplete = ev.Forced
		p.current = nil
		if inv.Name == "" {
			xlog.Debug("Dropping tool invocation without a name", "parameters", len(inv.Parameters))
			return Invocation{}, false
		}
		if inv.Incomplete {
			xlog.Debug("Tool invocation force-sealed", "name", inv.Name, "parameters", len(inv.Parameters))
		}
		return inv, true
	}
	return Invocation{}, false
}
