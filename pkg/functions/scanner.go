package functions

import (
	"strings"
)

type delimiter int

const (
	delimScopeStart delimiter = iota
	delimScopeEnd
	delimToolStart
	delimToolSep
	delimToolEnd
	delimKeyStart
	delimKeyValSep
	delimValEnd
	delimReasoningStart
	delimReasoningEnd
)

// TagScanner is an incremental scanner for the XML tool-call syntax. Text is
// fed chunk by chunk in generation order; only the unconsumed tail that could
// still be the start of a delimiter is kept between calls.
type TagScanner struct {
	format         XMLToolCallFormat
	reasoningStart string
	reasoningEnd   string
	forcedOpen     bool

	state     ScanState
	reasoning bool
	pending   string
	name      strings.Builder
}

type ScannerOption func(*TagScanner)

// WithReasoningTags makes the scanner recognize a reasoning tag pair outside of
// tool-call blocks.
func WithReasoningTags(start, end string) ScannerOption {
	return func(s *TagScanner) {
		s.reasoningStart = start
		s.reasoningEnd = end
	}
}

// WithThinkingForcedOpen starts the scanner inside reasoning, for models whose
// prompt template already emitted the opening tag.
func WithThinkingForcedOpen() ScannerOption {
	return func(s *TagScanner) {
		s.forcedOpen = true
	}
}

func NewTagScanner(format XMLToolCallFormat, opts ...ScannerOption) *TagScanner {
	s := &TagScanner{format: format}
	for _, o := range opts {
		o(s)
	}
	s.reasoning = s.forcedOpen && s.reasoningEnd != ""
	return s
}

func (s *TagScanner) State() ScanState {
	return s.state
}

func (s *TagScanner) Reasoning() bool {
	return s.reasoning
}

// SetReasoning switches the reasoning flag from an out-of-band marker. Callers
// should Flush first so held-back text stays on the previous channel.
func (s *TagScanner) SetReasoning(on bool) {
	s.reasoning = on
}

// Pending returns the held-back tail that may still complete into a delimiter.
func (s *TagScanner) Pending() string {
	return s.pending
}

// Feed consumes the next chunk of text and returns the events it completes.
func (s *TagScanner) Feed(chunk string) []ScanEvent {
	if chunk == "" {
		return nil
	}
	s.pending += chunk
	return s.scan(nil)
}

// Flush emits the held-back tail as text without closing anything.
func (s *TagScanner) Flush() []ScanEvent {
	text := s.pending
	s.pending = ""
	return s.emitText(nil, text)
}

// Finalize ends the stream: every open parameter, invocation and block is
// force-closed. Held-back bytes become text outside of blocks; inside a block
// they are the start of a tag that never completed and are dropped. Calling
// it again emits nothing.
func (s *TagScanner) Finalize() []ScanEvent {
	// Inside a block the held-back tail is a cut-off tag, not content.
	if s.state != ScanOutside {
		s.pending = ""
	}

	events := s.Flush()

	if s.state == ScanInParameterValue {
		events = append(events, ParameterEndEvent{Forced: true})
		s.state = ScanInInvocation
	}
	if s.state == ScanInParameterName {
		// the parameter never got a value
		s.name.Reset()
		s.state = ScanInInvocation
	}
	if s.state == ScanInInvocationName {
		name := strings.TrimSpace(s.name.String())
		s.name.Reset()
		if name != "" {
			events = append(events, InvocationStartEvent{Name: name})
			s.state = ScanInInvocation
		} else {
			s.state = ScanInBlock
		}
	}
	if s.state == ScanInInvocation {
		events = append(events, InvocationEndEvent{Forced: true})
		s.state = ScanInBlock
	}
	if s.state == ScanInBlock {
		events = append(events, BlockEndEvent{Forced: true})
		s.state = ScanOutside
	}

	s.reasoning = s.forcedOpen && s.reasoningEnd != ""
	return events
}

func (s *TagScanner) literal(d delimiter) string {
	switch d {
	case delimScopeStart:
		return s.format.ScopeStart
	case delimScopeEnd:
		return s.format.ScopeEnd
	case delimToolStart:
		return s.format.ToolStart
	case delimToolSep:
		return s.format.ToolSep
	case delimToolEnd:
		return s.format.ToolEnd
	case delimKeyStart:
		return s.format.KeyStart
	case delimKeyValSep:
		return s.format.KeyValSep
	case delimValEnd:
		return s.format.ValEnd
	case delimReasoningStart:
		return s.reasoningStart
	case delimReasoningEnd:
		return s.reasoningEnd
	}
	return ""
}

// candidates lists the delimiters recognized in the current state. Anything
// else, including close tags without an open, is plain text.
func (s *TagScanner) candidates() []delimiter {
	switch s.state {
	case ScanOutside:
		if s.reasoning {
			return []delimiter{delimReasoningEnd}
		}
		return []delimiter{delimScopeStart, delimReasoningStart}
	case ScanInBlock:
		return []delimiter{delimToolStart, delimScopeEnd}
	case ScanInInvocationName:
		return []delimiter{delimToolSep}
	case ScanInInvocation:
		return []delimiter{delimKeyStart, delimToolEnd, delimScopeEnd}
	case ScanInParameterName:
		return []delimiter{delimKeyValSep}
	case ScanInParameterValue:
		return []delimiter{delimValEnd, delimToolEnd, delimScopeEnd}
	}
	return nil
}

func (s *TagScanner) scan(events []ScanEvent) []ScanEvent {
	for s.pending != "" {
		cands := s.candidates()

		idx, d := s.findEarliest(cands)
		hold := s.partialStart(cands)

		if idx == -1 || (hold != -1 && hold < idx) {
			if hold == -1 {
				hold = len(s.pending)
			}
			events = s.emitText(events, s.pending[:hold])
			s.pending = s.pending[hold:]
			return events
		}

		events = s.emitText(events, s.pending[:idx])
		s.pending = s.pending[idx+len(s.literal(d)):]
		events = s.transition(events, d)
	}
	return events
}

// findEarliest returns the position of the earliest complete delimiter,
// preferring the longest one when two start at the same byte.
func (s *TagScanner) findEarliest(cands []delimiter) (int, delimiter) {
	best, bestLen := -1, 0
	var found delimiter
	for _, d := range cands {
		lit := s.literal(d)
		if lit == "" {
			continue
		}
		i := strings.Index(s.pending, lit)
		if i == -1 {
			continue
		}
		if best == -1 || i < best || (i == best && len(lit) > bestLen) {
			best, bestLen, found = i, len(lit), d
		}
	}
	return best, found
}

// partialStart returns where the longest suffix of the pending text that is a
// proper prefix of a candidate delimiter begins, or -1.
func (s *TagScanner) partialStart(cands []delimiter) int {
	start := -1
	for _, d := range cands {
		lit := s.literal(d)
		if lit == "" {
			continue
		}
		if i := stringFindPartialStop(s.pending, lit); i != -1 && (start == -1 || i < start) {
			start = i
		}
	}
	return start
}

// stringFindPartialStop finds where a proper prefix of needle starts at the
// end of s, or -1.
func stringFindPartialStop(s, needle string) int {
	if len(needle) == 0 || len(s) == 0 {
		return -1
	}
	for i := min(len(needle)-1, len(s)); i > 0; i-- {
		if strings.HasSuffix(s, needle[:i]) {
			return len(s) - i
		}
	}
	return -1
}

func (s *TagScanner) emitText(events []ScanEvent, text string) []ScanEvent {
	if text == "" {
		return events
	}
	switch s.state {
	case ScanInInvocationName, ScanInParameterName:
		s.name.WriteString(text)
		return events
	}
	return append(events, TextEvent{Text: text, State: s.state, Reasoning: s.reasoning})
}

func (s *TagScanner) takeName() string {
	name := strings.TrimSpace(s.name.String())
	s.name.Reset()
	return name
}

func (s *TagScanner) transition(events []ScanEvent, d delimiter) []ScanEvent {
	switch d {
	case delimReasoningStart:
		s.reasoning = true
		events = append(events, ReasoningStartEvent{})
	case delimReasoningEnd:
		s.reasoning = false
		events = append(events, ReasoningEndEvent{})
	case delimScopeStart:
		s.state = ScanInBlock
		events = append(events, BlockStartEvent{})
	case delimToolStart:
		s.name.Reset()
		s.state = ScanInInvocationName
	case delimToolSep:
		s.state = ScanInInvocation
		events = append(events, InvocationStartEvent{Name: s.takeName()})
	case delimKeyStart:
		s.name.Reset()
		s.state = ScanInParameterName
	case delimKeyValSep:
		s.state = ScanInParameterValue
		events = append(events, ParameterStartEvent{Name: s.takeName()})
	case delimValEnd:
		s.state = ScanInInvocation
		events = append(events, ParameterEndEvent{})
	case delimToolEnd:
		if s.state == ScanInParameterValue {
			events = append(events, ParameterEndEvent{Forced: true})
		}
		s.state = ScanInBlock
		events = append(events, InvocationEndEvent{})
	case delimScopeEnd:
		if s.state == ScanInParameterValue {
			events = append(events, ParameterEndEvent{Forced: true})
		}
		if s.state == ScanInParameterValue || s.state == ScanInInvocation {
			events = append(events, InvocationEndEvent{Forced: true})
		}
		s.state = ScanOutside
		events = append(events, BlockEndEvent{})
	}
	return events
}
