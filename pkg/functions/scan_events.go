package functions

// ScanState classifies where the TagScanner currently is in the tag syntax.
type ScanState int

const (
	ScanOutside ScanState = iota
	ScanInBlock
	ScanInInvocationName
	ScanInInvocation
	ScanInParameterName
	ScanInParameterValue
)

func (s ScanState) String() string {
	switch s {
	case ScanOutside:
		return "outside"
	case ScanInBlock:
		return "in_block"
	case ScanInInvocationName:
		return "in_invocation_name"
	case ScanInInvocation:
		return "in_invocation"
	case ScanInParameterName:
		return "in_parameter_name"
	case ScanInParameterValue:
		return "in_parameter_value"
	}
	return "unknown"
}

// ScanEvent is emitted by the TagScanner. The set of events is closed.
type ScanEvent interface {
	isScanEvent()
}

// TextEvent carries text that is not part of a delimiter. State is the scan
// state the text was found in; Reasoning is set inside reasoning tags.
type TextEvent struct {
	Text      string
	State     ScanState
	Reasoning bool
}

type BlockStartEvent struct{}

// BlockEndEvent closes a tool-call block. Forced is set when the block was
// closed by Finalize rather than by its close tag.
type BlockEndEvent struct {
	Forced bool
}

type InvocationStartEvent struct {
	Name string
}

// InvocationEndEvent closes an invocation. Forced is set when the invocation
// was closed by the block end tag or by Finalize.
type InvocationEndEvent struct {
	Forced bool
}

type ParameterStartEvent struct {
	Name string
}

// ParameterEndEvent closes a parameter value. Forced is set when the value
// was closed by an outer close tag or by Finalize.
type ParameterEndEvent struct {
	Forced bool
}

type ReasoningStartEvent struct{}

type ReasoningEndEvent struct{}

func (TextEvent) isScanEvent()            {}
func (BlockStartEvent) isScanEvent()      {}
func (BlockEndEvent) isScanEvent()        {}
func (InvocationStartEvent) isScanEvent() {}
func (InvocationEndEvent) isScanEvent()   {}
func (ParameterStartEvent) isScanEvent()  {}
func (ParameterEndEvent) isScanEvent()    {}
func (ReasoningStartEvent) isScanEvent()  {}
func (ReasoningEndEvent) isScanEvent()    {}
