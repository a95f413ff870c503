package conversation

import "github.com/mudler/m2context/pkg/sentence"

// Recorder observes what happens in a context, typically to export metrics.
type Recorder interface {
	TurnFinalized(msg sentence.Message)
	TokensCounted(prompt, output int)
}

type nopRecorder struct{}

func (nopRecorder) TurnFinalized(sentence.Message) {}
func (nopRecorder) TokensCounted(int, int)         {}
