package conversation

import (
	"github.com/google/uuid"
	"github.com/mudler/m2context/pkg/turn"
)

type options struct {
	id       string
	turnOpts []turn.Option
	recorder Recorder
}

type Option func(*options)

func newOptions(opts ...Option) *options {
	o := &options{recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.id == "" {
		o.id = uuid.New().String()
	}
	return o
}

// WithTurnOptions configures the parser used for every model turn.
func WithTurnOptions(opts ...turn.Option) Option {
	return func(o *options) {
		o.turnOpts = append(o.turnOpts, opts...)
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithID sets the context id. A random uuid is used otherwise.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}
