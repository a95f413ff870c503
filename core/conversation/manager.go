package conversation

import (
	"errors"
	"fmt"

	"github.com/mudler/m2context/core/schema"
	"github.com/mudler/m2context/pkg/xsync"
	"github.com/mudler/xlog"
)

var ErrDuplicateID = errors.New("conversation id already in use")

// Manager tracks independent conversations. It is safe for concurrent use;
// each Context it hands out is not.
type Manager struct {
	contexts *xsync.SyncedMap[string, *Context]
	defaults []Option
}

// NewManager returns a Manager that applies opts to every context it creates.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		contexts: xsync.NewSyncedMap[string, *Context](),
		defaults: opts,
	}
}

func (m *Manager) Create(initial schema.Messages, availableTools []string, opts ...Option) (*Context, error) {
	all := append(append([]Option(nil), m.defaults...), opts...)
	c, err := New(initial, availableTools, all...)
	if err != nil {
		return nil, err
	}
	if !m.contexts.SetIfAbsent(c.ID(), c) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID())
	}
	return c, nil
}

func (m *Manager) Get(id string) (*Context, bool) {
	return m.contexts.Lookup(id)
}

// Delete forgets a conversation, sealing a turn left in progress.
func (m *Manager) Delete(id string) bool {
	c, ok := m.contexts.Pop(id)
	if !ok {
		return false
	}
	if c.TurnInProgress() {
		if _, err := c.FinalizeTurn(); err != nil {
			xlog.Warn("Abandoned turn had invalid tool call parameters", "id", id, "error", err)
		}
	}
	return true
}

func (m *Manager) Len() int {
	return m.contexts.Len()
}

func (m *Manager) IDs() []string {
	return m.contexts.Keys()
}
