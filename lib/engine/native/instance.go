package native

import (
	"bytes"
	"sync"

	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/i2ptunnelctl/lib/keys"
	"github.com/google/uuid"
)

// instance is the part every native instance shares.
type instance struct {
	id    string
	class engine.Class
	owner *Engine
}

func newInstance(owner *Engine, class engine.Class) instance {
	return instance{id: uuid.NewString(), class: class, owner: owner}
}

func (i *instance) ID() string          { return i.id }
func (i *instance) Class() engine.Class { return i.class }

type streamInstance struct {
	instance
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *streamInstance) write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Write(p)
}

type clientInstance struct {
	instance
}

type destinationInstance struct {
	instance
	keys *keys.DestinationKeys
}

type routerInstance struct {
	instance
	// mu guards proc and shutdown. It is never held while waiting on the
	// router, so probes stay responsive during runRouter.
	mu       sync.Mutex
	proc     *process
	starting bool
	shutdown bool
}

type tunnelInstance struct {
	instance
	proc *process
}

func (i *instance) engineOwner() *Engine { return i.owner }
