package bus

import (
	"fmt"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Ref is the handle identifying one actor on the bus. Names are for humans
// and need not be unique; identity is the Ref pointer itself.
type Ref struct {
	id   string
	name string
	live atomic.Bool
}

// NewRef creates a handle that is not yet registered.
func NewRef(name string) *Ref {
	return &Ref{id: gonanoid.Must(10), name: name}
}

// ID is a random identifier, unique per Ref, used in logs and metric labels.
func (r *Ref) ID() string { return r.id }

func (r *Ref) Name() string { return r.name }

// Live reports whether the actor is currently registered. The flag is only
// written by the bus while it holds its lock.
func (r *Ref) Live() bool { return r.live.Load() }

func (r *Ref) String() string { return fmt.Sprintf("%s(%s)", r.name, r.id) }
