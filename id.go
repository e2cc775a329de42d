package systest

import (
	"fmt"

	"github.com/google/uuid"
)

// ActorId identifies an actor for the lifetime of one test iteration.
//
// Equality is by Value, matching the semantics a test author compares on;
// InstanceID exists purely for cross-iteration correlation in coverage
// graphs and structured logs, where two actors sharing a Name/Value across
// different iterations must still be told apart.
type ActorId struct {
	Value int64
	Name string
	Type string

	// InstanceID disambiguates this ActorId from another with the same
	// Value minted in a different iteration of the same runtime.
	InstanceID uuid.UUID

	runtime *Runtime
}

// Runtime returns the runtime that minted this id, or nil for a zero value.
func (id ActorId) Runtime() *Runtime { return id.runtime }

// Equal reports whether two ids name the same actor, by Value.
func (id ActorId) Equal(other ActorId) bool { return id.Value == other.Value }

func (id ActorId) String() string {
	if id.Name != "" {
		return fmt.Sprintf("%s(%d)", id.Name, id.Value)
	}
	return fmt.Sprintf("%s#%d", id.Type, id.Value)
}

// IsZero reports whether id is the zero ActorId (no actor spawned).
func (id ActorId) IsZero() bool { return id.Value == 0 && id.runtime == nil }

// EventGroup is an opaque correlation token propagated along send/receive
// edges so causally related operations can be traced together.
type EventGroup struct {
	id uuid.UUID
	// null distinguishes the zero value (unset) from an explicitly-cleared
	// group: NullEventGroup() compares equal to itself but not to the zero
	// value.
	null bool
}

// NewEventGroup mints a fresh, unique correlation token.
func NewEventGroup() EventGroup {
	return EventGroup{id: uuid.New()}
}

// NullEventGroup returns the sentinel meaning "explicitly unset".
func NullEventGroup() EventGroup {
	return EventGroup{null: true}
}

// IsZero reports whether g carries no group at all (the caller never set one).
func (g EventGroup) IsZero() bool { return g.id == uuid.Nil && !g.null }

// IsNull reports whether g is the explicit-unset sentinel.
func (g EventGroup) IsNull() bool { return g.null }

// Equal reports whether two groups are the same correlation token. Two null
// sentinels are equal to one another; a null sentinel is never equal to a
// zero (unset) group or to any minted group.
func (g EventGroup) Equal(other EventGroup) bool {
	if g.null || other.null {
		return g.null == other.null
	}
	return g.id == other.id
}

func (g EventGroup) String() string {
	switch {
	case g.null:
		return "<null>"
	case g.IsZero():
		return "<unset>"
	default:
		return g.id.String()
	}
}
