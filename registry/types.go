package registry

import (
	"fmt"
	"math"
)

// Handle is an opaque reference to a value in a Registry.
// The low 32 bits hold slot+1, the high 32 bits the slot generation.
// Handle 0 is reserved and never issued.
type Handle uint64

func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot+1))
}

// Slot returns the slot index encoded in h.
func (h Handle) Slot() uint32 { return uint32(h) - 1 }

// Generation returns the slot generation encoded in h.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

func (h Handle) String() string {
	if h == 0 {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d@%d)", h.Slot(), h.Generation())
}

// State is the lifecycle state of a handle.
type State uint8

const (
	// Uninitialized handles were never issued by the registry.
	Uninitialized State = iota
	// Live handles can be looked up, borrowed, taken and destroyed.
	Live
	// Destroyed is terminal. A destroyed handle never becomes live again.
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Live:
		return "live"
	case Destroyed:
		return "destroyed"
	default:
		return "?"
	}
}

// EventType identifies a handle lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDestroyed
	EventBorrowed
	EventReturned
	EventTaken
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDestroyed:
		return "destroyed"
	case EventBorrowed:
		return "borrowed"
	case EventReturned:
		return "returned"
	case EventTaken:
		return "taken"
	case EventReleased:
		return "released"
	default:
		return "?"
	}
}

// Event describes a handle lifecycle transition.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Type   EventType
}

// Observer receives handle lifecycle events. Observers are called outside
// registry locks and may call back into the registry.
type Observer interface {
	OnHandleEvent(Event)
}

// Releaser is optionally implemented by values that need cleanup when their
// handle is destroyed. Release is called exactly once.
type Releaser interface {
	Release()
}

// Config configures a Registry.
type Config struct {
	// Shards is the number of independently locked slot partitions.
	Shards int
	// InitialCapacity is the number of slots preallocated across all shards.
	InitialCapacity int
	// MaxGeneration bounds slot reuse. A slot whose generation reaches it is
	// retired instead of being reissued.
	MaxGeneration uint32
}

// DefaultConfig returns the configuration used when New is given nil.
func DefaultConfig() *Config {
	return &Config{
		Shards:          16,
		InitialCapacity: 256,
		MaxGeneration:   math.MaxUint32,
	}
}

func (c *Config) withDefaults() Config {
	def := DefaultConfig()
	if c == nil {
		return *def
	}
	out := *c
	if out.Shards <= 0 {
		out.Shards = def.Shards
	}
	if out.InitialCapacity < 0 {
		out.InitialCapacity = 0
	}
	if out.MaxGeneration == 0 {
		out.MaxGeneration = def.MaxGeneration
	}
	return out
}
