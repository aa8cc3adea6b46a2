package registry

import (
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/bindgen/errors"
)

type slotState uint8

const (
	slotFree slotState = iota
	slotLive
	slotDestroyed // destroyed while borrowed; value released on last Return
	slotRetired
)

type slot struct {
	value   any
	links   map[string]Handle
	gen     uint32
	typeID  uint32
	borrows uint32
	state   slotState
}

type shard struct {
	slots []slot
	free  []uint32
	live  int
	mu    sync.Mutex
}

// Registry maps opaque handles to Go values.
//
// Slots are partitioned into shards by slot index; operations on handles in
// different shards never contend. Every slot carries a generation that is
// bumped when the slot is freed, so a handle outliving its value is detected
// instead of aliasing whatever reuses the slot.
type Registry struct {
	shards    []*shard
	observers []Observer
	cfg       Config
	next      atomic.Uint32
	obsMu     sync.RWMutex
	closed    atomic.Bool
}

// New creates a registry. A nil config uses DefaultConfig.
func New(cfg *Config) *Registry {
	c := cfg.withDefaults()
	r := &Registry{
		cfg:    c,
		shards: make([]*shard, c.Shards),
	}
	perShard := c.InitialCapacity / c.Shards
	for i := range r.shards {
		r.shards[i] = &shard{
			slots: make([]slot, 0, perShard),
			free:  make([]uint32, 0, perShard/4),
		}
	}
	return r
}

func (r *Registry) global(shardIdx int, local uint32) uint64 {
	return uint64(local)*uint64(len(r.shards)) + uint64(shardIdx)
}

func (r *Registry) locate(h Handle) (*shard, uint32) {
	g := h.Slot()
	n := uint32(len(r.shards))
	return r.shards[g%n], g / n
}

// Insert stores value under a new live handle of the given type.
func (r *Registry) Insert(typeID uint32, value any) (Handle, error) {
	si := int(r.next.Add(1) % uint32(len(r.shards)))
	sh := r.shards[si]

	sh.mu.Lock()
	if r.closed.Load() {
		sh.mu.Unlock()
		return 0, errors.Closed("registry")
	}

	var local uint32
	if n := len(sh.free); n > 0 {
		local = sh.free[n-1]
		sh.free = sh.free[:n-1]
	} else {
		local = uint32(len(sh.slots))
		if r.global(si, local) >= math.MaxUint32 {
			sh.mu.Unlock()
			return 0, errors.New(errors.PhaseRegistry, errors.KindInvalidHandle).
				Detail("handle space exhausted").
				Build()
		}
		sh.slots = append(sh.slots, slot{gen: 1})
	}

	s := &sh.slots[local]
	s.state = slotLive
	s.typeID = typeID
	s.value = value
	s.borrows = 0
	sh.live++
	h := makeHandle(uint32(r.global(si, local)), s.gen)
	sh.mu.Unlock()

	r.notify(Event{Type: EventCreated, Handle: h, TypeID: typeID, Value: value})
	return h, nil
}

// liveLocked returns the slot of a live handle. sh.mu must be held.
func (r *Registry) liveLocked(sh *shard, local uint32, h Handle, typeID uint32) (*slot, error) {
	if int(local) >= len(sh.slots) {
		return nil, errors.InvalidHandle(uint64(h), "never issued")
	}
	s := &sh.slots[local]
	if s.gen != h.Generation() || s.state != slotLive {
		if s.gen < h.Generation() || (s.gen == h.Generation() && s.state == slotFree) {
			return nil, errors.InvalidHandle(uint64(h), "never issued")
		}
		return nil, errors.InvalidHandle(uint64(h), "destroyed")
	}
	if typeID != 0 && s.typeID != typeID {
		return nil, errors.HandleTypeMismatch(uint64(h), typeID, s.typeID)
	}
	return s, nil
}

// freeLocked clears a slot and makes it reusable with the next generation,
// or retires it when its generations are exhausted. sh.mu must be held.
func (r *Registry) freeLocked(sh *shard, local uint32) any {
	s := &sh.slots[local]
	v := s.value
	s.value = nil
	s.links = nil
	s.borrows = 0
	if s.gen >= r.cfg.MaxGeneration {
		s.state = slotRetired
		Logger().Debug("slot retired", zap.Uint32("local", local), zap.Uint32("generation", s.gen))
		return v
	}
	s.gen++
	s.state = slotFree
	sh.free = append(sh.free, local)
	return v
}

// Get returns the value of a live handle without borrowing it.
// A typeID of 0 matches any type.
func (r *Registry) Get(h Handle, typeID uint32) (any, error) {
	if h == 0 {
		return nil, errors.InvalidHandle(0, "null handle")
	}
	sh, local := r.locate(h)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s, err := r.liveLocked(sh, local, h, typeID)
	if err != nil {
		return nil, err
	}
	return s.value, nil
}

// Borrow returns the value of a live handle and pins it until Return.
// Destroying a borrowed handle invalidates it immediately but defers
// releasing the value until the last borrow is returned.
func (r *Registry) Borrow(h Handle, typeID uint32) (any, error) {
	if h == 0 {
		return nil, errors.InvalidHandle(0, "null handle")
	}
	sh, local := r.locate(h)
	sh.mu.Lock()
	s, err := r.liveLocked(sh, local, h, typeID)
	if err != nil {
		sh.mu.Unlock()
		return nil, err
	}
	s.borrows++
	v, tid := s.value, s.typeID
	sh.mu.Unlock()

	r.notify(Event{Type: EventBorrowed, Handle: h, TypeID: tid, Value: v})
	return v, nil
}

// Return ends a borrow started with Borrow.
func (r *Registry) Return(h Handle) error {
	if h == 0 {
		return errors.InvalidHandle(0, "null handle")
	}
	sh, local := r.locate(h)
	sh.mu.Lock()
	if int(local) >= len(sh.slots) {
		sh.mu.Unlock()
		return errors.InvalidHandle(uint64(h), "never issued")
	}
	s := &sh.slots[local]
	if s.gen != h.Generation() || (s.state != slotLive && s.state != slotDestroyed) || s.borrows == 0 {
		sh.mu.Unlock()
		return errors.InvalidHandle(uint64(h), "not borrowed")
	}
	s.borrows--
	tid := s.typeID

	var released any
	pending := s.state == slotDestroyed && s.borrows == 0
	if pending {
		released = r.freeLocked(sh, local)
	}
	sh.mu.Unlock()

	r.notify(Event{Type: EventReturned, Handle: h, TypeID: tid})
	if pending {
		r.release(h, tid, released)
	}
	return nil
}

// Take removes a live handle and hands its value to the caller, who becomes
// responsible for it. The value is not released. Borrowed handles cannot be
// taken.
func (r *Registry) Take(h Handle, typeID uint32) (any, error) {
	if h == 0 {
		return nil, errors.InvalidHandle(0, "null handle")
	}
	sh, local := r.locate(h)
	sh.mu.Lock()
	s, err := r.liveLocked(sh, local, h, typeID)
	if err != nil {
		sh.mu.Unlock()
		return nil, err
	}
	if s.borrows > 0 {
		sh.mu.Unlock()
		return nil, errors.InvalidHandle(uint64(h), "cannot take a borrowed handle")
	}
	tid := s.typeID
	sh.live--
	v := r.freeLocked(sh, local)
	sh.mu.Unlock()

	r.notify(Event{Type: EventTaken, Handle: h, TypeID: tid, Value: v})
	return v, nil
}

// Destroy invalidates a live handle and releases its value, or schedules the
// release if the handle is currently borrowed. A typeID of 0 matches any type.
// Destroying a handle twice fails with an invalid handle error.
func (r *Registry) Destroy(h Handle, typeID uint32) error {
	if h == 0 {
		return errors.InvalidHandle(0, "null handle")
	}
	sh, local := r.locate(h)
	sh.mu.Lock()
	s, err := r.liveLocked(sh, local, h, typeID)
	if err != nil {
		sh.mu.Unlock()
		return err
	}
	tid, v := s.typeID, s.value
	sh.live--
	s.links = nil

	immediate := s.borrows == 0
	if immediate {
		r.freeLocked(sh, local)
	} else {
		s.state = slotDestroyed
	}
	sh.mu.Unlock()

	r.notify(Event{Type: EventDestroyed, Handle: h, TypeID: tid, Value: v})
	if immediate {
		r.release(h, tid, v)
	}
	return nil
}

// State reports the lifecycle state of h.
func (r *Registry) State(h Handle) State {
	if h == 0 || h.Generation() == 0 {
		return Uninitialized
	}
	sh, local := r.locate(h)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if int(local) >= len(sh.slots) {
		return Uninitialized
	}
	s := &sh.slots[local]
	switch {
	case s.gen < h.Generation():
		return Uninitialized
	case s.gen > h.Generation():
		return Destroyed
	}
	switch s.state {
	case slotLive:
		return Live
	case slotFree:
		return Uninitialized
	default:
		return Destroyed
	}
}

// TypeID returns the type of a live handle.
func (r *Registry) TypeID(h Handle) (uint32, bool) {
	if h == 0 {
		return 0, false
	}
	sh, local := r.locate(h)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s, err := r.liveLocked(sh, local, h, 0)
	if err != nil {
		return 0, false
	}
	return s.typeID, true
}

// Config returns the effective configuration, defaults applied.
func (r *Registry) Config() Config { return r.cfg }

// Len returns the number of live handles.
func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.Lock()
		n += sh.live
		sh.mu.Unlock()
	}
	return n
}

// Each calls fn for every live handle until fn returns false. Each shard is
// snapshotted before fn runs, so fn may call back into the registry.
func (r *Registry) Each(fn func(Handle, uint32, any) bool) {
	type item struct {
		value  any
		h      Handle
		typeID uint32
	}
	for si, sh := range r.shards {
		sh.mu.Lock()
		items := make([]item, 0, sh.live)
		for i := range sh.slots {
			s := &sh.slots[i]
			if s.state == slotLive {
				items = append(items, item{
					h:      makeHandle(uint32(r.global(si, uint32(i))), s.gen),
					typeID: s.typeID,
					value:  s.value,
				})
			}
		}
		sh.mu.Unlock()

		for _, it := range items {
			if !fn(it.h, it.typeID, it.value) {
				return
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Closed reports whether Close has been called.
func (r *Registry) Closed() bool {
	return r.closed.Load()
}

// Close destroys every live handle and stops accepting inserts. Values still
// borrowed are released when their last borrow returns. Close is idempotent.
func (r *Registry) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	type doomed struct {
		value    any
		h        Handle
		typeID   uint32
		released bool
	}
	var all []doomed
	for si, sh := range r.shards {
		sh.mu.Lock()
		for i := range sh.slots {
			s := &sh.slots[i]
			if s.state != slotLive {
				continue
			}
			d := doomed{
				h:      makeHandle(uint32(r.global(si, uint32(i))), s.gen),
				typeID: s.typeID,
				value:  s.value,
			}
			sh.live--
			s.links = nil
			if s.borrows == 0 {
				r.freeLocked(sh, uint32(i))
				d.released = true
			} else {
				s.state = slotDestroyed
			}
			all = append(all, d)
		}
		sh.mu.Unlock()
	}

	Logger().Debug("registry closed", zap.Int("destroyed", len(all)))
	for _, d := range all {
		r.notify(Event{Type: EventDestroyed, Handle: d.h, TypeID: d.typeID, Value: d.value})
		if d.released {
			r.release(d.h, d.typeID, d.value)
		}
	}
	return nil
}

func (r *Registry) release(h Handle, typeID uint32, v any) {
	if rel, ok := v.(Releaser); ok {
		rel.Release()
	}
	r.notify(Event{Type: EventReleased, Handle: h, TypeID: typeID, Value: v})
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnHandleEvent(e)
	}
}
