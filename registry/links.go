package registry

import "github.com/wippyai/bindgen/errors"

// Link records a weak reference from owner to target under name. Links never
// keep the target alive: Resolve fails once the target is destroyed, and
// destroying the owner drops all of its links.
func (r *Registry) Link(owner Handle, name string, target Handle) error {
	if r.State(target) != Live {
		return errors.InvalidHandle(uint64(target), "link target is not live")
	}
	if owner == 0 {
		return errors.InvalidHandle(0, "null handle")
	}
	sh, local := r.locate(owner)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s, err := r.liveLocked(sh, local, owner, 0)
	if err != nil {
		return err
	}
	if s.links == nil {
		s.links = make(map[string]Handle)
	}
	s.links[name] = target
	return nil
}

// Unlink removes a link. Removing a missing link is not an error.
func (r *Registry) Unlink(owner Handle, name string) error {
	if owner == 0 {
		return errors.InvalidHandle(0, "null handle")
	}
	sh, local := r.locate(owner)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	s, err := r.liveLocked(sh, local, owner, 0)
	if err != nil {
		return err
	}
	delete(s.links, name)
	return nil
}

// Resolve returns the live target linked from owner under name.
func (r *Registry) Resolve(owner Handle, name string) (Handle, error) {
	if owner == 0 {
		return 0, errors.InvalidHandle(0, "null handle")
	}
	sh, local := r.locate(owner)
	sh.mu.Lock()
	s, err := r.liveLocked(sh, local, owner, 0)
	if err != nil {
		sh.mu.Unlock()
		return 0, err
	}
	target, ok := s.links[name]
	sh.mu.Unlock()

	if !ok {
		return 0, errors.New(errors.PhaseRegistry, errors.KindInvalidHandle).
			Value(uint64(owner)).
			Detail("no link %q", name).
			Build()
	}
	// Never hold two shard locks at once.
	if r.State(target) != Live {
		return 0, errors.InvalidHandle(uint64(target), "link target destroyed")
	}
	return target, nil
}
