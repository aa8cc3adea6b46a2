// Package registry provides the process-wide table of opaque handles that
// cross the native boundary.
//
// A handle is a 64-bit value encoding a slot index and the slot's
// generation. Zero is never issued, so hosts can use it as a null handle.
//
//	reg := registry.New(nil)
//
//	h, err := reg.Insert(counterType, c)
//
//	// Typed lookup pinned for the duration of a call
//	v, err := reg.Borrow(h, counterType)
//	defer reg.Return(h)
//
//	// Ownership transfer: the handle becomes invalid, the value is the caller's
//	v, err := reg.Take(h, counterType)
//
//	// Destruction: releases values implementing Releaser
//	err = reg.Destroy(h, counterType)
//
// # Lifecycle
//
// Each handle moves through Uninitialized, Live and Destroyed. Destroyed is
// terminal: every later use fails with an invalid handle error, including a
// second Destroy. When a slot is freed its generation is bumped before the
// slot is reused, and a slot that runs out of generations is retired, so a
// stale handle can never alias a newer value.
//
// Destroying a handle that is currently borrowed invalidates it immediately.
// The value itself is released when the last borrow is returned.
//
// # Weak links
//
// Link stores a named, non-owning reference from one handle to another.
// Resolve fails once the target is destroyed, which lets a child object refer
// back to its parent without keeping it alive.
//
// # Concurrency
//
// Slots are split into shards, each guarded by its own mutex. Observers are
// notified outside shard locks.
package registry
