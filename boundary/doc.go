// Package boundary is the runtime library behind generated cgo glue.
//
// Every exported function of a generated package runs inside
// Runtime.Invoke, which guarantees that:
//   - a panic in native code becomes StatusPanic instead of unwinding into C;
//   - every error becomes a Status with a stable code and message;
//   - resources registered on the Scope are released exactly once, in LIFO
//     order, on every exit path.
//
// # Lifecycle
//
//	var rt = boundary.New("counter", nil)
//
//	rt.Init()      // create the handle registry
//	...            // exported calls
//	rt.Shutdown()  // destroy every live handle
//
// Calls outside the Init/Shutdown window fail with StatusNotInitialized.
//
// # Ownership
//
// Borrowed handles are pinned with Scope.Borrow for the duration of the
// call. Owned handles are taken with Scope.Consume and released unless the
// glue hands them to native code with Owned.Keep. Returned handles are
// registered with Scope.Export and destroyed again if the call fails later.
//
// # Errors
//
// Native code reports declared error kinds by returning a Kinded error such
// as NativeError. ErrorKinds maps kind names to the integer codes written to
// the status out-parameter.
package boundary
