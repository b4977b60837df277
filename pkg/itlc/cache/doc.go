// Package cache persists token material for itlc behind one keyed Store
// abstraction with a filesystem backend and an OS keychain backend. The
// single interactive Context lives under a reserved key of the same
// store.
package cache
