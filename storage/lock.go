package storage

import "sync"

// Lock is the single process-wide mutex every call into a non-thread-safe
// storage backend must be made under (spec.md §5). The underlying C
// library this contract stands in for uses a recursive mutex so that one
// call can open another handle without deadlocking itself; Go has no
// built-in recursive mutex, and a goroutine-id-sniffing one is not worth
// building for this. Instead reentrancy is modeled structurally: Acquire
// returns a *Guard, and any function that needs to make a nested storage
// call takes a *Guard parameter from its caller instead of acquiring the
// lock again. A *Guard is proof the lock is held; only the call that
// produced it may release it.
type Lock struct {
	mu sync.Mutex
}

// Guard is a capability token proving Lock is held. It carries no state
// of its own; its only purpose is to make "this function assumes the
// storage lock is already held" explicit in a signature instead of
// implicit in a comment.
type Guard struct {
	lock *Lock
}

// Acquire blocks until the lock is free and returns a Guard for the
// duration of one top-level storage operation. Callers must call
// Release exactly once.
func (l *Lock) Acquire() *Guard {
	l.mu.Lock()
	return &Guard{lock: l}
}

// Release gives up the lock. Calling Release twice, or on a Guard from a
// different Lock, is a programming error and panics rather than
// silently corrupting lock state.
func (g *Guard) Release() {
	if g.lock == nil {
		panic("storage: Guard released twice")
	}
	l := g.lock
	g.lock = nil
	l.mu.Unlock()
}

// NewLock constructs an unheld Lock.
func NewLock() *Lock { return &Lock{} }
