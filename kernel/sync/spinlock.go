// Package sync provides the synchronization primitives used by the virtual
// memory core: a spinlock guarding the frame allocator, the heap free-list,
// and the process table (spec.md §5). Stdlib sync.Mutex is avoided because
// it parks goroutines through the scheduler, which does not exist yet when
// these locks are first taken.
package sync

import "sync/atomic"

var (
	// yieldFn is invoked after a run of failed acquire attempts so that,
	// once a scheduler exists, a spinning task can give up the CPU
	// instead of busy-looping forever. No scheduler exists yet (spec.md
	// §9 Open Questions), so the default is a no-op.
	yieldFn = func() {}

	// spinsBeforeYield bounds how many CAS attempts are made before
	// calling yieldFn.
	spinsBeforeYield = 1000
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// until the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will
// deadlock; per spec.md §5 these locks must never be taken from interrupt
// context for exactly this reason.
func (l *Spinlock) Acquire() {
	for {
		for i := 0; i < spinsBeforeYield; i++ {
			if atomic.CompareAndSwapUint32(&l.state, 0, 1) {
				return
			}
		}
		yieldFn()
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock
// could be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Release relinquishes a held lock, allowing other tasks to acquire it.
// Calling Release while the lock is free has no effect beyond leaving it
// free.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
