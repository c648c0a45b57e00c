package service

import "sync"

// Locks serializes mutating operations per programme id. Operations on the
// same programme's claim and ledger must not interleave their
// read-modify-write of shared aggregate fields; different programmes proceed
// fully in parallel.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocks creates an empty lock set
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the programme and returns the release function
func (l *Locks) Acquire(programmeID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[programmeID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[programmeID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
