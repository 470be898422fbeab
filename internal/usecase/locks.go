package usecase

import "sync"

// matchLocker serializes mutating operations per match id. Vote tallying,
// slot confirmation, result submission and roster edits on one match must
// not interleave; operations on different matches proceed in parallel.
type matchLocker struct {
	mu    sync.Mutex
	locks map[string]*matchLock
}

type matchLock struct {
	mu   sync.Mutex
	refs int
}

func newMatchLocker() *matchLocker {
	return &matchLocker{locks: make(map[string]*matchLock)}
}

// sharedLocker is the process-wide keeper every service constructor uses, so
// that operations from different services on the same match serialize too.
var sharedLocker = newMatchLocker()

// Lock acquires the per-match mutex and returns its release func.
func (l *matchLocker) Lock(matchID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[matchID]
	if !ok {
		entry = &matchLock{}
		l.locks[matchID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, matchID)
		}
		l.mu.Unlock()
	}
}
