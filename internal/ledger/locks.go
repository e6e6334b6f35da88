package ledger

import "sync"

// sessionLocks hands out one mutex per session id so the whole settlement
// sequence for a session is serialized. Entries are reference counted and
// dropped once no request holds or waits on them.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: make(map[string]*lockEntry)}
}

// lock acquires the mutex for id and returns the unlock function.
func (sl *sessionLocks) lock(id string) func() {
	sl.mu.Lock()
	e, ok := sl.entries[id]
	if !ok {
		e = &lockEntry{}
		sl.entries[id] = e
	}
	e.refs++
	sl.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		sl.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(sl.entries, id)
		}
		sl.mu.Unlock()
	}
}
