package versioning

import "sync"

// workflowLocks serializes deploy and rollback per workflow id so two
// concurrent deploys can never observe the same prior-production snapshot.
// Version creation and read-only queries never take these locks.
type workflowLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newWorkflowLocks() *workflowLocks {
	return &workflowLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for a workflow id, creating it on first use.
// Entries are never removed; the map is bounded by the number of workflows
// the process deploys.
func (l *workflowLocks) lock(workflowID string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[workflowID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[workflowID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m
}
