package settle

import "sync"

// lockTable hands out one mutex per agent. Settlements for the same agent are
// serialized across the whole read-validate-append critical section;
// settlements for different agents proceed in parallel. Acquisition blocks
// with no timeout, favoring correctness over liveness. The table only covers
// goroutines of this process; Store.Lock extends the exclusion to other
// processes sharing the data dir.
type lockTable struct {
	mu     sync.Mutex
	agents map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{agents: make(map[string]*sync.Mutex)}
}

func (t *lockTable) get(agent string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.agents[agent]
	if !ok {
		l = &sync.Mutex{}
		t.agents[agent] = l
	}
	return l
}
