package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Lock takes an exclusive advisory lock on the agent's ledger so settlements
// serialize across every process sharing the data dir, not just across
// goroutines of one process. It blocks until the lock is free and returns the
// release function. The lock file sits next to position.jsonl and is never
// removed.
func (s *Store) Lock(agent string) (func(), error) {
	path := filepath.Join(s.dir, agent, "position", ".position.lock")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir for %s: %w", agent, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger lock for %s: %w", agent, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock ledger for %s: %w", agent, err)
	}

	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}
