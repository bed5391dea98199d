package deposit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// lockTable serializes ledger operations per deposit. Operations on different
// deposits proceed in parallel; a held lock bounds only in-memory arithmetic
// and the transaction append, never external I/O.
type lockTable struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*depositLock
}

type depositLock struct {
	sem  chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uuid.UUID]*depositLock)}
}

// acquire blocks until the deposit lock is held or the timeout elapses, in
// which case it returns ErrBusy. The returned func releases the lock.
func (t *lockTable) acquire(depositID uuid.UUID, timeout time.Duration) (func(), error) {
	t.mu.Lock()
	l, ok := t.locks[depositID]
	if !ok {
		l = &depositLock{sem: make(chan struct{}, 1)}
		t.locks[depositID] = l
	}
	l.refs++
	t.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			t.put(depositID, l)
		}, nil
	case <-timer.C:
		t.put(depositID, l)
		return nil, ErrBusy
	}
}

func (t *lockTable) put(depositID uuid.UUID, l *depositLock) {
	t.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, depositID)
	}
	t.mu.Unlock()
}
