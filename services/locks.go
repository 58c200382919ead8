package services

import "sync"

// lockTable menyediakan mutex per key. Semua mutasi untuk satu session
// (tambah order, hitung ulang total, close) diserialisasi lewat sini;
// begitu juga pembukaan session per meja.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (lt *lockTable) get(key string) *sync.Mutex {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	l, ok := lt.locks[key]
	if !ok {
		l = &sync.Mutex{}
		lt.locks[key] = l
	}
	return l
}

// Lock mengunci key dan mengembalikan fungsi unlock-nya.
func (lt *lockTable) Lock(key string) func() {
	l := lt.get(key)
	l.Lock()
	return l.Unlock
}

var (
	sessionLocks = newLockTable()
	tableLocks   = newLockTable()
)
