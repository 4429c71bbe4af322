package services

import (
	"sync"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

// refLocks is a keyed mutex: one lock per recipe reference, created on demand
// and dropped when nobody holds or waits for it.
type refLocks struct {
	mu    sync.Mutex
	locks map[models.RecipeRef]*refLock
}

type refLock struct {
	sync.Mutex
	users int
}

func newRefLocks() *refLocks {
	return &refLocks{locks: make(map[models.RecipeRef]*refLock)}
}

func (l *refLocks) Lock(ref models.RecipeRef) (unlock func()) {
	l.mu.Lock()
	lk, ok := l.locks[ref]
	if !ok {
		lk = &refLock{}
		l.locks[ref] = lk
	}
	lk.users++
	l.mu.Unlock()

	lk.Lock()
	return func() {
		lk.Unlock()
		l.mu.Lock()
		lk.users--
		if lk.users == 0 {
			delete(l.locks, ref)
		}
		l.mu.Unlock()
	}
}
