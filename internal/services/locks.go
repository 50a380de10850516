package services

import "sync"

// UserLocks serializes cart mutations and checkout per user. Different
// users never contend; the same user's operations run one at a time, so a
// checkout cannot interleave with a cart mutation between the cart
// snapshot and the cart clear.
type UserLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewUserLocks creates an empty lock registry.
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the lock for one user and returns it for unlocking:
//
//	defer locks.Lock(userID).Unlock()
func (l *UserLocks) Lock(userID int64) *sync.Mutex {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock
}
