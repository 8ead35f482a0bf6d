package services

import (
	"context"
	"sync"
)

// TableLocks serializes work per table number. Different tables never wait on
// each other, and entries are dropped once nobody holds or waits for them.
type TableLocks struct {
	mu     sync.Mutex
	tables map[int]*tableLock
}

type tableLock struct {
	sem  chan struct{}
	refs int
}

func NewTableLocks() *TableLocks {
	return &TableLocks{tables: make(map[int]*tableLock)}
}

// Lock blocks until the table is free or ctx is done. The returned func
// releases the lock and may be called more than once.
func (l *TableLocks) Lock(ctx context.Context, tableNumber int) (func(), error) {
	l.mu.Lock()
	tl, ok := l.tables[tableNumber]
	if !ok {
		tl = &tableLock{sem: make(chan struct{}, 1)}
		l.tables[tableNumber] = tl
	}
	tl.refs++
	l.mu.Unlock()

	select {
	case tl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(tableNumber, tl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-tl.sem
			l.release(tableNumber, tl)
		})
	}, nil
}

func (l *TableLocks) release(tableNumber int, tl *tableLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tl.refs--
	if tl.refs == 0 {
		delete(l.tables, tableNumber)
	}
}

func (l *TableLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tables)
}
