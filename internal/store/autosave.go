package store

import (
	"log"
	"sync"
)

// DefaultKeep is how many snapshots Autosaver retains.
const DefaultKeep = 20

// Autosaver writes grid snapshots off the caller's goroutine. Only the
// latest pending grid is kept; older pending saves are replaced.
type Autosaver struct {
	repo *SnapshotRepository
	keep int

	mu      sync.Mutex
	pending [][]string
	has     bool
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// NewAutosaver starts the background writer.
func NewAutosaver(repo *SnapshotRepository, keep int) *Autosaver {
	if keep <= 0 {
		keep = DefaultKeep
	}
	a := &Autosaver{
		repo: repo,
		keep: keep,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

// Save queues data for writing. It never blocks on the database.
func (a *Autosaver) Save(data [][]string) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.pending, a.has = data, true
	select {
	case a.wake <- struct{}{}:
	default:
	}
	a.mu.Unlock()
}

// Close flushes any pending save and stops the writer.
func (a *Autosaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.wake)
	a.mu.Unlock()

	<-a.done
}

func (a *Autosaver) run() {
	defer close(a.done)
	for range a.wake {
		a.flush()
	}
	a.flush()
}

func (a *Autosaver) flush() {
	a.mu.Lock()
	data, ok := a.pending, a.has
	a.pending, a.has = nil, false
	a.mu.Unlock()
	if !ok {
		return
	}

	if err := a.repo.Create(&Snapshot{Data: data}); err != nil {
		log.Printf("[store] autosave failed: %v", err)
		return
	}
	if err := a.repo.Prune(a.keep); err != nil {
		log.Printf("[store] prune snapshots failed: %v", err)
	}
}
