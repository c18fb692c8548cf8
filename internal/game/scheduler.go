package game

import (
	"sync"
	"time"
)

// Scheduler runs fn after d. The returned func cancels it if it has not run.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

type timerScheduler struct{}

// NewTimerScheduler schedules with time.AfterFunc.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// revealKey identifies one pending auto-hide.
type revealKey struct {
	room       string
	round      int
	playerID   string
	instanceID string
}

type pendingHide struct {
	id     uint64
	cancel func()
}

// revealTimers keeps at most one pending hide per key so a re-reveal of the
// same card restarts its countdown.
type revealTimers struct {
	mu      sync.Mutex
	next    uint64
	pending map[revealKey]pendingHide
}

func newRevealTimers() *revealTimers {
	return &revealTimers{pending: make(map[revealKey]pendingHide)}
}

func (t *revealTimers) schedule(s Scheduler, key revealKey, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.pending[key]; ok {
		p.cancel()
	}
	t.next++
	id := t.next
	cancel := s.Schedule(d, func() {
		t.mu.Lock()
		p, ok := t.pending[key]
		if !ok || p.id != id {
			t.mu.Unlock()
			return
		}
		delete(t.pending, key)
		t.mu.Unlock()
		fn()
	})
	t.pending[key] = pendingHide{id: id, cancel: cancel}
}

// dropRoom cancels every pending hide for a room.
func (t *revealTimers) dropRoom(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, p := range t.pending {
		if k.room == code {
			p.cancel()
			delete(t.pending, k)
		}
	}
}
