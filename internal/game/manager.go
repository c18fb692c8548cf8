package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dutch/internal/model"
)

const codeAttempts = 32

// Notifier delivers outbound messages. Send must not block: it is called
// while a room is locked.
type Notifier interface {
	Send(playerID string, msg model.Message)
	Lobby(msg model.Message)
}

// ResultStore keeps the history of scored rounds.
type ResultStore interface {
	RecordRoundResults(ctx context.Context, results []model.RoundResult) error
	GetRoomStats(ctx context.Context, roomID string) ([]model.PlayerStat, error)
}

type Options struct {
	Rules       Rules
	PeekReveal  time.Duration
	QueenReveal time.Duration
	MaxPlayers  int
	Source      Source
	Scheduler   Scheduler
	Store       ResultStore
	Logger      *zap.Logger
}

// Manager is the room/session orchestrator. All actions on one room are
// serialized by that room's mutex; different rooms run in parallel.
type Manager struct {
	rooms       Registry
	notify      Notifier
	store       ResultStore
	rng         Source
	sched       Scheduler
	timers      *revealTimers
	rules       Rules
	peekReveal  time.Duration
	queenReveal time.Duration
	maxPlayers  int
	log         *zap.Logger
}

func NewManager(rooms Registry, notify Notifier, opts Options) *Manager {
	m := &Manager{
		rooms:       rooms,
		notify:      notify,
		store:       opts.Store,
		rng:         opts.Source,
		sched:       opts.Scheduler,
		timers:      newRevealTimers(),
		rules:       opts.Rules,
		peekReveal:  opts.PeekReveal,
		queenReveal: opts.QueenReveal,
		maxPlayers:  opts.MaxPlayers,
		log:         opts.Logger,
	}
	if m.rng == nil {
		m.rng = NewSource()
	}
	if m.sched == nil {
		m.sched = NewTimerScheduler()
	}
	if m.peekReveal <= 0 {
		m.peekReveal = 2 * time.Second
	}
	if m.queenReveal <= 0 {
		m.queenReveal = 3 * time.Second
	}
	if m.maxPlayers < 2 {
		m.maxPlayers = 8
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m
}

// Rooms lists the live rooms.
func (m *Manager) Rooms() []model.RoomSummary {
	list := make([]model.RoomSummary, 0)
	for _, r := range m.rooms.List() {
		r.Mutex.Lock()
		list = append(list, SummaryOf(r))
		r.Mutex.Unlock()
	}
	return list
}

// Exists reports whether a room with this code is open. It does not take
// the room lock.
func (m *Manager) Exists(code string) bool {
	_, ok := m.rooms.Get(code)
	return ok
}

// Stats returns the round history aggregates of the open room with this
// code. A code reused by a later room does not see the earlier room's rounds.
func (m *Manager) Stats(ctx context.Context, code string) ([]model.PlayerStat, error) {
	r, ok := m.rooms.Get(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if m.store == nil {
		return []model.PlayerStat{}, nil
	}
	return m.store.GetRoomStats(ctx, r.ID)
}

// Seated reports whether playerID still holds a seat in room code.
func (m *Manager) Seated(playerID, code string) bool {
	r, ok := m.rooms.Get(code)
	if !ok {
		return false
	}
	r.Mutex.Lock()
	defer r.Mutex.Unlock()
	return seatOf(r, playerID) >= 0
}

// withSeat runs fn with the room locked and the caller's seat resolved.
// A rejected action is reported only to the caller.
func (m *Manager) withSeat(code, playerID string, action model.ActionType, fn func(r *model.Room, idx int) error) error {
	r, ok := m.rooms.Get(code)
	if !ok {
		m.reject(code, playerID, action, ErrRoomNotFound)
		return ErrRoomNotFound
	}
	r.Mutex.Lock()
	defer r.Mutex.Unlock()
	if !m.live(r) {
		m.reject(code, playerID, action, ErrRoomNotFound)
		return ErrRoomNotFound
	}
	idx := seatOf(r, playerID)
	if idx < 0 {
		m.reject(code, playerID, action, ErrNotSeated)
		return ErrNotSeated
	}
	if err := fn(r, idx); err != nil {
		m.reject(code, playerID, action, err)
		return err
	}
	return nil
}

// live reports whether r is still registered; a room deleted while the
// caller waited for its lock must not be mutated.
func (m *Manager) live(r *model.Room) bool {
	cur, ok := m.rooms.Get(r.Code)
	return ok && cur == r
}

func (m *Manager) reject(code, playerID string, action model.ActionType, err error) {
	m.log.Debug("action rejected",
		zap.String("room", code),
		zap.String("player", playerID),
		zap.String("action", string(action)),
		zap.Error(err))
}

func (m *Manager) scheduleHide(r *model.Room, ownerID, instanceID string, d time.Duration) {
	code, round := r.Code, r.Round.Number
	key := revealKey{room: code, round: round, playerID: ownerID, instanceID: instanceID}
	m.timers.schedule(m.sched, key, d, func() {
		room, ok := m.rooms.Get(code)
		if !ok {
			return
		}
		room.Mutex.Lock()
		defer room.Mutex.Unlock()
		if HideReveal(room, round, ownerID, instanceID) {
			m.broadcastRound(room)
		}
	})
}

func (m *Manager) recordRound(roomID, code string, results []model.RoundResult, recipients []string) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.RecordRoundResults(ctx, results); err != nil {
		m.log.Error("record round results", zap.String("room", code), zap.Error(err))
		return
	}
	stats, err := m.store.GetRoomStats(ctx, roomID)
	if err != nil {
		m.log.Error("load room stats", zap.String("room", code), zap.Error(err))
		return
	}
	for _, id := range recipients {
		m.notify.Send(id, model.Message{Type: model.EventStats, Payload: stats})
	}
}

func seatOf(r *model.Room, playerID string) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}
