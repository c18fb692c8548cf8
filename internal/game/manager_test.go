package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"dutch/internal/model"
)

type fakeNotifier struct {
	mu    sync.Mutex
	sent  map[string][]model.Message
	lobby []model.Message
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[string][]model.Message)}
}

func (f *fakeNotifier) Send(playerID string, msg model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[playerID] = append(f.sent[playerID], msg)
}

func (f *fakeNotifier) Lobby(msg model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lobby = append(f.lobby, msg)
}

func (f *fakeNotifier) count(playerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent[playerID])
}

// last returns the most recent message of type et sent to playerID.
func (f *fakeNotifier) last(playerID string, et model.EventType) (model.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.sent[playerID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == et {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

// manualScheduler runs scheduled funcs only when fire is called.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	d         time.Duration
	fn        func()
	cancelled bool
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{d: d, fn: fn}
	s.tasks = append(s.tasks, task)
	return func() {
		s.mu.Lock()
		task.cancelled = true
		s.mu.Unlock()
	}
}

func (s *manualScheduler) fire() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, task := range tasks {
		s.mu.Lock()
		cancelled := task.cancelled
		s.mu.Unlock()
		if !cancelled {
			task.fn()
		}
	}
}

type fakeStore struct {
	mu      sync.Mutex
	results []model.RoundResult
}

func (s *fakeStore) RecordRoundResults(ctx context.Context, results []model.RoundResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, results...)
	return nil
}

func (s *fakeStore) GetRoomStats(ctx context.Context, roomID string) ([]model.PlayerStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName := map[string]*model.PlayerStat{}
	var out []model.PlayerStat
	for _, r := range s.results {
		if r.RoomID != roomID {
			continue
		}
		if byName[r.PlayerName] == nil {
			byName[r.PlayerName] = &model.PlayerStat{Name: r.PlayerName}
		}
		byName[r.PlayerName].RoundsPlayed++
		byName[r.PlayerName].TotalScore += r.Score
	}
	for _, st := range byName {
		out = append(out, *st)
	}
	return out, nil
}

type testEnv struct {
	m     *Manager
	reg   *MemoryRegistry
	note  *fakeNotifier
	sched *manualScheduler
	store *fakeStore
}

func newTestEnv() *testEnv {
	env := &testEnv{
		reg:   NewMemoryRegistry(),
		note:  newFakeNotifier(),
		sched: &manualScheduler{},
		store: &fakeStore{},
	}
	env.m = NewManager(env.reg, env.note, Options{
		Rules:     DefaultRules(),
		Source:    NewSeededSource(9),
		Scheduler: env.sched,
		Store:     env.store,
	})
	return env
}

// twoSeats opens a room hosted by "host" with "guest" joined.
func (e *testEnv) twoSeats(t *testing.T, maxPlayers int) string {
	t.Helper()
	code, err := e.m.CreateRoom("host", "Alice", maxPlayers)
	mustOK(t, err)
	mustOK(t, e.m.JoinRoom("guest", code, "Bob"))
	return code
}

func (e *testEnv) room(t *testing.T, code string) *model.Room {
	t.Helper()
	r, ok := e.reg.Get(code)
	if !ok {
		t.Fatalf("room %s not registered", code)
	}
	return r
}

func TestCreateAndJoinRoom(t *testing.T) {
	env := newTestEnv()

	_, err := env.m.CreateRoom("host", "  ", 4)
	mustErr(t, err, ErrInvalidName)
	_, err = env.m.CreateRoom("host", "Alice", 1)
	mustErr(t, err, ErrInvalidMaxPlayers)
	_, err = env.m.CreateRoom("host", "Alice", 9)
	mustErr(t, err, ErrInvalidMaxPlayers)

	code := env.twoSeats(t, 2)
	if len(code) != codeLength {
		t.Fatalf("room code %q", code)
	}
	mustErr(t, env.m.JoinRoom("guest", code, "Bob"), ErrAlreadySeated)
	mustErr(t, env.m.JoinRoom("third", code, "Carol"), ErrRoomFull)
	mustErr(t, env.m.JoinRoom("third", "NOPE00", "Carol"), ErrRoomNotFound)

	msg, ok := env.note.last("host", model.EventRoomState)
	if !ok {
		t.Fatal("host got no room_state")
	}
	view := msg.Payload.(model.RoomView)
	if len(view.Players) != 2 || view.HostID != "host" || !view.Players[0].IsHost {
		t.Fatalf("unexpected roster %+v", view)
	}
	if len(env.note.lobby) == 0 {
		t.Fatal("lobby was not told about the room")
	}
	rooms := env.m.Rooms()
	if len(rooms) != 1 || rooms[0].PlayerCount != 2 || rooms[0].HostName != "Alice" {
		t.Fatalf("unexpected room list %+v", rooms)
	}
}

func TestStartRoundHostOnly(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 3)

	mustErr(t, env.m.StartRound("guest", code), ErrNotHost)
	mustErr(t, env.m.StartRound("stranger", code), ErrNotSeated)
	mustOK(t, env.m.StartRound("host", code))
	mustErr(t, env.m.JoinRoom("third", code, "Carol"), ErrRoundInProgress)

	for _, id := range []string{"host", "guest"} {
		msg, ok := env.note.last(id, model.EventRoundState)
		if !ok {
			t.Fatalf("%s got no round_state", id)
		}
		v := msg.Payload.(model.RoundView)
		if v.Phase != model.PhasePeek || v.DrawPileCount != 95 || v.DiscardTop == nil {
			t.Fatalf("%s sees %+v", id, v)
		}
		for _, seat := range v.Seats {
			for _, s := range seat.Hand {
				if s.Card != nil {
					t.Fatalf("%s sees a face-down card before any peek", id)
				}
			}
		}
	}
}

func TestPeekRevealIsPrivateAndExpires(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 2)
	mustOK(t, env.m.StartRound("host", code))

	guestBefore := env.note.count("guest")
	mustErr(t, env.m.Peek("guest", code, 0), ErrNotYourTurn)
	if env.note.count("guest") != guestBefore {
		t.Fatal("a rejected action was broadcast")
	}

	mustOK(t, env.m.Peek("host", code, 0))
	reveal, ok := env.note.last("host", model.EventReveal)
	if !ok {
		t.Fatal("host got no reveal")
	}
	peeked := reveal.Payload.(model.RevealPayload).Card
	if _, ok := env.note.last("guest", model.EventReveal); ok {
		t.Fatal("guest received the host's reveal")
	}

	hostView := env.note.mustRound(t, "host")
	if c := hostView.Seats[0].Hand[0].Card; c == nil || *c != peeked {
		t.Fatalf("host view slot 0 = %v, want %v", c, peeked)
	}
	guestView := env.note.mustRound(t, "guest")
	if guestView.Seats[0].Hand[0].Card != nil {
		t.Fatal("guest can see the host's peeked card")
	}

	env.sched.fire()
	hostView = env.note.mustRound(t, "host")
	if hostView.Seats[0].Hand[0].Card != nil {
		t.Fatal("peeked card still visible after the reveal window")
	}
}

func (f *fakeNotifier) mustRound(t *testing.T, playerID string) model.RoundView {
	t.Helper()
	msg, ok := f.last(playerID, model.EventRoundState)
	if !ok {
		t.Fatalf("%s got no round_state", playerID)
	}
	return msg.Payload.(model.RoundView)
}

func TestDrawnCardOnlyVisibleToDrawer(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 2)
	mustOK(t, env.m.StartRound("host", code))
	env.room(t, code).Round.Phase = model.PhaseDraw

	mustOK(t, env.m.Draw("host", code, false))
	if v := env.note.mustRound(t, "host"); v.DrawnCard == nil || !v.HasDrawnCard {
		t.Fatal("drawer cannot see the drawn card")
	}
	if v := env.note.mustRound(t, "guest"); v.DrawnCard != nil || !v.HasDrawnCard {
		t.Fatalf("guest view of drawn card: %+v", v.DrawnCard)
	}
}

func TestLeaveReassignsHostAndDeletesEmptyRoom(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 4)

	mustOK(t, env.m.LeaveRoom("host", code))
	r := env.room(t, code)
	if r.HostID != "guest" || len(r.Players) != 1 {
		t.Fatalf("host %s players %d", r.HostID, len(r.Players))
	}
	mustErr(t, env.m.LeaveRoom("host", code), ErrNotSeated)

	mustOK(t, env.m.LeaveRoom("guest", code))
	if _, ok := env.reg.Get(code); ok {
		t.Fatal("empty room was not deleted")
	}
	if len(env.m.Rooms()) != 0 {
		t.Fatal("room list not empty")
	}
}

func TestDisconnectMidRoundKeepsSeat(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 2)
	mustOK(t, env.m.StartRound("host", code))
	env.room(t, code).Round.Phase = model.PhaseDraw
	env.room(t, code).Round.CurrentPlayerIndex = 1

	env.m.Disconnect("guest", code)
	r := env.room(t, code)
	if len(r.Players) != 2 || r.Players[1].Connected {
		t.Fatalf("seat not kept: %+v", r.Players[1])
	}
	if v := env.note.mustRound(t, "host"); v.WaitingOn != "Bob" {
		t.Fatalf("waitingOn %q", v.WaitingOn)
	}
	if !env.m.Seated("guest", code) {
		t.Fatal("disconnected player lost the seat")
	}

	env.m.Disconnect("host", code)
	if _, ok := env.reg.Get(code); ok {
		t.Fatal("room with nobody connected was kept")
	}
}

func TestCloseRoom(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 2)

	mustErr(t, env.m.CloseRoom("guest", code), ErrNotHost)
	mustOK(t, env.m.CloseRoom("host", code))
	for _, id := range []string{"host", "guest"} {
		if _, ok := env.note.last(id, model.EventRoomClosed); !ok {
			t.Fatalf("%s was not told the room closed", id)
		}
	}
	if _, ok := env.reg.Get(code); ok {
		t.Fatal("closed room still registered")
	}
	mustErr(t, env.m.Peek("host", code, 0), ErrRoomNotFound)
}

func TestRoundEndRecordsResults(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 2)
	mustOK(t, env.m.StartRound("host", code))
	env.room(t, code).Round.Phase = model.PhaseDraw

	mustOK(t, env.m.CallDutch("host", code))
	mustOK(t, env.m.EndTurn("host", code))
	mustOK(t, env.m.EndTurn("guest", code))

	msg, ok := env.note.last("guest", model.EventRoundEnded)
	if !ok {
		t.Fatal("guest got no round_ended")
	}
	ended := msg.Payload.(model.RoundEndedPayload)
	if len(ended.Scores) != 2 || ended.DutchCallerIndex != 0 {
		t.Fatalf("unexpected summary %+v", ended)
	}
	if len(env.store.results) != 2 || env.store.results[0].RoomCode != code || env.store.results[0].RoomID != env.room(t, code).ID {
		t.Fatalf("recorded %+v", env.store.results)
	}
	if _, ok := env.note.last("host", model.EventStats); !ok {
		t.Fatal("host got no stats after the round")
	}
	v := env.note.mustRound(t, "guest")
	if v.Phase != model.PhaseEnded {
		t.Fatalf("phase %s", v.Phase)
	}
	for _, seat := range v.Seats {
		for _, s := range seat.Hand {
			if s.Card == nil {
				t.Fatal("hands are not public after scoring")
			}
		}
	}

	stats, err := env.m.Stats(context.Background(), code)
	mustOK(t, err)
	if len(stats) != 2 {
		t.Fatalf("stats %+v", stats)
	}

	mustOK(t, env.m.StartRound("host", code))
	if env.room(t, code).Round.Number != 2 {
		t.Fatal("next round was not numbered 2")
	}
}

func TestNextRoundReleasesOfflineSeats(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 3)
	mustOK(t, env.m.JoinRoom("third", code, "Carol"))
	mustOK(t, env.m.StartRound("host", code))

	env.m.Disconnect("third", code)
	r := env.room(t, code)
	if len(r.Players) != 3 {
		t.Fatal("seat released during the round")
	}
	r.Round.Phase = model.PhaseEnded

	mustOK(t, env.m.StartRound("host", code))
	if len(r.Players) != 2 || len(r.Round.DrawPile) != 104-8-1 {
		t.Fatalf("players %d draw pile %d", len(r.Players), len(r.Round.DrawPile))
	}
}

func TestOfflineSeatDoesNotBlockJoinOrStart(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 2)
	mustOK(t, env.m.StartRound("host", code))
	env.m.Disconnect("guest", code)
	r := env.room(t, code)
	r.Round.Phase = model.PhaseEnded

	// host alone: the start is rejected and the roster is left as it was
	mustErr(t, env.m.StartRound("host", code), ErrTooFewPlayers)
	if len(r.Players) != 2 {
		t.Fatalf("rejected start changed the roster to %d seats", len(r.Players))
	}

	mustOK(t, env.m.JoinRoom("newbie", code, "Dana"))
	if rooms := env.m.Rooms(); rooms[0].PlayerCount != 2 {
		t.Fatalf("room list counts %d players", rooms[0].PlayerCount)
	}
	mustOK(t, env.m.StartRound("host", code))
	if len(r.Players) != 2 || r.Players[1].ID != "newbie" {
		t.Fatalf("unexpected seats after start: %d", len(r.Players))
	}
}

func TestExists(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 2)
	if !env.m.Exists(code) {
		t.Fatal("open room reported missing")
	}
	if env.m.Exists("ZZZZZZ") {
		t.Fatal("unknown code reported open")
	}
	mustOK(t, env.m.CloseRoom("host", code))
	if env.m.Exists(code) {
		t.Fatal("closed room reported open")
	}
}

func TestStatsDoNotCarryOverToReusedCode(t *testing.T) {
	env := newTestEnv()
	code := env.twoSeats(t, 2)
	old := env.room(t, code).ID
	env.store.results = append(env.store.results,
		model.RoundResult{RoomID: old, RoomCode: code, Round: 1, PlayerID: "host", PlayerName: "Alice", Score: 7})
	mustOK(t, env.m.CloseRoom("host", code))

	_, err := env.m.Stats(context.Background(), code)
	mustErr(t, err, ErrRoomNotFound)

	// a later room that draws the same code starts with an empty history
	r := &model.Room{ID: "fresh", Code: code, HostID: "x", MaxPlayers: 2,
		Players: []*model.Player{{ID: "x", Name: "Xena", Connected: true}}}
	mustOK(t, env.reg.Create(r))
	stats, err := env.m.Stats(context.Background(), code)
	mustOK(t, err)
	if len(stats) != 0 {
		t.Fatalf("reused code inherited %+v", stats)
	}
}
