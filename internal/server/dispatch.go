package server

import (
	"strings"

	"dutch/internal/game"
	"dutch/internal/model"
)

// session is the per-connection state: who the socket is and which room it
// sits in.
type session struct {
	playerID string
	roomCode string
}

type actionFunc func(h *Handler, c *client, s *session, a model.Action) error

var actions = map[model.ActionType]actionFunc{
	model.ActionCreateRoom:   createRoom,
	model.ActionJoinRoom:     joinRoom,
	model.ActionLeaveRoom:    leaveRoom,
	model.ActionCloseRoom:    closeRoom,
	model.ActionStartRound:   inRoom(func(m *game.Manager, s *session, a model.Action) error { return m.StartRound(s.playerID, s.roomCode) }),
	model.ActionPeek:         inRoom(withCard((*game.Manager).Peek)),
	model.ActionDraw:         inRoom(func(m *game.Manager, s *session, a model.Action) error { return m.Draw(s.playerID, s.roomCode, a.FromDiscard) }),
	model.ActionSwap:         inRoom(withCard((*game.Manager).Swap)),
	model.ActionDiscardMatch: inRoom(withCard((*game.Manager).DiscardMatch)),
	model.ActionEndTurn:      inRoom(func(m *game.Manager, s *session, a model.Action) error { return m.EndTurn(s.playerID, s.roomCode) }),
	model.ActionCallDutch:    inRoom(func(m *game.Manager, s *session, a model.Action) error { return m.CallDutch(s.playerID, s.roomCode) }),
	model.ActionPowerSelect:  inRoom(powerSelect),
}

func powerSelect(m *game.Manager, s *session, a model.Action) error {
	if a.PlayerIndex == nil || a.CardIndex == nil {
		return game.ErrMalformed
	}
	return m.PowerSelect(s.playerID, s.roomCode, model.Target{PlayerIndex: *a.PlayerIndex, CardIndex: *a.CardIndex})
}

// withCard adapts a slot action; an absent cardIndex is malformed rather
// than slot 0.
func withCard(fn func(m *game.Manager, playerID, code string, cardIdx int) error) func(m *game.Manager, s *session, a model.Action) error {
	return func(m *game.Manager, s *session, a model.Action) error {
		if a.CardIndex == nil {
			return game.ErrMalformed
		}
		return fn(m, s.playerID, s.roomCode, *a.CardIndex)
	}
}

func (h *Handler) dispatch(c *client, s *session, a model.Action) error {
	fn, ok := actions[a.Type]
	if !ok {
		return game.ErrUnknownAction
	}
	return fn(h, c, s, a)
}

// inRoom wraps a room action that needs the session to be seated.
func inRoom(fn func(m *game.Manager, s *session, a model.Action) error) actionFunc {
	return func(h *Handler, c *client, s *session, a model.Action) error {
		if s.roomCode == "" {
			return game.ErrNotSeated
		}
		return fn(h.Manager, s, a)
	}
}

// seated reports whether the session still holds a seat; the room may have
// been closed or the seat dropped since the session last acted.
func (h *Handler) seated(s *session) bool {
	if s.roomCode == "" {
		return false
	}
	if h.Manager.Seated(s.playerID, s.roomCode) {
		return true
	}
	s.roomCode = ""
	return false
}

func createRoom(h *Handler, c *client, s *session, a model.Action) error {
	if h.seated(s) {
		return game.ErrAlreadySeated
	}
	code, err := h.Manager.CreateRoom(s.playerID, a.PlayerName, a.MaxPlayers)
	if err != nil {
		return err
	}
	s.roomCode = code
	c.writeJSON(model.Message{Type: model.EventIdentity, Payload: model.IdentityPayload{PlayerID: s.playerID, RoomCode: code}})
	return nil
}

func joinRoom(h *Handler, c *client, s *session, a model.Action) error {
	if h.seated(s) {
		return game.ErrAlreadySeated
	}
	code := strings.ToUpper(strings.TrimSpace(a.RoomCode))
	if err := h.Manager.JoinRoom(s.playerID, code, a.PlayerName); err != nil {
		return err
	}
	s.roomCode = code
	c.writeJSON(model.Message{Type: model.EventIdentity, Payload: model.IdentityPayload{PlayerID: s.playerID, RoomCode: code}})
	return nil
}

func leaveRoom(h *Handler, c *client, s *session, a model.Action) error {
	if s.roomCode == "" {
		return game.ErrNotSeated
	}
	err := h.Manager.LeaveRoom(s.playerID, s.roomCode)
	s.roomCode = ""
	return err
}

func closeRoom(h *Handler, c *client, s *session, a model.Action) error {
	if s.roomCode == "" {
		return game.ErrNotSeated
	}
	if err := h.Manager.CloseRoom(s.playerID, s.roomCode); err != nil {
		return err
	}
	s.roomCode = ""
	return nil
}
