package game

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dutch/internal/model"
)

// CreateRoom opens a room hosted by playerID and returns its code.
func (m *Manager) CreateRoom(playerID, name string, maxPlayers int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if maxPlayers < 2 || maxPlayers > m.maxPlayers {
		return "", ErrInvalidMaxPlayers
	}

	var room *model.Room
	for i := 0; i < codeAttempts; i++ {
		r := &model.Room{
			ID:         uuid.NewString(),
			Code:       NewRoomCode(m.rng),
			HostID:     playerID,
			MaxPlayers: maxPlayers,
			Players:    []*model.Player{{ID: playerID, Name: name, Connected: true}},
		}
		err := m.rooms.Create(r)
		if errors.Is(err, errRoomCodeExists) {
			continue
		}
		if err != nil {
			return "", err
		}
		room = r
		break
	}
	if room == nil {
		return "", ErrCodeExhausted
	}

	m.log.Info("room created", zap.String("room", room.Code), zap.String("player", playerID), zap.Int("maxPlayers", maxPlayers))
	room.Mutex.Lock()
	m.broadcastRoom(room)
	room.Mutex.Unlock()
	m.BroadcastRoomList()
	return room.Code, nil
}

// JoinRoom seats playerID in an existing room that has no round running.
func (m *Manager) JoinRoom(playerID, code, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	r, ok := m.rooms.Get(code)
	if !ok {
		return ErrRoomNotFound
	}

	r.Mutex.Lock()
	err := func() error {
		if !m.live(r) {
			return ErrRoomNotFound
		}
		if _, err := activeRound(r); err == nil {
			return ErrRoundInProgress
		}
		if seatOf(r, playerID) >= 0 {
			return ErrAlreadySeated
		}
		// offline seats from the last round are released at the next start
		if len(connectedSeats(r)) >= r.MaxPlayers {
			return ErrRoomFull
		}
		r.Players = append(r.Players, &model.Player{ID: playerID, Name: name, Connected: true})
		m.broadcastInfo(r, name+" joined the room")
		m.broadcastRoom(r)
		return nil
	}()
	r.Mutex.Unlock()
	if err != nil {
		m.reject(code, playerID, model.ActionJoinRoom, err)
		return err
	}
	m.log.Info("player joined", zap.String("room", code), zap.String("player", playerID))
	m.BroadcastRoomList()
	return nil
}

// LeaveRoom takes playerID out of the room. During a round the seat and its
// hand stay in place and the player is only marked offline.
func (m *Manager) LeaveRoom(playerID, code string) error {
	err := m.withSeat(code, playerID, model.ActionLeaveRoom, func(r *model.Room, idx int) error {
		m.vacate(r, idx)
		return nil
	})
	if err == nil {
		m.BroadcastRoomList()
	}
	return err
}

// Disconnect is LeaveRoom for a dropped connection; there is nobody left to
// report an error to.
func (m *Manager) Disconnect(playerID, code string) {
	if code == "" {
		return
	}
	_ = m.LeaveRoom(playerID, code)
}

// CloseRoom lets the host dissolve the room.
func (m *Manager) CloseRoom(playerID, code string) error {
	err := m.withSeat(code, playerID, model.ActionCloseRoom, func(r *model.Room, idx int) error {
		if r.HostID != playerID {
			return ErrNotHost
		}
		for _, p := range r.Players {
			if p.Connected {
				m.notify.Send(p.ID, model.Message{Type: model.EventRoomClosed, Payload: r.Code})
			}
		}
		m.deleteRoom(r)
		return nil
	})
	if err == nil {
		m.BroadcastRoomList()
	}
	return err
}

// StartRound deals a new round. Only the host may start one.
func (m *Manager) StartRound(playerID, code string) error {
	err := m.withSeat(code, playerID, model.ActionStartRound, func(r *model.Room, idx int) error {
		if r.HostID != playerID {
			return ErrNotHost
		}
		if _, err := activeRound(r); err == nil {
			return ErrRoundInProgress
		}
		// seats kept for players who dropped mid-round are released now
		seated := connectedSeats(r)
		if len(seated) < 2 {
			return ErrTooFewPlayers
		}
		all := r.Players
		r.Players = seated
		if err := StartRound(r, m.rules, m.rng); err != nil {
			r.Players = all
			return err
		}
		m.log.Info("round started", zap.String("room", r.Code), zap.Int("round", r.Round.Number), zap.Int("players", len(r.Players)))
		m.broadcastRoom(r)
		return nil
	})
	if err == nil {
		m.BroadcastRoomList()
	}
	return err
}

func (m *Manager) Peek(playerID, code string, cardIdx int) error {
	return m.withSeat(code, playerID, model.ActionPeek, func(r *model.Room, idx int) error {
		c, err := Peek(r, idx, cardIdx)
		if err != nil {
			return err
		}
		m.notify.Send(playerID, model.Message{Type: model.EventReveal, Payload: model.RevealPayload{
			PlayerIndex: idx, CardIndex: cardIdx, Card: c, Source: "peek",
		}})
		m.scheduleHide(r, playerID, c.InstanceID, m.peekReveal)
		m.broadcastRound(r)
		return nil
	})
}

func (m *Manager) Draw(playerID, code string, fromDiscard bool) error {
	return m.withSeat(code, playerID, model.ActionDraw, func(r *model.Room, idx int) error {
		if _, err := Draw(r, idx, fromDiscard); err != nil {
			return err
		}
		m.broadcastRound(r)
		return nil
	})
}

func (m *Manager) Swap(playerID, code string, slotIdx int) error {
	return m.withSeat(code, playerID, model.ActionSwap, func(r *model.Room, idx int) error {
		res, err := Swap(r, idx, slotIdx)
		if err != nil {
			return err
		}
		if res.Removed {
			m.broadcastInfo(r, r.Players[idx].Name+" swapped a double and discarded it")
		}
		m.broadcastRound(r)
		return nil
	})
}

func (m *Manager) PowerSelect(playerID, code string, t model.Target) error {
	return m.withSeat(code, playerID, model.ActionPowerSelect, func(r *model.Room, idx int) error {
		res, err := PowerSelect(r, idx, t)
		if err != nil {
			return err
		}
		if res.Revealed != nil {
			m.notify.Send(playerID, model.Message{Type: model.EventReveal, Payload: model.RevealPayload{
				PlayerIndex: t.PlayerIndex, CardIndex: t.CardIndex, Card: *res.Revealed, Source: "queen",
			}})
			m.scheduleHide(r, r.Players[t.PlayerIndex].ID, res.Revealed.InstanceID, m.queenReveal)
		}
		m.broadcastRound(r)
		return nil
	})
}

func (m *Manager) DiscardMatch(playerID, code string, slotIdx int) error {
	return m.withSeat(code, playerID, model.ActionDiscardMatch, func(r *model.Room, idx int) error {
		res, err := DiscardMatch(r, idx, slotIdx)
		if err != nil {
			return err
		}
		name := r.Players[idx].Name
		if res.Matched {
			m.broadcastInfo(r, name+" matched the discard pile")
		} else {
			m.broadcastInfo(r, name+" missed a match and takes a penalty card")
		}
		m.broadcastRound(r)
		return nil
	})
}

func (m *Manager) CallDutch(playerID, code string) error {
	return m.withSeat(code, playerID, model.ActionCallDutch, func(r *model.Room, idx int) error {
		if err := CallDutch(r, idx); err != nil {
			return err
		}
		m.log.Info("dutch called", zap.String("room", r.Code), zap.String("player", playerID))
		m.broadcastInfo(r, r.Players[idx].Name+" called Dutch!")
		m.broadcastRound(r)
		return nil
	})
}

func (m *Manager) EndTurn(playerID, code string) error {
	var results []model.RoundResult
	var recipients []string
	var roomID string
	err := m.withSeat(code, playerID, model.ActionEndTurn, func(r *model.Room, idx int) error {
		ended, err := EndTurn(r, idx, m.rules)
		if err != nil {
			return err
		}
		if !ended {
			m.broadcastRound(r)
			return nil
		}
		m.timers.dropRoom(r.Code)
		m.broadcastRoom(r)
		roomID = r.ID
		summary := RoundEndedOf(r)
		for _, p := range r.Players {
			if p.Connected {
				m.notify.Send(p.ID, model.Message{Type: model.EventRoundEnded, Payload: summary})
				recipients = append(recipients, p.ID)
			}
			results = append(results, model.RoundResult{
				RoomID: r.ID, RoomCode: r.Code, Round: r.Round.Number, PlayerID: p.ID, PlayerName: p.Name, Score: p.RoundScore,
			})
		}
		m.log.Info("round ended", zap.String("room", r.Code), zap.Int("round", r.Round.Number))
		return nil
	})
	if err != nil || results == nil {
		return err
	}
	m.recordRound(roomID, code, results, recipients)
	m.BroadcastRoomList()
	return nil
}

// vacate handles a player leaving. r is locked.
func (m *Manager) vacate(r *model.Room, idx int) {
	p := r.Players[idx]
	if _, err := activeRound(r); err == nil {
		p.Connected = false
		m.broadcastInfo(r, p.Name+" left the game (hand kept)")
	} else {
		r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
		m.broadcastInfo(r, p.Name+" left the room")
	}
	m.log.Info("player left", zap.String("room", r.Code), zap.String("player", p.ID))

	connected := 0
	for _, q := range r.Players {
		if q.Connected {
			connected++
		}
	}
	if connected == 0 {
		m.deleteRoom(r)
		return
	}
	if r.HostID == p.ID {
		for _, q := range r.Players {
			if q.Connected {
				r.HostID = q.ID
				m.broadcastInfo(r, "host left, "+q.Name+" is the new host")
				break
			}
		}
	}
	m.broadcastRoom(r)
}

func (m *Manager) deleteRoom(r *model.Room) {
	m.rooms.Delete(r.Code)
	m.timers.dropRoom(r.Code)
	m.log.Info("room deleted", zap.String("room", r.Code))
}

func connectedSeats(r *model.Room) []*model.Player {
	seated := make([]*model.Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Connected {
			seated = append(seated, p)
		}
	}
	return seated
}
