package game

import (
	"dutch/internal/model"
)

// BroadcastRoomList pushes the room list to lobby watchers.
func (m *Manager) BroadcastRoomList() {
	m.notify.Lobby(model.Message{Type: model.EventRoomList, Payload: m.Rooms()})
}

// broadcastRoom sends the roster and, if a round exists, each player's view of it.
func (m *Manager) broadcastRoom(r *model.Room) {
	view := RoomViewOf(r)
	for _, p := range r.Players {
		if p.Connected {
			m.notify.Send(p.ID, model.Message{Type: model.EventRoomState, Payload: view})
		}
	}
	if r.Round != nil {
		m.broadcastRound(r)
	}
}

func (m *Manager) broadcastRound(r *model.Room) {
	for _, p := range r.Players {
		if p.Connected {
			m.notify.Send(p.ID, model.Message{Type: model.EventRoundState, Payload: RoundViewFor(r, p.ID)})
		}
	}
}

func (m *Manager) broadcastInfo(r *model.Room, text string) {
	for _, p := range r.Players {
		if p.Connected {
			m.notify.Send(p.ID, model.Message{Type: model.EventInfo, Payload: text})
		}
	}
}

