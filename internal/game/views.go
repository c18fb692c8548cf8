package game

import (
	"dutch/internal/model"
)

// RoundViewFor renders the round as recipientID may see it. Card faces are
// copied only for slots that are public or revealed to that recipient; the
// drawn card is shown only to the player holding it.
func RoundViewFor(r *model.Room, recipientID string) model.RoundView {
	rd := r.Round
	v := model.RoundView{
		RoomCode:         r.Code,
		You:              -1,
		DutchCallerIndex: -1,
		Phase:            RoomPhase(r),
	}
	for i, p := range r.Players {
		if p.ID == recipientID {
			v.You = i
		}
	}
	if rd == nil {
		return v
	}

	ended := rd.Phase == model.PhaseEnded
	v.Number = rd.Number
	v.CurrentPlayerIndex = rd.CurrentPlayerIndex
	v.DrawPileCount = len(rd.DrawPile)
	v.DiscardCount = len(rd.DiscardPile)
	if n := len(rd.DiscardPile); n > 0 {
		top := rd.DiscardPile[n-1]
		v.DiscardTop = &top
	}
	v.HasDrawnCard = rd.DrawnCard != nil
	if rd.DrawnCard != nil && v.You == rd.CurrentPlayerIndex {
		c := *rd.DrawnCard
		v.DrawnCard = &c
	}
	v.ForcedSwap = rd.ForcedSwap
	v.DutchCalled = rd.DutchCalled
	v.DutchCallerIndex = rd.DutchCallerIndex
	v.FinalTurnsTaken = rd.FinalTurnsTaken
	v.JackSelections = len(rd.JackSelection)
	if !ended && rd.CurrentPlayerIndex < len(r.Players) {
		if cur := r.Players[rd.CurrentPlayerIndex]; !cur.Connected {
			v.WaitingOn = cur.Name
		}
	}

	v.Seats = make([]model.SeatView, 0, len(r.Players))
	for _, p := range r.Players {
		seat := model.SeatView{
			ID:         p.ID,
			Name:       p.Name,
			PeekCount:  p.PeekCount,
			TotalScore: p.TotalScore,
			Connected:  p.Connected,
			Hand:       make([]model.SlotView, len(p.Hand)),
		}
		if ended {
			seat.RoundScore = p.RoundScore
		}
		for i, s := range p.Hand {
			if ended || (s.Revealed && (s.RevealedTo == "" || s.RevealedTo == recipientID)) {
				c := s.Card
				seat.Hand[i] = model.SlotView{Card: &c, Revealed: true}
			}
		}
		v.Seats = append(v.Seats, seat)
	}
	return v
}

// RoomViewOf is the roster snapshot shared with everyone in the room.
func RoomViewOf(r *model.Room) model.RoomView {
	v := model.RoomView{
		Code:       r.Code,
		HostID:     r.HostID,
		MaxPlayers: r.MaxPlayers,
		Phase:      RoomPhase(r),
		Players:    make([]model.RosterEntry, 0, len(r.Players)),
	}
	for _, p := range r.Players {
		v.Players = append(v.Players, model.RosterEntry{
			ID:         p.ID,
			Name:       p.Name,
			IsHost:     p.ID == r.HostID,
			Connected:  p.Connected,
			TotalScore: p.TotalScore,
		})
	}
	return v
}

// RoundEndedOf summarizes a scored round. Hands are public at this point.
func RoundEndedOf(r *model.Room) model.RoundEndedPayload {
	out := model.RoundEndedPayload{RoomCode: r.Code, DutchCallerIndex: -1}
	if r.Round == nil {
		return out
	}
	out.Number = r.Round.Number
	out.DutchCallerIndex = r.Round.DutchCallerIndex
	for i, p := range r.Players {
		hand := make([]model.Card, 0, len(p.Hand))
		for _, s := range p.Hand {
			hand = append(hand, s.Card)
		}
		out.Scores = append(out.Scores, model.FinalScore{
			ID:         p.ID,
			Name:       p.Name,
			Hand:       hand,
			RoundScore: p.RoundScore,
			TotalScore: p.TotalScore,
			Penalized:  r.Round.CallerPenalized && i == r.Round.DutchCallerIndex,
		})
	}
	return out
}

func SummaryOf(r *model.Room) model.RoomSummary {
	hostName := ""
	for _, p := range r.Players {
		if p.ID == r.HostID {
			hostName = p.Name
		}
	}
	return model.RoomSummary{
		Code:        r.Code,
		HostName:    hostName,
		PlayerCount: len(connectedSeats(r)),
		MaxPlayers:  r.MaxPlayers,
		Phase:       RoomPhase(r),
	}
}
