package game

import (
	"dutch/internal/model"
)

// Rules holds the tunable parts of the rule set.
type Rules struct {
	DoubleDeck bool
	// CallerPenalty is added to the Dutch caller's score when someone beat them. 0 disables it.
	CallerPenalty int
}

func DefaultRules() Rules {
	return Rules{DoubleDeck: true, CallerPenalty: 10}
}

// SwapResult describes what a swap did to the table.
type SwapResult struct {
	Displaced model.Card
	// Removed is set when the doubles rule took the new slot out of the hand.
	Removed bool
	Power   model.Phase
}

// PowerResult describes one power selection.
type PowerResult struct {
	Done     bool
	Swapped  []model.Target
	Revealed *model.Card
	Target   model.Target
}

// MatchResult describes a matching-discard attempt.
type MatchResult struct {
	Matched   bool
	Card      model.Card
	Penalized bool
	// PenaltyDrawn is false when the draw pile was empty.
	PenaltyDrawn bool
}

// StartRound shuffles a fresh shoe, deals and seeds the discard pile.
func StartRound(r *model.Room, rules Rules, src Source) error {
	if r.Round != nil && r.Round.Phase != model.PhaseEnded && r.Round.Phase != model.PhaseWaiting {
		return ErrRoundInProgress
	}
	if len(r.Players) < 2 {
		return ErrTooFewPlayers
	}
	deck := Shuffle(BuildDeck(rules.DoubleDeck), src)
	if len(deck)-len(r.Players)*HandSize-1 < 0 {
		return ErrDeckTooSmall
	}

	for _, p := range r.Players {
		p.RoundScore = 0
		p.PeekCount = 0
		p.MatchForfeited = false
	}
	pile := DealCards(deck, r.Players)
	pile, first := pop(pile)

	r.Rounds++
	r.Round = &model.Round{
		Number:           r.Rounds,
		DrawPile:         pile,
		DiscardPile:      []model.Card{first},
		Phase:            model.PhasePeek,
		DutchCallerIndex: -1,
		DeckSize:         len(deck),
	}
	return nil
}

// Peek reveals one of the acting player's own cards during setup.
func Peek(r *model.Room, playerIdx, cardIdx int) (model.Card, error) {
	rd, err := inPhase(r, model.PhasePeek)
	if err != nil {
		return model.Card{}, err
	}
	if playerIdx != rd.CurrentPlayerIndex {
		return model.Card{}, ErrNotYourTurn
	}
	p := r.Players[playerIdx]
	if p.PeekCount >= MaxPeeks {
		return model.Card{}, ErrPeekLimit
	}
	if cardIdx < 0 || cardIdx >= len(p.Hand) {
		return model.Card{}, ErrInvalidCardIndex
	}
	slot := &p.Hand[cardIdx]
	if slot.Revealed {
		return model.Card{}, ErrAlreadyRevealed
	}

	p.PeekCount++
	slot.Revealed = true
	slot.RevealedTo = p.ID
	if p.PeekCount == MaxPeeks {
		if rd.CurrentPlayerIndex == len(r.Players)-1 {
			rd.CurrentPlayerIndex = 0
			rd.Phase = model.PhaseDraw
		} else {
			rd.CurrentPlayerIndex++
		}
	}
	return slot.Card, nil
}

// Draw takes the top of the draw pile or the discard pile into the drawn slot.
func Draw(r *model.Room, playerIdx int, fromDiscard bool) (model.Card, error) {
	rd, err := inPhase(r, model.PhaseDraw)
	if err != nil {
		return model.Card{}, err
	}
	if playerIdx != rd.CurrentPlayerIndex {
		return model.Card{}, ErrNotYourTurn
	}

	var c model.Card
	if fromDiscard {
		if len(rd.DiscardPile) == 0 {
			return model.Card{}, ErrDiscardEmpty
		}
		// a discard draw must be swapped in, which needs a slot
		if len(r.Players[playerIdx].Hand) == 0 {
			return model.Card{}, ErrEmptyHand
		}
		rd.DiscardPile, c = pop(rd.DiscardPile)
		rd.ForcedSwap = true
	} else {
		if len(rd.DrawPile) == 0 {
			return model.Card{}, ErrDrawPileEmpty
		}
		rd.DrawPile, c = pop(rd.DrawPile)
		rd.ForcedSwap = false
	}
	rd.DrawnCard = &c
	rd.Phase = model.PhaseSwap
	return c, nil
}

// Swap puts the drawn card into a hand slot and discards the card it replaces.
func Swap(r *model.Room, playerIdx, slotIdx int) (SwapResult, error) {
	rd, err := inPhase(r, model.PhaseSwap)
	if err != nil {
		return SwapResult{}, err
	}
	if playerIdx != rd.CurrentPlayerIndex {
		return SwapResult{}, ErrNotYourTurn
	}
	if rd.DrawnCard == nil {
		return SwapResult{}, ErrWrongPhase
	}
	p := r.Players[playerIdx]
	if slotIdx < 0 || slotIdx >= len(p.Hand) {
		return SwapResult{}, ErrInvalidCardIndex
	}

	drawn := *rd.DrawnCard
	displaced := p.Hand[slotIdx].Card
	p.Hand[slotIdx] = model.HandSlot{Card: drawn}
	rd.DiscardPile = append(rd.DiscardPile, displaced)
	rd.DrawnCard = nil
	rd.ForcedSwap = false

	res := SwapResult{Displaced: displaced}
	// a Jack needs two slots at the table to exchange
	if IsPowerCard(drawn) && !(drawn.Rank == model.Jack && tableSlots(r) < 2) {
		rd.Phase = model.PhasePowerQueen
		if drawn.Rank == model.Jack {
			rd.Phase = model.PhasePowerJack
		}
		rd.JackSelection = nil
		res.Power = rd.Phase
		return res, nil
	}

	if SameRank(drawn, displaced) {
		p.Hand = removeSlot(p.Hand, slotIdx)
		rd.DiscardPile = append(rd.DiscardPile, drawn)
		res.Removed = true
	}
	rd.Phase = model.PhaseDiscard
	return res, nil
}

// PowerSelect records one selection for the pending Jack or Queen ability.
func PowerSelect(r *model.Room, playerIdx int, t model.Target) (PowerResult, error) {
	rd, err := activeRound(r)
	if err != nil {
		return PowerResult{}, err
	}
	if rd.Phase != model.PhasePowerJack && rd.Phase != model.PhasePowerQueen {
		return PowerResult{}, ErrWrongPhase
	}
	if playerIdx != rd.CurrentPlayerIndex {
		return PowerResult{}, ErrNotYourTurn
	}
	if err := validTarget(r, t); err != nil {
		return PowerResult{}, err
	}

	if rd.Phase == model.PhasePowerQueen {
		slot := &r.Players[t.PlayerIndex].Hand[t.CardIndex]
		slot.Revealed = true
		slot.RevealedTo = r.Players[playerIdx].ID
		rd.Phase = model.PhaseDiscard
		c := slot.Card
		return PowerResult{Done: true, Revealed: &c, Target: t}, nil
	}

	if len(rd.JackSelection) == 1 {
		first := rd.JackSelection[0]
		if first == t {
			return PowerResult{}, ErrSameSlot
		}
		// a matching-discard may have shrunk the first hand since it was picked
		if validTarget(r, first) != nil {
			rd.JackSelection = []model.Target{t}
			return PowerResult{Target: t}, nil
		}
		a := &r.Players[first.PlayerIndex].Hand[first.CardIndex]
		b := &r.Players[t.PlayerIndex].Hand[t.CardIndex]
		*a, *b = model.HandSlot{Card: b.Card}, model.HandSlot{Card: a.Card}
		rd.JackSelection = nil
		rd.Phase = model.PhaseDiscard
		return PowerResult{Done: true, Swapped: []model.Target{first, t}, Target: t}, nil
	}
	rd.JackSelection = []model.Target{t}
	return PowerResult{Target: t}, nil
}

// EndTurn finishes the current player's turn. It returns true when the
// turn completed the final-turn countdown and the round was scored.
func EndTurn(r *model.Room, playerIdx int, rules Rules) (bool, error) {
	rd, err := activeRound(r)
	if err != nil {
		return false, err
	}
	switch rd.Phase {
	case model.PhaseDiscard:
	case model.PhaseDraw:
		if rd.DrawnCard != nil {
			return false, ErrWrongPhase
		}
	case model.PhaseSwap:
		if rd.ForcedSwap && len(r.Players[rd.CurrentPlayerIndex].Hand) > 0 {
			return false, ErrForcedSwap
		}
	case model.PhasePowerJack, model.PhasePowerQueen:
		// matching-discards may leave nothing to select
		if !powerBlocked(r) {
			return false, ErrWrongPhase
		}
	default:
		return false, ErrWrongPhase
	}
	if playerIdx != rd.CurrentPlayerIndex {
		return false, ErrNotYourTurn
	}

	if rd.DrawnCard != nil {
		rd.DiscardPile = append(rd.DiscardPile, *rd.DrawnCard)
		rd.DrawnCard = nil
	}
	rd.ForcedSwap = false
	rd.JackSelection = nil
	for _, p := range r.Players {
		p.MatchForfeited = false
	}

	if rd.DutchCalled {
		if rd.CurrentPlayerIndex != rd.DutchCallerIndex {
			rd.FinalTurnsTaken++
		}
		if rd.FinalTurnsTaken >= len(r.Players)-1 {
			ScoreRound(r, rules)
			return true, nil
		}
	}
	rd.CurrentPlayerIndex = (rd.CurrentPlayerIndex + 1) % len(r.Players)
	rd.Phase = model.PhaseDraw
	return false, nil
}

// CallDutch starts the final-turn countdown.
func CallDutch(r *model.Room, playerIdx int) error {
	rd, err := inPlay(r)
	if err != nil {
		return err
	}
	if rd.DutchCalled {
		return ErrDutchCalled
	}
	if playerIdx != rd.CurrentPlayerIndex {
		return ErrNotYourTurn
	}
	rd.DutchCalled = true
	rd.DutchCallerIndex = rd.CurrentPlayerIndex
	rd.FinalTurnsTaken = 0
	return nil
}

// DiscardMatch throws a face-up card onto a discard pile topped by the same
// rank. Any seated player may try, whoever's turn it is. A wrong attempt costs
// a penalty card and the right to try again until the turn passes.
func DiscardMatch(r *model.Room, playerIdx, slotIdx int) (MatchResult, error) {
	rd, err := inPlay(r)
	if err != nil {
		return MatchResult{}, err
	}
	if playerIdx < 0 || playerIdx >= len(r.Players) {
		return MatchResult{}, ErrInvalidPlayer
	}
	p := r.Players[playerIdx]
	if p.MatchForfeited {
		return MatchResult{}, ErrMatchForfeited
	}
	if slotIdx < 0 || slotIdx >= len(p.Hand) {
		return MatchResult{}, ErrInvalidCardIndex
	}
	if len(rd.DiscardPile) == 0 {
		return MatchResult{}, ErrDiscardEmpty
	}

	top := rd.DiscardPile[len(rd.DiscardPile)-1]
	slot := p.Hand[slotIdx]
	faceUp := slot.Revealed && (slot.RevealedTo == "" || slot.RevealedTo == p.ID)
	if faceUp && SameRank(slot.Card, top) {
		p.Hand = removeSlot(p.Hand, slotIdx)
		rd.DiscardPile = append(rd.DiscardPile, slot.Card)
		return MatchResult{Matched: true, Card: slot.Card}, nil
	}

	res := MatchResult{Penalized: true}
	if len(rd.DrawPile) > 0 {
		var c model.Card
		rd.DrawPile, c = pop(rd.DrawPile)
		p.Hand = append(p.Hand, model.HandSlot{Card: c})
		res.PenaltyDrawn = true
	}
	p.MatchForfeited = true
	return res, nil
}

// ScoreRound reveals every hand, tallies round scores and applies the
// Dutch-caller penalty.
func ScoreRound(r *model.Room, rules Rules) {
	rd := r.Round
	if rd == nil {
		return
	}
	for _, p := range r.Players {
		for i := range p.Hand {
			p.Hand[i].Revealed = true
			p.Hand[i].RevealedTo = ""
		}
		p.RoundScore = HandValue(p.Hand)
		p.TotalScore += p.RoundScore
	}

	if rd.DutchCalled && rules.CallerPenalty > 0 && rd.DutchCallerIndex >= 0 && rd.DutchCallerIndex < len(r.Players) {
		lowest := r.Players[0].RoundScore
		for _, p := range r.Players[1:] {
			lowest = min(lowest, p.RoundScore)
		}
		caller := r.Players[rd.DutchCallerIndex]
		if caller.RoundScore > lowest {
			caller.RoundScore += rules.CallerPenalty
			caller.TotalScore += rules.CallerPenalty
			rd.CallerPenalized = true
		}
	}
	if rd.DrawnCard != nil {
		rd.DiscardPile = append(rd.DiscardPile, *rd.DrawnCard)
		rd.DrawnCard = nil
	}
	rd.JackSelection = nil
	rd.Phase = model.PhaseEnded
}

// HideReveal clears a transient reveal. It is a no-op when the round has
// moved on, the card left that player's hand, or it is already hidden.
func HideReveal(r *model.Room, roundNumber int, playerID, instanceID string) bool {
	rd := r.Round
	if rd == nil || rd.Number != roundNumber || rd.Phase == model.PhaseEnded {
		return false
	}
	for _, p := range r.Players {
		if p.ID != playerID {
			continue
		}
		for i := range p.Hand {
			s := &p.Hand[i]
			if s.Card.InstanceID == instanceID && s.Revealed {
				s.Revealed = false
				s.RevealedTo = ""
				return true
			}
		}
	}
	return false
}

// RoomPhase is the phase of the active round, or waiting when there is none.
func RoomPhase(r *model.Room) model.Phase {
	if r.Round == nil {
		return model.PhaseWaiting
	}
	return r.Round.Phase
}

func activeRound(r *model.Room) (*model.Round, error) {
	if r.Round == nil || r.Round.Phase == model.PhaseEnded || r.Round.Phase == model.PhaseWaiting {
		return nil, ErrNoRound
	}
	return r.Round, nil
}

func inPhase(r *model.Room, ph model.Phase) (*model.Round, error) {
	rd, err := activeRound(r)
	if err != nil {
		return nil, err
	}
	if rd.Phase != ph {
		return nil, ErrWrongPhase
	}
	return rd, nil
}

// inPlay accepts every phase between the end of peeking and scoring.
func inPlay(r *model.Room) (*model.Round, error) {
	rd, err := activeRound(r)
	if err != nil {
		return nil, err
	}
	if rd.Phase == model.PhasePeek {
		return nil, ErrWrongPhase
	}
	return rd, nil
}

func tableSlots(r *model.Room) int {
	n := 0
	for _, p := range r.Players {
		n += len(p.Hand)
	}
	return n
}

func powerBlocked(r *model.Room) bool {
	if r.Round.Phase == model.PhasePowerJack {
		return tableSlots(r) < 2
	}
	return tableSlots(r) == 0
}

func validTarget(r *model.Room, t model.Target) error {
	if t.PlayerIndex < 0 || t.PlayerIndex >= len(r.Players) {
		return ErrInvalidPlayer
	}
	if t.CardIndex < 0 || t.CardIndex >= len(r.Players[t.PlayerIndex].Hand) {
		return ErrInvalidCardIndex
	}
	return nil
}

func removeSlot(hand []model.HandSlot, i int) []model.HandSlot {
	out := make([]model.HandSlot, 0, len(hand)-1)
	out = append(out, hand[:i]...)
	return append(out, hand[i+1:]...)
}
