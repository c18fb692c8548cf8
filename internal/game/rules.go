package game

import (
	"fmt"
	"strconv"

	"dutch/internal/model"
)

const (
	HandSize     = 4
	MaxPeeks     = 2
	deckSize     = 52
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CardValue returns the points a card is worth at scoring time.
func CardValue(c model.Card) int {
	switch c.Rank {
	case model.Ace:
		return 1
	case model.Jack:
		return 11
	case model.Queen:
		return 12
	case model.King:
		if IsRed(c.Suit) {
			return 0
		}
		return 13
	}
	v, err := strconv.Atoi(string(c.Rank))
	if err != nil {
		return 0
	}
	return v
}

func IsRed(s model.Suit) bool {
	return s == model.Hearts || s == model.Diamonds
}

func SameRank(a, b model.Card) bool {
	return a.Rank == b.Rank
}

// IsPowerCard reports whether swapping the card in triggers an ability.
func IsPowerCard(c model.Card) bool {
	return c.Rank == model.Jack || c.Rank == model.Queen
}

// BuildDeck returns one or two ordered 52-card sets. Each card gets an
// instance id unique within the shoe.
func BuildDeck(doubleDeck bool) []model.Card {
	sets := 1
	if doubleDeck {
		sets = 2
	}
	deck := make([]model.Card, 0, deckSize*sets)
	for d := 0; d < sets; d++ {
		for _, s := range model.Suits {
			for _, r := range model.Ranks {
				deck = append(deck, model.Card{Suit: s, Rank: r, InstanceID: fmt.Sprintf("%s%s-%d", r, s, d)})
			}
		}
	}
	return deck
}

// Shuffle returns a Fisher-Yates shuffled copy of deck.
func Shuffle(deck []model.Card, src Source) []model.Card {
	out := make([]model.Card, len(deck))
	copy(out, deck)
	for i := len(out) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DealCards deals HandSize cards to every player one at a time in seating
// order, drawing from the end of the pile. It returns the remaining pile.
func DealCards(pile []model.Card, players []*model.Player) []model.Card {
	for _, p := range players {
		p.Hand = make([]model.HandSlot, 0, HandSize)
	}
	for i := 0; i < HandSize; i++ {
		for _, p := range players {
			var c model.Card
			pile, c = pop(pile)
			p.Hand = append(p.Hand, model.HandSlot{Card: c})
		}
	}
	return pile
}

// HandValue sums CardValue over a hand.
func HandValue(hand []model.HandSlot) int {
	total := 0
	for _, s := range hand {
		total += CardValue(s.Card)
	}
	return total
}

// NewRoomCode draws a random code. Uniqueness is the registry's job.
func NewRoomCode(src Source) string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[src.Intn(len(codeAlphabet))]
	}
	return string(b)
}

func pop(pile []model.Card) ([]model.Card, model.Card) {
	c := pile[len(pile)-1]
	return pile[:len(pile)-1], c
}
