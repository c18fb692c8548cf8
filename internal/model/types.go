package model

import (
	"sync"
)

type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

// Card is immutable once dealt. InstanceID tells apart the copies of a double deck.
type Card struct {
	Suit       Suit   `json:"suit"`
	Rank       Rank   `json:"rank"`
	InstanceID string `json:"id"`
}

// HandSlot pairs a card with its transient reveal flag.
// RevealedTo names the only player allowed to see the card; empty means everyone.
type HandSlot struct {
	Card       Card   `json:"card"`
	Revealed   bool   `json:"revealed"`
	RevealedTo string `json:"revealedTo,omitempty"`
}

type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhasePeek       Phase = "peek"
	PhaseDraw       Phase = "draw"
	PhaseSwap       Phase = "swap"
	PhasePowerJack  Phase = "power-jack"
	PhasePowerQueen Phase = "power-queen"
	PhaseDiscard    Phase = "discard"
	PhaseEnded      Phase = "ended"
)

type Player struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Hand       []HandSlot `json:"hand"`
	TotalScore int        `json:"totalScore"`
	RoundScore int        `json:"roundScore"`
	PeekCount  int        `json:"peekCount"`
	Connected  bool       `json:"connected"`

	// set after a failed matching-discard, cleared when the turn passes
	MatchForfeited bool `json:"-"`
}

// Target addresses a hand slot anywhere at the table.
type Target struct {
	PlayerIndex int `json:"playerIndex"`
	CardIndex   int `json:"cardIndex"`
}

type Round struct {
	Number             int      `json:"number"`
	DrawPile           []Card   `json:"-"`
	DiscardPile        []Card   `json:"-"`
	CurrentPlayerIndex int      `json:"currentPlayerIndex"`
	Phase              Phase    `json:"phase"`
	DrawnCard          *Card    `json:"-"`
	ForcedSwap         bool     `json:"forcedSwap"`
	DutchCalled        bool     `json:"dutchCalled"`
	DutchCallerIndex   int      `json:"dutchCallerIndex"`
	FinalTurnsTaken    int      `json:"finalTurnsTaken"`
	CallerPenalized    bool     `json:"callerPenalized"`
	JackSelection      []Target `json:"-"`
	DeckSize           int      `json:"-"`
}

type Room struct {
	ID         string // unique per room, codes are reused
	Code       string
	HostID     string // 房主ID
	Players    []*Player
	MaxPlayers int
	Round      *Round
	Rounds     int
	Mutex      sync.Mutex `json:"-"`
}

type RoomSummary struct {
	Code        string `json:"code"`
	HostName    string `json:"hostName"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Phase       Phase  `json:"phase"`
}

type PlayerStat struct {
	Name         string `json:"name"`
	RoundsPlayed int    `json:"roundsPlayed"`
	TotalScore   int    `json:"totalScore"`
}

// RoundResult is one player's line in the round history.
type RoundResult struct {
	RoomID     string
	RoomCode   string
	Round      int
	PlayerID   string
	PlayerName string
	Score      int
}
