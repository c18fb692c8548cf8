package model

// ActionType names an inbound player action.
type ActionType string

const (
	ActionCreateRoom   ActionType = "create_room"
	ActionJoinRoom     ActionType = "join_room"
	ActionLeaveRoom    ActionType = "leave_room"
	ActionCloseRoom    ActionType = "close_room"
	ActionStartRound   ActionType = "start_round"
	ActionPeek         ActionType = "peek"
	ActionDraw         ActionType = "draw"
	ActionSwap         ActionType = "swap"
	ActionPowerSelect  ActionType = "power_select"
	ActionDiscardMatch ActionType = "discard_match"
	ActionEndTurn      ActionType = "end_turn"
	ActionCallDutch    ActionType = "call_dutch"
)

// EventType names an outbound message.
type EventType string

const (
	EventIdentity   EventType = "identity"
	EventRoomState  EventType = "room_state"
	EventRoundState EventType = "round_state"
	EventReveal     EventType = "reveal"
	EventRoundEnded EventType = "round_ended"
	EventStats      EventType = "stats"
	EventInfo       EventType = "info"
	EventError      EventType = "error"
	EventRoomList   EventType = "room_list"
	EventRoomClosed EventType = "room_closed"
)

type Message struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type Action struct {
	Type        ActionType `json:"type"`
	RoomCode    string     `json:"roomCode,omitempty"`
	PlayerName  string     `json:"playerName,omitempty"`
	MaxPlayers  int        `json:"maxPlayers,omitempty"`
	CardIndex   *int       `json:"cardIndex,omitempty"`
	PlayerIndex *int       `json:"playerIndex,omitempty"`
	FromDiscard bool       `json:"fromDiscard,omitempty"`
}

type IdentityPayload struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode,omitempty"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RosterEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsHost     bool   `json:"isHost"`
	Connected  bool   `json:"connected"`
	TotalScore int    `json:"totalScore"`
}

type RoomView struct {
	Code       string        `json:"code"`
	HostID     string        `json:"hostId"`
	MaxPlayers int           `json:"maxPlayers"`
	Players    []RosterEntry `json:"players"`
	Phase      Phase         `json:"phase"`
}

// SlotView is one hand slot as seen by a single recipient. Card is nil
// whenever the recipient may not see the face.
type SlotView struct {
	Card     *Card `json:"card"`
	Revealed bool  `json:"revealed"`
}

type SeatView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Hand       []SlotView `json:"hand"`
	PeekCount  int        `json:"peekCount"`
	RoundScore int        `json:"roundScore"`
	TotalScore int        `json:"totalScore"`
	Connected  bool       `json:"connected"`
}

type RoundView struct {
	RoomCode           string     `json:"roomCode"`
	Number             int        `json:"number"`
	Phase              Phase      `json:"phase"`
	CurrentPlayerIndex int        `json:"currentPlayerIndex"`
	DrawPileCount      int        `json:"drawPileCount"`
	DiscardTop         *Card      `json:"discardTop"`
	DiscardCount       int        `json:"discardCount"`
	HasDrawnCard       bool       `json:"hasDrawnCard"`
	DrawnCard          *Card      `json:"drawnCard,omitempty"`
	ForcedSwap         bool       `json:"forcedSwap"`
	DutchCalled        bool       `json:"dutchCalled"`
	DutchCallerIndex   int        `json:"dutchCallerIndex"`
	FinalTurnsTaken    int        `json:"finalTurnsTaken"`
	JackSelections     int        `json:"jackSelections"`
	WaitingOn          string     `json:"waitingOn,omitempty"`
	You                int        `json:"you"`
	Seats              []SeatView `json:"seats"`
}

// RevealPayload is sent privately to the player who peeked.
type RevealPayload struct {
	PlayerIndex int    `json:"playerIndex"`
	CardIndex   int    `json:"cardIndex"`
	Card        Card   `json:"card"`
	Source      string `json:"source"`
}

type FinalScore struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Hand       []Card `json:"hand"`
	RoundScore int    `json:"roundScore"`
	TotalScore int    `json:"totalScore"`
	Penalized  bool   `json:"penalized"`
}

type RoundEndedPayload struct {
	RoomCode         string       `json:"roomCode"`
	Number           int          `json:"number"`
	DutchCallerIndex int          `json:"dutchCallerIndex"`
	Scores           []FinalScore `json:"scores"`
}
