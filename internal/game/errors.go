package game

// Kind groups rejection reasons. Every kind is recoverable by the caller:
// a rejected action leaves the room untouched.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindCapacity      Kind = "capacity"
	KindNotFound      Kind = "not_found"
)

// Error is a rejected action with a machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches by code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidName       = newError(KindValidation, "INVALID_NAME", "player name is required")
	ErrInvalidMaxPlayers = newError(KindValidation, "INVALID_MAX_PLAYERS", "max players out of range")
	ErrInvalidCardIndex  = newError(KindValidation, "INVALID_CARD_INDEX", "no such hand slot")
	ErrInvalidPlayer     = newError(KindValidation, "INVALID_PLAYER_INDEX", "no such player")
	ErrAlreadyRevealed   = newError(KindValidation, "ALREADY_REVEALED", "card is already revealed")
	ErrSameSlot          = newError(KindValidation, "SAME_SLOT", "select two different cards")
	ErrDiscardEmpty      = newError(KindValidation, "DISCARD_PILE_EMPTY", "discard pile is empty")
	ErrEmptyHand         = newError(KindValidation, "EMPTY_HAND", "no card in hand to swap with")
	ErrUnknownAction     = newError(KindValidation, "UNKNOWN_ACTION", "unknown action")
	ErrMalformed         = newError(KindValidation, "MALFORMED", "malformed message")

	ErrNotHost         = newError(KindAuthorization, "NOT_HOST", "only the host can do that")
	ErrNotYourTurn     = newError(KindAuthorization, "NOT_YOUR_TURN", "it is not your turn")
	ErrWrongPhase      = newError(KindAuthorization, "WRONG_PHASE", "action not allowed in this phase")
	ErrPeekLimit       = newError(KindAuthorization, "PEEK_LIMIT", "you already peeked at two cards")
	ErrForcedSwap      = newError(KindAuthorization, "FORCED_SWAP", "a card taken from the discard pile must be swapped")
	ErrDutchCalled     = newError(KindAuthorization, "DUTCH_ALREADY_CALLED", "dutch was already called")
	ErrMatchForfeited  = newError(KindAuthorization, "MATCH_FORFEITED", "no more matching attempts this turn")
	ErrNotSeated       = newError(KindAuthorization, "NOT_SEATED", "you are not in this room")
	ErrAlreadySeated   = newError(KindAuthorization, "ALREADY_SEATED", "you are already in a room")
	ErrRoundInProgress = newError(KindAuthorization, "ROUND_IN_PROGRESS", "a round is in progress")
	ErrTooFewPlayers   = newError(KindAuthorization, "TOO_FEW_PLAYERS", "at least two players are needed")
	ErrNoRound         = newError(KindAuthorization, "NO_ROUND", "no round is in progress")

	ErrRoomFull       = newError(KindCapacity, "ROOM_FULL", "room is full")
	ErrDrawPileEmpty  = newError(KindCapacity, "DRAW_PILE_EMPTY", "draw pile is empty")
	ErrDeckTooSmall   = newError(KindCapacity, "DECK_TOO_SMALL", "not enough cards for this many players")
	ErrCodeExhausted  = newError(KindCapacity, "ROOM_CODES_EXHAUSTED", "could not allocate a room code")
	ErrRoomNotFound   = newError(KindNotFound, "ROOM_NOT_FOUND", "room not found")
	errRoomCodeExists = newError(KindCapacity, "ROOM_CODE_TAKEN", "room code already in use")
)
