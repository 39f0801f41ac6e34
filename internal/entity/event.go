package entity

const (
	ActionWaiting              = "waiting"
	ActionGameStart            = "gameStart"
	ActionGameState            = "gameState"
	ActionGameOver             = "gameOver"
	ActionOpponentDisconnected = "opponentDisconnected"
	ActionOpponentReconnected  = "opponentReconnected"
	ActionError                = "error"
)

// Event is an outbound message for a single connection.
type Event struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type GameStartPayload struct {
	GameID      string `json:"gameId"`
	Opponent    string `json:"opponent"`
	YourColor   Marker `json:"yourColor"`
	CurrentTurn string `json:"currentTurn"`
}

type GameStatePayload struct {
	Board       Board  `json:"board"`
	CurrentTurn string `json:"currentTurn"`
	Moves       int    `json:"moves"`
}

type GameOverPayload struct {
	Winner   string `json:"winner"`
	Board    Board  `json:"board"`
	Duration int    `json:"duration"`
	Moves    int    `json:"moves"`
	Reason   string `json:"reason,omitempty"`
}

func NewWaitingEvent() Event {
	return Event{
		Action:  ActionWaiting,
		Payload: MessagePayload{Message: "Waiting for an opponent..."},
	}
}

// NewGameStartEvent - the match as seen by the given participant.
func NewGameStartEvent(match *Match, self *Participant) Event {
	payload := GameStartPayload{
		GameID:      match.ID,
		YourColor:   self.Marker,
		CurrentTurn: match.Turn,
	}

	if opponent, ok := match.Opponent(self.Identity); ok {
		payload.Opponent = opponent.Identity
	}

	return Event{Action: ActionGameStart, Payload: payload}
}

func NewGameStateEvent(match *Match) Event {
	return Event{
		Action: ActionGameState,
		Payload: GameStatePayload{
			Board:       match.Board,
			CurrentTurn: match.Turn,
			Moves:       match.MoveCount,
		},
	}
}

func NewGameOverEvent(result MatchResult) Event {
	return Event{
		Action: ActionGameOver,
		Payload: GameOverPayload{
			Winner:   result.Outcome.WinnerLabel(),
			Board:    result.Board,
			Duration: result.DurationSeconds(),
			Moves:    result.Moves,
			Reason:   result.Outcome.Reason(),
		},
	}
}

func NewOpponentDisconnectedEvent() Event {
	return Event{
		Action:  ActionOpponentDisconnected,
		Payload: MessagePayload{Message: "Opponent disconnected. Waiting for reconnection..."},
	}
}

func NewOpponentReconnectedEvent() Event {
	return Event{
		Action:  ActionOpponentReconnected,
		Payload: MessagePayload{Message: "Opponent reconnected"},
	}
}

func NewErrorEvent(message string) Event {
	return Event{
		Action:  ActionError,
		Payload: MessagePayload{Message: message},
	}
}
