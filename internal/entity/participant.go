package entity

// BotIdentity is reserved for the server-side opponent.
const BotIdentity = "Bot"

// Conn is a transport handle bound to a participant. Send must not block.
type Conn interface {
	Send(event Event) error
}

type Participant struct {
	Identity string `json:"username"`
	Marker   Marker `json:"color"`
	IsBot    bool   `json:"is_bot,omitempty"`

	// nil while the participant is disconnected
	Conn Conn `json:"-"`
}

func NewParticipant(identity string, marker Marker, conn Conn) *Participant {
	return &Participant{
		Identity: identity,
		Marker:   marker,
		Conn:     conn,
	}
}

func NewBotParticipant(marker Marker) *Participant {
	return &Participant{
		Identity: BotIdentity,
		Marker:   marker,
		IsBot:    true,
	}
}

func (that *Participant) IsConnected() bool {
	return that.IsBot || that.Conn != nil
}

// Notify - sends the event if the participant has a live handle.
func (that *Participant) Notify(event Event) error {
	if that.IsBot || that.Conn == nil {
		return nil
	}

	return that.Conn.Send(event)
}
