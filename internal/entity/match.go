package entity

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
)

var ErrMatchCompleted = errors.New("match is already completed")

// Match is one refereed game from pairing to outcome.
// Every mutation happens with the match locked.
type Match struct {
	mu sync.Mutex

	ID           string          `json:"id"`
	Participants [2]*Participant `json:"participants"`
	Board        Board           `json:"board"`
	Turn         string          `json:"current_turn"`
	MoveCount    int             `json:"moves"`
	StartedAt    time.Time       `json:"started_at"`
	EndedAt      time.Time       `json:"ended_at,omitempty"`
	Outcome      *Outcome        `json:"outcome,omitempty"`
	IsBot        bool            `json:"is_bot"`

	botMove Scheduled
}

// NewMatch - the first participant moves first.
func NewMatch(id string, first, second *Participant, startedAt time.Time) *Match {
	return &Match{
		ID:           id,
		Participants: [2]*Participant{first, second},
		Board:        NewBoard(),
		Turn:         first.Identity,
		StartedAt:    startedAt,
		IsBot:        first.IsBot || second.IsBot,
	}
}

func (that *Match) Lock() {
	that.mu.Lock()
}

func (that *Match) Unlock() {
	that.mu.Unlock()
}

func (that *Match) IsActive() bool {
	return that.Outcome == nil
}

func (that *Match) Participant(identity string) (*Participant, bool) {
	return lo.Find(that.Participants[:], func(p *Participant) bool {
		return p.Identity == identity
	})
}

func (that *Match) Opponent(identity string) (*Participant, bool) {
	if _, ok := that.Participant(identity); !ok {
		return nil, false
	}

	return lo.Find(that.Participants[:], func(p *Participant) bool {
		return p.Identity != identity
	})
}

func (that *Match) ByMarker(marker Marker) (*Participant, bool) {
	return lo.Find(that.Participants[:], func(p *Participant) bool {
		return p.Marker == marker
	})
}

// Mover - the participant whose turn it is.
func (that *Match) Mover() *Participant {
	mover, _ := that.Participant(that.Turn)
	return mover
}

func (that *Match) Humans() []*Participant {
	return lo.Filter(that.Participants[:], func(p *Participant, _ int) bool {
		return !p.IsBot
	})
}

// PassTurn - hands the turn to the other participant.
func (that *Match) PassTurn() {
	if next, ok := that.Opponent(that.Turn); ok {
		that.Turn = next.Identity
	}
}

// Complete - sets the terminal outcome exactly once.
func (that *Match) Complete(outcome Outcome, endedAt time.Time) error {
	if !that.IsActive() {
		return ErrMatchCompleted
	}

	that.Outcome = &outcome
	that.EndedAt = endedAt
	that.botMove.Cancel()

	return nil
}

func (that *Match) Duration() time.Duration {
	if that.EndedAt.IsZero() {
		return 0
	}

	return that.EndedAt.Sub(that.StartedAt)
}

// ScheduleBotMove - replaces any pending bot move with the given task.
func (that *Match) ScheduleBotMove(task *clock.Timer, generation uint64) {
	that.botMove.Cancel()
	that.botMove.Generation = generation
	that.botMove.Bind(task)
}

// IsPendingBotMove - true when generation belongs to the latest scheduled bot move.
func (that *Match) IsPendingBotMove(generation uint64) bool {
	return that.botMove.Generation == generation && that.botMove.task != nil
}

// ClearBotMove - marks the pending bot move as consumed.
func (that *Match) ClearBotMove() {
	that.botMove.task = nil
}

// Result - a snapshot of the completed match for reporting.
func (that *Match) Result() MatchResult {
	result := MatchResult{
		MatchID:     that.ID,
		PlayerOne:   that.Participants[0].Identity,
		PlayerTwo:   that.Participants[1].Identity,
		Duration:    that.Duration(),
		Moves:       that.MoveCount,
		Board:       that.Board,
		StartedAt:   that.StartedAt,
		CompletedAt: that.EndedAt,
		IsBot:       that.IsBot,
	}

	if that.Outcome != nil {
		result.Outcome = *that.Outcome
	}

	return result
}

// MatchResult is what gets reported once a match has ended.
type MatchResult struct {
	MatchID     string        `json:"gameId"`
	PlayerOne   string        `json:"player1"`
	PlayerTwo   string        `json:"player2"`
	Outcome     Outcome       `json:"outcome"`
	Duration    time.Duration `json:"-"`
	Moves       int           `json:"moves"`
	Board       Board         `json:"board"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt time.Time     `json:"completedAt"`
	IsBot       bool          `json:"botGame"`
}

func (that MatchResult) DurationSeconds() int {
	return int(that.Duration / time.Second)
}

// Loser - the non-winning participant, empty on a draw.
func (that MatchResult) Loser() string {
	if that.Outcome.IsDraw() {
		return ""
	}

	if that.Outcome.Winner == that.PlayerOne {
		return that.PlayerTwo
	}

	return that.PlayerOne
}

// Move is an accepted move, reported for analytics.
type Move struct {
	MatchID string `json:"gameId"`
	Player  string `json:"player"`
	Column  int    `json:"column"`
	Row     int    `json:"row"`
	Number  int    `json:"moveNumber"`
}
