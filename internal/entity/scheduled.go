package entity

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Scheduled ties a deferred task to the record that owns it.
// A task that fires must compare its generation with the record's before acting.
type Scheduled struct {
	Generation uint64 `json:"generation"`

	task *clock.Timer
}

func (that *Scheduled) Bind(task *clock.Timer) {
	that.task = task
}

// Cancel - stops the task; safe to call more than once.
func (that *Scheduled) Cancel() bool {
	if that.task == nil {
		return false
	}

	stopped := that.task.Stop()
	that.task = nil

	return stopped
}

// WaitingEntry is a participant waiting in the matchmaking queue.
type WaitingEntry struct {
	Scheduled

	Identity   string    `json:"username"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Deadline   time.Time `json:"deadline"`

	Conn Conn `json:"-"`
}

func NewWaitingEntry(identity string, conn Conn, now time.Time, timeout time.Duration, generation uint64) *WaitingEntry {
	return &WaitingEntry{
		Scheduled:  Scheduled{Generation: generation},
		Identity:   identity,
		EnqueuedAt: now,
		Deadline:   now.Add(timeout),
		Conn:       conn,
	}
}

// Disconnection tracks a participant of an active match that lost its transport.
type Disconnection struct {
	Scheduled

	Identity string    `json:"username"`
	MatchID  string    `json:"game_id"`
	Since    time.Time `json:"since"`
	Deadline time.Time `json:"deadline"`
}

func NewDisconnection(identity, matchID string, now time.Time, timeout time.Duration, generation uint64) *Disconnection {
	return &Disconnection{
		Scheduled: Scheduled{Generation: generation},
		Identity:  identity,
		MatchID:   matchID,
		Since:     now,
		Deadline:  now.Add(timeout),
	}
}
