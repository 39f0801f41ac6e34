package usecase

import (
	"context"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

type delivery struct {
	identity string
	conn     entity.Conn
	event    entity.Event
}

// outbox collects the side effects of a transition.
// Deliveries are handed to connections before the match is unlocked, tasks run after.
type outbox struct {
	deliveries []delivery
	tasks      []func(ctx context.Context)
}

func (that *outbox) send(participant *entity.Participant, event entity.Event) {
	if participant.IsBot || participant.Conn == nil {
		return
	}

	that.deliveries = append(that.deliveries, delivery{
		identity: participant.Identity,
		conn:     participant.Conn,
		event:    event,
	})
}

func (that *outbox) sendTo(identity string, conn entity.Conn, event entity.Event) {
	if conn == nil {
		return
	}

	that.deliveries = append(that.deliveries, delivery{
		identity: identity,
		conn:     conn,
		event:    event,
	})
}

func (that *outbox) broadcast(match *entity.Match, event entity.Event) {
	for _, participant := range match.Participants {
		that.send(participant, event)
	}
}

func (that *outbox) after(task func(ctx context.Context)) {
	that.tasks = append(that.tasks, task)
}
