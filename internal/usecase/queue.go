package usecase

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository/memory"
)

// ExpireFunc is called once a waiting entry reaches its deadline, without the queue lock held.
type ExpireFunc func(identity string, generation uint64)

// Queue is the FIFO matchmaking queue.
type Queue struct {
	mu sync.Mutex

	clock   clock.Clock
	timeout time.Duration

	order    []*entity.WaitingEntry
	members  memory.Store[*entity.WaitingEntry]
	onExpire ExpireFunc
}

func NewQueue(clk clock.Clock, timeout time.Duration, members memory.Store[*entity.WaitingEntry]) *Queue {
	return &Queue{
		clock:   clk,
		timeout: timeout,
		members: members,
	}
}

// OnExpire - sets the escalation callback, must be called before the first enqueue.
func (that *Queue) OnExpire(fn ExpireFunc) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onExpire = fn
}

// EnqueueOrPair - pairs identity with the oldest waiting entry, or enqueues it.
// It returns the dequeued head and true on pairing, the new entry and false otherwise.
// A previous entry for the same identity is cancelled first.
func (that *Queue) EnqueueOrPair(identity string, conn entity.Conn, generation uint64) (*entity.WaitingEntry, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.remove(identity)

	if len(that.order) > 0 {
		head := that.order[0]
		that.remove(head.Identity)

		return head, true
	}

	entry := entity.NewWaitingEntry(identity, conn, that.clock.Now(), that.timeout, generation)
	entry.Bind(that.clock.AfterFunc(that.timeout, func() {
		that.expire(identity, generation)
	}))

	that.order = append(that.order, entry)
	that.members.Put(identity, entry)

	return entry, false
}

// Claim - removes the entry if it still carries the given generation.
func (that *Queue) Claim(identity string, generation uint64) (*entity.WaitingEntry, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.members.Get(identity)
	if !ok || entry.Generation != generation {
		return nil, false
	}

	that.remove(identity)

	return entry, true
}

// Remove - cancels the waiting entry of identity. A non-nil conn must match the entry's connection.
func (that *Queue) Remove(identity string, conn entity.Conn) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.members.Get(identity)
	if !ok {
		return false
	}

	if conn != nil && entry.Conn != conn {
		return false
	}

	return that.remove(identity)
}

func (that *Queue) Len() int {
	return that.members.Len()
}

func (that *Queue) remove(identity string) bool {
	entry, ok := that.members.Get(identity)
	if !ok {
		return false
	}

	entry.Cancel()
	that.members.Delete(identity)
	that.order = lo.Reject(that.order, func(item *entity.WaitingEntry, _ int) bool {
		return item.Identity == identity
	})

	return true
}

func (that *Queue) expire(identity string, generation uint64) {
	that.mu.Lock()
	onExpire := that.onExpire
	that.mu.Unlock()

	if onExpire != nil {
		onExpire(identity, generation)
	}
}
