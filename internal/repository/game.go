package repository

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/repository/memory"
)

// GameRepository is the registry of live matches.
// It never takes a match lock.
type GameRepository interface {
	Create(match *entity.Match) error
	GetByID(id string) (*entity.Match, error)
	GetByPlayer(identity string) (*entity.Match, error)
	DeleteByID(id string) error
	Len() int
}

type memGame struct {
	// keeps the two stores consistent with each other
	mu sync.Mutex

	matches memory.Store[*entity.Match]
	players memory.Store[string]
}

func NewGameRepository(matches memory.Store[*entity.Match], players memory.Store[string]) GameRepository {
	return &memGame{
		matches: matches,
		players: players,
	}
}

// Create - stores the match and indexes its human participants.
func (that *memGame) Create(match *entity.Match) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.matches.Get(match.ID); ok {
		return fmt.Errorf("game %s: %w", match.ID, apperror.ErrAlreadyInMatch)
	}

	humans := match.Humans()
	for _, participant := range humans {
		if existing, ok := that.players.Get(participant.Identity); ok {
			return fmt.Errorf("%s is in game %s: %w", participant.Identity, existing, apperror.ErrAlreadyInMatch)
		}
	}

	that.matches.Put(match.ID, match)
	for _, participant := range humans {
		that.players.Put(participant.Identity, match.ID)
	}

	return nil
}

func (that *memGame) GetByID(id string) (*entity.Match, error) {
	match, ok := that.matches.Get(id)
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, apperror.ErrNotFound)
	}

	return match, nil
}

func (that *memGame) GetByPlayer(identity string) (*entity.Match, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	id, ok := that.players.Get(identity)
	if !ok {
		return nil, fmt.Errorf("player %s: %w", identity, apperror.ErrNotFound)
	}

	match, ok := that.matches.Get(id)
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, apperror.ErrNotFound)
	}

	return match, nil
}

func (that *memGame) DeleteByID(id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	match, ok := that.matches.Get(id)
	if !ok {
		return fmt.Errorf("game %s: %w", id, apperror.ErrNotFound)
	}

	for _, participant := range match.Humans() {
		if indexed, ok := that.players.Get(participant.Identity); ok && indexed == id {
			that.players.Delete(participant.Identity)
		}
	}

	that.matches.Delete(id)

	return nil
}

func (that *memGame) Len() int {
	return that.matches.Len()
}
