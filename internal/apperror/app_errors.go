package apperror

import "errors"

var (
	ErrNotFound       = errors.New("game not found")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrIllegalMove    = errors.New("invalid move")
	ErrAlreadyInMatch = errors.New("already in a game")
	ErrReservedName   = errors.New("username is reserved")

	ErrTransientPersistence = errors.New("failed to persist game result")
	ErrTransientPublish     = errors.New("failed to publish analytics event")
)
