package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
)

var (
	errInvalidPayload = errors.New("invalid payload")
	errNotJoined      = errors.New("join or reconnect to a game first")
	errAlreadyBound   = errors.New("connection already belongs to another player")
)

// rejections are reported to the client with their own message.
var rejections = []error{
	apperror.ErrNotFound,
	apperror.ErrNotYourTurn,
	apperror.ErrIllegalMove,
	apperror.ErrAlreadyInMatch,
	apperror.ErrReservedName,
	errInvalidPayload,
	errNotJoined,
	errAlreadyBound,
}

func (that *Server) handleJoinGame(ctx context.Context, conn *connection, msg *Message) error {
	var payload JoinPayload
	if err := that.decode(msg, &payload); err != nil {
		return err
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" {
		return fmt.Errorf("%w: username", errInvalidPayload)
	}

	if err := checkBinding(conn, username); err != nil {
		return err
	}

	if err := that.manager.Join(ctx, username, conn); err != nil {
		return fmt.Errorf("failed to join game: %w", err)
	}

	conn.bind(username)

	return nil
}

func (that *Server) handleReconnectGame(ctx context.Context, conn *connection, msg *Message) error {
	var payload ReconnectPayload
	if err := that.decode(msg, &payload); err != nil {
		return err
	}

	username := strings.TrimSpace(payload.Username)

	if err := checkBinding(conn, username); err != nil {
		return err
	}

	if err := that.manager.Reconnect(ctx, username, payload.GameID, conn); err != nil {
		return fmt.Errorf("failed to reconnect: %w", err)
	}

	conn.bind(username)

	return nil
}

// checkBinding - a connection keeps its first identity, the close of the socket
// must reach the participant it is bound to.
func checkBinding(conn *connection, username string) error {
	if bound := conn.Identity(); bound != "" && bound != username {
		return fmt.Errorf("%w: %s", errAlreadyBound, bound)
	}

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, conn *connection, msg *Message) error {
	identity := conn.Identity()
	if identity == "" {
		return errNotJoined
	}

	var payload MovePayload
	if err := that.decode(msg, &payload); err != nil {
		return err
	}

	if err := that.manager.SubmitMove(ctx, identity, payload.GameID, *payload.Column); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

func (that *Server) decode(msg *Message, payload any) error {
	if err := json.Unmarshal(msg.Payload, payload); err != nil {
		return fmt.Errorf("%w: %w", errInvalidPayload, err)
	}

	if err := that.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return fmt.Errorf("%w: %s", errInvalidPayload, strings.ToLower(validationErrors[0].Field()))
		}

		return fmt.Errorf("%w: %w", errInvalidPayload, err)
	}

	return nil
}

// userMessage - the text sent back for a rejected request.
func (that *Server) userMessage(action string, err error) string {
	if rejection, ok := lo.Find(rejections, func(target error) bool {
		return errors.Is(err, target)
	}); ok {
		if errors.Is(err, errInvalidPayload) {
			return err.Error()
		}

		return rejection.Error()
	}

	that.logger.Error("request failed", "action", action, "error", err)

	return "Internal server error"
}
