package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameManager interface {
	Join(ctx context.Context, identity string, conn entity.Conn) error
	Reconnect(ctx context.Context, identity, matchID string, conn entity.Conn) error
	SubmitMove(ctx context.Context, identity, matchID string, column int) error
	Disconnect(ctx context.Context, identity string, conn entity.Conn)
}

type Server struct {
	logger   *slog.Logger
	manager  gameManager
	validate *validator.Validate
	upgrader websocket.Upgrader

	handlers map[string]func(ctx context.Context, conn *connection, message *Message) error
}

func New(logger *slog.Logger, manager gameManager) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		manager:  manager,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]func(context.Context, *connection, *Message) error),
	}

	server.handlers[actionJoinGame] = server.handleJoinGame
	server.handlers[actionReconnectGame] = server.handleReconnectGame
	server.handlers[actionMakeMove] = server.handleMakeMove

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server, it stops when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - upgrades the request and runs the connection until it closes.
func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(that.logger, ws)
	go conn.writePump()

	log.Debug("WebSocket connection established", "remote", req.RemoteAddr)

	ctx := req.Context()
	that.handleMessages(ctx, conn)

	conn.close()

	if identity := conn.Identity(); identity != "" {
		that.manager.Disconnect(ctx, identity, conn)
	}
}

// handleMessages - processes messages from the client until the socket fails.
func (that *Server) handleMessages(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleMessages")

	conn.ws.SetReadLimit(maxMessageSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed unexpectedly", "error", err)
			}

			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			that.sendError(conn, "Malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.sendError(conn, "Unknown action "+message.Action)
			continue
		}

		if err = handler(ctx, conn, &message); err != nil {
			that.sendError(conn, that.userMessage(message.Action, err))
		}
	}
}

func (that *Server) sendError(conn *connection, message string) {
	if err := conn.Send(entity.NewErrorEvent(message)); err != nil {
		that.logger.Debug("failed to send error", "error", err)
	}
}
