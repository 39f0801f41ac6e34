package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSlowConsumer     = errors.New("send buffer is full")
)

// connection is one client socket. Writes go through a buffered queue
// drained by writePump, so Send never blocks the caller.
type connection struct {
	logger *slog.Logger
	ws     *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	identity string
}

func newConnection(logger *slog.Logger, ws *websocket.Conn) *connection {
	return &connection{
		logger: logger,
		ws:     ws,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (that *connection) Send(event entity.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", event.Action, err)
	}

	select {
	case <-that.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case that.send <- data:
		return nil
	default:
		// a client that cannot keep up is dropped, it may reconnect
		that.close()
		return ErrSlowConsumer
	}
}

func (that *connection) Identity() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.identity
}

func (that *connection) bind(identity string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.identity = identity
}

func (that *connection) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// writePump - the only goroutine writing to the socket.
func (that *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = that.ws.Close()
	}()

	for {
		select {
		case data := <-that.send:
			if err := that.write(websocket.TextMessage, data); err != nil {
				that.logger.Debug("write failed", "error", err)
				that.close()
				return
			}
		case <-ticker.C:
			if err := that.write(websocket.PingMessage, nil); err != nil {
				that.close()
				return
			}
		case <-that.done:
			that.flush()
			_ = that.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush - writes what is still queued before the socket goes away.
func (that *connection) flush() {
	for {
		select {
		case data := <-that.send:
			if err := that.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (that *connection) write(messageType int, data []byte) error {
	if err := that.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.ws.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
