package chathub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"storybook/backend/internal/config"
	"storybook/backend/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const frameTimeout = 10 * time.Second

// FrameHandler handles one inbound text frame of userID and returns the
// events to send back on the same channel.
type FrameHandler interface {
	HandleFrame(ctx context.Context, userID string, raw []byte) []models.Event
}

// WebSocketClient implements chathub.Client over a gorilla connection.
type WebSocketClient struct {
	UserID  string
	Conn    *websocket.Conn
	Hub     *ManagerService
	Handler FrameHandler

	send      chan models.Event
	done      chan struct{}
	closeOnce sync.Once
	started   atomic.Bool
	logger    *zap.Logger
}

func NewWebSocketClient(conn *websocket.Conn, userID string, hub *ManagerService, handler FrameHandler, logger *zap.Logger) *WebSocketClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketClient{
		UserID:  userID,
		Conn:    conn,
		Hub:     hub,
		Handler: handler,
		send:    make(chan models.Event, config.WSSendBuffer),
		done:    make(chan struct{}),
		logger:  logger.With(zap.String("user_id", userID)),
	}
}

func (c *WebSocketClient) GetUserID() string { return c.UserID }

func (c *WebSocketClient) Deliver(ev models.Event) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- ev:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrSendBufferFull
	}
}

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	c.started.Store(true)
	go c.writePump()
	go c.readPump()
}

// Close stops the write pump, which sends a close frame and closes the
// connection. The read pump then exits on its own.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if !c.started.Load() {
			_ = c.Conn.Close()
		}
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Close()
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.WSMaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(config.WSPongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(config.WSPongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
		replies := c.Handler.HandleFrame(ctx, c.UserID, raw)
		cancel()

		for _, ev := range replies {
			if err := c.Deliver(ev); err != nil {
				c.logger.Warn("reply dropped", zap.String("event", ev.Type), zap.Error(err))
			}
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.WSPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			if err := c.Conn.WriteJSON(ev); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(config.WSWriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(config.WSWriteWait))
			return
		}
	}
}

// CloseUnauthorized rejects an upgraded connection whose token failed.
func CloseUnauthorized(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(config.WSCloseUnauthorized, reason),
		time.Now().Add(config.WSWriteWait))
	_ = conn.Close()
}
