package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client — одно websocket-соединение аутентифицированного пользователя.
// Обработка входящих сообщений соединения однопоточна (ReadPump),
// обработчики разных соединений выполняются конкурентно.
type Client struct {
	UserID   int
	Nickname string

	hub  *Hub
	conn *websocket.Conn

	send     chan []byte
	closeMu  sync.Mutex
	isClosed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int, nickname string) *Client {
	return &Client{
		UserID:   userID,
		Nickname: nickname,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
	}
}

// SendEvent доставляет событие в это соединение, минуя реестр хаба.
// Используется для приветствия до того, как цикл хаба обработает регистрацию.
func (c *Client) SendEvent(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	c.trySend(data)
	return nil
}

// trySend кладёт сообщение в исходящий буфер без блокировки.
// Закрытое или переполненное соединение молча пропускается.
func (c *Client) trySend(data []byte) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.isClosed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) closeSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if !c.isClosed {
		close(c.send)
		c.isClosed = true
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.deps.Logger.Warn("websocket read error",
					slog.Int("user_id", c.UserID), slog.Any("error", err))
			}
			break
		}
		c.hub.handleInbound(ctx, c, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
