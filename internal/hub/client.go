package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/supdesk/relay-service/internal/config"
	"github.com/supdesk/relay-service/internal/domain"
	"github.com/supdesk/relay-service/pkg/log"
)

var ErrConnClosed = errors.New("connection closed")

// Client is the live channel to one websocket peer. Outbound events go
// through a buffered channel drained by WritePump; Send fails once the
// connection is closed.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	closed  chan struct{}
	once    sync.Once
	Session *domain.Session
	cfg     config.WebSocketConfig
}

func NewClient(id string, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, 256),
		closed:  make(chan struct{}),
		Session: domain.NewSession(id),
		cfg:     cfg,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues an enveloped event for the peer. It fails when the
// connection is closed or the peer stopped draining its buffer.
func (c *Client) Send(event string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(domain.Envelope{Event: event, Data: raw})
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.closed:
		return ErrConnClosed
	default:
		return errors.New("send buffer full")
	}
}

func (c *Client) markClosed() {
	c.once.Do(func() {
		close(c.closed)
	})
}

// ReadPump consumes inbound frames until the connection drops, then runs
// onClose exactly once.
func (c *Client) ReadPump(onMessage func(*Client, []byte), onClose func(*Client)) {
	defer func() {
		c.markClosed()
		c.conn.Close()
		onClose(c)
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.L().Warn().Err(err).Str(log.FieldConnID, c.id).Msg("websocket read error")
			}
			break
		}

		c.Session.UpdateActivity()
		onMessage(c, message)
	}
}

// WritePump drains the send buffer and keeps the connection alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.markClosed()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
