package relay

import (
	"encoding/base64"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/hanspeterhess/show-time-aws-V1/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inline job results arrive base64-encoded, so frames can be large.
	maxMessageSize = 16 * 1024 * 1024
)

// clientIDCounter hands out unique IDs so broadcast order is stable.
var clientIDCounter atomic.Uint64

// EventHandler receives the validated channel events a peer can produce.
// The relay service implements it.
type EventHandler interface {
	// UploadComplete handles a client's report that a direct upload finished.
	UploadComplete(originalKey string)
	// ProcessedImage handles a worker's inline (base64-decoded) job output.
	ProcessedImage(originalKey string, data []byte)
	// ProcessedUploaded handles a worker's report that it stored its output itself.
	ProcessedUploaded(originalKey, blurredKey string)
}

// Client is the middleman between one websocket connection and the hub.
// The send channel is never closed; the hub signals writePump shutdown by
// closing done, so senders can race a disconnect without panicking.
type Client struct {
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	handler EventHandler
	send    chan Message
	done    chan struct{}
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, handler EventHandler) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		handler: handler,
		send:    make(chan Message, 256),
		done:    make(chan struct{}),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Run registers the client and pumps the connection until it closes.
// It blocks for the lifetime of the connection, as the websocket handler
// contract requires.
func (c *Client) Run() {
	c.hub.Register <- c
	go c.writePump()
	c.readPump()
}

// ServeWS returns the websocket handler that attaches connections to the hub.
func ServeWS(hub *Hub, handler EventHandler) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		NewClient(hub, conn, handler).Run()
	}
}

// readPump reads frames off the connection, validates them against the closed
// message set, and dispatches them. Runs in the connection's goroutine.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}
		c.dispatch(env)
	}
}

// dispatch routes one validated inbound frame.
func (c *Client) dispatch(env envelope) {
	switch env.Type {
	case TypeIdentify:
		var p IdentifyPayload
		if err := decodePayload(env.Data, &p); err != nil || p.Role == "" {
			logging.Warn().Uint64("client_id", c.id).Msg("identify without role, ignoring")
			return
		}
		if p.Role == RoleWorker {
			c.hub.SetWorker(c)
			return
		}
		logging.Debug().Uint64("client_id", c.id).Str("role", p.Role).Msg("peer identified")

	case TypeUploadComplete:
		var p UploadCompletePayload
		if err := decodePayload(env.Data, &p); err != nil || p.OriginalKey == "" {
			logging.Warn().Uint64("client_id", c.id).Msg("upload-complete without originalKey, ignoring")
			return
		}
		c.handler.UploadComplete(p.OriginalKey)

	case TypeProcessedImage:
		var p ProcessedImagePayload
		if err := decodePayload(env.Data, &p); err != nil || p.OriginalKey == "" || p.Buffer == "" {
			logging.Warn().Uint64("client_id", c.id).Msg("processed-image with missing fields, ignoring")
			return
		}
		data, err := base64.StdEncoding.DecodeString(p.Buffer)
		if err != nil {
			logging.Error().Err(err).Str("original_key", p.OriginalKey).Msg("processed-image buffer is not valid base64")
			c.hub.Broadcast(NewProcessingError(p.OriginalKey, "invalid result payload"))
			return
		}
		c.handler.ProcessedImage(p.OriginalKey, data)

	case TypeProcessedUploaded:
		var p ProcessedUploadedPayload
		if err := decodePayload(env.Data, &p); err != nil || p.OriginalKey == "" || p.BlurredKey == "" {
			logging.Warn().Uint64("client_id", c.id).Msg("processed-uploaded with missing fields, ignoring")
			return
		}
		c.handler.ProcessedUploaded(p.OriginalKey, p.BlurredKey)

	default:
		logging.Warn().Uint64("client_id", c.id).Str("type", env.Type).Msg("unknown message type, ignoring")
	}
}

// writePump pushes queued messages and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-c.done:
			// The hub dropped this client
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
