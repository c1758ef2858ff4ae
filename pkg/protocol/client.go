// ABOUTME: WebSocket transport for the Resonate Protocol
// ABOUTME: Handles connection, handshake, and message demultiplexing
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Config holds the parameters a Client needs to dial and identify itself.
type Config struct {
	ServerAddr        string
	Path              string // defaults to "/resonate" if empty
	ClientID          string
	Name              string
	Version           int
	DeviceInfo        DeviceInfo
	PlayerSupport     PlayerSupport
	ArtworkSupport    *ArtworkSupport
	VisualizerSupport *VisualizerSupport
}

// Client is a WebSocket transport that performs the client/hello ⇄
// server/hello handshake and demultiplexes subsequent frames onto typed
// channels. It owns no playback state; pkg/session consumes these
// channels to drive the session FSM.
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	BinaryFrames  chan BinaryFrame
	ServerCommand chan ServerCommand
	TimeSyncResp  chan ServerTime
	StreamStart   chan StreamStart
	StreamEnd     chan StreamEnd
	GroupUpdate   chan GroupUpdate
	SessionUpdate chan SessionUpdate

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a Client with its demultiplexing channels allocated.
// Connect must be called before any message will flow.
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = "/resonate"
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:        config,
		BinaryFrames:  make(chan BinaryFrame, 100),
		ServerCommand: make(chan ServerCommand, 10),
		TimeSyncResp:  make(chan ServerTime, 10),
		StreamStart:   make(chan StreamStart, 1),
		StreamEnd:     make(chan StreamEnd, 1),
		GroupUpdate:   make(chan GroupUpdate, 10),
		SessionUpdate: make(chan SessionUpdate, 10),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Connect dials the server, performs the handshake, and starts the
// background reader. It blocks until the handshake completes or fails.
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	log.Printf("protocol: connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readLoop()
	return nil
}

func (c *Client) handshake() error {
	roles := []Role{RolePlayer, RoleMetadata}
	if c.config.ArtworkSupport != nil {
		roles = append(roles, RoleArtwork)
	}
	if c.config.VisualizerSupport != nil {
		roles = append(roles, RoleVisualizer)
	}

	hello := ClientHello{
		ClientID:          c.config.ClientID,
		Name:              c.config.Name,
		Version:           c.config.Version,
		SupportedRoles:    roles,
		DeviceInfo:        &c.config.DeviceInfo,
		PlayerSupport:     &c.config.PlayerSupport,
		ArtworkSupport:    c.config.ArtworkSupport,
		VisualizerSupport: c.config.VisualizerSupport,
	}

	if err := c.sendJSON(Message{Type: TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var serverMsg Message
	if err := json.Unmarshal(data, &serverMsg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if serverMsg.Type != TypeServerHello {
		return fmt.Errorf("expected %s, got %s", TypeServerHello, serverMsg.Type)
	}

	log.Printf("protocol: handshake complete")
	return c.SendPlayerUpdate(PlayerUpdate{State: "synchronized", Volume: 100, Muted: false})
}

func (c *Client) sendJSON(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("protocol: read error: %v", err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(data)
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		default:
			log.Printf("protocol: unknown websocket message type: %d", messageType)
		}
	}
}

func (c *Client) handleBinaryMessage(data []byte) {
	frame, err := DecodeBinaryFrame(data)
	if err != nil {
		log.Printf("protocol: %v", err)
		return
	}
	select {
	case c.BinaryFrames <- frame:
	case <-c.ctx.Done():
	}
}

func (c *Client) handleJSONMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("protocol: failed to parse JSON message: %v", err)
		return
	}
	payloadBytes, _ := json.Marshal(msg.Payload)

	switch msg.Type {
	case TypeServerCommand:
		var cmd ServerCommand
		if err := json.Unmarshal(payloadBytes, &cmd); err != nil {
			log.Printf("protocol: failed to parse server/command: %v", err)
			return
		}
		deliver(c.ctx, c.ServerCommand, cmd, "server/command")

	case TypeServerTime:
		var st ServerTime
		if err := json.Unmarshal(payloadBytes, &st); err != nil {
			log.Printf("protocol: failed to parse server/time: %v", err)
			return
		}
		deliver(c.ctx, c.TimeSyncResp, st, "server/time")

	case TypeStreamStart:
		var start StreamStart
		if err := json.Unmarshal(payloadBytes, &start); err != nil {
			log.Printf("protocol: failed to parse stream/start: %v", err)
			return
		}
		deliver(c.ctx, c.StreamStart, start, "stream/start")

	case TypeStreamEnd:
		deliver(c.ctx, c.StreamEnd, StreamEnd{}, "stream/end")

	case TypeGroupUpdate:
		var update GroupUpdate
		if err := json.Unmarshal(payloadBytes, &update); err != nil {
			log.Printf("protocol: failed to parse group/update: %v", err)
			return
		}
		deliver(c.ctx, c.GroupUpdate, update, "group/update")

	case TypeSessionUpdate:
		var update SessionUpdate
		if err := json.Unmarshal(payloadBytes, &update); err != nil {
			log.Printf("protocol: failed to parse session/update: %v", err)
			return
		}
		deliver(c.ctx, c.SessionUpdate, update, "session/update")

	default:
		log.Printf("protocol: unknown message type: %s", msg.Type)
	}
}

// deliver sends v on ch, dropping it (with a log line) instead of
// blocking forever if the consumer is backed up.
func deliver[T any](ctx context.Context, ch chan T, v T, what string) {
	select {
	case ch <- v:
	case <-ctx.Done():
	case <-time.After(100 * time.Millisecond):
		log.Printf("protocol: %s channel full, dropping message", what)
	}
}

// SendPlayerUpdate sends a player/update message.
func (c *Client) SendPlayerUpdate(update PlayerUpdate) error {
	return c.sendJSON(Message{Type: TypePlayerUpdate, Payload: update})
}

// SendGoodbye sends a client/goodbye message before disconnecting.
func (c *Client) SendGoodbye(reason string) error {
	return c.sendJSON(Message{Type: TypeClientGoodbye, Payload: ClientGoodbye{Reason: reason}})
}

// SendClientTime sends a client/time probe.
func (c *Client) SendClientTime(t1 int64) error {
	return c.sendJSON(Message{Type: TypeClientTime, Payload: ClientTime{ClientTransmitted: t1}})
}

// Close tears down the connection and cancels the reader goroutine. Safe
// to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("protocol: connection closed")
	}
}

// IsConnected reports whether the transport believes it is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
