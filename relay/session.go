package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"dockside/world"
)

// ChatMessage is one entry for the chat-log consumer, in receipt order.
type ChatMessage struct {
	System   bool
	Username string
	Message  string
	Time     time.Time
	Own      bool
}

// Config identifies the relay endpoint and the local player on it.
type Config struct {
	URL      string // websocket endpoint of the relay
	Key      string // access credential, checked on upgrade
	LobbyID  string
	ID       string // session id, stable for the connection's lifetime
	Username string
}

// Session binds one logical connection to a relay channel. Inbound messages
// mutate the registry; outbound sends are fire-and-forget and silently
// dropped while disconnected. The relay owns transport-level retry; a failed
// session is simply reported as not connected.
type Session struct {
	cfg      Config
	registry *world.Registry
	onChat   func(ChatMessage)

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	peers     int

	outbound chan Envelope
	cancel   context.CancelFunc
}

// Dial connects to the relay, subscribes to the lobby channel and announces
// local presence. The returned session is live: its read and write loops run
// until Close or a transport error.
func Dial(ctx context.Context, cfg Config, registry *world.Registry, onChat func(ChatMessage)) (*Session, error) {
	endpoint := fmt.Sprintf("%s?channel=%s&apikey=%s",
		cfg.URL,
		url.QueryEscape(ChannelName(cfg.LobbyID)),
		url.QueryEscape(cfg.Key))

	conn, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("relay dial: %w", err)
	}

	s := &Session{
		cfg:       cfg,
		registry:  registry,
		onChat:    onChat,
		conn:      conn,
		connected: true,
		outbound:  make(chan Envelope, 64),
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.readLoop(loopCtx)
	go s.writeLoop(loopCtx)

	s.send(TypePresence, EventTrack, PresenceRecord{
		ID:       cfg.ID,
		Username: cfg.Username,
		LobbyID:  cfg.LobbyID,
		OnlineAt: time.Now().UTC().Format(time.RFC3339),
	})
	s.systemMessage(cfg.Username + " joined the lobby")
	return s, nil
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// PeerCount is the number of other clients present on the channel, per the
// latest presence sync.
func (s *Session) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peers
}

// SendChat broadcasts a chat line. Empty input and disconnected sessions are
// silent no-ops.
func (s *Session) SendChat(text string) {
	text = strings.TrimSpace(text)
	if text == "" || !s.Connected() {
		return
	}
	s.send(TypeBroadcast, EventChat, ChatPayload{
		ID:       s.cfg.ID,
		Username: s.cfg.Username,
		Message:  text,
		TS:       time.Now().UnixMilli(),
	})
}

// SendMovement broadcasts one movement snapshot. Implements
// world.MovementSender.
func (s *Session) SendMovement(pos world.Vec3, yaw float64, quat world.Quat, anim world.Animation) {
	if !s.Connected() {
		return
	}
	s.send(TypeBroadcast, EventPlayerMove, MovePayload{
		ID:         s.cfg.ID,
		Position:   Position{X: pos.X, Y: pos.Y, Z: pos.Z},
		Rotation:   Rotation{Y: yaw},
		Quaternion: &Quaternion{X: quat.X, Y: quat.Y, Z: quat.Z, W: quat.W},
		Animation:  string(anim),
		Username:   s.cfg.Username,
	})
}

// SendCollect announces an item pickup. Informational to other clients; there
// is no inbound handling.
func (s *Session) SendCollect(gemID string) {
	if !s.Connected() {
		return
	}
	s.send(TypeBroadcast, EventCollect, CollectPayload{
		GemID:    gemID,
		Username: s.cfg.Username,
	})
}

// Close tears the session down: marks disconnected, clears the registry and
// closes the socket. Safe to call more than once; a fresh Dial fully rebinds.
func (s *Session) Close() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "session end")
	}
	s.registry.Clear()
}

// send queues an envelope without blocking the caller; a full queue drops the
// message rather than stalling the tick loop.
func (s *Session) send(typ, event string, payload interface{}) {
	env, err := NewEnvelope(typ, event, payload)
	if err != nil {
		log.Printf("relay: %v", err)
		return
	}
	select {
	case s.outbound <- env:
	default:
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	for {
		select {
		case env := <-s.outbound:
			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				return
			}
			if err := wsjson.Write(ctx, conn, env); err != nil {
				s.markDisconnected()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) readLoop(ctx context.Context) {
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		var env Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			s.markDisconnected()
			return
		}
		s.handle(env)
	}
}

func (s *Session) markDisconnected() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}

// handle dispatches one inbound envelope. Runs on the read goroutine; all
// shared state it touches goes through the registry or the session mutex.
// Envelopes racing a Close are dropped: once Close has cleared the registry,
// nothing from the old session may repopulate it.
func (s *Session) handle(env Envelope) {
	if !s.Connected() {
		return
	}
	switch env.Type {
	case TypeBroadcast:
		switch env.Event {
		case EventPlayerMove:
			s.onMove(env.Payload)
		case EventChat:
			s.onChatEvent(env.Payload)
		}
	case TypePresence:
		switch env.Event {
		case EventSync:
			s.onSync(env.Payload)
		case EventLeave:
			s.onLeave(env.Payload)
		}
	}
}

func (s *Session) onMove(raw json.RawMessage) {
	var p MovePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	// A payload without an id is dropped; our own echo must never re-enter
	// the registry even if the relay fails to suppress self-delivery.
	if p.ID == "" || p.ID == s.cfg.ID {
		return
	}

	_, known := s.registry.Get(p.ID)

	username := p.Username
	if username == "" {
		username = "Unknown"
	}
	state := world.PlayerState{
		Position:  world.Vec3{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
		Yaw:       p.Rotation.Y,
		Animation: world.ValidAnimation(p.Animation),
		Username:  username,
	}
	if p.Quaternion != nil {
		q := world.Quat{X: p.Quaternion.X, Y: p.Quaternion.Y, Z: p.Quaternion.Z, W: p.Quaternion.W}
		state.Quat = &q
	}
	s.registry.Update(p.ID, state)

	if !known {
		// First sighting of this id: field merges don't notify, so id-list
		// consumers need an explicit structural notification.
		s.registry.Notify()
	}
}

func (s *Session) onChatEvent(raw json.RawMessage) {
	var p ChatPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	if p.ID == "" {
		return
	}
	if p.ID != s.cfg.ID {
		s.registry.UpdateChat(p.ID, p.Message)
	}
	if s.onChat != nil {
		s.onChat(ChatMessage{
			Username: p.Username,
			Message:  p.Message,
			Time:     time.UnixMilli(p.TS),
			Own:      p.ID == s.cfg.ID,
		})
	}
}

func (s *Session) onSync(raw json.RawMessage) {
	var p SyncPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	others := 0
	for _, rec := range p.Presences {
		if rec.ID != s.cfg.ID {
			others++
		}
	}
	s.mu.Lock()
	s.peers = others
	s.mu.Unlock()
}

// onLeave removes departed players from the registry. The peer count is not
// touched here: it comes solely from sync snapshots, and the relay follows
// every leave with a fresh one.
func (s *Session) onLeave(raw json.RawMessage) {
	var p LeavePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	for _, rec := range p.LeftPresences {
		if rec.ID == "" || rec.ID == s.cfg.ID {
			continue
		}
		s.registry.Remove(rec.ID)
		if rec.Username != "" {
			s.systemMessage(rec.Username + " left the lobby")
		}
	}
}

func (s *Session) systemMessage(text string) {
	if s.onChat == nil {
		return
	}
	s.onChat(ChatMessage{System: true, Message: text, Time: time.Now()})
}
