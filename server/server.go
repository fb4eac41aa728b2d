// Package server is a standalone lobby relay: per-channel pub/sub broadcast
// plus presence tracking, enough to run the game without external
// infrastructure. It validates nothing beyond the access key and relays
// broadcast payloads verbatim.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"dockside/relay"
)

type subscriber struct {
	messages chan relay.Envelope
	channel  string
	conn     *websocket.Conn

	mu       sync.Mutex
	presence *relay.PresenceRecord
}

func (s *subscriber) track(rec relay.PresenceRecord) {
	s.mu.Lock()
	s.presence = &rec
	s.mu.Unlock()
}

func (s *subscriber) tracked() *relay.PresenceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence
}

type Server struct {
	key      string
	serveMux http.ServeMux

	mu       sync.RWMutex
	channels map[string]map[*subscriber]struct{}
}

func New(key string) *Server {
	s := &Server{
		key:      key,
		channels: make(map[string]map[*subscriber]struct{}),
	}
	s.serveMux.HandleFunc("/", s.onConnection)
	s.serveMux.HandleFunc("/debug/pprof/", pprof.Index)
	s.serveMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.serveMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.serveMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.serveMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.serveMux.ServeHTTP(w, r)
}

func (s *Server) onConnection(w http.ResponseWriter, r *http.Request) {
	if s.key != "" && r.URL.Query().Get("apikey") != s.key {
		http.Error(w, "bad api key", http.StatusUnauthorized)
		return
	}
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		http.Error(w, "missing channel", http.StatusBadRequest)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Println(err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	if err := s.handleConnection(r.Context(), c, channel); err != nil {
		log.Println(err)
	}
}

func (s *Server) handleConnection(ctx context.Context, c *websocket.Conn, channel string) error {
	sub := &subscriber{
		messages: make(chan relay.Envelope, 256),
		channel:  channel,
		conn:     c,
	}
	s.addSubscriber(sub)

	defer func() {
		s.removeSubscriber(sub)
		// An abrupt disconnect still produces a clean leave for everyone
		// else, followed by a fresh presence snapshot.
		if rec := sub.tracked(); rec != nil {
			if env, err := relay.NewEnvelope(relay.TypePresence, relay.EventLeave, relay.LeavePayload{
				LeftPresences: []relay.PresenceRecord{*rec},
			}); err == nil {
				s.publish(channel, env, nil)
			}
			s.publishSync(channel)
		}
	}()

	go func() {
		for {
			var env relay.Envelope
			if err := wsjson.Read(ctx, c, &env); err != nil {
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
			s.onEnvelope(sub, env)
		}
	}()

	for {
		select {
		case env := <-sub.messages:
			if err := wsjson.Write(ctx, c, env); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Server) onEnvelope(sub *subscriber, env relay.Envelope) {
	switch env.Type {
	case relay.TypeBroadcast:
		// Sender suppression: the client self-filters anyway, but the relay
		// is configured not to echo broadcasts back.
		s.publish(sub.channel, env, sub)
	case relay.TypePresence:
		if env.Event != relay.EventTrack {
			return
		}
		var rec relay.PresenceRecord
		if err := json.Unmarshal(env.Payload, &rec); err != nil || rec.ID == "" {
			return
		}
		sub.track(rec)
		s.publishSync(sub.channel)
	}
}

func (s *Server) addSubscriber(sub *subscriber) {
	s.mu.Lock()
	subs := s.channels[sub.channel]
	if subs == nil {
		subs = make(map[*subscriber]struct{})
		s.channels[sub.channel] = subs
	}
	subs[sub] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) removeSubscriber(sub *subscriber) {
	s.mu.Lock()
	if subs := s.channels[sub.channel]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(s.channels, sub.channel)
		}
	}
	s.mu.Unlock()
}

// publish fans env out to every subscriber on the channel except the one
// named (nil means everyone). Slow consumers get cut, not waited on.
func (s *Server) publish(channel string, env relay.Envelope, except *subscriber) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.channels[channel] {
		if sub == except {
			continue
		}
		select {
		case sub.messages <- env:
		default:
			sub.conn.Close(websocket.StatusPolicyViolation, "write would block")
		}
	}
}

// publishSync sends the full presence set for the channel to everyone on it.
func (s *Server) publishSync(channel string) {
	s.mu.RLock()
	records := make([]relay.PresenceRecord, 0, len(s.channels[channel]))
	for sub := range s.channels[channel] {
		if rec := sub.tracked(); rec != nil {
			records = append(records, *rec)
		}
	}
	s.mu.RUnlock()

	env, err := relay.NewEnvelope(relay.TypePresence, relay.EventSync, relay.SyncPayload{Presences: records})
	if err != nil {
		log.Println(err)
		return
	}
	s.publish(channel, env, nil)
}

// Run serves the relay until interrupted. The listen address may be passed as
// the second argument; the access key comes from DOCKSIDE_RELAY_KEY (empty
// disables the check, for local play).
func Run(args []string) error {
	address := "localhost:4242"
	if len(args) > 1 {
		address = args[1]
	}
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	log.Printf("relay listening on http://%v", l.Addr())

	srv := &http.Server{
		Handler:      New(os.Getenv("DOCKSIDE_RELAY_KEY")),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		log.Println(err)
	case sig := <-sigs:
		log.Printf("terminating: %v", sig)
	}

	return srv.Shutdown(context.Background())
}
