package world

import (
	"sync"
	"time"
)

// PlayerState is the last-known snapshot of a remote player. Movement fields
// overwrite on every update; chat fields survive movement-only updates and
// vice versa.
type PlayerState struct {
	Position  Vec3
	Yaw       float64
	Quat      *Quat // preferred over Yaw when present
	Animation Animation
	Username  string

	ChatText string
	ChatAt   time.Time

	UpdatedAt time.Time
}

// Registry is the single synchronization point between the relay's inbound
// callbacks and the tick loop: writes come from the session goroutine, reads
// from the render tick, last value wins. Listeners fire on structural changes
// (add is signalled by the session via Notify, remove/clear fire here) and are
// always invoked outside the lock.
type Registry struct {
	mu        sync.RWMutex
	players   map[string]PlayerState
	listeners map[int]func()
	nextSub   int
}

func NewRegistry() *Registry {
	return &Registry{
		players:   make(map[string]PlayerState),
		listeners: make(map[int]func()),
	}
}

// Update merges s into the stored record for id, creating it if absent.
// Incoming zero chat fields keep whatever chat the record already carried.
func (r *Registry) Update(id string, s PlayerState) {
	r.mu.Lock()
	if existing, ok := r.players[id]; ok {
		if s.ChatText == "" {
			s.ChatText = existing.ChatText
			s.ChatAt = existing.ChatAt
		}
	}
	s.UpdatedAt = time.Now()
	r.players[id] = s
	r.mu.Unlock()
}

// UpdateChat annotates an already-known player with their latest utterance.
// Unknown ids are ignored; chat never creates registry entries.
func (r *Registry) UpdateChat(id, text string) {
	r.mu.Lock()
	if existing, ok := r.players[id]; ok {
		existing.ChatText = text
		existing.ChatAt = time.Now()
		r.players[id] = existing
	}
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (PlayerState, bool) {
	r.mu.RLock()
	s, ok := r.players[id]
	r.mu.RUnlock()
	return s, ok
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.players)
	r.mu.RUnlock()
	return n
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.players, id)
	r.mu.Unlock()
	r.Notify()
}

func (r *Registry) Clear() {
	r.mu.Lock()
	r.players = make(map[string]PlayerState)
	r.mu.Unlock()
	r.Notify()
}

// Subscribe registers fn to run after structural changes. The returned
// function unsubscribes.
func (r *Registry) Subscribe(fn func()) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.listeners[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Notify invokes all listeners. Update does not call this itself: the session
// triggers it when a message introduces a previously unseen id, so id-list
// consumers stay correct without a notification per movement packet.
func (r *Registry) Notify() {
	r.mu.RLock()
	fns := make([]func(), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}
