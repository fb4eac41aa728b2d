package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dockside/relay"
	"dockside/world"
)

func dialTestSession(t *testing.T, url, key, id, username string, onChat func(relay.ChatMessage)) (*relay.Session, *world.Registry) {
	t.Helper()
	registry := world.NewRegistry()
	s, err := relay.Dial(context.Background(), relay.Config{
		URL:      url,
		Key:      key,
		LobbyID:  "test",
		ID:       id,
		Username: username,
	}, registry, onChat)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s, registry
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRelayBroadcast(t *testing.T) {
	ts := httptest.NewServer(New("secret"))
	defer ts.Close()

	a, regA := dialTestSession(t, ts.URL, "secret", "a", "alice", nil)
	b, regB := dialTestSession(t, ts.URL, "secret", "b", "bob", nil)

	waitFor(t, "presence sync", func() bool {
		return a.PeerCount() == 1 && b.PeerCount() == 1
	})

	b.SendMovement(world.Vec3{X: 5, Z: 5}, 1.5, world.QuatFromYaw(1.5), world.AnimRun)

	waitFor(t, "movement delivery", func() bool {
		p, ok := regA.Get("b")
		return ok && p.Position.X == 5 && p.Animation == world.AnimRun
	})

	// The relay must not echo the broadcast back to its sender.
	if _, ok := regB.Get("b"); ok {
		t.Error("sender received its own broadcast")
	}
}

func TestRelayChat(t *testing.T) {
	ts := httptest.NewServer(New(""))
	defer ts.Close()

	var mu sync.Mutex
	var received []relay.ChatMessage
	a, _ := dialTestSession(t, ts.URL, "", "a", "alice", func(m relay.ChatMessage) {
		mu.Lock()
		received = append(received, m)
		mu.Unlock()
	})
	b, _ := dialTestSession(t, ts.URL, "", "b", "bob", nil)

	waitFor(t, "presence sync", func() bool {
		return a.PeerCount() == 1 && b.PeerCount() == 1
	})

	b.SendChat("hello")
	waitFor(t, "chat delivery", func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, m := range received {
			if !m.System && m.Username == "bob" && m.Message == "hello" {
				return true
			}
		}
		return false
	})
}

func TestRelayLeave(t *testing.T) {
	ts := httptest.NewServer(New(""))
	defer ts.Close()

	a, regA := dialTestSession(t, ts.URL, "", "a", "alice", nil)
	b, _ := dialTestSession(t, ts.URL, "", "b", "bob", nil)

	waitFor(t, "presence sync", func() bool {
		return a.PeerCount() == 1
	})

	b.SendMovement(world.Vec3{X: 1}, 0, world.QuatIdentity(), world.AnimIdle)
	waitFor(t, "movement delivery", func() bool {
		_, ok := regA.Get("b")
		return ok
	})

	b.Close()
	waitFor(t, "leave delivery", func() bool {
		_, ok := regA.Get("b")
		return !ok && a.PeerCount() == 0
	})
}

func TestRelayRejectsBadKey(t *testing.T) {
	ts := httptest.NewServer(New("secret"))
	defer ts.Close()

	registry := world.NewRegistry()
	_, err := relay.Dial(context.Background(), relay.Config{
		URL: ts.URL, Key: "wrong", LobbyID: "test", ID: "x", Username: "x",
	}, registry, nil)
	if err == nil {
		t.Fatal("dial with a bad key succeeded")
	}
}

func TestRelayRequiresChannel(t *testing.T) {
	ts := httptest.NewServer(New(""))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
