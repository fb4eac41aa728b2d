package client

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hako/durafmt"

	"dockside/world"
)

// networkDebugText lists every known peer with its raw snapshot and how stale
// it is. Staleness is diagnostic only: departure is presence's job, and a
// peer that stops broadcasting stays frozen at its last-known state.
func networkDebugText(registry *world.Registry, now time.Time) string {
	ids := registry.IDs()
	sort.Strings(ids)

	lines := make([]string, 0, len(ids)+1)
	lines = append(lines, fmt.Sprintf("peers: %d", len(ids)))
	for _, id := range ids {
		p, ok := registry.Get(id)
		if !ok {
			continue
		}
		age := now.Sub(p.UpdatedAt)
		if age < 0 {
			age = 0
		}
		stale := durafmt.Parse(age.Round(100 * time.Millisecond)).LimitFirstN(1)
		lines = append(lines, fmt.Sprintf("%s %s (%.1f, %.1f, %.1f) %s, %s ago",
			shortID(id), p.Username, p.Position.X, p.Position.Y, p.Position.Z, p.Animation, stale))
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
