package client

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"dockside/relay"
)

const chatHistoryLimit = 100

// ChatLog collects chat messages in receipt order and owns the input line.
// Append runs on the session's read goroutine, everything else on the tick
// loop, hence the mutex.
type ChatLog struct {
	mu      sync.Mutex
	entries []relay.ChatMessage

	open  bool
	input []rune
}

func (c *ChatLog) Append(msg relay.ChatMessage) {
	c.mu.Lock()
	c.entries = append(c.entries, msg)
	if len(c.entries) > chatHistoryLimit {
		c.entries = c.entries[len(c.entries)-chatHistoryLimit:]
	}
	c.mu.Unlock()
}

func (c *ChatLog) Open() bool {
	return c.open
}

// HandleInput advances the chat UI by one tick: T opens, Escape closes,
// Enter submits. Returns the submitted line, if any.
func (c *ChatLog) HandleInput() (string, bool) {
	if !c.open {
		if inpututil.IsKeyJustPressed(ebiten.KeyT) {
			c.open = true
		}
		return "", false
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		c.open = false
		c.input = c.input[:0]
		return "", false
	}

	c.input = ebiten.AppendInputChars(c.input)
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(c.input) > 0 {
		c.input = c.input[:len(c.input)-1]
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		line := strings.TrimSpace(string(c.input))
		c.input = c.input[:0]
		if line == "" {
			return "", false
		}
		return line, true
	}
	return "", false
}

// Render formats the most recent n entries plus the input line when open.
func (c *ChatLog) Render(n int) string {
	c.mu.Lock()
	entries := c.entries
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	lines := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		if e.System {
			lines = append(lines, "* "+e.Message)
			continue
		}
		name := e.Username
		if e.Own {
			name = "you"
		}
		lines = append(lines, fmt.Sprintf("<%s> %s", name, e.Message))
	}
	c.mu.Unlock()

	if c.open {
		lines = append(lines, "say: "+string(c.input)+"_")
	}
	return strings.Join(lines, "\n")
}
