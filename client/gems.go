package client

import (
	"fmt"

	"dockside/world"
)

const gemPickupRadius = 1.5

type Gem struct {
	ID       string
	Position world.Vec3
}

// GemField is the fixed set of collectable items scattered around the docks.
// Collection is local-only state; other clients just hear about it.
type GemField struct {
	gems      []Gem
	collected map[string]bool
}

func NewGemField() *GemField {
	positions := []world.Vec3{
		{X: 6, Z: 4}, {X: -8, Z: 10}, {X: 14, Z: -6}, {X: -12, Z: -9},
		{X: 3, Z: -15}, {X: -4, Z: 18}, {X: 20, Z: 8}, {X: -18, Z: 2},
		{X: 9, Z: 22}, {X: -22, Z: -14}, {X: 16, Z: 16}, {X: -7, Z: -20},
	}
	f := &GemField{collected: make(map[string]bool)}
	for i, p := range positions {
		f.gems = append(f.gems, Gem{ID: fmt.Sprintf("gem-%d", i), Position: p})
	}
	return f
}

// Update collects any gem within pickup range and returns the new pickups.
func (f *GemField) Update(pos world.Vec3) []Gem {
	var picked []Gem
	for _, g := range f.gems {
		if f.collected[g.ID] {
			continue
		}
		if g.Position.HorizontalDistSq(pos) <= gemPickupRadius*gemPickupRadius {
			f.collected[g.ID] = true
			picked = append(picked, g)
		}
	}
	return picked
}

// Remaining lists the gems still on the ground.
func (f *GemField) Remaining() []Gem {
	out := make([]Gem, 0, len(f.gems))
	for _, g := range f.gems {
		if !f.collected[g.ID] {
			out = append(out, g)
		}
	}
	return out
}

func (f *GemField) Total() int {
	return len(f.gems)
}
