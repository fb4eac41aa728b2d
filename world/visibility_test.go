package world

import (
	"fmt"
	"testing"
)

func TestVisibilityDistanceCull(t *testing.T) {
	r := NewRegistry()
	r.Update("near", PlayerState{Position: Vec3{X: 10}})
	r.Update("far", PlayerState{Position: Vec3{X: 60}})
	r.Update("high", PlayerState{Position: Vec3{X: 10, Y: 500}})

	s := NewVisibilitySelector(r, DefaultRenderDistance, DefaultMaxVisible)
	visible := s.Tick(Vec3{})

	if len(visible) != 2 {
		t.Fatalf("visible = %v, want near and high", visible)
	}
	for _, id := range visible {
		if id == "far" {
			t.Error("player beyond render distance selected")
		}
	}
}

func TestVisibilityCap(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 250; i++ {
		r.Update(fmt.Sprintf("p%03d", i), PlayerState{Position: Vec3{X: 1}})
	}

	s := NewVisibilitySelector(r, DefaultRenderDistance, DefaultMaxVisible)
	visible := s.Tick(Vec3{})
	if len(visible) != DefaultMaxVisible {
		t.Errorf("selected %d players, cap is %d", len(visible), DefaultMaxVisible)
	}

	// Sorted truncation keeps the selection stable across recomputes.
	for i := 0; i < cullInterval; i++ {
		s.Tick(Vec3{})
	}
	again := s.Tick(Vec3{})
	if len(again) != DefaultMaxVisible {
		t.Fatalf("recompute selected %d players", len(again))
	}
	for i := range visible {
		if visible[i] != again[i] {
			t.Fatalf("selection unstable at %d: %s vs %s", i, visible[i], again[i])
		}
	}
}

func TestVisibilitySelectionNotAliased(t *testing.T) {
	r := NewRegistry()
	r.Update("a", PlayerState{Position: Vec3{X: 1}})
	r.Update("b", PlayerState{Position: Vec3{X: 2}})

	s := NewVisibilitySelector(r, DefaultRenderDistance, DefaultMaxVisible)
	got := s.Tick(Vec3{})
	if len(got) != 2 {
		t.Fatalf("selection = %v", got)
	}
	got[0] = "mangled"

	// Mutating the returned slice must not corrupt the cached selection.
	again := s.Tick(Vec3{})
	for _, id := range again {
		if id == "mangled" {
			t.Fatal("caller mutation leaked into the cached selection")
		}
	}
}

func TestVisibilityRecomputeCadence(t *testing.T) {
	r := NewRegistry()
	r.Update("a", PlayerState{Position: Vec3{X: 1}})

	s := NewVisibilitySelector(r, DefaultRenderDistance, DefaultMaxVisible)
	if got := s.Tick(Vec3{}); len(got) != 1 {
		t.Fatalf("initial selection = %v", got)
	}

	// A player joining mid-interval is not picked up until the next recompute.
	r.Update("b", PlayerState{Position: Vec3{X: 2}})
	for i := 0; i < cullInterval-2; i++ {
		if got := s.Tick(Vec3{}); len(got) != 1 {
			t.Fatalf("tick %d recomputed early: %v", i, got)
		}
	}

	var got []string
	for i := 0; i < cullInterval; i++ {
		got = s.Tick(Vec3{})
	}
	if len(got) != 2 {
		t.Errorf("selection never refreshed: %v", got)
	}
}
