package world

import "sort"

const (
	// DefaultRenderDistance is how far, in world units, other players are
	// instantiated at all.
	DefaultRenderDistance = 50.0

	// DefaultMaxVisible caps how many remote players get reconcilers even
	// when the lobby is packed.
	DefaultMaxVisible = 200

	// cullInterval spaces out recomputation; between recomputes the previous
	// selection is reused.
	cullInterval = 15
)

// VisibilitySelector picks the bounded subset of registry ids worth rendering,
// by squared horizontal distance from the viewpoint. Selection is recomputed
// every cullInterval ticks to bound per-frame cost.
type VisibilitySelector struct {
	registry *Registry
	radiusSq float64
	max      int

	tick    int
	visible []string
}

func NewVisibilitySelector(registry *Registry, radius float64, max int) *VisibilitySelector {
	return &VisibilitySelector{
		registry: registry,
		radiusSq: radius * radius,
		max:      max,
	}
}

// Tick returns the current visible id set, recomputing it on the selector's
// cadence. Ids are sorted so truncation at the cap is deterministic. The
// returned slice is the caller's to keep; the cached selection is never
// aliased.
func (s *VisibilitySelector) Tick(viewpoint Vec3) []string {
	s.tick++
	if s.visible != nil && s.tick%cullInterval != 0 {
		return append([]string(nil), s.visible...)
	}

	ids := s.registry.IDs()
	sort.Strings(ids)

	visible := make([]string, 0, len(ids))
	for _, id := range ids {
		p, ok := s.registry.Get(id)
		if !ok {
			continue
		}
		if p.Position.HorizontalDistSq(viewpoint) < s.radiusSq {
			visible = append(visible, id)
		}
	}
	if len(visible) > s.max {
		visible = visible[:s.max]
	}
	s.visible = visible
	return append([]string(nil), visible...)
}
