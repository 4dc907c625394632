package demo

import "github.com/Faultbox/midgard-rig/pkg/math"

// Stats is a headless scene.Renderer that counts what would be drawn.
type Stats struct {
	Draws     uint64
	Vertices  uint64
	LastFrame map[string]int
}

// NewStats creates an empty counter.
func NewStats() *Stats {
	return &Stats{LastFrame: make(map[string]int)}
}

// DrawVertices implements scene.Renderer.
func (s *Stats) DrawVertices(id string, positions, _ []math.Vec3) {
	s.Draws++
	s.Vertices += uint64(len(positions))
	s.LastFrame[id] = len(positions)
}
