// Package skin implements linear blend skinning on the CPU: bone influence
// data, grouping of vertices that share identical weights, and the per-frame
// deformation and bounds computation.
package skin

import (
	"fmt"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Geometry is a read-only source mesh.
type Geometry interface {
	Positions() []math.Vec3
	// Normals is either empty or the same length as Positions.
	Normals() []math.Vec3
	VertexCount() int
}

// Mesh is an immutable Geometry backed by slices.
type Mesh struct {
	positions []math.Vec3
	normals   []math.Vec3
}

// NewMesh copies positions and normals into a new mesh. normals may be nil.
func NewMesh(positions, normals []math.Vec3) (*Mesh, error) {
	if len(normals) != 0 && len(normals) != len(positions) {
		return nil, fmt.Errorf("%w: %d normals for %d positions", ErrNormalCount, len(normals), len(positions))
	}
	m := &Mesh{positions: append([]math.Vec3(nil), positions...)}
	if len(normals) != 0 {
		m.normals = append([]math.Vec3(nil), normals...)
	}
	return m, nil
}

// Positions returns the vertex positions. The slice must not be modified.
func (m *Mesh) Positions() []math.Vec3 { return m.positions }

// Normals returns the vertex normals. The slice must not be modified.
func (m *Mesh) Normals() []math.Vec3 { return m.normals }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.positions) }

// VertexBuffer holds deformed vertex data.
type VertexBuffer struct {
	Positions []math.Vec3
	Normals   []math.Vec3
}

func (b *VertexBuffer) resize(n int, withNormals bool) {
	b.Positions = grow(b.Positions, n)
	if withNormals {
		b.Normals = grow(b.Normals, n)
	} else {
		b.Normals = b.Normals[:0]
	}
}

func grow(s []math.Vec3, n int) []math.Vec3 {
	if cap(s) < n {
		return make([]math.Vec3, n)
	}
	return s[:n]
}
