package skin

import (
	"fmt"
	"sort"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

// BoneInfluence is how one bone deforms the mesh.
type BoneInfluence struct {
	// InvBindMatrix maps rest-pose mesh positions into bone-local space.
	InvBindMatrix math.Mat4
	// BoundSphere encloses the influenced vertices in bone-local space.
	BoundSphere math.Sphere
	// Weights maps vertex index to weight.
	Weights map[uint32]float32
}

// NewBoneInfluence validates and copies weights. Every weight must be in (0, 1].
func NewBoneInfluence(invBind math.Mat4, bound math.Sphere, weights map[uint32]float32) (*BoneInfluence, error) {
	w := make(map[uint32]float32, len(weights))
	for v, weight := range weights {
		if !(weight > 0 && weight <= 1) {
			return nil, fmt.Errorf("%w: vertex %d has %v", ErrInvalidWeight, v, weight)
		}
		w[v] = weight
	}
	return &BoneInfluence{InvBindMatrix: invBind, BoundSphere: bound, Weights: w}, nil
}

// ComputeBoneSphere returns the bone-local sphere enclosing every vertex of
// src that weights refers to, after mapping it through invBind.
func ComputeBoneSphere(src Geometry, invBind math.Mat4, weights map[uint32]float32) math.Sphere {
	positions := src.Positions()
	local := make([]math.Vec3, 0, len(weights))
	for v := range weights {
		if int(v) < len(positions) {
			local = append(local, invBind.TransformPoint(positions[v]))
		}
	}
	return math.SphereFromPoints(local)
}

// InfluenceMap maps bone names to influences. It is filled once when a mesh
// is loaded and then shared read-only by every rig using that mesh.
type InfluenceMap struct {
	bones map[string]*BoneInfluence
}

// NewInfluenceMap creates an empty map.
func NewInfluenceMap() *InfluenceMap {
	return &InfluenceMap{bones: make(map[string]*BoneInfluence)}
}

// Add registers the influence of bone. Not safe once the map is shared.
func (m *InfluenceMap) Add(bone string, inf *BoneInfluence) error {
	if _, ok := m.bones[bone]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateInfluence, bone)
	}
	m.bones[bone] = inf
	return nil
}

// Get returns the influence of bone.
func (m *InfluenceMap) Get(bone string) (*BoneInfluence, bool) {
	inf, ok := m.bones[bone]
	return inf, ok
}

// Len returns the number of bones.
func (m *InfluenceMap) Len() int { return len(m.bones) }

// Names returns the bone names in sorted order.
func (m *InfluenceMap) Names() []string {
	names := make([]string, 0, len(m.bones))
	for name := range m.bones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalWeight sums the weights every bone assigns to vertex.
func (m *InfluenceMap) TotalWeight(vertex uint32) float32 {
	var sum float32
	for _, name := range m.Names() {
		sum += m.bones[name].Weights[vertex]
	}
	return sum
}
