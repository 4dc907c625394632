package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

var (
	ErrDuplicateBone = errors.New("scene: duplicate bone name")
	ErrUnknownParent = errors.New("scene: unknown parent bone")
)

// Bone is a named skeletal joint.
type Bone struct {
	name   string
	parent *Bone
	local  math.Mat4
	world  math.Mat4
}

// Name returns the bone name.
func (b *Bone) Name() string { return b.name }

// Parent returns the parent bone, nil for roots.
func (b *Bone) Parent() *Bone { return b.parent }

// Local returns the bone's transform relative to its parent.
func (b *Bone) Local() math.Mat4 { return b.local }

// SetLocal sets the bone's transform relative to its parent. It takes effect
// on the next Skeleton.UpdateBoneMatrices for a new frame.
func (b *Bone) SetLocal(m math.Mat4) { b.local = m }

// WorldTransform returns the bone's current transform in skeleton space.
func (b *Bone) WorldTransform() math.Mat4 { return b.world }

// Skeleton is a group owning a bone hierarchy. Geometry placed anywhere
// below it can be rigged to its bones.
type Skeleton struct {
	Group
	bones     []*Bone
	byName    map[string]*Bone
	lastFrame uint64
	updated   bool
}

// NewSkeleton creates a skeleton with no bones.
func NewSkeleton(name string) *Skeleton {
	return &Skeleton{
		Group:  Group{name: name},
		byName: make(map[string]*Bone),
	}
}

// AddBone appends a bone. parent must already exist, or be empty for a root.
func (s *Skeleton) AddBone(name, parent string, local math.Mat4) (*Bone, error) {
	if _, ok := s.byName[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateBone, name)
	}
	var p *Bone
	if parent != "" {
		p = s.byName[parent]
		if p == nil {
			return nil, fmt.Errorf("%w: %q for bone %q", ErrUnknownParent, parent, name)
		}
	}
	b := &Bone{name: name, parent: p, local: local, world: local}
	if p != nil {
		b.world = p.world.Mul(local)
	}
	s.bones = append(s.bones, b)
	s.byName[name] = b
	return b, nil
}

// ResolveBone looks a bone up by name, nil when absent.
func (s *Skeleton) ResolveBone(name string) *Bone {
	return s.byName[name]
}

// Bones returns every bone, parents before children.
func (s *Skeleton) Bones() []*Bone {
	return s.bones
}

// UpdateBoneMatrices recomputes every bone's skeleton-space transform from
// the local transforms. Several rigs share one skeleton, so the work is done
// at most once per frame number.
func (s *Skeleton) UpdateBoneMatrices(frame uint64) {
	if s.updated && s.lastFrame == frame {
		return
	}
	for _, b := range s.bones {
		if b.parent == nil {
			b.world = b.local
		} else {
			b.world = b.parent.world.Mul(b.local)
		}
	}
	s.lastFrame = frame
	s.updated = true
}
