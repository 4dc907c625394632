// Package animation poses skeleton bones over time with eased tweens.
package animation

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Track advances one animated value. Update returns true once the track has
// finished and can be dropped.
type Track interface {
	Update(dt float32) bool
}

// BoneTween rotates a bone once from one angle to another about an axis,
// on top of the bone's rest transform.
type BoneTween struct {
	bone  *scene.Bone
	rest  math.Mat4
	axis  math.Vec3
	tween *gween.Tween
	angle float32
	done  bool
}

// NewBoneTween eases bone from angle from to angle to (radians) over
// duration seconds. The bone's current local transform is its rest pose.
func NewBoneTween(bone *scene.Bone, axis math.Vec3, from, to, duration float32, easing ease.TweenFunc) *BoneTween {
	if easing == nil {
		easing = ease.InOutQuad
	}
	return &BoneTween{
		bone:  bone,
		rest:  bone.Local(),
		axis:  axis,
		tween: gween.New(from, to, duration, easing),
		angle: from,
	}
}

// Update implements Track.
func (t *BoneTween) Update(dt float32) bool {
	t.angle, t.done = t.tween.Update(dt)
	t.bone.SetLocal(t.rest.Mul(math.RotateAxis(t.axis, t.angle)))
	return t.done
}

// Angle returns the current angle.
func (t *BoneTween) Angle() float32 { return t.angle }

// Reset rewinds the tween and restores the rest pose.
func (t *BoneTween) Reset() {
	t.tween.Reset()
	t.done = false
	t.bone.SetLocal(t.rest)
}

// Swing rocks a bone back and forth between -amplitude and +amplitude
// forever.
type Swing struct {
	bone  *scene.Bone
	rest  math.Mat4
	axis  math.Vec3
	seq   *gween.Sequence
	angle float32
}

// NewSwing starts at -amplitude and takes period seconds for a full
// there-and-back cycle.
func NewSwing(bone *scene.Bone, axis math.Vec3, amplitude, period float32) *Swing {
	seq := gween.NewSequence(gween.New(-amplitude, amplitude, period/2, ease.InOutQuad))
	seq.SetYoyo(true)
	seq.SetLoop(-1)
	return &Swing{
		bone:  bone,
		rest:  bone.Local(),
		axis:  axis,
		seq:   seq,
		angle: -amplitude,
	}
}

// Update implements Track. A swing never finishes.
func (s *Swing) Update(dt float32) bool {
	var wrapped bool
	s.angle, _, wrapped = s.seq.Update(dt)
	if wrapped {
		// A cycle that ends exactly on the frame leaves the sequence parked
		// on its reversed first tween; re-arm it to run forward again.
		s.seq.SetReverse(false)
		s.seq.Reset()
	}
	s.bone.SetLocal(s.rest.Mul(math.RotateAxis(s.axis, s.angle)))
	return false
}

// Angle returns the current angle.
func (s *Swing) Angle() float32 { return s.angle }

// Player advances a set of tracks and drops the ones that finish.
type Player struct {
	tracks []Track
}

// NewPlayer creates a player with the given tracks.
func NewPlayer(tracks ...Track) *Player {
	return &Player{tracks: tracks}
}

// Add appends tracks.
func (p *Player) Add(tracks ...Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Len returns the number of live tracks.
func (p *Player) Len() int { return len(p.tracks) }

// Update advances every track by dt seconds.
func (p *Player) Update(dt float32) {
	live := p.tracks[:0]
	for _, t := range p.tracks {
		if !t.Update(dt) {
			live = append(live, t)
		}
	}
	clear(p.tracks[len(live):])
	p.tracks = live
}
