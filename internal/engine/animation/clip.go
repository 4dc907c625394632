package animation

import (
	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// RotKey is a rotation at a time in seconds.
type RotKey struct {
	Time     float32
	Rotation math.Quat
}

// VecKey is a translation or scale at a time in seconds.
type VecKey struct {
	Time  float32
	Value math.Vec3
}

// Clip is keyframed motion for one bone. Keys in each channel must be
// sorted by time. An empty channel holds the rest value.
type Clip struct {
	Rotations    []RotKey
	Translations []VecKey
	Scales       []VecKey
}

// Length returns the time of the last key in any channel.
func (c *Clip) Length() float32 {
	var l float32
	if n := len(c.Rotations); n > 0 {
		l = max(l, c.Rotations[n-1].Time)
	}
	if n := len(c.Translations); n > 0 {
		l = max(l, c.Translations[n-1].Time)
	}
	if n := len(c.Scales); n > 0 {
		l = max(l, c.Scales[n-1].Time)
	}
	return l
}

// Animated reports whether any channel changes over time. A single key is
// a static pose.
func (c *Clip) Animated() bool {
	return len(c.Rotations) > 1 || len(c.Translations) > 1 || len(c.Scales) > 1
}

// Sample evaluates the clip at time t as a local bone transform.
func (c *Clip) Sample(t float32) math.Mat4 {
	rot := math.QuatIdentity()
	if n := len(c.Rotations); n > 0 {
		i, j, f := bracket(n, func(k int) float32 { return c.Rotations[k].Time }, t)
		rot = c.Rotations[i].Rotation.Slerp(c.Rotations[j].Rotation, f)
	}
	return math.Compose(sampleVec(c.Translations, t, math.Vec3{}), rot, sampleVec(c.Scales, t, math.Vec3{X: 1, Y: 1, Z: 1}))
}

func sampleVec(keys []VecKey, t float32, rest math.Vec3) math.Vec3 {
	if len(keys) == 0 {
		return rest
	}
	i, j, f := bracket(len(keys), func(k int) float32 { return keys[k].Time }, t)
	return keys[i].Value.Lerp(keys[j].Value, f)
}

// bracket finds the keys around t and how far t is between them. Before
// the first key or after the last, both indices name that key.
func bracket(n int, timeAt func(int) float32, t float32) (prev, next int, f float32) {
	for next < n && timeAt(next) <= t {
		next++
	}
	switch next {
	case 0:
		return 0, 0, 0
	case n:
		return n - 1, n - 1, 0
	}
	prev = next - 1
	t0, t1 := timeAt(prev), timeAt(next)
	if t1 == t0 {
		return prev, next, 0
	}
	return prev, next, (t - t0) / (t1 - t0)
}

// ClipTrack plays a clip on a bone.
type ClipTrack struct {
	bone *scene.Bone
	clip *Clip
	time float32
	loop bool
}

// NewClipTrack plays clip on bone from time zero. A looping track wraps
// around at the clip length and never finishes.
func NewClipTrack(bone *scene.Bone, clip *Clip, loop bool) *ClipTrack {
	bone.SetLocal(clip.Sample(0))
	return &ClipTrack{bone: bone, clip: clip, loop: loop}
}

// Update implements Track.
func (c *ClipTrack) Update(dt float32) bool {
	c.time += dt
	length := c.clip.Length()
	done := false
	switch {
	case length <= 0:
		c.time = 0
		done = !c.loop
	case c.time >= length && c.loop:
		for c.time >= length {
			c.time -= length
		}
	case c.time >= length:
		c.time = length
		done = true
	}
	c.bone.SetLocal(c.clip.Sample(c.time))
	return done
}

// Time returns the playback position in seconds.
func (c *ClipTrack) Time() float32 { return c.time }
