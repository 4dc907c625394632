package rig

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/engine/skin"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Draw implements scene.Drawable. It waits for the outstanding ticket,
// promotes its buffer to the front on success, and hands the front buffer
// to the renderer. Resolving the ticket is its only side effect.
func (r *RigGeometry) Draw(info *scene.RenderInfo) {
	if r.closed || info == nil || info.Renderer == nil {
		return
	}
	positions, normals := r.current()
	if positions == nil {
		return
	}
	info.Renderer.DrawVertices(r.name, positions, normals)
}

// Accept passes the vertex data Draw would render to fn. It synchronizes
// with the outstanding ticket the same way Draw does.
func (r *RigGeometry) Accept(fn VertexFunctor) {
	if r.closed || fn == nil {
		return
	}
	positions, normals := r.current()
	if positions == nil {
		return
	}
	fn(positions, normals)
}

// current resolves the ticket and returns the vertices to show: the front
// buffer once a frame has been computed, the source mesh before that.
func (r *RigGeometry) current() ([]math.Vec3, []math.Vec3) {
	r.sync()
	if r.ready {
		front := &r.buffers[r.front]
		return front.Positions, front.Normals
	}
	if r.source == nil {
		return nil, nil
	}
	return r.source.Positions(), r.source.Normals()
}

// sync collects the outstanding ticket. The buffers swap only when the job
// succeeded, so a skipped or failed frame leaves the last good one in front.
func (r *RigGeometry) sync() {
	if r.ticket == nil {
		return
	}
	r.ticket.Wait()
	err := r.ticket.Err()
	canceled := r.ticket.Canceled()
	r.ticket = nil

	switch {
	case canceled:
		r.state = BoundIdle
	case err == nil:
		r.front = 1 - r.front
		r.ready = true
		r.state = Ready
	case errors.Is(err, skin.ErrVertexCountMismatch):
		r.log.Warn("source mesh changed size, skipping frame", zap.Error(err))
		r.state = BoundIdle
	default:
		r.log.Error("skinning failed", zap.Error(err))
		r.state = BoundIdle
	}
}
