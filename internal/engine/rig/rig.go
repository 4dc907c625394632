// Package rig drives a skinned mesh through the per-frame update, bounds and
// draw passes. Deformation runs on a work queue into a back buffer while the
// draw pass reads a front buffer; Draw is the only point where the two meet.
package rig

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/engine/skin"
	"github.com/Faultbox/midgard-rig/internal/engine/workqueue"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// State is the lifecycle stage of a RigGeometry.
type State int32

const (
	// Unbound has no source mesh, no influence map, or no skeleton yet.
	Unbound State = iota
	// BoundIdle is bound to a skeleton with no compute in flight.
	BoundIdle
	// ComputePending has a ticket that has not resolved.
	ComputePending
	// Ready holds a finished frame.
	Ready
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case BoundIdle:
		return "bound-idle"
	case ComputePending:
		return "compute-pending"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Submitter accepts skinning jobs. *workqueue.Queue implements it.
type Submitter interface {
	Submit(job workqueue.Job) (*workqueue.Ticket, error)
}

// Options configures a RigGeometry.
type Options struct {
	// Name identifies the rig in the scene graph and in draw calls.
	Name string
	// Queue runs deformation off the traversal goroutine. Nil means inline.
	Queue Submitter
	// UseThread enables Queue. With it off every frame is computed inline.
	UseThread bool
	// Logger overrides the package logger.
	Logger *zap.Logger
}

// VertexFunctor receives a rig's current vertex data. The slices are only
// valid during the call.
type VertexFunctor func(positions, normals []math.Vec3)

// RigGeometry is a scene node that deforms a source mesh by the bones of
// the nearest enclosing skeleton.
//
// All methods must be called from the traversal goroutine. The only state a
// worker touches is the back buffer named by the outstanding ticket.
type RigGeometry struct {
	id        uuid.UUID
	name      string
	baseLog   *zap.Logger
	log       *zap.Logger
	queue     Submitter
	useThread bool

	source     skin.Geometry
	influences *skin.InfluenceMap

	engine     *skin.Engine
	boundSkel  *scene.Skeleton
	failedSkel *scene.Skeleton

	buffers [2]skin.VertexBuffer
	front   int
	ready   bool
	ticket  *workqueue.Ticket

	skel         *scene.Skeleton
	skelDepth    int
	skelRevision uint64
	skelChecked  bool

	bones      skin.BoneMatrices
	geomToSkel math.Mat4
	bound      math.Sphere
	boneBounds skin.BoneBoundsCache

	state  State
	closed bool
}

// New creates an unbound rig.
func New(opts Options) *RigGeometry {
	id := uuid.New()
	if opts.Logger == nil {
		opts.Logger = logger.Named("rig")
	}
	if opts.Name == "" {
		opts.Name = id.String()
	}
	return &RigGeometry{
		id:         id,
		name:       opts.Name,
		baseLog:    opts.Logger,
		log:        opts.Logger.With(zap.String("rig", opts.Name), zap.Stringer("id", id)),
		queue:      opts.Queue,
		useThread:  opts.UseThread,
		geomToSkel: math.Identity(),
		bound:      math.EmptySphere(),
		boneBounds: make(skin.BoneBoundsCache),
	}
}

// ID returns the rig's unique id.
func (r *RigGeometry) ID() uuid.UUID { return r.id }

// Name implements scene.Node.
func (r *RigGeometry) Name() string { return r.name }

// Children implements scene.Node. A rig is always a leaf.
func (r *RigGeometry) Children() []scene.Node { return nil }

// SetSourceGeometry binds the mesh to deform.
func (r *RigGeometry) SetSourceGeometry(src skin.Geometry) {
	r.rebind()
	r.source = src
}

// SourceGeometry returns the bound mesh.
func (r *RigGeometry) SourceGeometry() skin.Geometry { return r.source }

// SetInfluenceMap binds the bone weights.
func (r *RigGeometry) SetInfluenceMap(m *skin.InfluenceMap) {
	r.rebind()
	r.influences = m
}

// InfluenceMap returns the bound bone weights.
func (r *RigGeometry) InfluenceMap() *skin.InfluenceMap { return r.influences }

// SetUseThread switches between queued and inline deformation. It applies
// from the next Update.
func (r *RigGeometry) SetUseThread(on bool) { r.useThread = on }

// UseThread reports whether queued deformation is enabled.
func (r *RigGeometry) UseThread() bool { return r.useThread }

// State returns the lifecycle stage. A pending ticket that has resolved
// reports Ready even before Draw collects it.
func (r *RigGeometry) State() State {
	if r.state == ComputePending && r.ticket != nil && r.ticket.IsDone() && r.ticket.Err() == nil {
		return Ready
	}
	return r.state
}

// Bound returns the sphere computed by the last UpdateBounds.
func (r *RigGeometry) Bound() math.Sphere { return r.bound }

// BoneBounds returns each bone's sphere from the last UpdateBounds.
func (r *RigGeometry) BoneBounds() skin.BoneBoundsCache { return r.boneBounds }

// Clone returns a rig sharing the source mesh and influence map. Buffers,
// ticket and skeleton lookup are its own, and it binds to whichever
// skeleton it is placed under.
func (r *RigGeometry) Clone() *RigGeometry {
	c := New(Options{
		Queue:     r.queue,
		UseThread: r.useThread,
		Logger:    r.baseLog,
	})
	c.name = r.name + "#" + c.id.String()[:8]
	c.log = r.baseLog.With(zap.String("rig", c.name), zap.Stringer("id", c.id), zap.Stringer("cloned_from", r.id))
	c.source = r.source
	c.influences = r.influences
	return c
}

// Close retires the outstanding ticket and releases the buffers. A job that
// already started is waited for, so no worker writes after Close returns.
// Close may be called more than once.
func (r *RigGeometry) Close() {
	if r.closed {
		return
	}
	r.retireTicket()
	r.buffers = [2]skin.VertexBuffer{}
	r.engine = nil
	r.bones = nil
	r.ready = false
	r.state = Unbound
	r.closed = true
	r.log.Debug("rig closed")
}

// rebind drops everything derived from the old mesh or weights.
func (r *RigGeometry) rebind() {
	r.retireTicket()
	r.engine = nil
	r.boundSkel = nil
	r.failedSkel = nil
	r.bones = nil
	r.ready = false
	for i := range r.buffers {
		r.buffers[i].Positions = r.buffers[i].Positions[:0]
		r.buffers[i].Normals = r.buffers[i].Normals[:0]
	}
	r.bound = math.EmptySphere()
	clear(r.boneBounds)
	r.state = Unbound
}

// retireTicket cancels the outstanding job, or waits for it when a worker
// already picked it up. The result is discarded.
func (r *RigGeometry) retireTicket() {
	if r.ticket == nil {
		return
	}
	if r.ticket.Cancel() {
		r.log.Debug("dropped undrawn frame")
	} else {
		r.ticket.Wait()
	}
	r.ticket = nil
}
