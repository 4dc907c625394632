package rig

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/engine/skin"
	"github.com/Faultbox/midgard-rig/internal/engine/workqueue"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Update implements scene.Updatable. It snapshots the bones and starts
// deforming into the back buffer. It only blocks when the previous frame's
// job is still running and was never drawn.
func (r *RigGeometry) Update(nv *scene.Visitor) {
	if r.closed || r.source == nil || r.influences == nil {
		return
	}
	skel := r.resolveSkeleton(nv)
	if skel == nil {
		r.retireTicket()
		r.ready = false
		r.bones = nil
		r.state = Unbound
		return
	}
	skel.UpdateBoneMatrices(nv.FrameNumber)

	if r.engine == nil || r.boundSkel != skel {
		if skel == r.failedSkel {
			return
		}
		if !r.bind(skel) {
			r.failedSkel = skel
			return
		}
	}

	r.retireTicket()
	r.state = BoundIdle

	bones := r.engine.CaptureBoneMatrices()
	geomToSkel := scene.PathMatrix(nv.NodePath[r.skelDepth+1:])
	r.bones = bones
	r.geomToSkel = geomToSkel

	engine := r.engine
	back := &r.buffers[1-r.front]
	r.ticket = r.dispatch(func() error {
		return engine.Compute(bones, geomToSkel, back)
	})
	r.state = ComputePending
}

// UpdateBounds implements scene.BoundsUpdatable. It recomputes the bone
// spheres from the bones captured by the last Update.
func (r *RigGeometry) UpdateBounds(_ *scene.Visitor) {
	if r.closed || r.source == nil {
		return
	}
	if r.engine == nil || r.bones == nil {
		r.bound = math.SphereFromPoints(r.source.Positions())
		return
	}
	clear(r.boneBounds)
	r.bound = r.engine.ComputeBounds(r.bones, r.geomToSkel, r.boneBounds)
}

// bind builds the batch index against skel. It reports false and leaves
// the rig unbound when the mesh or weights cannot be bound.
func (r *RigGeometry) bind(skel *scene.Skeleton) bool {
	r.retireTicket()
	index, err := skin.BuildBatchIndex(r.source, r.influences, skel)
	if err != nil {
		r.engine = nil
		r.boundSkel = nil
		r.state = Unbound
		if errors.Is(err, skin.ErrBinding) {
			r.log.Warn("cannot bind rig", zap.Error(err))
		} else {
			r.log.Error("cannot bind rig", zap.Error(err))
		}
		return false
	}
	r.engine = skin.NewEngine(r.source, index)
	r.boundSkel = skel
	r.ready = false
	r.log.Info("rig bound",
		zap.String("skeleton", skel.Name()),
		zap.Int("vertices", index.VertexCount()),
		zap.Int("batches", len(index.Batches())))
	return true
}

// resolveSkeleton finds the nearest skeleton above the rig. Both hits and
// misses are cached until the graph revision changes, and a miss is logged
// once per revision.
func (r *RigGeometry) resolveSkeleton(nv *scene.Visitor) *scene.Skeleton {
	if r.skelChecked && r.skelRevision == nv.Revision {
		if r.skel == nil {
			return nil
		}
		if r.skelDepth < len(nv.NodePath) && nv.NodePath[r.skelDepth] == scene.Node(r.skel) {
			return r.skel
		}
	}

	skel, depth := scene.FindSkeleton(nv.NodePath)
	r.skel = skel
	r.skelDepth = depth
	r.skelRevision = nv.Revision
	r.skelChecked = true
	if skel == nil {
		r.log.Warn("no skeleton above rig, drawing unskinned",
			zap.Error(skin.ErrSkeletonResolution),
			zap.Uint64("revision", nv.Revision))
	}
	return skel
}

// dispatch queues job when threading is on, falling back to running it
// inline when no worker can take it.
func (r *RigGeometry) dispatch(job workqueue.Job) *workqueue.Ticket {
	if r.useThread && r.queue != nil {
		t, err := r.queue.Submit(job)
		if err == nil {
			return t
		}
		r.log.Debug("worker unavailable, skinning inline", zap.Error(err))
	}
	return workqueue.Inline(job)
}
