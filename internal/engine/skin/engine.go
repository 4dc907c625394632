package skin

import (
	"fmt"

	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// BoneMatrices is a snapshot of skeleton-space bone transforms. It is taken
// on the traversal goroutine so workers never read live bones.
type BoneMatrices map[*scene.Bone]math.Mat4

// BoneBoundsCache holds each bone's current sphere in geometry space.
type BoneBoundsCache map[*scene.Bone]math.Sphere

// Engine deforms one source mesh using a prebuilt batch index.
// Compute and ComputeBounds only read the engine, so one Engine may be
// shared by any number of rigs and goroutines.
type Engine struct {
	source Geometry
	index  *BoneBatchIndex
}

// NewEngine pairs a source mesh with its batch index.
func NewEngine(source Geometry, index *BoneBatchIndex) *Engine {
	return &Engine{source: source, index: index}
}

// CaptureBoneMatrices snapshots the current transform of every bound bone.
func (e *Engine) CaptureBoneMatrices() BoneMatrices {
	m := make(BoneMatrices, len(e.index.bones))
	for _, b := range e.index.bones {
		m[b.bone] = b.bone.WorldTransform()
	}
	return m
}

// Compute writes the deformed mesh into dst. geomToSkel maps the mesh's
// space into skeleton space. Each vertex ends up at
//
//	Σ w · (geomToSkel⁻¹ · bone · invBind) · v
//
// with weights used as given. Vertices whose weights sum to zero keep their
// rest position. If the source no longer has the vertex count the index was
// built for, dst is left untouched and ErrVertexCountMismatch is returned.
func (e *Engine) Compute(bones BoneMatrices, geomToSkel math.Mat4, dst *VertexBuffer) error {
	n := e.source.VertexCount()
	if n != e.index.vertexCount {
		return fmt.Errorf("%w: bound %d, source has %d", ErrVertexCountMismatch, e.index.vertexCount, n)
	}
	srcPos := e.source.Positions()
	srcNorm := e.source.Normals()
	withNormals := len(srcNorm) == n

	dst.resize(n, withNormals)
	skelToGeom := geomToSkel.Inverse()

	for i := range e.index.batches {
		batch := &e.index.batches[i]
		m, ok := blend(batch.Key, bones, skelToGeom)
		if !ok {
			for _, v := range batch.Vertices {
				dst.Positions[v] = srcPos[v]
				if withNormals {
					dst.Normals[v] = srcNorm[v]
				}
			}
			continue
		}
		for _, v := range batch.Vertices {
			dst.Positions[v] = m.TransformAffine(srcPos[v])
			if withNormals {
				dst.Normals[v] = m.TransformDirection(srcNorm[v])
			}
		}
	}
	return nil
}

// blend builds the weighted matrix for one batch. It reports false when the
// batch has no effective weight and the rest pose should be kept.
func blend(key []BoneWeight, bones BoneMatrices, skelToGeom math.Mat4) (math.Mat4, bool) {
	var acc math.Mat4
	var total float32
	for _, bw := range key {
		boneMat, ok := bones[bw.Bone]
		if !ok {
			continue
		}
		acc = acc.Add(boneMat.Mul(bw.InvBind).MulScalar(bw.Weight))
		total += bw.Weight
	}
	if total == 0 {
		return math.Mat4{}, false
	}
	return skelToGeom.Mul(acc), true
}

// ComputeBounds moves every bone's local sphere to its current pose, stores
// it in cache when cache is non-nil, and returns the sphere enclosing them
// all together with any vertices no bone moves.
//
// The bone spheres only bound vertices whose weights sum to one. Batches
// with other totals are bounded separately by their rest sphere under the
// batch's blended matrix.
func (e *Engine) ComputeBounds(bones BoneMatrices, geomToSkel math.Mat4, cache BoneBoundsCache) math.Sphere {
	skelToGeom := geomToSkel.Inverse()
	merged := e.index.rest
	for _, b := range e.index.bones {
		boneMat, ok := bones[b.bone]
		if !ok || !b.influence.BoundSphere.Valid() {
			continue
		}
		s := b.influence.BoundSphere.Transform(skelToGeom.Mul(boneMat))
		if cache != nil {
			cache[b.bone] = s
		}
		merged = merged.ExpandBySphere(s)
	}
	for i := range e.index.batches {
		batch := &e.index.batches[i]
		if !batch.partial {
			continue
		}
		s := batch.rest
		if m, ok := blend(batch.Key, bones, skelToGeom); ok {
			s = math.Sphere{
				Center: m.TransformAffine(s.Center),
				Radius: s.Radius * m.StretchBound(),
			}
		}
		merged = merged.ExpandBySphere(s)
	}
	return merged
}
