package skin

import (
	"encoding/binary"
	stdmath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// BoneResolver looks bones up by name. *scene.Skeleton implements it.
type BoneResolver interface {
	ResolveBone(name string) *scene.Bone
}

// BoneWeight is one bone's contribution to a batch.
type BoneWeight struct {
	Bone    *scene.Bone
	InvBind math.Mat4
	Weight  float32
}

// Batch is a set of vertices that share exactly the same bone weights.
// An empty Key means the vertices are not influenced by any bone.
type Batch struct {
	Key      []BoneWeight
	Vertices []uint32

	// rest encloses the batch's rest positions. Only set when the weights
	// do not sum to one, since then the bone spheres cannot bound it.
	rest       math.Sphere
	partial    bool
}

const weightEpsilon = 1e-4

type boundBone struct {
	bone      *scene.Bone
	influence *BoneInfluence
}

// BoneBatchIndex groups a mesh's vertices by identical weighting so the
// blended matrix is built once per group instead of once per vertex.
type BoneBatchIndex struct {
	batches     []Batch
	batchOf     []int32
	vertexCount int
	bones       []boundBone
	// rest encloses the vertices no bone moves.
	rest math.Sphere
}

// BuildBatchIndex groups every vertex of src by its (bone, weight) list.
// Bones the skeleton cannot resolve are skipped, as are weights that point
// past the end of src.
func BuildBatchIndex(src Geometry, influences *InfluenceMap, skel BoneResolver) (*BoneBatchIndex, error) {
	if influences == nil || src == nil || src.VertexCount() == 0 {
		return nil, ErrBinding
	}
	if skel == nil {
		return nil, ErrSkeletonResolution
	}
	n := src.VertexCount()

	perVertex := make([][]BoneWeight, n)
	var bones []boundBone
	var outOfRange int
	for _, name := range influences.Names() {
		inf, _ := influences.Get(name)
		bone := skel.ResolveBone(name)
		if bone == nil {
			logger.Warn("bone not found in skeleton", zap.String("bone", name))
			continue
		}
		bones = append(bones, boundBone{bone: bone, influence: inf})
		for v, w := range inf.Weights {
			if int(v) >= n {
				outOfRange++
				continue
			}
			perVertex[v] = append(perVertex[v], BoneWeight{Bone: bone, InvBind: inf.InvBindMatrix, Weight: w})
		}
	}
	if outOfRange > 0 {
		logger.Warn("ignored weights past the end of the mesh",
			zap.Int("weights", outOfRange),
			zap.Int("vertices", n))
	}

	idx := &BoneBatchIndex{
		batchOf:     make([]int32, n),
		vertexCount: n,
		bones:       bones,
	}

	// Names were visited in sorted order, so each list is already canonical
	// and the bone position in bones identifies bone and inverse bind alike.
	position := make(map[*scene.Bone]uint32, len(bones))
	for i, b := range bones {
		position[b.bone] = uint32(i)
	}
	byKey := make(map[string]int32)
	var key []byte
	for v, list := range perVertex {
		key = key[:0]
		for _, bw := range list {
			key = binary.LittleEndian.AppendUint32(key, position[bw.Bone])
			key = binary.LittleEndian.AppendUint32(key, stdmath.Float32bits(bw.Weight))
		}
		b, ok := byKey[string(key)]
		if !ok {
			b = int32(len(idx.batches))
			byKey[string(key)] = b
			idx.batches = append(idx.batches, Batch{Key: list})
		}
		idx.batches[b].Vertices = append(idx.batches[b].Vertices, uint32(v))
		idx.batchOf[v] = b
	}

	positions := src.Positions()
	var unweighted []math.Vec3
	for v, list := range perVertex {
		if len(list) == 0 {
			unweighted = append(unweighted, positions[v])
		}
	}
	idx.rest = math.SphereFromPoints(unweighted)

	var members []math.Vec3
	for i := range idx.batches {
		batch := &idx.batches[i]
		var total float32
		for _, bw := range batch.Key {
			total += bw.Weight
		}
		if len(batch.Key) == 0 || stdmath.Abs(float64(total-1)) <= weightEpsilon {
			continue
		}
		members = members[:0]
		for _, v := range batch.Vertices {
			members = append(members, positions[v])
		}
		batch.rest = math.SphereFromPoints(members)
		batch.partial = true
	}

	logger.Debug("built bone batch index",
		zap.Int("vertices", n),
		zap.Int("bones", len(bones)),
		zap.Int("batches", len(idx.batches)))

	return idx, nil
}

// Batches returns the vertex groups. The slice must not be modified.
func (idx *BoneBatchIndex) Batches() []Batch { return idx.batches }

// VertexCount returns the vertex count of the mesh the index was built for.
func (idx *BoneBatchIndex) VertexCount() int { return idx.vertexCount }

// Bones returns the resolved bones in name order.
func (idx *BoneBatchIndex) Bones() []*scene.Bone {
	out := make([]*scene.Bone, len(idx.bones))
	for i, b := range idx.bones {
		out[i] = b.bone
	}
	return out
}

// VertexWeights returns the bone weights applied to vertex.
func (idx *BoneBatchIndex) VertexWeights(vertex uint32) []BoneWeight {
	if int(vertex) >= idx.vertexCount {
		return nil
	}
	return idx.batches[idx.batchOf[vertex]].Key
}

// TotalWeight sums the weights applied to vertex.
func (idx *BoneBatchIndex) TotalWeight(vertex uint32) float32 {
	var sum float32
	for _, bw := range idx.VertexWeights(vertex) {
		sum += bw.Weight
	}
	return sum
}
