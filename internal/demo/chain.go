package demo

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/engine/skin"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// ChainConfig shapes the demo tube mesh.
type ChainConfig struct {
	Segments int     // Bones, one unit long each, stacked along +Y
	Rings    int     // Vertex rings per segment
	Sides    int     // Vertices per ring
	Radius   float32 // Tube radius
}

// DefaultChainConfig returns a three-bone tube.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{Segments: 3, Rings: 8, Sides: 12, Radius: 0.25}
}

func boneName(i int) string {
	return fmt.Sprintf("bone%d", i)
}

// BuildSkeleton creates a chain skeleton matching BuildChainMesh. Each call
// returns an independent skeleton so instances can be posed separately.
func BuildSkeleton(name string, cfg ChainConfig) (*scene.Skeleton, error) {
	skel := scene.NewSkeleton(name)
	for i := 0; i < cfg.Segments; i++ {
		local, parent := math.Identity(), ""
		if i > 0 {
			local, parent = math.Translate(0, 1, 0), boneName(i-1)
		}
		if _, err := skel.AddBone(boneName(i), parent, local); err != nil {
			return nil, err
		}
	}
	return skel, nil
}

// BuildChainMesh builds a tube along +Y and its bone weights. Rings in the
// upper half of a segment blend linearly towards the next bone, so every
// vertex's weights sum to one.
func BuildChainMesh(cfg ChainConfig) (*skin.Mesh, *skin.InfluenceMap, error) {
	if cfg.Segments < 1 || cfg.Rings < 1 || cfg.Sides < 3 {
		return nil, nil, fmt.Errorf("invalid chain %+v", cfg)
	}
	rings := cfg.Segments*cfg.Rings + 1
	positions := make([]math.Vec3, 0, rings*cfg.Sides)
	normals := make([]math.Vec3, 0, rings*cfg.Sides)
	weights := make([]map[uint32]float32, cfg.Segments)
	for i := range weights {
		weights[i] = make(map[uint32]float32)
	}

	for r := 0; r < rings; r++ {
		h := float32(r) / float32(cfg.Rings)
		seg := min(int(h), cfg.Segments-1)
		f := h - float32(seg)

		var next float32
		if seg+1 < cfg.Segments && f > 0.5 {
			next = f - 0.5
		}

		for s := 0; s < cfg.Sides; s++ {
			a := 2 * stdmath.Pi * float64(s) / float64(cfg.Sides)
			n := math.Vec3{X: float32(stdmath.Cos(a)), Z: float32(stdmath.Sin(a))}
			v := uint32(len(positions))
			positions = append(positions, math.Vec3{X: n.X * cfg.Radius, Y: h, Z: n.Z * cfg.Radius})
			normals = append(normals, n)

			weights[seg][v] = 1 - next
			if next > 0 {
				weights[seg+1][v] = next
			}
		}
	}

	mesh, err := skin.NewMesh(positions, normals)
	if err != nil {
		return nil, nil, err
	}
	infl := skin.NewInfluenceMap()
	for i, w := range weights {
		invBind := math.Translate(0, -float32(i), 0)
		inf, err := skin.NewBoneInfluence(invBind, skin.ComputeBoneSphere(mesh, invBind, w), w)
		if err != nil {
			return nil, nil, fmt.Errorf("bone %d: %w", i, err)
		}
		if err := infl.Add(boneName(i), inf); err != nil {
			return nil, nil, err
		}
	}
	return mesh, infl, nil
}
