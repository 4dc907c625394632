package scene

import "github.com/Faultbox/midgard-rig/pkg/math"

// Visitor is the traversal context handed to per-frame callbacks.
type Visitor struct {
	FrameNumber uint64
	// NodePath runs from the root down to the visited node, inclusive.
	// It is reused by the traversal and only valid during the callback.
	NodePath []Node
	// Revision is the graph's structural revision at traversal time.
	Revision uint64
}

// Renderer receives finished vertex data during the draw pass.
type Renderer interface {
	DrawVertices(id string, positions, normals []math.Vec3)
}

// RenderInfo is the draw pass context.
type RenderInfo struct {
	Visitor
	Renderer Renderer
}

// Updatable nodes take part in the update pass.
type Updatable interface {
	Update(nv *Visitor)
}

// BoundsUpdatable nodes take part in the bounds pass.
type BoundsUpdatable interface {
	UpdateBounds(nv *Visitor)
}

// Drawable nodes take part in the draw pass.
type Drawable interface {
	Draw(info *RenderInfo)
}

// Pass selects which callbacks a traversal invokes.
type Pass int

const (
	UpdatePass Pass = iota
	BoundsPass
	DrawPass
)

// String returns the pass name.
func (p Pass) String() string {
	switch p {
	case UpdatePass:
		return "update"
	case BoundsPass:
		return "bounds"
	case DrawPass:
		return "draw"
	default:
		return "unknown"
	}
}

// Traverse walks the graph depth first and invokes the pass callback on
// every node implementing it. r is only used by the draw pass.
func (g *Graph) Traverse(frame uint64, pass Pass, r Renderer) {
	info := &RenderInfo{
		Visitor: Visitor{
			FrameNumber: frame,
			Revision:    g.Revision(),
		},
		Renderer: r,
	}
	g.visit(g.root, pass, info)
	info.NodePath = info.NodePath[:0]
}

func (g *Graph) visit(n Node, pass Pass, info *RenderInfo) {
	info.NodePath = append(info.NodePath, n)
	defer func() { info.NodePath = info.NodePath[:len(info.NodePath)-1] }()

	switch pass {
	case UpdatePass:
		if u, ok := n.(Updatable); ok {
			u.Update(&info.Visitor)
		}
	case BoundsPass:
		if b, ok := n.(BoundsUpdatable); ok {
			b.UpdateBounds(&info.Visitor)
		}
	case DrawPass:
		if d, ok := n.(Drawable); ok {
			d.Draw(info)
		}
	}

	for _, c := range n.Children() {
		g.visit(c, pass, info)
	}
}

// FindSkeleton returns the nearest Skeleton on path, searching from the end,
// together with its index in path.
func FindSkeleton(path []Node) (*Skeleton, int) {
	for i := len(path) - 1; i >= 0; i-- {
		if s, ok := path[i].(*Skeleton); ok {
			return s, i
		}
	}
	return nil, -1
}

// PathMatrix multiplies the Transformer matrices of path in order, outermost
// first, giving the transform from the last node's space into the space of
// the node just before path[0].
func PathMatrix(path []Node) math.Mat4 {
	m := math.Identity()
	for _, n := range path {
		if t, ok := n.(Transformer); ok {
			m = m.Mul(t.Matrix())
		}
	}
	return m
}
