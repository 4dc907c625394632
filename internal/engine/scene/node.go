// Package scene provides the minimal scene graph the skinning pipeline runs
// under: groups, transforms, skeletons and the three per-frame passes.
package scene

import (
	"sync/atomic"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Node is anything placed in the scene graph.
type Node interface {
	Name() string
	Children() []Node
}

// Transformer is a node that applies a local matrix to everything below it.
type Transformer interface {
	Matrix() math.Mat4
}

// Group is a node with children.
type Group struct {
	name     string
	children []Node
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{name: name}
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Children returns the child nodes. The slice must not be modified.
func (g *Group) Children() []Node { return g.children }

func (g *Group) group() *Group { return g }

// Transform is a group with a local matrix.
type Transform struct {
	Group
	matrix math.Mat4
}

// NewTransform creates a transform group with matrix m.
func NewTransform(name string, m math.Mat4) *Transform {
	return &Transform{Group: Group{name: name}, matrix: m}
}

// Matrix returns the local matrix.
func (t *Transform) Matrix() math.Mat4 { return t.matrix }

// SetMatrix replaces the local matrix.
func (t *Transform) SetMatrix(m math.Mat4) { t.matrix = m }

// Parent is implemented by every node type that can hold children.
type Parent interface {
	Node
	group() *Group
}

// Graph owns a node tree and counts structural changes. Caches keyed on the
// tree shape, such as a rig's skeleton lookup, compare Revision to know
// when to re-resolve.
type Graph struct {
	root     *Group
	revision atomic.Uint64
}

// NewGraph creates a graph with an empty root group.
func NewGraph() *Graph {
	return &Graph{root: NewGroup("root")}
}

// Root returns the root group.
func (g *Graph) Root() *Group { return g.root }

// Revision returns the structural revision, bumped by Attach and Detach.
func (g *Graph) Revision() uint64 { return g.revision.Load() }

// Attach adds child under parent.
func (g *Graph) Attach(parent Parent, child Node) {
	p := parent.group()
	p.children = append(p.children, child)
	g.revision.Add(1)
}

// Detach removes child from parent. It reports whether child was found.
func (g *Graph) Detach(parent Parent, child Node) bool {
	p := parent.group()
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			g.revision.Add(1)
			return true
		}
	}
	return false
}
