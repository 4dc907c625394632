package scene

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-rig/pkg/math"
)

type recorder struct {
	Group
	calls []string
	paths [][]string
}

func (r *recorder) record(kind string, nv *Visitor) {
	r.calls = append(r.calls, kind)
	var names []string
	for _, n := range nv.NodePath {
		names = append(names, n.Name())
	}
	r.paths = append(r.paths, names)
}

func (r *recorder) Update(nv *Visitor)       { r.record("update", nv) }
func (r *recorder) UpdateBounds(nv *Visitor) { r.record("bounds", nv) }
func (r *recorder) Draw(info *RenderInfo)    { r.record("draw", &info.Visitor) }

func TestTraversePasses(t *testing.T) {
	g := NewGraph()
	skel := NewSkeleton("skel")
	xf := NewTransform("offset", math.Translate(0, 1, 0))
	rec := &recorder{Group: Group{name: "mesh"}}

	g.Attach(g.Root(), skel)
	g.Attach(skel, xf)
	g.Attach(xf, rec)

	for _, pass := range []Pass{UpdatePass, BoundsPass, DrawPass} {
		g.Traverse(1, pass, nil)
	}

	want := []string{"update", "bounds", "draw"}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, rec.calls[i], want[i])
		}
		path := rec.paths[i]
		if len(path) != 4 || path[0] != "root" || path[1] != "skel" || path[2] != "offset" || path[3] != "mesh" {
			t.Errorf("pass %s path = %v", want[i], path)
		}
	}
}

func TestRevision(t *testing.T) {
	g := NewGraph()
	start := g.Revision()
	child := NewGroup("a")

	g.Attach(g.Root(), child)
	if g.Revision() != start+1 {
		t.Errorf("Attach should bump revision: %d -> %d", start, g.Revision())
	}
	if !g.Detach(g.Root(), child) {
		t.Fatal("Detach should find the child")
	}
	if g.Revision() != start+2 {
		t.Errorf("Detach should bump revision: got %d", g.Revision())
	}
	if g.Detach(g.Root(), child) {
		t.Error("second Detach should report false")
	}
	if g.Revision() != start+2 {
		t.Error("failed Detach must not bump revision")
	}
}

func TestSkeletonBones(t *testing.T) {
	s := NewSkeleton("skel")
	root, err := s.AddBone("hip", "", math.Translate(0, 1, 0))
	if err != nil {
		t.Fatalf("AddBone hip: %v", err)
	}
	knee, err := s.AddBone("knee", "hip", math.Translate(0, -0.5, 0))
	if err != nil {
		t.Fatalf("AddBone knee: %v", err)
	}

	if _, err := s.AddBone("knee", "hip", math.Identity()); !errors.Is(err, ErrDuplicateBone) {
		t.Errorf("duplicate bone error = %v", err)
	}
	if _, err := s.AddBone("toe", "foot", math.Identity()); !errors.Is(err, ErrUnknownParent) {
		t.Errorf("unknown parent error = %v", err)
	}

	if s.ResolveBone("knee") != knee || s.ResolveBone("hip") != root {
		t.Error("ResolveBone returned the wrong bone")
	}
	if s.ResolveBone("elbow") != nil {
		t.Error("ResolveBone should return nil for a missing bone")
	}
	if knee.Parent() != root {
		t.Error("knee parent should be hip")
	}

	s.UpdateBoneMatrices(1)
	if got := knee.WorldTransform().Translation(); !got.ApproxEqual(math.Vec3{Y: 0.5}, 1e-6) {
		t.Errorf("knee world translation = %v, want (0, 0.5, 0)", got)
	}

	// Same frame: no recompute.
	root.SetLocal(math.Translate(0, 2, 0))
	s.UpdateBoneMatrices(1)
	if got := knee.WorldTransform().Translation(); !got.ApproxEqual(math.Vec3{Y: 0.5}, 1e-6) {
		t.Errorf("same-frame update should be skipped, knee at %v", got)
	}

	s.UpdateBoneMatrices(2)
	if got := knee.WorldTransform().Translation(); !got.ApproxEqual(math.Vec3{Y: 1.5}, 1e-6) {
		t.Errorf("knee world translation = %v, want (0, 1.5, 0)", got)
	}
}

func TestFindSkeletonAndPathMatrix(t *testing.T) {
	outer := NewSkeleton("outer")
	inner := NewSkeleton("inner")
	a := NewTransform("a", math.Translate(1, 0, 0))
	b := NewTransform("b", math.Scale(2, 2, 2))
	leaf := NewGroup("leaf")

	path := []Node{NewGroup("root"), outer, inner, a, NewGroup("plain"), b, leaf}
	skel, idx := FindSkeleton(path)
	if skel != inner || idx != 2 {
		t.Fatalf("FindSkeleton = %v at %d, want inner at 2", skel, idx)
	}

	m := PathMatrix(path[idx+1:])
	got := m.TransformPoint(math.Vec3{X: 1})
	if got != (math.Vec3{X: 3}) {
		t.Errorf("PathMatrix applied to (1,0,0) = %v, want (3,0,0)", got)
	}

	if s, i := FindSkeleton([]Node{leaf}); s != nil || i != -1 {
		t.Error("FindSkeleton should fail without a skeleton on the path")
	}
}

func TestPassString(t *testing.T) {
	if UpdatePass.String() != "update" || BoundsPass.String() != "bounds" || DrawPass.String() != "draw" {
		t.Error("unexpected pass names")
	}
	if Pass(42).String() != "unknown" {
		t.Error("unknown pass should stringify as unknown")
	}
}
