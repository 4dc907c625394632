package math

// Sphere is a bounding sphere. A negative radius marks an empty sphere that
// contains nothing and is absorbed by any merge.
type Sphere struct {
	Center Vec3
	Radius float32
}

// EmptySphere returns a sphere that contains nothing.
func EmptySphere() Sphere {
	return Sphere{Radius: -1}
}

// Valid reports whether the sphere encloses anything.
func (s Sphere) Valid() bool {
	return s.Radius >= 0
}

// Contains reports whether p lies inside the sphere, allowing eps of slack.
func (s Sphere) Contains(p Vec3, eps float32) bool {
	return s.Valid() && s.Center.Distance(p) <= s.Radius+eps
}

// ExpandByPoint returns the smallest sphere that grows s just enough to reach p,
// moving the center toward p.
func (s Sphere) ExpandByPoint(p Vec3) Sphere {
	if !s.Valid() {
		return Sphere{Center: p}
	}
	dv := p.Sub(s.Center)
	r := dv.Length()
	if r <= s.Radius {
		return s
	}
	dr := (r - s.Radius) / 2
	return Sphere{
		Center: s.Center.Add(dv.Scale(dr / r)),
		Radius: s.Radius + dr,
	}
}

// ExpandBySphere returns the minimal sphere enclosing both s and other.
func (s Sphere) ExpandBySphere(other Sphere) Sphere {
	if !other.Valid() {
		return s
	}
	if !s.Valid() {
		return other
	}
	d := s.Center.Distance(other.Center)
	if d+other.Radius <= s.Radius {
		return s
	}
	if d+s.Radius <= other.Radius {
		return other
	}
	r := (s.Radius + d + other.Radius) / 2
	// d > 0 here: coincident centers always hit one of the containment cases.
	return Sphere{
		Center: s.Center.Add(other.Center.Sub(s.Center).Scale((r - s.Radius) / d)),
		Radius: r,
	}
}

// Transform maps the sphere through m. The radius is scaled by the largest
// axis scale of m so the result encloses the transformed original.
func (s Sphere) Transform(m Mat4) Sphere {
	if !s.Valid() {
		return s
	}
	return Sphere{
		Center: m.TransformPoint(s.Center),
		Radius: s.Radius * m.MaxScale(),
	}
}

// SphereFromPoints returns a sphere centered on the bounding box of points
// whose radius reaches the farthest point.
func SphereFromPoints(points []Vec3) Sphere {
	if len(points) == 0 {
		return EmptySphere()
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	center := lo.Add(hi).Scale(0.5)
	var r float32
	for _, p := range points {
		r = max(r, center.Distance(p))
	}
	return Sphere{Center: center, Radius: r}
}
