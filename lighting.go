// lighting.go - lighting & material cache (C5, spec.md §4.5).
package geomengine

// Light is one of the four hardware lights: a packed direction (recomputed
// into view space on every write) and an RGB555 color.
type Light struct {
	// Direction is the unpacked, 20.12-scaled light direction in model
	// space (three 10-bit signed fractional components, upshifted).
	Direction Vec3
	Color     [3]uint8 // RGB555 components, 0..31 each

	dirView     Vec3 // cached: Direction transformed by the position-vector matrix
	halfVector  Vec3 // cached: normalized(dirView + (0,0,-1))
}

// Material holds the four packed-RGB terms plus the shininess table.
type Material struct {
	Diffuse, Ambient, Specular, Emission [3]uint8
	SpecularTableEnable                 bool
	ShininessTable                      [128]uint8

	// SetVertexColor mirrors DIF_AMB bit 15: when set, that DIF_AMB command
	// also makes its diffuse color the current vertex color.
	SetVertexColor bool
}

// LightingState owns the four lights, the material, and the per-light
// caches recomputed on every light-direction write and on NORMAL issue.
type LightingState struct {
	Lights   [4]Light
	Material Material
	// LightMask controls which lights participate, taken from the current
	// polygon attribute word at NORMAL time.
	LightMask uint8
}

// recomputeLight refreshes light i's cached view-space direction and half
// vector from the current position-vector matrix.
func (ls *LightingState) recomputeLight(i int, posVec Mat4) {
	l := &ls.Lights[i]
	l.dirView = MulVec3(posVec, l.Direction)
	h := Vec3{
		X: l.dirView.X,
		Y: l.dirView.Y,
		Z: l.dirView.Z - FixedOne, // + (0,0,-1), the constant line-of-sight
	}
	l.halfVector = normalize3(h)
}

// RecomputeAll refreshes every light's cache; called on every LIGHT_VECTOR
// and NORMAL, and after PositionVector-mode matrix loads, multiplies and
// translations (spec.md §4.5).
func (ls *LightingState) RecomputeAll(posVec Mat4) {
	for i := range ls.Lights {
		ls.recomputeLight(i, posVec)
	}
}

// normalize3 L2-normalizes v in fixed-point via the integer square root of
// the scaled squared length (1/sqrt(v.v)).
func normalize3(v Vec3) Vec3 {
	lenSq := int64(v.X)*int64(v.X) + int64(v.Y)*int64(v.Y) + int64(v.Z)*int64(v.Z)
	if lenSq == 0 {
		return Vec3{}
	}
	// lenSq is Q24 (sum of Q12-squared terms); its integer square root is
	// the vector's magnitude, already in Q12. scale = 4096^2/root gives the
	// Q12 reciprocal such that mul(component, scale) == component/magnitude.
	root := isqrt(lenSq)
	if root == 0 {
		return Vec3{}
	}
	scale := Fixed((int64(1) << 24) / root)
	return Vec3{mul(v.X, scale), mul(v.Y, scale), mul(v.Z, scale)}
}

// VertexColor computes the per-vertex Phong-like color for a NORMAL at the
// given model-space normal, under lightMask, starting from emission
// (spec.md §4.5). Result channels are 5-bit (0..31).
func (ls *LightingState) VertexColor(normal Vec3, posVec Mat4) [3]uint8 {
	var acc [3]int32
	for c := 0; c < 3; c++ {
		acc[c] = int32(ls.Material.Emission[c])
	}

	viewNormal := MulVec3(posVec, normal)

	for i := 0; i < 4; i++ {
		if ls.LightMask&(1<<uint(i)) == 0 {
			continue
		}
		l := &ls.Lights[i]

		diffuseTerm := Fixed(0)
		if d := -Dot3(l.dirView, viewNormal); d > 0 {
			diffuseTerm = d
		}

		shininess := Fixed(0)
		negHalf := Vec3{-l.halfVector.X, -l.halfVector.Y, -l.halfVector.Z}
		if d := Dot3(negHalf, viewNormal); d > 0 {
			shininess = 2*mul(d, d) - FixedOne
			shininess = clampFixed(shininess, 0, 4095)
			if ls.Material.SpecularTableEnable {
				idx := int(shininess) >> 5
				if idx >= 0 && idx < len(ls.Material.ShininessTable) {
					shininess = Fixed(ls.Material.ShininessTable[idx]) << 4
				}
			}
		}

		for c := 0; c < 3; c++ {
			spec := int64(ls.Material.Specular[c]) * int64(l.Color[c]) * int64(shininess) >> 17
			diff := int64(ls.Material.Diffuse[c]) * int64(l.Color[c]) * int64(diffuseTerm) >> 17
			amb := int64(ls.Material.Ambient[c]) * int64(l.Color[c]) >> 5
			acc[c] += int32(spec + diff + amb)
		}
	}

	var out [3]uint8
	for c := 0; c < 3; c++ {
		v := acc[c]
		if v < 0 {
			v = 0
		}
		if v > 31 {
			v = 31
		}
		out[c] = uint8(v)
	}
	return out
}
