// tests.go - hardware test operations (C8, spec.md §4.8).
//
// BOX_TEST, POS_TEST and VEC_TEST are synchronous "ask the transform
// pipeline a question" operations: each packs its operands into one or more
// 32-bit words (two 16-bit lanes, or three 10-bit lanes for VEC_TEST), runs
// them through the current matrix stacks, and leaves a result the host
// reads back from the status/result registers.
package geomengine

// Tests owns the transform pipeline's read side for BOX_TEST, POS_TEST and
// VEC_TEST, and the last result of each.
type Tests struct {
	Matrices *MatrixStacks

	BoxResult bool

	// PosResult is the position test's clip-space result: position matrix
	// then projection matrix applied to the operand, all four components
	// retained (spec.md §4.8).
	PosResult Vec4

	// VecResult holds the lower 16 bits of each position-vector-matrix
	// transformed component (spec.md §4.8).
	VecResult [3]uint16
}

// decodeFixed16 sign-extends a packed 16-bit 4.12 operand to a full Fixed;
// the formats are identical below bit 16, so this is a plain sign-extend.
func decodeFixed16(v uint16) Fixed { return Fixed(int32(int16(v))) }

// decodeLane10 sign-extends a packed 10-bit signed normal component (1.9
// format, value = raw/512) to a Fixed (20.12, value = raw/4096); the two
// scales differ by a factor of 8.
func decodeLane10(v uint32) Fixed {
	raw := v & 0x3FF
	if raw&0x200 != 0 {
		raw |= 0xFFFFFC00
	}
	return Fixed(int32(raw) * 8)
}

// boxCorners builds the box's 8 corners from its origin (x,y,z) and extents
// (dx,dy,dz). Corner 5 deliberately reuses z instead of z+dz — the
// documented hardware quirk in spec.md §9's Open Questions, reproduced
// verbatim rather than "fixed", since games that exercise BOX_TEST were
// authored against the quirky behaviour.
func boxCorners(x, y, z, dx, dy, dz Fixed) [8]Vec4 {
	x1, y1, z1 := x+dx, y+dy, z+dz
	return [8]Vec4{
		{X: x, Y: y, Z: z, W: FixedOne},
		{X: x1, Y: y, Z: z, W: FixedOne},
		{X: x1, Y: y1, Z: z, W: FixedOne},
		{X: x, Y: y1, Z: z, W: FixedOne},
		{X: x, Y: y, Z: z1, W: FixedOne},
		{X: x1, Y: y, Z: z, W: FixedOne}, // quirk: should be z1
		{X: x1, Y: y1, Z: z1, W: FixedOne},
		{X: x, Y: y1, Z: z1, W: FixedOne},
	}
}

// boxFaces lists the 6 faces of the box as corner-index quads, in winding
// order.
var boxFaces = [6][4]int{
	{0, 1, 2, 3}, // near (z)
	{4, 5, 6, 7}, // far (z+dz)
	{0, 1, 5, 4}, // bottom (y)
	{3, 2, 6, 7}, // top (y+dy)
	{0, 3, 7, 4}, // left (x)
	{1, 2, 6, 5}, // right (x+dx)
}

func (t *Tests) transformClip(v Vec4) Vec4 {
	view := MulVec4(t.Matrices.Position(), v)
	return MulVec4(t.Matrices.Projection(), view)
}

func fixedToFloat4(v Vec4) Vec4f {
	return Vec4f{X: float32(v.X.ToFloat()), Y: float32(v.Y.ToFloat()), Z: float32(v.Z.ToFloat()), W: float32(v.W.ToFloat())}
}

// BoxTest decodes the three packed operand words, transforms the box's 6
// faces through the current position and projection matrices, and reports
// whether any face survives clipping (ClipDetermineOnly mode, spec.md
// §4.8).
func (t *Tests) BoxTest(params [3]uint32) bool {
	x := decodeFixed16(uint16(params[0]))
	y := decodeFixed16(uint16(params[0] >> 16))
	z := decodeFixed16(uint16(params[1]))
	dx := decodeFixed16(uint16(params[1] >> 16))
	dy := decodeFixed16(uint16(params[2]))
	dz := decodeFixed16(uint16(params[2] >> 16))

	corners := boxCorners(x, y, z, dx, dy, dz)
	var clip [8]Vec4f
	for i, c := range corners {
		clip[i] = fixedToFloat4(t.transformClip(c))
	}

	visible := false
	for _, face := range boxFaces {
		quad := [4]ClippedVertex{
			{Pos: clip[face[0]]}, {Pos: clip[face[1]]},
			{Pos: clip[face[2]]}, {Pos: clip[face[3]]},
		}
		if _, _, ok := ClipPolygon(quad[:], ClipDetermineOnly); ok {
			visible = true
			break
		}
	}
	t.BoxResult = visible
	return visible
}

// PositionTest decodes the two packed operand words (x in the low and y in
// the high lane of word 0; z in the low lane of word 1) as a position (w
// implicitly 1), transforms it through the position then projection
// matrix, and retains all four result components.
func (t *Tests) PositionTest(params [2]uint32) Vec4 {
	x := decodeFixed16(uint16(params[0]))
	y := decodeFixed16(uint16(params[0] >> 16))
	z := decodeFixed16(uint16(params[1]))
	t.PosResult = t.transformClip(Vec4{X: x, Y: y, Z: z, W: FixedOne})
	return t.PosResult
}

// VectorTest decodes the packed 30-bit normal (three 10-bit signed lanes),
// transforms it through the position-vector matrix's upper-left 3x3, and
// retains the lower 16 bits of each result component.
func (t *Tests) VectorTest(param uint32) [3]uint16 {
	x := decodeLane10(param)
	y := decodeLane10(param >> 10)
	z := decodeLane10(param >> 20)
	out := MulVec3(t.Matrices.PositionVector(), Vec3{X: x, Y: y, Z: z})
	t.VecResult = [3]uint16{uint16(out.X), uint16(out.Y), uint16(out.Z)}
	return t.VecResult
}
