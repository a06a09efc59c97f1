package geomengine

import "testing"

func newTestAssembler() (*Assembler, *GeometryList) {
	list := &GeometryList{}
	a := NewAssembler(NewMatrixStacks(), &LightingState{}, list)
	return a, list
}

func TestBeginPrimitiveLatchesPendingAttr(t *testing.T) {
	a, _ := newTestAssembler()
	a.SetPolygonAttr(0xABCD)
	if a.currentAttr != 0 {
		t.Fatalf("currentAttr changed before BeginPrimitive: %#x", a.currentAttr)
	}
	a.BeginPrimitive(uint32(PrimTriangles))
	if a.currentAttr != 0xABCD {
		t.Errorf("currentAttr after BeginPrimitive = %#x, want 0xABCD", a.currentAttr)
	}
}

func TestTrianglesEmitEveryThreeVertices(t *testing.T) {
	a, list := newTestAssembler()
	a.BeginPrimitive(uint32(PrimTriangles))
	for i := 0; i < 5; i++ {
		a.AddVertex(Vec4{X: FixedFromInt(i), W: FixedOne}, 0, 0)
	}
	if list.PolyCount != 1 {
		t.Fatalf("PolyCount after 5 vertices = %d, want 1 (one complete triangle)", list.PolyCount)
	}
	a.AddVertex(Vec4{W: FixedOne}, 0, 0)
	if list.PolyCount != 2 {
		t.Errorf("PolyCount after 6th vertex = %d, want 2", list.PolyCount)
	}
}

func TestQuadsEmitEveryFourVertices(t *testing.T) {
	a, list := newTestAssembler()
	a.BeginPrimitive(uint32(PrimQuads))
	for i := 0; i < 3; i++ {
		a.AddVertex(Vec4{X: FixedFromInt(i), W: FixedOne}, 0, 0)
	}
	if list.PolyCount != 0 {
		t.Fatalf("PolyCount after 3 vertices of a quad = %d, want 0", list.PolyCount)
	}
	a.AddVertex(Vec4{W: FixedOne}, 0, 0)
	if list.PolyCount != 1 {
		t.Errorf("PolyCount after 4th vertex = %d, want 1", list.PolyCount)
	}
}

func TestTriangleStripEmitsFromThirdVertexOnward(t *testing.T) {
	a, list := newTestAssembler()
	a.BeginPrimitive(uint32(PrimTriangleStrip))
	a.AddVertex(Vec4{X: FixedFromInt(0), W: FixedOne}, 0, 0)
	a.AddVertex(Vec4{X: FixedFromInt(1), W: FixedOne}, 0, 0)
	if list.PolyCount != 0 {
		t.Fatalf("PolyCount after 2 strip vertices = %d, want 0", list.PolyCount)
	}
	a.AddVertex(Vec4{X: FixedFromInt(2), W: FixedOne}, 0, 0)
	if list.PolyCount != 1 {
		t.Fatalf("PolyCount after 3rd strip vertex = %d, want 1", list.PolyCount)
	}
	a.AddVertex(Vec4{X: FixedFromInt(3), W: FixedOne}, 0, 0)
	if list.PolyCount != 2 {
		t.Errorf("PolyCount after 4th strip vertex = %d, want 2 (one per vertex from the 3rd on)", list.PolyCount)
	}
}

func TestTriangleStripReusesPrecedingTwoVertices(t *testing.T) {
	a, list := newTestAssembler()
	a.BeginPrimitive(uint32(PrimTriangleStrip))
	for i := 0; i < 5; i++ {
		a.AddVertex(Vec4{X: FixedFromInt(i), W: FixedOne}, 0, 0)
	}
	// Vertices are numbered 0..4 by insertion order (vertex list index ==
	// raw X here). The 3rd triangle (emitted on vertex 4) should reuse
	// vertices 2 and 3.
	if list.PolyCount != 3 {
		t.Fatalf("PolyCount = %d, want 3", list.PolyCount)
	}
	last := list.Polygons[2]
	gotX := map[int]bool{}
	for k := 0; k < last.VertCount; k++ {
		gotX[int(list.Vertices[last.Indices[k]].X)] = true
	}
	if !gotX[2] || !gotX[3] || !gotX[4] {
		t.Errorf("3rd triangle vertex Xs = %v, want {2,3,4}", gotX)
	}
}

func TestQuadStripEmitsEveryOtherVertexFromFourth(t *testing.T) {
	a, list := newTestAssembler()
	a.BeginPrimitive(uint32(PrimQuadStrip))
	for i := 0; i < 4; i++ {
		a.AddVertex(Vec4{X: FixedFromInt(i), W: FixedOne}, 0, 0)
	}
	if list.PolyCount != 1 {
		t.Fatalf("PolyCount after 4 quad-strip vertices = %d, want 1", list.PolyCount)
	}
	a.AddVertex(Vec4{X: FixedFromInt(4), W: FixedOne}, 0, 0)
	if list.PolyCount != 1 {
		t.Errorf("PolyCount after 5th (odd pairing) vertex = %d, want still 1", list.PolyCount)
	}
	a.AddVertex(Vec4{X: FixedFromInt(5), W: FixedOne}, 0, 0)
	if list.PolyCount != 2 {
		t.Errorf("PolyCount after 6th vertex = %d, want 2", list.PolyCount)
	}
}

func TestSetColorSixBitFloatConversion(t *testing.T) {
	a, _ := newTestAssembler()
	a.SetColor(63, 32, 0)
	if a.colorF[0] != 1 {
		t.Errorf("colorF[0] = %v, want 1.0 for max 6-bit channel", a.colorF[0])
	}
	if a.colorF[2] != 0 {
		t.Errorf("colorF[2] = %v, want 0", a.colorF[2])
	}
}

func TestSetColor5WidensFromRGB555(t *testing.T) {
	a, _ := newTestAssembler()
	a.SetColor5(31, 0, 16)
	// Same 5-to-6-bit widening as ApplyLitColor, just fed from COLOR's
	// RGB555 fields instead of the lighting cache.
	if a.color[0] != 63 {
		t.Errorf("widened 31 = %d, want 63", a.color[0])
	}
	if a.color[1] != 0 {
		t.Errorf("widened 0 = %d, want 0", a.color[1])
	}
	if a.color[2] != 33 {
		t.Errorf("widened 16 = %d, want 33", a.color[2])
	}
}

func TestApplyLitColorFiveToSixBitExpansion(t *testing.T) {
	a, _ := newTestAssembler()
	a.ApplyLitColor([3]uint8{31, 0, 16})
	// 31 (0b11111) doubles to 63 (0b111111): top bit repeated into the new LSB.
	if a.color[0] != 63 {
		t.Errorf("expanded 31 = %d, want 63", a.color[0])
	}
	if a.color[1] != 0 {
		t.Errorf("expanded 0 = %d, want 0", a.color[1])
	}
}

func TestTexCoordTransformNoneIsPassthrough(t *testing.T) {
	a, _ := newTestAssembler()
	s, tc := a.texCoordFor(TexCoordTransformNone, FixedFromInt(3), FixedFromInt(5), Vec4{})
	if s != FixedFromInt(3) || tc != FixedFromInt(5) {
		t.Errorf("texCoordFor(None) = (%v,%v), want (3,5)", s.ToFloat(), tc.ToFloat())
	}
}

func TestTexCoordModeReadsTopTwoBits(t *testing.T) {
	a, _ := newTestAssembler()
	a.SetTexImageParam(uint32(TexCoordTransformVertex) << 30)
	if got := a.texCoordMode(); got != TexCoordTransformVertex {
		t.Errorf("texCoordMode() = %v, want TexCoordTransformVertex", got)
	}
}

func TestUntexturedDegenerateTriangleGetsLineOffset(t *testing.T) {
	a, list := newTestAssembler()
	a.BeginPrimitive(uint32(PrimTriangles))
	// Three vertices sharing X=0: collapses to a vertical line.
	a.AddVertex(Vec4{X: 0, Y: FixedFromInt(0), W: FixedOne}, 0, 0)
	a.AddVertex(Vec4{X: 0, Y: FixedFromInt(1), W: FixedOne}, 0, 0)
	a.AddVertex(Vec4{X: 0, Y: FixedFromInt(2), W: FixedOne}, 0, 0)
	if list.PolyCount != 1 {
		t.Fatalf("PolyCount = %d, want 1", list.PolyCount)
	}
	if list.Polygons[0].ListFormat != ListTrianglesLine {
		t.Errorf("ListFormat = %v, want ListTrianglesLine", list.Polygons[0].ListFormat)
	}
}

func TestTexturedDegenerateTriangleStaysUnmarked(t *testing.T) {
	a, list := newTestAssembler()
	a.SetTexImageParam(1 << 26) // nonzero format: textured
	a.BeginPrimitive(uint32(PrimTriangles))
	a.AddVertex(Vec4{X: 0, Y: FixedFromInt(0), W: FixedOne}, 0, 0)
	a.AddVertex(Vec4{X: 0, Y: FixedFromInt(1), W: FixedOne}, 0, 0)
	a.AddVertex(Vec4{X: 0, Y: FixedFromInt(2), W: FixedOne}, 0, 0)
	if list.Polygons[0].ListFormat != ListTriangles {
		t.Errorf("ListFormat = %v, want ListTriangles (textured triangles are never reclassified)", list.Polygons[0].ListFormat)
	}
}
