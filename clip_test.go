package geomengine

import "testing"

func quadInsideFrustum() []ClippedVertex {
	return []ClippedVertex{
		{Pos: Vec4f{X: -0.5, Y: -0.5, Z: 0, W: 1}},
		{Pos: Vec4f{X: 0.5, Y: -0.5, Z: 0, W: 1}},
		{Pos: Vec4f{X: 0.5, Y: 0.5, Z: 0, W: 1}},
		{Pos: Vec4f{X: -0.5, Y: 0.5, Z: 0, W: 1}},
	}
}

func TestClipPolygonFullyInsideUnchanged(t *testing.T) {
	out, count, visible := ClipPolygon(quadInsideFrustum(), ClipFull)
	if !visible || count != 4 {
		t.Fatalf("visible=%v count=%d, want visible=true count=4", visible, count)
	}
	for i := 0; i < count; i++ {
		if out[i].Pos != quadInsideFrustum()[i].Pos {
			t.Errorf("vertex %d moved: got %+v", i, out[i].Pos)
		}
	}
}

func TestClipPolygonFullyOutsideInvisible(t *testing.T) {
	tri := []ClippedVertex{
		{Pos: Vec4f{X: 5, Y: 5, Z: 0, W: 1}},
		{Pos: Vec4f{X: 6, Y: 5, Z: 0, W: 1}},
		{Pos: Vec4f{X: 5, Y: 6, Z: 0, W: 1}},
	}
	_, count, visible := ClipPolygon(tri, ClipFull)
	if visible || count != 0 {
		t.Errorf("visible=%v count=%d, want visible=false count=0 for a fully out-of-frustum triangle", visible, count)
	}
}

func TestClipPolygonCutCornerStaysOnPlane(t *testing.T) {
	// A triangle straddling the +X=W plane: one vertex outside.
	tri := []ClippedVertex{
		{Pos: Vec4f{X: 0, Y: 0, Z: 0, W: 1}},
		{Pos: Vec4f{X: 2, Y: 0, Z: 0, W: 1}}, // outside: X > W
		{Pos: Vec4f{X: 0, Y: 1, Z: 0, W: 1}},
	}
	out, count, visible := ClipPolygon(tri, ClipFull)
	if !visible {
		t.Fatalf("expected the clipped remainder to stay visible")
	}
	for i := 0; i < count; i++ {
		if out[i].Pos.X > out[i].Pos.W+1e-4 {
			t.Errorf("vertex %d has X=%v > W=%v after clipping against +X plane", i, out[i].Pos.X, out[i].Pos.W)
		}
	}
}

func TestClipPolygonColorInterpolationPerMode(t *testing.T) {
	tri := func() []ClippedVertex {
		return []ClippedVertex{
			{Pos: Vec4f{X: 0, Y: 0, Z: 0, W: 1}, Color: [3]uint8{63, 0, 0}, ColorF: [3]float32{1, 0, 0}},
			{Pos: Vec4f{X: 2, Y: 0, Z: 0, W: 1}, Color: [3]uint8{0, 63, 0}, ColorF: [3]float32{0, 1, 0}},
			{Pos: Vec4f{X: 0, Y: 1, Z: 0, W: 1}, Color: [3]uint8{0, 0, 63}, ColorF: [3]float32{0, 0, 1}},
		}
	}
	outDetermine, _, _ := ClipPolygon(tri(), ClipDetermineOnly)
	outFull, fullCount, _ := ClipPolygon(tri(), ClipFull)
	outColor, colorCount, _ := ClipPolygon(tri(), ClipFullColorInterpolate)

	for i := 0; i < len(outDetermine); i++ {
		if outDetermine[i].Color != ([3]uint8{}) {
			t.Errorf("ClipDetermineOnly populated Color, want it left zero")
		}
	}

	var sawNonZeroColorFull, sawNonZeroColorF bool
	for i := 0; i < fullCount; i++ {
		if outFull[i].Color != ([3]uint8{}) {
			sawNonZeroColorFull = true
		}
		if outFull[i].ColorF != ([3]float32{}) {
			t.Errorf("ClipFull populated ColorF at %d, want only integer Color touched", i)
		}
	}
	if !sawNonZeroColorFull {
		t.Errorf("ClipFull left every vertex's integer Color at zero")
	}

	for i := 0; i < colorCount; i++ {
		if outColor[i].ColorF != ([3]float32{}) {
			sawNonZeroColorF = true
		}
	}
	if !sawNonZeroColorF {
		t.Errorf("ClipFullColorInterpolate left every vertex's ColorF at zero")
	}
}

func TestClipAgainstPlaneInsideCheck(t *testing.T) {
	p := clipPlane{axis: clipAxisX, sign: 1}
	if !p.inside(Vec4f{X: 1, W: 1}) {
		t.Errorf("X=1,W=1 should be inside the +X<=W plane")
	}
	if p.inside(Vec4f{X: 2, W: 1}) {
		t.Errorf("X=2,W=1 should be outside the +X<=W plane")
	}
}

func TestLerpMidpoint(t *testing.T) {
	if got := lerp(0, 10, 0.5); got != 5 {
		t.Errorf("lerp(0,10,0.5) = %v, want 5", got)
	}
}
