package geomengine

import "testing"

// smallTriXY are a fully-in-frustum triangle's three (X,Y) corners, shared
// by every polygon triangleList builds — only Attr/TexParam vary between
// test cases.
var smallTriXY = [3][2]float32{{-0.3, -0.3}, {0.3, -0.3}, {0, 0.3}}

func triangleList(polys ...Polygon) *GeometryList {
	list := &GeometryList{}
	for _, p := range polys {
		for k := 0; k < p.VertCount; k++ {
			idx := list.addVertex(Vertex{
				X: smallTriXY[k%3][0], Y: smallTriXY[k%3][1], Z: 0, W: 1,
			})
			p.Indices[k] = int32(idx)
		}
		list.addPolygon(p)
	}
	return list
}

func TestClampW(t *testing.T) {
	if got := clampW(0); got != epsilonW {
		t.Errorf("clampW(0) = %v, want epsilonW", got)
	}
	if got := clampW(-0.0001); got != -epsilonW {
		t.Errorf("clampW(-0.0001) = %v, want -epsilonW", got)
	}
	if got := clampW(1); got != 1 {
		t.Errorf("clampW(1) = %v, want unchanged 1", got)
	}
}

func TestIsTranslucentAlphaRange(t *testing.T) {
	opaque := Polygon{Attr: uint32(31) << 16}
	translucent := Polygon{Attr: uint32(15) << 16}
	invisible := Polygon{Attr: 0}
	if isTranslucent(opaque) {
		t.Errorf("alpha=31 should be opaque")
	}
	if !isTranslucent(translucent) {
		t.Errorf("alpha=15 should be translucent")
	}
	if isTranslucent(invisible) {
		t.Errorf("alpha=0 should not be classified translucent by this rule")
	}
}

func TestIsTranslucentAlphaTextureFormat(t *testing.T) {
	a3i5 := Polygon{Attr: uint32(31) << 16, TexParam: uint32(1) << 26}
	a5i3 := Polygon{Attr: uint32(31) << 16, TexParam: uint32(6) << 26}
	opaqueFmt := Polygon{Attr: uint32(31) << 16, TexParam: uint32(2) << 26}
	if !isTranslucent(a3i5) {
		t.Errorf("A3I5 texture format should force translucent classification")
	}
	if !isTranslucent(a5i3) {
		t.Errorf("A5I3 texture format should force translucent classification")
	}
	if isTranslucent(opaqueFmt) {
		t.Errorf("a fully-opaque alpha with a non-alpha texture format should be opaque")
	}
}

func TestFlushDropsFullyClippedPolygons(t *testing.T) {
	list := triangleList(Polygon{
		VertCount: 3,
		Indices:   [4]int32{-1, -1, -1, -1},
	})
	// Push the triangle far outside the clip frustum.
	for i := range list.Vertices[:3] {
		list.Vertices[i].X = 100
		list.Vertices[i].W = 1
	}
	Flush(list)
	if list.ClipCount != 0 {
		t.Errorf("ClipCount = %d, want 0 for a fully out-of-frustum triangle", list.ClipCount)
	}
}

func TestFlushPartitionsOpaqueBeforeTranslucent(t *testing.T) {
	mkTri := func(alpha uint8) Polygon {
		return Polygon{VertCount: 3, Attr: uint32(alpha) << 16}
	}
	list := triangleList(mkTri(15), mkTri(31), mkTri(10))
	for i := range list.Vertices {
		list.Vertices[i].W = 1
	}
	Flush(list)
	if list.ClipCount != 3 {
		t.Fatalf("ClipCount = %d, want 3", list.ClipCount)
	}
	if list.OpaqueCount != 1 {
		t.Fatalf("OpaqueCount = %d, want 1", list.OpaqueCount)
	}
	opaquePoly := list.Polygons[list.Clipped[0].SourceIndex]
	if isTranslucent(opaquePoly) {
		t.Errorf("the single opaque entry at index 0 is classified translucent")
	}
	for i := list.OpaqueCount; i < list.ClipCount; i++ {
		p := list.Polygons[list.Clipped[i].SourceIndex]
		if !isTranslucent(p) {
			t.Errorf("entry %d after OpaqueCount is not translucent", i)
		}
	}
}

func TestNdcYMonotonicWithY(t *testing.T) {
	low := ndcY(Vec4f{Y: -1, W: 1})
	high := ndcY(Vec4f{Y: 1, W: 1})
	if !(high < low) {
		t.Errorf("ndcY(Y=1)=%v should be less than ndcY(Y=-1)=%v (Y increases downward in NDC)", high, low)
	}
}
