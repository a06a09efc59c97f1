package geomengine

import "testing"

func newTestTests() *Tests {
	return &Tests{Matrices: NewMatrixStacks()}
}

func packFixed16(lo, hi Fixed) uint32 {
	return uint32(uint16(int32(lo))) | uint32(uint16(int32(hi)))<<16
}

func TestBoxTestVisibleAtOrigin(t *testing.T) {
	tt := newTestTests()
	params := [3]uint32{
		packFixed16(FixedFromFloat(-0.1), FixedFromFloat(-0.1)),
		packFixed16(FixedFromFloat(-0.1), FixedFromFloat(0.2)),
		packFixed16(FixedFromFloat(0.2), FixedFromFloat(0.2)),
	}
	if !tt.BoxTest(params) {
		t.Errorf("a small box straddling the origin should be visible under an identity transform")
	}
	if !tt.BoxResult {
		t.Errorf("BoxResult not latched after BoxTest")
	}
}

func TestBoxTestInvisibleFarAway(t *testing.T) {
	tt := newTestTests()
	params := [3]uint32{
		packFixed16(FixedFromInt(100), FixedFromInt(100)),
		packFixed16(FixedFromInt(100), FixedFromInt(1)),
		packFixed16(FixedFromInt(1), FixedFromInt(1)),
	}
	if tt.BoxTest(params) {
		t.Errorf("a box entirely outside the clip frustum should not be visible")
	}
}

func TestBoxCornersQuirkCorner5ReusesZ(t *testing.T) {
	corners := boxCorners(FixedFromInt(1), FixedFromInt(2), FixedFromInt(3), FixedFromInt(10), FixedFromInt(20), FixedFromInt(30))
	// Corner 5 should match corner 1's Z (the un-advanced z), not z+dz —
	// the documented hardware quirk reproduced rather than fixed.
	if corners[5].Z != corners[1].Z {
		t.Errorf("corner 5 Z = %v, want corner 1's Z %v (the reproduced quirk)", corners[5].Z.ToFloat(), corners[1].Z.ToFloat())
	}
	if corners[5].Z == corners[6].Z {
		t.Errorf("corner 5 Z unexpectedly matches corner 6's advanced Z")
	}
}

func TestPositionTestIdentityTransform(t *testing.T) {
	tt := newTestTests()
	params := [2]uint32{
		packFixed16(FixedFromFloat(0.5), FixedFromFloat(-0.25)),
		packFixed16(FixedFromFloat(0.1), 0),
	}
	got := tt.PositionTest(params)
	if got.X != FixedFromFloat(0.5) || got.Y != FixedFromFloat(-0.25) {
		t.Errorf("PositionTest under identity = %+v, want X=0.5 Y=-0.25", got)
	}
	if tt.PosResult != got {
		t.Errorf("PosResult not latched to the returned value")
	}
}

func TestVectorTestDecodesThreeLanes(t *testing.T) {
	tt := newTestTests()
	// Three 10-bit lanes, value 100 (raw) each: 100/512 in 1.9 format.
	param := uint32(100) | uint32(100)<<10 | uint32(100)<<20
	got := tt.VectorTest(param)
	want := uint16(decodeLane10(100))
	if got[0] != want || got[1] != want || got[2] != want {
		t.Errorf("VectorTest(%#x) = %+v, want all lanes %d", param, got, want)
	}
}

func TestDecodeLane10SignExtends(t *testing.T) {
	// 0x200 is the 10-bit sign bit; raw=0x200 represents -512/512 = -1.0.
	got := decodeLane10(0x200)
	want := FixedFromFloat(-1.0)
	if got != want {
		t.Errorf("decodeLane10(0x200) = %v, want %v", got.ToFloat(), want.ToFloat())
	}
}

func TestDecodeFixed16SignExtends(t *testing.T) {
	got := decodeFixed16(0x8000)
	if got.ToFloat() >= 0 {
		t.Errorf("decodeFixed16(0x8000) = %v, want a negative value", got.ToFloat())
	}
}
