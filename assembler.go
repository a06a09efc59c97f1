// assembler.go - primitive assembler (C6, spec.md §4.6).
//
// Accumulates raw vertex attributes (position, color, texcoord, normal),
// transforms each vertex through the position and projection matrices, and
// groups the transformed vertices into polygons according to the primitive
// type latched by BEGIN_VTXS. Strip continuation follows the teacher's
// staged-accumulator idiom (video_voodoo.go's triangle batching), adapted to
// the hardware's slot-overwrite scheme traced out below.
package geomengine

// TexCoordTransformMode selects how a vertex's texture coordinate is
// produced, from TEXIMAGE_PARAM bits 30-31 (SPEC_FULL C6).
type TexCoordTransformMode int

const (
	TexCoordTransformNone       TexCoordTransformMode = iota // explicit TEXCOORD, unmodified
	TexCoordTransformTexCoord                                // texture matrix applied to (s,t)
	TexCoordTransformNormal                                  // lighting-driven texgen (unimplemented stub)
	TexCoordTransformVertex                                  // texture matrix applied to raw vertex position
)

// ProjectionOverride lets a host substitute the projection matrix used to
// transform a single vertex, implementing the §9 "freelook" hook. Consulted
// per vertex, not at flush (SPEC_FULL C9).
type ProjectionOverride interface {
	OverrideProjection(current Mat4) (replacement Mat4, ok bool)
}

// Assembler owns the in-flight primitive state between BEGIN_VTXS and
// END_VTXS: the raw attribute latches, the strip-continuation slots, and the
// geometry list being built.
type Assembler struct {
	Matrices *MatrixStacks
	Lighting *LightingState
	Freelook ProjectionOverride

	list *GeometryList

	active   bool
	prim     PrimType
	listFmt  ListFormat
	vertsSeen int // vertices received since BEGIN_VTXS

	// slot holds the vertex-list indices that feed the next emitted polygon;
	// for strips this is the rolling 2- or 3-vertex window.
	slot [4]int32

	// rawSlot mirrors slot but carries the raw (model-space) position of
	// each slotted vertex, needed for the untextured-triangle line-segment
	// degeneracy check (spec.md §4.6), which compares pre-clip coordinates.
	rawSlot [4]Vec4

	// quadStripPending is cleared by BeginPrimitive and is not otherwise
	// read or set; quad-strip pairing is derived from vertsSeen.
	quadStripPending bool

	// currentAttr is the polygon-attribute word that applies to polygons
	// assembled right now; pendingAttr is latched by POLYGON_ATTR but only
	// takes effect at the next BEGIN_VTXS (SPEC_FULL C4).
	currentAttr uint32
	pendingAttr uint32

	texParam    uint32
	paletteBase uint32
	viewport    Viewport

	color  [3]uint8
	colorF [3]float32

	lastRawS, lastRawT Fixed // last computed texcoord, for VertexSource mode
}

// NewAssembler returns an assembler bound to the given matrix stacks,
// lighting state and output list.
func NewAssembler(m *MatrixStacks, l *LightingState, list *GeometryList) *Assembler {
	return &Assembler{Matrices: m, Lighting: l, list: list}
}

// SetPolygonAttr latches a.pendingAttr (OpPolygonAttr); it takes effect at
// the next BeginPrimitive, not immediately.
func (a *Assembler) SetPolygonAttr(v uint32) { a.pendingAttr = v }

// SetTexImageParam latches the texture-parameter word for subsequent
// polygons.
func (a *Assembler) SetTexImageParam(v uint32) { a.texParam = v }

// SetPaletteBase latches the texture palette base for subsequent polygons.
func (a *Assembler) SetPaletteBase(v uint32) { a.paletteBase = v }

// SetViewport latches the current viewport.
func (a *Assembler) SetViewport(v Viewport) { a.viewport = v }

// SetColor latches the current raw vertex color, already in this
// assembler's 6-bit-per-channel internal convention.
func (a *Assembler) SetColor(r, g, b uint8) {
	a.color = [3]uint8{r, g, b}
	a.colorF = [3]float32{float32(r) / 63, float32(g) / 63, float32(b) / 63}
}

// SetColor5 latches the current vertex color from a COLOR opcode's packed
// RGB555 fields (5 bits per channel, spec.md §6), widening each to this
// assembler's 6-bit convention the same way ApplyLitColor does.
func (a *Assembler) SetColor5(r, g, b uint8) {
	a.SetColor(widen5to6(r), widen5to6(g), widen5to6(b))
}

// ApplyLitColor overwrites the current vertex color from the lighting cache
// (NORMAL opcode path, spec.md §4.5), converting the 5-bit lighting result
// up to this assembler's 6-bit channel convention with widen5to6.
func (a *Assembler) ApplyLitColor(c [3]uint8) {
	a.SetColor(widen5to6(c[0]), widen5to6(c[1]), widen5to6(c[2]))
}

// widen5to6 expands a 5-bit channel to 6 bits by shifting it left one bit
// and repeating its top bit (bit 4) into the new low bit: 31 -> 63,
// 16 -> 33, 0 -> 0.
func widen5to6(v uint8) uint8 {
	return v<<1 | (v >> 4 & 1)
}

// BeginPrimitive starts a new primitive list (BEGIN_VTXS), latching the
// pending polygon-attribute word and resetting strip-continuation state.
func (a *Assembler) BeginPrimitive(param uint32) {
	a.active = true
	a.prim = PrimType(param & 0x3)
	a.listFmt = ListFormat(a.prim)
	a.vertsSeen = 0
	a.quadStripPending = false
	a.currentAttr = a.pendingAttr
}

// EndPrimitive closes the in-flight primitive list (END_VTXS).
func (a *Assembler) EndPrimitive() { a.active = false }

// transformVertex runs the raw model-space position through the position
// matrix then the projection matrix (or a freelook override of the latter),
// returning the clip-space Vec4.
func (a *Assembler) transformVertex(raw Vec4) Vec4 {
	view := MulVec4(a.Matrices.Position(), raw)
	proj := a.Matrices.Projection()
	if a.Freelook != nil {
		if replacement, ok := a.Freelook.OverrideProjection(proj); ok {
			proj = replacement
		}
	}
	return MulVec4(proj, view)
}

// texCoordFor computes (s,t) for a vertex given the latched transform mode
// and raw attributes, per SPEC_FULL C6.
func (a *Assembler) texCoordFor(mode TexCoordTransformMode, rawS, rawT Fixed, rawPos Vec4) (Fixed, Fixed) {
	switch mode {
	case TexCoordTransformTexCoord:
		c := MulVec4(a.Matrices.Texture(), Vec4{X: rawS, Y: rawT, Z: FixedOne, W: FixedOne})
		return c.X, c.Y
	case TexCoordTransformVertex:
		c := MulVec4(a.Matrices.Texture(), rawPos)
		return c.X + a.lastRawS, c.Y + a.lastRawT
	case TexCoordTransformNormal:
		// Lighting-driven texgen: unimplemented, returns the explicit
		// coordinate untransformed.
		return rawS, rawT
	default:
		return rawS, rawT
	}
}

// texCoordMode reads TexCoordTransformMode out of the latched TEXIMAGE_PARAM
// word (bits 30-31).
func (a *Assembler) texCoordMode() TexCoordTransformMode {
	return TexCoordTransformMode((a.texParam >> 30) & 0x3)
}

// AddVertex assembles one raw vertex: transforms its position, resolves its
// texcoord, appends it to the geometry list, and — once enough vertices are
// present — emits whatever polygon(s) the current primitive type produces.
func (a *Assembler) AddVertex(rawPos Vec4, rawS, rawT Fixed) {
	clip := a.transformVertex(rawPos)
	s, t := a.texCoordFor(a.texCoordMode(), rawS, rawT, rawPos)
	a.lastRawS, a.lastRawT = s, t

	v := Vertex{
		X: float32(clip.X.ToFloat()), Y: float32(clip.Y.ToFloat()),
		Z: float32(clip.Z.ToFloat()), W: float32(clip.W.ToFloat()),
		S: float32(s.ToFloat()), T: float32(t.ToFloat()),
		ColorFloat: a.colorF,
		ColorInt:   a.color,
	}
	idx := a.list.addVertex(v)
	if idx < 0 {
		return // geometry list full: silently dropped (spec.md §4.6 overflow)
	}
	a.pushSlot(int32(idx), rawPos)
	a.vertsSeen++
	a.tryEmit()
}

// pushSlot appends a newly-assembled vertex's index/raw-position into the
// rolling slot window, sized to the current primitive's continuation need.
func (a *Assembler) pushSlot(idx int32, raw Vec4) {
	switch a.prim {
	case PrimTriangles, PrimQuads:
		n := a.vertsSeen % vertsPerPolygon(a.prim)
		a.slot[n] = idx
		a.rawSlot[n] = raw
	case PrimTriangleStrip:
		a.pushStripSlot(idx, raw)
	case PrimQuadStrip:
		a.pushQuadStripSlot(idx, raw)
	}
}

func vertsPerPolygon(p PrimType) int {
	if p == PrimQuads {
		return 4
	}
	return 3
}

// pushStripSlot implements the traced continuation scheme: the first three
// vertices fill slots 0,1,2 directly. Every vertex after that first copies
// the outgoing slot-2 vertex into an alternating target slot (0 on even
// cycles, 1 on odd), then overwrites slot 2 with the new vertex — so each
// emission reuses exactly the strip's preceding two vertices.
func (a *Assembler) pushStripSlot(idx int32, raw Vec4) {
	if a.vertsSeen < 3 {
		a.slot[a.vertsSeen] = idx
		a.rawSlot[a.vertsSeen] = raw
		return
	}
	cycle := a.vertsSeen - 3
	target := 0
	if cycle%2 == 1 {
		target = 1
	}
	a.slot[target] = a.slot[2]
	a.rawSlot[target] = a.rawSlot[2]
	a.slot[2] = idx
	a.rawSlot[2] = raw
}

// pushQuadStripSlot fills the first quad's four slots directly; thereafter
// each pair of new vertices replaces slots 0,1 (the pair reused from the
// previous quad) with the prior quad's slots 2,3, then lands the two new
// vertices in slots 2,3.
func (a *Assembler) pushQuadStripSlot(idx int32, raw Vec4) {
	if a.vertsSeen < 4 {
		a.slot[a.vertsSeen] = idx
		a.rawSlot[a.vertsSeen] = raw
		return
	}
	pairPos := (a.vertsSeen - 4) % 2
	if pairPos == 0 {
		a.slot[0], a.slot[1] = a.slot[2], a.slot[3]
		a.rawSlot[0], a.rawSlot[1] = a.rawSlot[2], a.rawSlot[3]
		a.slot[2] = idx
		a.rawSlot[2] = raw
	} else {
		a.slot[3] = idx
		a.rawSlot[3] = raw
	}
}

// tryEmit emits a polygon once the current primitive has enough vertices
// buffered, per prim type.
func (a *Assembler) tryEmit() {
	switch a.prim {
	case PrimTriangles:
		if a.vertsSeen%3 == 0 {
			a.emit(a.slot[0], a.slot[1], a.slot[2], -1, 3)
		}
	case PrimQuads:
		if a.vertsSeen%4 == 0 {
			a.emit(a.slot[0], a.slot[1], a.slot[2], a.slot[3], 4)
		}
	case PrimTriangleStrip:
		if a.vertsSeen >= 3 {
			a.emit(a.slot[0], a.slot[1], a.slot[2], -1, 3)
		}
	case PrimQuadStrip:
		if a.vertsSeen >= 4 && (a.vertsSeen-4)%2 == 0 {
			a.emit(a.slot[0], a.slot[1], a.slot[3], a.slot[2], 4)
		}
	}
}

// emit appends the assembled polygon to the geometry list, detecting the
// untextured line-segment degeneracy (two vertices sharing a raw X or Y, or
// exact collinearity) on triangles and recording it via ListFmt's +4 line
// offset (spec.md §4.6).
func (a *Assembler) emit(i0, i1, i2, i3 int32, count int) {
	listFmt := a.listFmt
	if count == 3 && !hasTexture(a.texParam) && a.triangleIsLineLike(i0, i1, i2) {
		listFmt += primLineOffset
	}
	p := Polygon{
		Prim:        a.prim,
		ListFormat:  listFmt,
		Indices:     [4]int32{i0, i1, i2, i3},
		VertCount:   count,
		Attr:        a.currentAttr,
		TexParam:    a.texParam,
		PaletteBase: a.paletteBase,
		Viewport:    a.viewport,
	}
	a.list.addPolygon(p)
}

// hasTexture reports whether TEXIMAGE_PARAM's packed-format field (bits
// 26-28) selects a texture format other than None.
func hasTexture(texParam uint32) bool {
	return (texParam>>26)&0x7 != 0
}

// triangleIsLineLike finds the raw (pre-transform) positions at slots
// i0,i1,i2 and reports whether any two share an X or a Y coordinate, or the
// three are collinear — the "degenerate triangle" detector spec.md §4.6
// uses to reclassify a triangle as a line for the downstream rasterizer.
func (a *Assembler) triangleIsLineLike(i0, i1, i2 int32) bool {
	p0, p1, p2 := a.rawSlot[0], a.rawSlot[1], a.rawSlot[2]
	if p0.X == p1.X || p1.X == p2.X || p0.X == p2.X {
		return true
	}
	if p0.Y == p1.Y || p1.Y == p2.Y || p0.Y == p2.Y {
		return true
	}
	// Collinearity: cross product of (p1-p0) and (p2-p0) in XY is zero.
	dx1, dy1 := p1.X-p0.X, p1.Y-p0.Y
	dx2, dy2 := p2.X-p0.X, p2.Y-p0.Y
	return mul(dx1, dy2) == mul(dx2, dy1)
}
