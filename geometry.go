// geometry.go - the data model (spec.md §3): assembled vertices, polygons,
// clipped polygons and the double-buffered geometry list.
package geomengine

const (
	// MaxVertices is the fixed capacity of a geometry list's vertex array.
	MaxVertices = 6144
	// MaxPolygons is the fixed capacity of a geometry list's polygon array
	// (and of its companion clipped-polygon array).
	MaxPolygons = 2048
	// MaxClipVertices is the maximum vertex count of a single clipped
	// polygon (a hexagon cut by a quad, spec.md §4.7).
	MaxClipVertices = 10
)

// Vertex is an assembled vertex: 4D clip-space position, 2D texcoord, and
// color carried in both 6-bit integer and float form. Field layout follows
// the teacher-adjacent original hardware's VERT struct (coord/texcoord/color
// each padded to a float4, plus a packed color word) so every field lands on
// a 16-byte boundary; alpha slots are padding with no semantic meaning. Total
// size is a cache-line-friendly 64 bytes.
type Vertex struct {
	X, Y, Z, W     float32 // clip-space homogeneous coordinate
	S, T           float32 // texcoord
	_texcoordPad   [2]float32
	ColorFloat     [3]float32
	_colorFloatPad float32
	ColorInt       [3]uint8 // 6-bit per channel (0..63)
	_colorIntPad   uint8
	_reserved      [12]byte // rounds the struct to exactly 64 bytes
}

// Polygon is an assembled, unclipped polygon.
type Polygon struct {
	Prim       PrimType
	ListFormat ListFormat
	// Indices into the owning geometry list's Vertices, up to 4 valid
	// entries (3 for triangles).
	Indices    [4]int32
	VertCount  int
	Attr       uint32 // polygon-attribute word (POLYGON_ATTR)
	TexParam   uint32 // texture-parameter word (TEXIMAGE_PARAM)
	PaletteBase uint32
	Viewport   Viewport
	MinY, MaxY float64 // normalized device Y extent, used for Y-sort
}

// Viewport is a snapshot of the VIEWPORT opcode's parsed fields (spec.md §6).
type Viewport struct {
	X1, Y1, X2, Y2 int
}

// ClippedVertex carries the attributes a clip stage may interpolate.
type ClippedVertex struct {
	Pos   Vec4f
	S, T  float32
	Color [3]uint8
	ColorF [3]float32
}

// Vec4f is a float homogeneous coordinate — clip-space vertices are
// converted from Fixed to float32 at emit time (spec.md §3).
type Vec4f struct{ X, Y, Z, W float32 }

// ClippedPolygon is the output of the clipper: a pointer back to the source
// polygon plus its surviving vertex count (3..10) and clipped vertices.
type ClippedPolygon struct {
	SourceIndex int
	VertCount   int
	Verts       [MaxClipVertices]ClippedVertex
}

// GeometryList is a fixed-capacity vertex/polygon buffer. Two of these exist
// in an Engine; one is pending (written by the assembler), one applied
// (read by the downstream rasterizer).
type GeometryList struct {
	Vertices   [MaxVertices]Vertex
	VertCount  int
	Polygons   [MaxPolygons]Polygon
	PolyCount  int
	Clipped    [MaxPolygons]ClippedPolygon
	ClipCount  int

	// OpaqueCount is the number of entries at the front of Clipped that are
	// opaque; the rest are translucent. Polygons keeps assembly order.
	// Populated by the render-list builder on flush.
	OpaqueCount int
}

// reset clears the list's counters without releasing its backing arrays —
// the arrays are fixed-capacity and reused frame to frame.
func (g *GeometryList) reset() {
	g.VertCount = 0
	g.PolyCount = 0
	g.ClipCount = 0
	g.OpaqueCount = 0
}

// addVertex appends v, returning its index, or -1 if the list is full
// (spec.md §4.6 overflow: silently dropped, no crash).
func (g *GeometryList) addVertex(v Vertex) int {
	if g.VertCount >= MaxVertices {
		return -1
	}
	idx := g.VertCount
	g.Vertices[idx] = v
	g.VertCount++
	return idx
}

// addPolygon appends p, returning true on success or false if the list is
// full (spec.md §4.6 overflow).
func (g *GeometryList) addPolygon(p Polygon) bool {
	if g.PolyCount >= MaxPolygons {
		return false
	}
	g.Polygons[g.PolyCount] = p
	g.PolyCount++
	return true
}
