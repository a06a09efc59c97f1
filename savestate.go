// savestate.go - save-state serialization (C10, spec.md §6 "Persisted
// state").
//
// Format follows debug_snapshot.go exactly: a magic string, a version
// uint32, then a gzip-compressed body. Where the teacher hand-rolls
// binary.Write per scalar field, the body here is gob-encoded before
// compression — the engine's state is mostly fixed-size matrix and light
// arrays with no variable-length records worth a hand-written layout, so
// gob (still standard library) replaces the teacher's manual field-by-field
// write without changing the wrapper format a host sees on disk.
package geomengine

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

const (
	saveStateMagic          = "GEOM"
	saveStateCurrentVersion = 4
)

// matrixStacksState is the serializable mirror of MatrixStacks' unexported
// fields.
type matrixStacksState struct {
	Mode MatrixMode

	Projection   Mat4
	ProjStack    [1]Mat4
	ProjIndex    uint8
	ProjOverflow bool

	Texture                    Mat4
	TexStack                   [1]Mat4
	TexIndex                   uint8
	TexOverflow                bool
	TextureOverflowFlagEnabled bool

	Position       Mat4
	PositionVector Mat4
	PosStack       [32]Mat4
	PosVecStack    [32]Mat4
	PosIndex       uint8
	PosOverflow    bool
}

func (s *MatrixStacks) snapshot() matrixStacksState {
	return matrixStacksState{
		Mode:                       s.mode,
		Projection:                 s.projection,
		ProjStack:                  s.projStack,
		ProjIndex:                  s.projIndex,
		ProjOverflow:               s.projOverflow,
		Texture:                    s.texture,
		TexStack:                   s.texStack,
		TexIndex:                   s.texIndex,
		TexOverflow:                s.texOverflow,
		TextureOverflowFlagEnabled: s.TextureOverflowFlagEnabled,
		Position:                   s.position,
		PositionVector:             s.positionVector,
		PosStack:                   s.posStack,
		PosVecStack:                s.posVecStack,
		PosIndex:                   s.posIndex,
		PosOverflow:                s.posOverflow,
	}
}

func (s *MatrixStacks) restore(st matrixStacksState) {
	s.mode = st.Mode
	s.projection = st.Projection
	s.projStack = st.ProjStack
	s.projIndex = st.ProjIndex
	s.projOverflow = st.ProjOverflow
	s.texture = st.Texture
	s.texStack = st.TexStack
	s.texIndex = st.TexIndex
	s.texOverflow = st.TexOverflow
	s.TextureOverflowFlagEnabled = st.TextureOverflowFlagEnabled
	s.position = st.Position
	s.positionVector = st.PositionVector
	s.posStack = st.PosStack
	s.posVecStack = st.PosVecStack
	s.posIndex = st.PosIndex
	s.posOverflow = st.PosOverflow
}

// lightingStateBody is the serializable mirror of LightingState, including
// the per-light view-space caches (dirView, halfVector) that
// maybeRecomputeLighting otherwise only refreshes on the next
// position-vector matrix change — persisted directly so a state saved and
// reloaded by the same build doesn't observe a momentarily stale cache.
type lightingStateBody struct {
	Lights    [4]lightStateBody
	Material  Material
	LightMask uint8
}

// lightStateBody mirrors Light's exported fields plus its unexported view-
// space cache, which encoding/gob would otherwise silently drop.
type lightStateBody struct {
	Direction  Vec3
	Color      [3]uint8
	DirView    Vec3
	HalfVector Vec3
}

// geometryListState is the serializable mirror of a GeometryList's vertex
// and polygon arrays (spec.md §6: "both geometry lists (only vertex and
// polygon arrays...)"). The derived Clipped/ClipCount/OpaqueCount flush
// output is not persisted — a reload leaves both lists unflushed, matching
// their state immediately after the last SWAP_BUFFERS-issuing command.
type geometryListState struct {
	Vertices  [MaxVertices]Vertex
	VertCount int
	Polygons  [MaxPolygons]Polygon
	PolyCount int
}

func snapshotGeometryList(g *GeometryList) geometryListState {
	return geometryListState{
		Vertices:  g.Vertices,
		VertCount: g.VertCount,
		Polygons:  g.Polygons,
		PolyCount: g.PolyCount,
	}
}

func (g *GeometryList) restore(st geometryListState) {
	g.Vertices = st.Vertices
	g.VertCount = st.VertCount
	g.Polygons = st.Polygons
	g.PolyCount = st.PolyCount
	g.ClipCount = 0
	g.OpaqueCount = 0
}

// decoderState is the serializable mirror of Decoder's in-flight
// packed-command state (spec.md §6: "decoder state (shift, pending_params)").
type decoderState struct {
	Shift         uint32
	PendingParams int
	CurrentOpcode Opcode
}

// EngineState is everything a save state persists: the matrix stacks, the
// lighting cache, both geometry lists, the decoder's in-flight command
// state, and the dispatcher's small latch state (pending texcoord, last
// vertex, swap-buffer mode flags) needed to resume mid-command-stream.
type EngineState struct {
	Matrices matrixStacksState
	Lighting lightingStateBody
	Pending  geometryListState
	Applied  geometryListState
	Decoder  decoderState

	PendingS, PendingT Fixed
	LastVtx            Vec4

	PendingYSort  bool
	PendingDepthW bool
	SwapArmed     bool
}

// Capture snapshots e's state.
func (e *Engine) Capture() EngineState {
	var lights [4]lightStateBody
	for i, l := range e.Lighting.Lights {
		lights[i] = lightStateBody{
			Direction:  l.Direction,
			Color:      l.Color,
			DirView:    l.dirView,
			HalfVector: l.halfVector,
		}
	}
	return EngineState{
		Matrices: e.Matrices.snapshot(),
		Lighting: lightingStateBody{
			Lights:    lights,
			Material:  e.Lighting.Material,
			LightMask: e.Lighting.LightMask,
		},
		Pending: snapshotGeometryList(e.pending),
		Applied: snapshotGeometryList(e.applied),
		Decoder: decoderState{
			Shift:         e.Decoder.shift,
			PendingParams: e.Decoder.pendingParams,
			CurrentOpcode: e.Decoder.currentOpcode,
		},
		PendingS:      e.Dispatcher.pendingS,
		PendingT:      e.Dispatcher.pendingT,
		LastVtx:       e.Dispatcher.lastVtx,
		PendingYSort:  e.Dispatcher.PendingYSort,
		PendingDepthW: e.Dispatcher.PendingDepthW,
		SwapArmed:     e.Dispatcher.SwapArmed,
	}
}

// Restore applies a captured state to e. The per-light view-space cache is
// always persisted (version 4 onward), but states older than version 4
// carried none, so those are recomputed from the restored position-vector
// matrix instead of trusting the zeroed cache.
func (e *Engine) Restore(st EngineState, sourceVersion uint32) {
	e.Matrices.restore(st.Matrices)
	for i, l := range st.Lighting.Lights {
		e.Lighting.Lights[i].Direction = l.Direction
		e.Lighting.Lights[i].Color = l.Color
		e.Lighting.Lights[i].dirView = l.DirView
		e.Lighting.Lights[i].halfVector = l.HalfVector
	}
	e.Lighting.Material = st.Lighting.Material
	e.Lighting.LightMask = st.Lighting.LightMask
	e.pending.restore(st.Pending)
	e.applied.restore(st.Applied)
	e.Decoder.shift = st.Decoder.Shift
	e.Decoder.pendingParams = st.Decoder.PendingParams
	e.Decoder.currentOpcode = st.Decoder.CurrentOpcode
	e.Dispatcher.pendingS = st.PendingS
	e.Dispatcher.pendingT = st.PendingT
	e.Dispatcher.lastVtx = st.LastVtx
	e.Dispatcher.PendingYSort = st.PendingYSort
	e.Dispatcher.PendingDepthW = st.PendingDepthW
	e.Dispatcher.SwapArmed = st.SwapArmed

	if sourceVersion < saveStateCurrentVersion {
		e.Lighting.RecomputeAll(e.Matrices.PositionVector())
	}
}

// SaveStateToFile writes e's state to path: magic, version, then a
// gzip-compressed gob body.
func SaveStateToFile(e *Engine, path string) error {
	var buf bytes.Buffer
	buf.WriteString(saveStateMagic)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(saveStateCurrentVersion)); err != nil {
		return fmt.Errorf("writing version: %w", err)
	}

	var body bytes.Buffer
	gz := gzip.NewWriter(&body)
	if err := gob.NewEncoder(gz).Encode(e.Capture()); err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}
	buf.Write(body.Bytes())

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadStateFromFile reads a save state from path and applies it to e.
func LoadStateFromFile(e *Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r := bytes.NewReader(data)

	magic := make([]byte, len(saveStateMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != saveStateMagic {
		return fmt.Errorf("invalid save-state magic: %q", string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	if version > saveStateCurrentVersion {
		return fmt.Errorf("unsupported save-state version: %d", version)
	}

	remaining := data[len(data)-r.Len():]
	gz, err := gzip.NewReader(bytes.NewReader(remaining))
	if err != nil {
		return fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()

	var st EngineState
	if err := gob.NewDecoder(gz).Decode(&st); err != nil {
		return fmt.Errorf("decoding state: %w", err)
	}

	e.Restore(st, version)
	return nil
}
