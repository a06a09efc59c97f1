// renderlist.go - render-list builder and flush (C9, spec.md §4.9).
//
// A flush clips every assembled polygon, partitions the survivors into
// opaque/translucent order, computes each polygon's normalized-device Y
// extent, and stably sorts each partition by that extent — the same
// "snapshot, transform, reorder" shape as the teacher's batched-draw flush
// in video_voodoo.go, here driven by the hardware's translucency and
// Y-sort rules instead of a texture atlas.
package geomengine

import "sort"

// epsilonW is the smallest magnitude a clip-space w is allowed to have
// before NDC-Y computation; values closer to zero are pushed out to this
// floor to avoid a division blowup (spec.md §4.9).
const epsilonW = float32(1.0 / 4096)

func clampW(w float32) float32 {
	if w >= 0 && w < epsilonW {
		return epsilonW
	}
	if w < 0 && w > -epsilonW {
		return -epsilonW
	}
	return w
}

// ndcY computes 1-(y+w)/(2w), the normalized device Y used for Y-sorting
// (spec.md §4.9).
func ndcY(v Vec4f) float64 {
	w := clampW(v.W)
	return 1 - float64(v.Y+w)/(2*float64(w))
}

func vertexToClipped(v Vertex) ClippedVertex {
	return ClippedVertex{
		Pos:    Vec4f{X: v.X, Y: v.Y, Z: v.Z, W: v.W},
		S:      v.S,
		T:      v.T,
		Color:  v.ColorInt,
		ColorF: v.ColorFloat,
	}
}

// texFormat extracts TEXIMAGE_PARAM's packed-format field (bits 26-28).
func texFormat(texParam uint32) uint32 { return (texParam >> 26) & 0x7 }

// polyAlpha extracts POLYGON_ATTR's 5-bit alpha field (bits 16-20).
func polyAlpha(attr uint32) uint8 { return uint8((attr >> 16) & 0x1F) }

// isTranslucent applies the hardware's opaque/translucent classification:
// an alpha strictly between 0 and 31, or a texture format that itself
// carries alpha (A3I5 format 1, A5I3 format 6), makes the polygon
// translucent.
func isTranslucent(p Polygon) bool {
	a := polyAlpha(p.Attr)
	if a > 0 && a < 31 {
		return true
	}
	f := texFormat(p.TexParam)
	return f == 1 || f == 6
}

// clipList clips every polygon currently in list (written there by the
// assembler) into list.Clipped, discarding fully-clipped polygons.
func clipList(list *GeometryList) {
	list.ClipCount = 0
	for i := 0; i < list.PolyCount; i++ {
		p := &list.Polygons[i]
		verts := make([]ClippedVertex, p.VertCount)
		for k := 0; k < p.VertCount; k++ {
			verts[k] = vertexToClipped(list.Vertices[p.Indices[k]])
		}
		out, count, visible := ClipPolygon(verts, ClipFullColorInterpolate)
		if !visible {
			continue
		}
		if list.ClipCount >= MaxPolygons {
			break
		}
		list.Clipped[list.ClipCount] = ClippedPolygon{SourceIndex: i, VertCount: count, Verts: out}
		list.ClipCount++

		var minY, maxY float64
		for k := 0; k < count; k++ {
			y := ndcY(out[k].Pos)
			if k == 0 || y < minY {
				minY = y
			}
			if k == 0 || y > maxY {
				maxY = y
			}
		}
		p.MinY, p.MaxY = minY, maxY
	}
}

// partitionAndSort splits list.Clipped into an opaque run followed by a
// translucent run (stable, preserving assembly order within each), then
// stably sorts each run by (maxY asc, minY asc, original index asc) —
// back-to-front order for correct translucency blending downstream.
func partitionAndSort(list *GeometryList) {
	opaque := make([]ClippedPolygon, 0, list.ClipCount)
	translucent := make([]ClippedPolygon, 0, list.ClipCount)
	for i := 0; i < list.ClipCount; i++ {
		cp := list.Clipped[i]
		if isTranslucent(list.Polygons[cp.SourceIndex]) {
			translucent = append(translucent, cp)
		} else {
			opaque = append(opaque, cp)
		}
	}

	ySortKey := func(run []ClippedPolygon, list *GeometryList) func(i, j int) bool {
		return func(i, j int) bool {
			pi, pj := list.Polygons[run[i].SourceIndex], list.Polygons[run[j].SourceIndex]
			if pi.MaxY != pj.MaxY {
				return pi.MaxY < pj.MaxY
			}
			if pi.MinY != pj.MinY {
				return pi.MinY < pj.MinY
			}
			return run[i].SourceIndex < run[j].SourceIndex
		}
	}
	sort.SliceStable(opaque, ySortKey(opaque, list))
	sort.SliceStable(translucent, ySortKey(translucent, list))

	n := copy(list.Clipped[:], opaque)
	n += copy(list.Clipped[n:], translucent)
	list.ClipCount = n
	list.OpaqueCount = len(opaque)
}

// Flush runs the full C9 sequence over list in place: clip, partition,
// Y-sort. The caller is responsible for the pending/applied swap
// (Engine.VBlankSignal).
func Flush(list *GeometryList) {
	clipList(list)
	partitionAndSort(list)
}
