// Command geomdemo drives a geomengine.Engine through a small, fixed command
// stream and prints the resulting applied geometry list and status register —
// a smoke-test harness in the same vein as the teacher's cmd/ie32to64, not a
// full host.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	geom "github.com/handheld3d/geomengine"
)

func main() {
	verbose := flag.Bool("v", false, "log unrecognized opcodes")
	statusOnly := flag.Bool("status", false, "print only the status register table")
	save := flag.String("save", "", "write a save state to this path after running the demo")
	load := flag.String("load", "", "load a save state from this path before running the demo")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geomdemo [options]\n\nSubmits a fixed demo command stream to a geometry engine and reports the result.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	e := geom.NewEngine()
	if *verbose {
		e.Logger = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "geomdemo: "+format+"\n", args...)
		}
	}

	if *load != "" {
		if err := geom.LoadStateFromFile(e, *load); err != nil {
			fmt.Fprintf(os.Stderr, "error: loading state: %v\n", err)
			os.Exit(1)
		}
	}

	for _, word := range demoProgram() {
		e.Submit(word)
	}
	e.VBlankSignal()
	e.VBlankEndSignal(false)

	if *save != "" {
		if err := geom.SaveStateToFile(e, *save); err != nil {
			fmt.Fprintf(os.Stderr, "error: saving state: %v\n", err)
			os.Exit(1)
		}
	}

	width := terminalWidth()
	printStatus(e.Status(), width)
	if *statusOnly {
		return
	}
	printAppliedList(e.AppliedList(), width)
}

// terminalWidth reports stdout's column width, falling back to 80 when
// stdout isn't a terminal (piped output, CI logs).
func terminalWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return 80
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func printStatus(s geom.StatusBits, width int) {
	rule(width)
	fmt.Printf("%-24s %v\n", "TestBusy", s.TestBusy)
	fmt.Printf("%-24s %v\n", "BoxTestResult", s.BoxTestResult)
	fmt.Printf("%-24s %v\n", "MatrixStackBusy", s.MatrixStackBusy)
	fmt.Printf("%-24s %v\n", "MatrixStackOverflow", s.MatrixStackOverflow)
	fmt.Printf("%-24s %v\n", "EngineBusy", s.EngineBusy)
	rule(width)
}

func printAppliedList(list *geom.GeometryList, width int) {
	fmt.Printf("vertices=%d polygons=%d clipped=%d opaque=%d translucent=%d\n",
		list.VertCount, list.PolyCount, list.ClipCount, list.OpaqueCount, list.ClipCount-list.OpaqueCount)
	for i := 0; i < list.ClipCount; i++ {
		cp := list.Clipped[i]
		src := list.Polygons[cp.SourceIndex]
		fmt.Printf("  poly[%2d] verts=%-2d prim=%-14v minY=%.4f maxY=%.4f\n",
			i, cp.VertCount, src.Prim, src.MinY, src.MaxY)
	}
	rule(width)
}

func rule(width int) {
	if width > 120 {
		width = 120
	}
	for i := 0; i < width; i++ {
		fmt.Print("-")
	}
	fmt.Println()
}

// demoProgram packs a short, fixed command stream: set the position matrix
// mode, load identity, translate back along Z, set an opaque polygon
// attribute and a white vertex color, then assemble one untextured triangle
// and swap.
func demoProgram() []uint32 {
	var words []uint32
	emit := func(op geom.Opcode, params ...uint32) {
		word := uint32(op)
		words = append(words, word)
		words = append(words, params...)
	}

	emit(geom.OpMtxMode, uint32(geom.ModePosition))
	emit(geom.OpMtxIdentity)
	emit(geom.OpMtxTrans,
		uint32(geom.FixedFromInt(0)),
		uint32(geom.FixedFromInt(0)),
		uint32(geom.FixedFromInt(-4)),
	)
	emit(geom.OpPolygonAttr, 0x001F0000) // opaque, alpha=31
	emit(geom.OpColor, 0x7FFF)           // full-white 5-bit RGB
	emit(geom.OpBeginVtxs, uint32(geom.PrimTriangles))
	emitVtx16(emit, geom.FixedFromInt(0), geom.FixedFromInt(1), geom.FixedFromInt(0))
	emitVtx16(emit, geom.FixedFromInt(-1), geom.FixedFromInt(-1), geom.FixedFromInt(0))
	emitVtx16(emit, geom.FixedFromInt(1), geom.FixedFromInt(-1), geom.FixedFromInt(0))
	emit(geom.OpEndVtxs)
	emit(geom.OpSwapBuffers, 0)
	return words
}

// emitVtx16 packs x, y, z into VTX_16's two parameter words: x in the low
// 16 bits and y in the high 16 bits of the first, z in the low 16 bits of
// the second (spec.md §6).
func emitVtx16(emit func(op geom.Opcode, params ...uint32), x, y, z geom.Fixed) {
	word0 := uint32(uint16(int32(x))) | uint32(uint16(int32(y)))<<16
	word1 := uint32(uint16(int32(z)))
	emit(geom.OpVtx16, word0, word1)
}
