// engine.go - top-level geometry engine (spec.md §5 host contract).
//
// Wires decoder -> dispatcher -> {matrix stacks, lighting, assembler,
// tests} -> pending geometry list -> flush into the applied list. A real
// host drives Submit from one goroutine (the emulated CPU thread issuing
// GXFIFO writes) while a presentation goroutine polls AppliedList, so
// engine-visible state is guarded by a mutex, matching the
// machine_bus.go/video_voodoo.go concurrency pattern this repo follows
// throughout (SPEC_FULL §0).
package geomengine

import "sync"

// Engine is the complete geometry engine: command decode through
// double-buffered polygon output.
type Engine struct {
	Matrices   *MatrixStacks
	Lighting   *LightingState
	Tests      *Tests
	Assembler  *Assembler
	Dispatcher *Dispatcher
	Decoder    *Decoder

	// Logger receives diagnostic lines (invalid opcodes, spec.md §7); nil
	// discards them.
	Logger func(format string, args ...any)

	pending *GeometryList
	applied *GeometryList

	// YSortMode/DepthModeW mirror the mode bits latched by the most recent
	// applied SWAP_BUFFERS (spec.md §6 IOREG_SWAP_BUFFERS).
	YSortMode  bool
	DepthModeW bool

	mu sync.Mutex
}

// NewEngine returns a fully wired, power-on-reset Engine.
func NewEngine() *Engine {
	e := &Engine{}
	e.wire()
	return e
}

func (e *Engine) wire() {
	matrices := NewMatrixStacks()
	lighting := &LightingState{}
	pending := &GeometryList{}
	applied := &GeometryList{}
	assembler := NewAssembler(matrices, lighting, pending)
	tests := &Tests{Matrices: matrices}
	dispatcher := NewDispatcher(matrices, lighting, assembler, tests)
	dispatcher.Logger = func(format string, args ...any) {
		if e.Logger != nil {
			e.Logger(format, args...)
		}
	}

	decoder := &Decoder{}
	decoder.Emit = dispatcher.Handle

	e.Matrices = matrices
	e.Lighting = lighting
	e.Tests = tests
	e.Assembler = assembler
	e.Dispatcher = dispatcher
	e.Decoder = decoder
	e.pending = pending
	e.applied = applied
}

// Reset restores the engine to its power-on state, discarding all
// in-flight command and geometry state.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	logger := e.Logger
	e.wire()
	e.Logger = logger
}

// Submit feeds one 32-bit command word into the decoder. Safe to call from
// the host's command-issuing goroutine.
func (e *Engine) Submit(word uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Decoder.Submit(word)
}

// SetFreelook installs (or clears, with nil) a projection override
// consulted per vertex (spec.md §9's "freelook" hook).
func (e *Engine) SetFreelook(o ProjectionOverride) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Assembler.Freelook = o
}

// VBlankSignal marks the start of the display's vertical blank — the point
// at which a SWAP_BUFFERS armed since the last swap takes effect: the
// pending list is flushed (clipped, partitioned, Y-sorted) and becomes the
// new applied list, and a fresh pending list is opened. If no SWAP_BUFFERS
// was issued since the last swap, this is a no-op (spec.md §4.9, §8
// scenario S1: the applied list is populated by this call alone).
func (e *Engine) VBlankSignal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.Dispatcher.SwapArmed {
		return
	}
	Flush(e.pending)
	e.pending, e.applied = e.applied, e.pending
	e.pending.reset()
	e.Dispatcher.SwapArmed = false
	e.YSortMode = e.Dispatcher.PendingYSort
	e.DepthModeW = e.Dispatcher.PendingDepthW
}

// VBlankEndSignal marks the end of vertical blank: the host's hand-off
// point to the rasterizer, unless skip is true (spec.md §4.9's two-signal
// handshake). The flush and the pending/applied swap both already happened
// at VBlankSignal, so in this synchronous, single-process engine there is
// no further buffer state to mutate here; this entry point exists for host
// symmetry with the two-signal handshake and as the hook an asynchronous
// rasterizer backend would gate presentation on.
func (e *Engine) VBlankEndSignal(skip bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
}

// AppliedList returns the last-flushed geometry list: clipped, partitioned
// opaque-then-translucent, and Y-sorted within each partition. This is the
// §6 consumer contract a downstream rasterizer reads (see
// rasterizer/vkpreview for a reference consumer).
func (e *Engine) AppliedList() *GeometryList {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applied
}

// Status reports the host-visible status bits (spec.md §6). The engine is
// entirely synchronous, so TestBusy and MatrixStackBusy are always false;
// they are modeled for register-layout completeness and because a future
// cycle-accurate host may want to latch them mid-operation.
func (e *Engine) Status() StatusBits {
	e.mu.Lock()
	defer e.mu.Unlock()
	return StatusBits{
		TestBusy:            false,
		BoxTestResult:       e.Tests.BoxResult,
		MatrixStackBusy:      false,
		MatrixStackOverflow: e.Matrices.OverflowFlag(),
		EngineBusy:           e.Dispatcher.SwapArmed,
	}
}

// ClearMatrixStackOverflow clears the sticky matrix-stack overflow bit, as
// the host does by writing the status register (spec.md §7).
func (e *Engine) ClearMatrixStackOverflow() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Matrices.ClearOverflow()
}
