// dispatch.go - operation dispatcher (C4, spec.md §4.4, opcode table §6).
//
// Receives decoded (opcode, parameter) pairs from the Decoder one word at a
// time, buffers multi-word operands, and once an operation's full operand
// set has arrived, applies it to the matrix stacks, lighting cache,
// assembler or test unit. Mirrors the teacher's register-write dispatch
// idiom (machine_bus.go's address-to-handler table) adapted to a streamed,
// variable-arity command protocol instead of fixed-width register writes.
package geomengine

// Dispatcher routes decoded commands to their owning subsystem.
type Dispatcher struct {
	Matrices  *MatrixStacks
	Lighting  *LightingState
	Assembler *Assembler
	Tests     *Tests

	// Logger receives one line per invalid/unhandled opcode (spec.md §7);
	// nil discards them.
	Logger func(format string, args ...any)

	buf    [32]uint32
	bufLen int
	curOp  Opcode

	pendingS, pendingT Fixed // latched by TEXCOORD, consumed by the next vertex
	lastVtx            Vec4  // last full vertex position, for VTX_XY/XZ/YZ/DIFF

	// PendingYSort/PendingDepthW/SwapArmed latch SWAP_BUFFERS's operand
	// (spec.md §6's IOREG_SWAP_BUFFERS bits); the actual buffer swap is
	// performed by Engine.VBlankSignal, per spec.md §4.9.
	PendingYSort  bool
	PendingDepthW bool
	SwapArmed     bool
}

// NewDispatcher wires a dispatcher to its subsystems.
func NewDispatcher(m *MatrixStacks, l *LightingState, a *Assembler, t *Tests) *Dispatcher {
	return &Dispatcher{Matrices: m, Lighting: l, Assembler: a, Tests: t, lastVtx: Vec4{W: FixedOne}}
}

// Handle accumulates one decoded (opcode, parameter) pair and, once the
// opcode's declared arity worth of parameters has arrived, executes it.
// Zero-arity opcodes execute immediately, one call per occurrence.
func (d *Dispatcher) Handle(op Opcode, param uint32) {
	arity := classify(op)
	if arity <= 0 {
		d.execute(op, nil)
		return
	}
	if d.bufLen == 0 {
		d.curOp = op
	}
	d.buf[d.bufLen] = param
	d.bufLen++
	if d.bufLen >= arity {
		params := append([]uint32(nil), d.buf[:d.bufLen]...)
		d.bufLen = 0
		d.execute(d.curOp, params)
	}
}

func signExtend6(v uint32) int8 {
	raw := v & 0x3F
	if raw&0x20 != 0 {
		raw |= 0xC0
	}
	return int8(raw)
}

// maybeRecomputeLighting refreshes the lighting cache whenever the current
// mode is PositionVector, since a position-vector matrix change invalidates
// every cached light direction/half-vector (spec.md §4.5).
func (d *Dispatcher) maybeRecomputeLighting() {
	if d.Matrices.Mode() == ModePositionVector {
		d.Lighting.RecomputeAll(d.Matrices.PositionVector())
	}
}

func mat4From16(params []uint32) Mat4 {
	var m Mat4
	for i, p := range params {
		m[i] = Fixed(int32(p))
	}
	return m
}

func cols12From(params []uint32) [12]Fixed {
	var c [12]Fixed
	for i, p := range params {
		c[i] = Fixed(int32(p))
	}
	return c
}

func cols9From(params []uint32) [9]Fixed {
	var c [9]Fixed
	for i, p := range params {
		c[i] = Fixed(int32(p))
	}
	return c
}

func vec3From3(params []uint32) Vec3 {
	return Vec3{X: Fixed(int32(params[0])), Y: Fixed(int32(params[1])), Z: Fixed(int32(params[2]))}
}

func (d *Dispatcher) execute(op Opcode, params []uint32) {
	switch op {
	case OpMtxMode:
		d.Matrices.SetMode(MatrixMode(params[0] & 0x3))
	case OpMtxPush:
		d.Matrices.Push()
	case OpMtxPop:
		d.Matrices.Pop(signExtend6(params[0]))
	case OpMtxStore:
		d.Matrices.Store(uint8(params[0]))
	case OpMtxRestore:
		d.Matrices.Restore(uint8(params[0]))
	case OpMtxIdentity:
		d.Matrices.LoadIdentity()
	case OpMtxLoad4x4:
		d.Matrices.Load4x4(mat4From16(params))
		d.maybeRecomputeLighting()
	case OpMtxLoad4x3:
		d.Matrices.Load4x4(Load4x3(cols12From(params)))
		d.maybeRecomputeLighting()
	case OpMtxMult4x4:
		d.Matrices.Mult4x4(mat4From16(params))
		d.maybeRecomputeLighting()
	case OpMtxMult4x3:
		d.Matrices.Mult4x4(Load4x3(cols12From(params)))
		d.maybeRecomputeLighting()
	case OpMtxMult3x3:
		d.Matrices.Mult4x4(Load3x3(cols9From(params)))
		d.maybeRecomputeLighting()
	case OpMtxScale:
		d.Matrices.Mult4x4(Scale4(vec3From3(params)))
	case OpMtxTrans:
		d.Matrices.Mult4x4(Translate4(vec3From3(params)))
		d.maybeRecomputeLighting()

	case OpColor:
		r5 := uint8(params[0] & 0x1F)
		g5 := uint8((params[0] >> 5) & 0x1F)
		b5 := uint8((params[0] >> 10) & 0x1F)
		d.Assembler.SetColor5(r5, g5, b5)

	case OpNormal:
		normal := Vec3{
			X: decodeLane10(params[0]),
			Y: decodeLane10(params[0] >> 10),
			Z: decodeLane10(params[0] >> 20),
		}
		d.Lighting.LightMask = uint8(d.Assembler.currentAttr & 0xF)
		d.Lighting.RecomputeAll(d.Matrices.PositionVector())
		color := d.Lighting.VertexColor(normal, d.Matrices.PositionVector())
		d.Assembler.ApplyLitColor(color)

	case OpTexCoord:
		// Two signed 16-bit lanes in 1/16 units (12.4), widened to 20.12.
		d.pendingS = Fixed(int32(int16(params[0])) << 8)
		d.pendingT = Fixed(int32(int16(params[0]>>16)) << 8)

	case OpVtx16:
		x := decodeFixed16(uint16(params[0]))
		y := decodeFixed16(uint16(params[0] >> 16))
		z := decodeFixed16(uint16(params[1]))
		d.emitVertex(Vec4{X: x, Y: y, Z: z, W: FixedOne})
	case OpVtx10:
		x := decodeVtx10Lane(params[0])
		y := decodeVtx10Lane(params[0] >> 10)
		z := decodeVtx10Lane(params[0] >> 20)
		d.emitVertex(Vec4{X: x, Y: y, Z: z, W: FixedOne})
	case OpVtxXY:
		x := decodeFixed16(uint16(params[0]))
		y := decodeFixed16(uint16(params[0] >> 16))
		d.emitVertex(Vec4{X: x, Y: y, Z: d.lastVtx.Z, W: FixedOne})
	case OpVtxXZ:
		x := decodeFixed16(uint16(params[0]))
		z := decodeFixed16(uint16(params[0] >> 16))
		d.emitVertex(Vec4{X: x, Y: d.lastVtx.Y, Z: z, W: FixedOne})
	case OpVtxYZ:
		y := decodeFixed16(uint16(params[0]))
		z := decodeFixed16(uint16(params[0] >> 16))
		d.emitVertex(Vec4{X: d.lastVtx.X, Y: y, Z: z, W: FixedOne})
	case OpVtxDiff:
		dx := decodeLane10(params[0])
		dy := decodeLane10(params[0] >> 10)
		dz := decodeLane10(params[0] >> 20)
		d.emitVertex(Vec4{X: d.lastVtx.X + dx, Y: d.lastVtx.Y + dy, Z: d.lastVtx.Z + dz, W: FixedOne})

	case OpPolygonAttr:
		d.Assembler.SetPolygonAttr(params[0])
	case OpTexImageParam:
		d.Assembler.SetTexImageParam(params[0])
	case OpPlttBase:
		d.Assembler.SetPaletteBase(params[0])

	case OpDifAmb:
		diff := [3]uint8{uint8(params[0] & 0x1F), uint8((params[0] >> 5) & 0x1F), uint8((params[0] >> 10) & 0x1F)}
		amb := [3]uint8{uint8((params[0] >> 16) & 0x1F), uint8((params[0] >> 21) & 0x1F), uint8((params[0] >> 26) & 0x1F)}
		d.Lighting.Material.Diffuse = diff
		d.Lighting.Material.Ambient = amb
		d.Lighting.Material.SetVertexColor = params[0]&0x8000 != 0
		if d.Lighting.Material.SetVertexColor {
			d.Assembler.SetColor5(diff[0], diff[1], diff[2])
		}
	case OpSpeEmi:
		spec := [3]uint8{uint8(params[0] & 0x1F), uint8((params[0] >> 5) & 0x1F), uint8((params[0] >> 10) & 0x1F)}
		emi := [3]uint8{uint8((params[0] >> 16) & 0x1F), uint8((params[0] >> 21) & 0x1F), uint8((params[0] >> 26) & 0x1F)}
		d.Lighting.Material.Specular = spec
		d.Lighting.Material.Emission = emi
		d.Lighting.Material.SpecularTableEnable = params[0]&0x8000 != 0
	case OpLightVector:
		idx := (params[0] >> 30) & 0x3
		d.Lighting.Lights[idx].Direction = Vec3{
			X: decodeLane10(params[0]), Y: decodeLane10(params[0] >> 10), Z: decodeLane10(params[0] >> 20),
		}
		d.Lighting.RecomputeAll(d.Matrices.PositionVector())
	case OpLightColor:
		idx := (params[0] >> 30) & 0x3
		d.Lighting.Lights[idx].Color = [3]uint8{
			uint8(params[0] & 0x1F), uint8((params[0] >> 5) & 0x1F), uint8((params[0] >> 10) & 0x1F),
		}
	case OpShininess:
		for i, p := range params {
			for k := 0; k < 4; k++ {
				idx := i*4 + k
				if idx < len(d.Lighting.Material.ShininessTable) {
					d.Lighting.Material.ShininessTable[idx] = byte(p >> (8 * uint(k)))
				}
			}
		}

	case OpBeginVtxs:
		d.Assembler.BeginPrimitive(params[0])
	case OpEndVtxs:
		d.Assembler.EndPrimitive()

	case OpSwapBuffers:
		d.PendingYSort = params[0]&0x1 != 0
		d.PendingDepthW = params[0]&0x2 != 0
		d.SwapArmed = true

	case OpViewport:
		d.Assembler.SetViewport(Viewport{
			X1: int(byte(params[0])), Y1: int(byte(params[0] >> 8)),
			X2: int(byte(params[0] >> 16)), Y2: int(byte(params[0] >> 24)),
		})

	case OpBoxTest:
		d.Tests.BoxTest([3]uint32{params[0], params[1], params[2]})
	case OpPosTest:
		d.Tests.PositionTest([2]uint32{params[0], params[1]})
	case OpVecTest:
		d.Tests.VectorTest(params[0])

	default:
		if d.Logger != nil {
			d.Logger("geomengine: invalid opcode %#02x", byte(op))
		}
	}
}

// decodeVtx10Lane sign-extends a packed 10-bit VTX_10 component (1.3.6
// format, value = raw/64) to a Fixed (20.12, value = raw/4096); the scales
// differ by a factor of 64.
func decodeVtx10Lane(v uint32) Fixed {
	raw := v & 0x3FF
	if raw&0x200 != 0 {
		raw |= 0xFFFFFC00
	}
	return Fixed(int32(raw) * 64)
}

// emitVertex hands a freshly decoded vertex position to the assembler,
// using the texcoord last latched by TEXCOORD, and remembers it for the
// partial-update opcodes (VTX_XY/XZ/YZ/DIFF).
func (d *Dispatcher) emitVertex(pos Vec4) {
	d.lastVtx = pos
	d.Assembler.AddVertex(pos, d.pendingS, d.pendingT)
}
