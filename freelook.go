// freelook.go - Lua-scripted projection override (spec.md §9 "freelook").
//
// github.com/yuin/gopher-lua rides along in the teacher's go.mod as an
// indirect dependency with no caller in the snapshot we received; this is
// the feature it was pulled in for. A script gets the current projection
// matrix as a 16-element table (column-major, matching Mat4's own layout)
// and returns a replacement table, or nil/nothing to leave the matrix
// alone — consulted once per vertex (engine.go wires this to
// Assembler.Freelook), so a script should stay cheap.
package geomengine

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LuaFreelook implements ProjectionOverride by calling a Lua function once
// per vertex.
type LuaFreelook struct {
	state *lua.LState
	fn    *lua.LFunction
}

// NewLuaFreelook compiles script and binds fnName as the per-vertex
// override function. The function receives the current projection matrix
// as a 16-entry table and should return either a replacement 16-entry
// table or nil.
func NewLuaFreelook(script, fnName string) (*LuaFreelook, error) {
	L := lua.NewState()
	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("freelook: loading script: %w", err)
	}
	fnVal := L.GetGlobal(fnName)
	fn, ok := fnVal.(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("freelook: %q is not a function", fnName)
	}
	return &LuaFreelook{state: L, fn: fn}, nil
}

// Close releases the Lua state.
func (lf *LuaFreelook) Close() { lf.state.Close() }

func mat4ToLuaTable(L *lua.LState, m Mat4) *lua.LTable {
	t := L.CreateTable(16, 0)
	for i, v := range m {
		t.RawSetInt(i+1, lua.LNumber(v))
	}
	return t
}

func luaTableToMat4(t *lua.LTable) (Mat4, bool) {
	if t.Len() != 16 {
		return Mat4{}, false
	}
	var m Mat4
	for i := 0; i < 16; i++ {
		v, ok := t.RawGetInt(i + 1).(lua.LNumber)
		if !ok {
			return Mat4{}, false
		}
		m[i] = Fixed(int32(v))
	}
	return m, true
}

// OverrideProjection implements ProjectionOverride.
func (lf *LuaFreelook) OverrideProjection(current Mat4) (Mat4, bool) {
	L := lf.state
	arg := mat4ToLuaTable(L, current)
	L.Push(lf.fn)
	L.Push(arg)
	if err := L.PCall(1, 1, nil); err != nil {
		return Mat4{}, false
	}
	ret := L.Get(-1)
	L.Pop(1)

	table, ok := ret.(*lua.LTable)
	if !ok {
		return Mat4{}, false
	}
	return luaTableToMat4(table)
}
