package hook

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// newState creates a Lua state with only the libraries a hook needs.
// Scripts cannot load code or reach the filesystem.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// protect runs fn, turning a Lua panic into an error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// safeGlobals survive resetGlobals.
var safeGlobals = map[string]bool{
	"_G": true, "_VERSION": true,
	"assert": true, "error": true, "getmetatable": true,
	"ipairs": true, "next": true, "pairs": true, "pcall": true,
	"print": true, "rawequal": true, "rawget": true, "rawlen": true,
	"rawset": true, "select": true, "setmetatable": true,
	"tonumber": true, "tostring": true, "type": true, "xpcall": true,
	"unpack": true, "math": true, "string": true, "table": true,
}

// resetGlobals removes every global a script defined, keeping the
// libraries and the names in keep.
func resetGlobals(L *lua.LState, keep map[string]lua.LGFunction) {
	globals := L.Get(lua.GlobalsIndex).(*lua.LTable)
	var drop []string
	globals.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			name := string(ks)
			if _, api := keep[name]; !safeGlobals[name] && !api {
				drop = append(drop, name)
			}
		}
	})
	for _, name := range drop {
		L.SetGlobal(name, lua.LNil)
	}
}
