package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// newState creates a Lua state with the safe standard libraries only.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// protect converts a panic escaping the Lua VM into an error.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// toLua converts a bound argument to a Lua value.
func toLua(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case bool:
		return lua.LBool(x)
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

// fromLua converts a Lua default value to the Go type of typ.
func fromLua(typ string, v lua.LValue) (any, error) {
	if v == lua.LNil {
		return nil, nil
	}
	switch typ {
	case "string":
		return lua.LVAsString(v), nil
	case "int":
		n, ok := v.(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("default %s is not a number", v.String())
		}
		return int(n), nil
	case "number":
		n, ok := v.(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("default %s is not a number", v.String())
		}
		return float64(n), nil
	case "bool":
		b, ok := v.(lua.LBool)
		if !ok {
			return nil, fmt.Errorf("default %s is not a boolean", v.String())
		}
		return bool(b), nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q", typ)
	}
}
