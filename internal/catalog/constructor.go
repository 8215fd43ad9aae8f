package catalog

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotAFunction       = errors.New("constructor is not a function")
	ErrNotAConstructor    = errors.New("function is not a recognizable constructor")
	ErrVariadicNotAllowed = errors.New("variadic constructors are not supported")
)

var errorType = reflect.TypeFor[error]()

// Constructor is a registered constructor function of a class.
//
// Supported shapes, for class T:
//   - func(args...) T
//   - func(args...) *T
//   - func(args...) (T, error)
//   - func(args...) (*T, error)
type Constructor struct {
	fn     reflect.Value
	params []reflect.Type
	ptr    bool
	hasErr bool
}

func parseConstructor(t reflect.Type, fn any) (Constructor, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return Constructor{}, ErrNotAFunction
	}
	ft := v.Type()
	if ft.IsVariadic() {
		return Constructor{}, ErrVariadicNotAllowed
	}

	ctor := Constructor{fn: v}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return Constructor{}, ErrNotAConstructor
		}
		ctor.hasErr = true
	default:
		return Constructor{}, ErrNotAConstructor
	}

	switch out := ft.Out(0); {
	case out == t:
	case out.Kind() == reflect.Pointer && out.Elem() == t:
		ctor.ptr = true
	default:
		return Constructor{}, fmt.Errorf("%w: returns %s, want %s or *%s", ErrNotAConstructor, out, t, t)
	}

	for i := 0; i < ft.NumIn(); i++ {
		ctor.params = append(ctor.params, ft.In(i))
	}
	return ctor, nil
}

// Arity returns the number of parameters.
func (c Constructor) Arity() int { return len(c.params) }

// Param returns the static type of parameter i.
func (c Constructor) Param(i int) reflect.Type { return c.params[i] }

// String describes the constructor signature for diagnostics.
func (c Constructor) String() string { return c.fn.Type().String() }

// Call invokes the constructor and returns a pointer to the new instance.
func (c Constructor) Call(args []reflect.Value) (reflect.Value, error) {
	out := c.fn.Call(args)
	if c.hasErr && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	if c.ptr {
		if out[0].IsNil() {
			return reflect.Value{}, fmt.Errorf("constructor %s returned nil", c)
		}
		return out[0], nil
	}
	p := reflect.New(out[0].Type())
	p.Elem().Set(out[0])
	return p, nil
}
