package hooks

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"transformer/internal/fieldpath"
	"transformer/internal/naming"
)

// Method name affixes recognized by FromMethods.
const (
	ToModelPrefix   = "To"
	FromModelPrefix = "From"
	ForDataPrefix   = "For"
	AttributeSuffix = "Attribute"
	DataSuffix      = "DataAttribute"
)

// ErrHookSignature is returned when a conventionally named method cannot be used as a hook.
var ErrHookSignature = errors.New("unsupported hook method signature")

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// FromMethods builds a registry from the methods of v named by convention:
//
//	To<Field>Attribute        import hook of a model field
//	From<Field>Attribute      export hook of a model field
//	For<Path>DataAttribute    export hook of a data path
//
// Names are resolved once, here, for the given model fields and data paths.
// A method may take (), (value) or (ctx, value) and return value or
// (value, error).
func FromMethods(v any, modelFields, dataPaths []string) (*Registry, error) {
	r := NewRegistry()
	if v == nil {
		return r, nil
	}

	rv := reflect.ValueOf(v)

	for _, field := range modelFields {
		fn, err := lookup(rv, naming.HookName(ToModelPrefix, field, AttributeSuffix))
		if err != nil {
			return nil, err
		}

		if fn != nil {
			r.OnToModel(field, fn)
		}

		fn, err = lookup(rv, naming.HookName(FromModelPrefix, field, AttributeSuffix))
		if err != nil {
			return nil, err
		}

		if fn != nil {
			r.OnFromModel(field, fn)
		}
	}

	for _, path := range dataPaths {
		fn, err := lookup(rv, naming.HookName(ForDataPrefix, path, DataSuffix))
		if err != nil {
			return nil, err
		}

		if fn != nil {
			r.OnData(path, fn)
		}
	}

	return r, nil
}

func lookup(rv reflect.Value, name string) (Func, error) {
	m := rv.MethodByName(name)
	if !m.IsValid() {
		return nil, nil
	}

	fn, err := adapt(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return fn, nil
}

// adapt wraps a method value into a Func after checking its shape.
func adapt(m reflect.Value) (Func, error) {
	t := m.Type()

	withCtx := t.NumIn() == 2 && t.In(0) == contextType
	if t.NumIn() > 2 || (t.NumIn() == 2 && !withCtx) {
		return nil, ErrHookSignature
	}

	withErr := t.NumOut() == 2 && t.Out(1) == errorType
	if t.NumOut() == 0 || t.NumOut() > 2 || (t.NumOut() == 2 && !withErr) {
		return nil, ErrHookSignature
	}

	var valueType reflect.Type
	if t.NumIn() > 0 {
		valueType = t.In(t.NumIn() - 1)
	}

	return func(ctx context.Context, value any) (any, error) {
		var args []reflect.Value

		if withCtx {
			args = append(args, reflect.ValueOf(&ctx).Elem())
		}

		if valueType != nil {
			arg, err := argument(valueType, value)
			if err != nil {
				return nil, err
			}

			args = append(args, arg)
		}

		out := m.Call(args)

		if withErr && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}

		return fieldpath.Absent(out[0].Interface()), nil
	}, nil
}

func argument(t reflect.Type, value any) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(value)

	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Type().ConvertibleTo(t) && v.Kind() != reflect.String && t.Kind() != reflect.String:
		return v.Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("hook expects %s, got %T", t, value)
	}
}
