package node

import (
	"reflect"

	"struct-mapper/primitive"
)

//go:generate go tool stringer -type=DispatcherEnum -trimprefix=Dispatcher -output=dispatcher_string.go

// DispatcherEnum classifies how a value of one type is mapped onto another.
type DispatcherEnum int

const (
	DispatcherUnknown    DispatcherEnum = iota
	DispatcherPrimitive                 // scalar to scalar, through a conversion
	DispatcherInterface                 // into an interface, resolved from the runtime value
	DispatcherSlice                     // enumerable to enumerable, element by element
	DispatcherMap                       // map to map, entry by entry
	DispatcherStruct                    // struct to struct, member by member
	DispatcherDictionary                // string keyed map to struct, key by key
	DispatcherRuntime                   // from an interface, resolved from the runtime value
)

type shape uint8

const (
	shapeOther shape = iota
	shapeScalar
	shapeList
	shapeMap
	shapeDictionary
	shapeStruct
	shapeInterface
)

func shapeOf(t reflect.Type) shape {
	if primitive.FromReflectType(t) != 0 || primitive.IsSimple(t) {
		return shapeScalar
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return shapeList
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return shapeDictionary
		}

		return shapeMap
	case reflect.Struct:
		return shapeStruct
	case reflect.Interface:
		return shapeInterface
	default:
		return shapeOther
	}
}

// Dispatch classifies a pair of base (non pointer) types.
func Dispatch(src, dst reflect.Type) DispatcherEnum {
	if src.Kind() == reflect.Pointer || dst.Kind() == reflect.Pointer {
		panic("node: Dispatch needs base types, got a pointer")
	}

	from, to := shapeOf(src), shapeOf(dst)

	switch {
	case to == shapeInterface:
		return DispatcherInterface
	case from == shapeInterface:
		return DispatcherRuntime
	case to == shapeScalar && from == shapeScalar:
		return DispatcherPrimitive
	case to == shapeList && from == shapeList:
		return DispatcherSlice
	case to == shapeMap || to == shapeDictionary:
		if from == shapeMap || from == shapeDictionary {
			return DispatcherMap
		}
	case to == shapeStruct:
		switch from {
		case shapeStruct:
			return DispatcherStruct
		case shapeDictionary:
			return DispatcherDictionary
		}
	}

	return DispatcherUnknown
}

// PtrDepthAndBase counts the pointers wrapping t and returns the type beneath.
func PtrDepthAndBase(t reflect.Type) (int, reflect.Type) {
	depth := 0
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
		depth++
	}

	return depth, t
}
