package match

import (
	"reflect"

	"struct-mapper/internal/common"
	"struct-mapper/node"
	"struct-mapper/primitive"
)

// TypeCompatibility ranks how directly a source type feeds a target type.
// Higher values are better.
type TypeCompatibility int

const (
	TypeIncompatible TypeCompatibility = iota
	TypeNeedsMapping                   // member by member, element by element or by runtime type
	TypeConvertible                    // through a primitive conversion
	TypeAssignable
	TypeIdentical
)

var compatibilityNames = [...]string{
	TypeIncompatible: "incompatible",
	TypeNeedsMapping: "needs_mapping",
	TypeConvertible:  "convertible",
	TypeAssignable:   "assignable",
	TypeIdentical:    "identical",
}

func (c TypeCompatibility) String() string {
	if c < 0 || int(c) >= len(compatibilityNames) {
		return common.UnknownStr
	}

	return compatibilityNames[c]
}

// TypeCompatibilityResult is a compatibility verdict with its reason.
type TypeCompatibilityResult struct {
	Compatibility TypeCompatibility
	Reason        string
	SourceType    string
	TargetType    string
}

var mappingReasons = map[node.DispatcherEnum]string{
	node.DispatcherInterface:  "resolved from the runtime type",
	node.DispatcherRuntime:    "resolved from the runtime type",
	node.DispatcherStruct:     "mapped member by member",
	node.DispatcherDictionary: "mapped from dictionary keys",
	node.DispatcherSlice:      "mapped element by element",
	node.DispatcherMap:        "mapped entry by entry",
}

// ScoreTypeCompatibility judges a source type against a target type, using
// only the primitive conversions allowed.
func ScoreTypeCompatibility(source, target reflect.Type, allowed primitive.CategoryEnum) TypeCompatibilityResult {
	result := TypeCompatibilityResult{SourceType: source.String(), TargetType: target.String()}
	result.Compatibility, result.Reason = compatibility(source, target, allowed)

	return result
}

// ScorePointerCompatibility is ScoreTypeCompatibility with every pointer level
// removed; the mapper dereferences and allocates as needed.
func ScorePointerCompatibility(source, target reflect.Type, allowed primitive.CategoryEnum) TypeCompatibilityResult {
	_, src := node.PtrDepthAndBase(source)
	_, dst := node.PtrDepthAndBase(target)

	result := TypeCompatibilityResult{SourceType: source.String(), TargetType: target.String()}
	result.Compatibility, result.Reason = compatibility(src, dst, allowed)

	return result
}

func compatibility(source, target reflect.Type, allowed primitive.CategoryEnum) (TypeCompatibility, string) {
	if source == target {
		return TypeIdentical, "types are identical"
	}

	if source.AssignableTo(target) {
		return TypeAssignable, "source is assignable to target"
	}

	_, src := node.PtrDepthAndBase(source)
	_, dst := node.PtrDepthAndBase(target)

	d := node.Dispatch(src, dst)
	if d == node.DispatcherPrimitive {
		if _, err := primitive.Converter(src, dst, allowed); err != nil {
			return TypeIncompatible, err.Error()
		}

		return TypeConvertible, "primitive conversion"
	}

	if reason, ok := mappingReasons[d]; ok {
		return TypeNeedsMapping, reason
	}

	return TypeIncompatible, "no mapping between " + src.Kind().String() + " and " + dst.Kind().String()
}
