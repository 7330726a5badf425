package common

import (
	"path"
	"reflect"
)

// UnknownStr is rendered for enum values without a name.
const UnknownStr = "unknown"

// TypeName renders a named type as "store.Order"; unnamed and predeclared
// types keep reflect's notation.
func TypeName(t reflect.Type) string {
	switch {
	case t == nil:
		return "<nil>"
	case t.Name() == "", t.PkgPath() == "":
		return t.String()
	default:
		return path.Base(t.PkgPath()) + "." + t.Name()
	}
}
