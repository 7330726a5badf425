// Package analyze extracts mapping metadata from Go types through reflection.
//
// Metadata is read once per reflect.Type and cached, so repeated plan builds
// never walk the same struct twice.
//
// Key types:
//   - TypeInfo: describes kind (struct/basic/pointer/slice/array/map/interface/external)
//   - MemberInfo: describes a readable or writable member (field, GetX getter, SetX setter)
//   - Tag: parsed `map` struct tag (skip, required, alternate names)
package analyze
