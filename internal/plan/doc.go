// Package plan builds the intermediate representation of a mapping procedure.
//
// Building a plan for a type pair:
//  1. The root value is classified by shape: scalar conversion, object,
//     enumerable, map, interface dispatch or runtime dispatch.
//  2. Objects resolve every writable target member in declaration order
//     through the resolution engine and bind each candidate data source to a
//     node converting its value into the member type.
//  3. Target types that can reach themselves are built once as named
//     procedures; every reference calls the procedure instead of expanding it.
//  4. Unmappable members abort the build; other findings are kept as
//     diagnostics.
//
// A Plan is immutable once built and is rendered for inspection by Describe.
package plan
