// Package mapper maps values between Go types by matching their members.
//
// A Context holds the configured rules and the mappers compiled from them.
// The first mapping of a source type, target type and rule set resolves
// every target member and compiles a mapper; later mappings of the same
// triple reuse it.
//
//	c := mapper.New(options.WithLogger(logger))
//	err := c.Add(
//		mapper.Ignore(mapper.To[warehouse.Customer](), "PasswordHash"),
//		mapper.MapMember(mapper.Between[store.Customer, warehouse.Customer](), "FirstName", "FullName"),
//	)
//	customer, err := mapper.Map[warehouse.Customer](c, src)
//
// Members are matched by name, ignoring case, through flattened names
// (CustomerName reads Customer.Name) and naming aliases. A string keyed map
// source is read by case insensitive keys in flattened ("homecity"),
// dotted ("home.city") and indexed ("tags[0]") forms.
//
// Three rule sets decide how a target is populated: CreateNew builds a new
// target, Merge only fills members that are still zero and Overwrite
// replaces every member the source provides.
//
// Configuration is not synchronized with mapping: register every rule
// before mapping concurrently.
package mapper
