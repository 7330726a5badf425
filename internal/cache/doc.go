// Package cache compiles mappers on first use and keeps them for the
// lifetime of a rule configuration.
//
// Lookups are lock-free once a mapper is published. Compilation is
// serialized by a single mutex, and a failed compilation is never cached,
// so a configuration error is reported again on the next lookup.
// Resetting the rule store drops every compiled mapper.
package cache
