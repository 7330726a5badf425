// Package match decides which names and types belong together when members
// are matched by convention.
//
// Names are compared after Normalize, so case and separators never matter.
// Naming adds the conventions configured on a mapper: aliases and prefixes or
// suffixes that may be dropped. JoinedNames spells out the dotted and
// flattened forms of a member path. Unresolved members are reported with the
// closest source members from Suggest, ranked by NameSimilarity and
// ScoreTypeCompatibility.
package match
