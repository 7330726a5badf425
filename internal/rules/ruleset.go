package rules

// AssignPolicy decides whether a resolved value replaces the current target value.
type AssignPolicy int

const (
	AssignAlways  AssignPolicy = iota // every resolved member is written
	AssignIfUnset                     // only zero-valued members are written
)

// RuleSet is a named mapping mode.
type RuleSet struct {
	Name string
	// CreateRoot constructs the result instead of populating an existing target.
	CreateRoot bool
	// Assign decides when a resolved value replaces the target member.
	Assign AssignPolicy
	// CreateMissing gives unmatched collection members an empty value.
	CreateMissing bool
	// ClearOnNil lets a nil source value clear an existing target value.
	ClearOnNil bool
}

var (
	// CreateNew builds a new result from the source.
	CreateNew = RuleSet{Name: "CreateNew", CreateRoot: true, Assign: AssignAlways, CreateMissing: true, ClearOnNil: true}
	// Merge fills in the members of an existing target that are still unset.
	Merge = RuleSet{Name: "Merge", Assign: AssignIfUnset}
	// Overwrite replaces the members of an existing target that the source provides.
	Overwrite = RuleSet{Name: "Overwrite", Assign: AssignAlways, ClearOnNil: true}
)

// RuleSets lists the built-in rule sets.
func RuleSets() []RuleSet {
	return []RuleSet{CreateNew, Merge, Overwrite}
}

// RuleSetByName returns the built-in rule set with the given name.
func RuleSetByName(name string) (RuleSet, bool) {
	for _, rs := range RuleSets() {
		if rs.Name == name {
			return rs, true
		}
	}

	return RuleSet{}, false
}

// String returns the rule set name.
func (r RuleSet) String() string { return r.Name }
