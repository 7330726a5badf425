package rules

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"struct-mapper/internal/match"
)

// Query selects the rules that apply to one member of a mapped type pair.
type Query struct {
	Source  reflect.Type
	Target  reflect.Type
	RuleSet string
	// Member is the target member path relative to Target, empty for object level rules.
	Member string
}

// Match is a rule together with how specifically it applies to a query.
type Match struct {
	*Rule
	Specificity Specificity
}

// Store holds configured rules and naming conventions.
//
// Rules are added during a configuration phase; reads during concurrent
// configuration are not guaranteed to be consistent.
type Store struct {
	mu         sync.RWMutex
	rules      []*Rule
	seq        int
	generation uint64
	naming     *match.Naming
	onReset    []func()
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{naming: match.NewNaming()}
}

// Naming returns the naming conventions used when matching members.
func (s *Store) Naming() *match.Naming { return s.naming }

// Add validates and registers a rule. It fails with ErrConfigurationConflict
// when the rule contradicts a registered one.
func (s *Store) Add(rule Rule) error {
	r := &rule
	r.Member = normalizeMember(r.Member)

	if err := r.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rules {
		if msg, conflict := r.conflictWith(existing); conflict {
			return fmt.Errorf("%w: %s", ErrConfigurationConflict, msg)
		}
	}

	s.seq++
	r.seq = s.seq
	s.rules = append(s.rules, r)

	return nil
}

// MatchesFor returns the rules of a kind that apply to the query, most
// specific first. Among equally specific rules conditional ones come first,
// then registration order decides.
func (s *Store) MatchesFor(kind Kind, q Query) []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member := normalizeMember(q.Member)

	var matches []Match
	for _, r := range s.rules {
		if r.Kind != kind || !strings.EqualFold(r.Member, member) {
			continue
		}

		spec := r.Scope.Specificity(q.Source, q.Target, q.RuleSet)
		if !spec.applies() {
			continue
		}

		matches = append(matches, Match{Rule: r, Specificity: spec})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := b.Specificity.Compare(a.Specificity); c != 0 {
			return c
		}

		if a.IsConditional() != b.IsConditional() {
			if a.IsConditional() {
				return -1
			}
			return 1
		}

		return a.seq - b.seq
	})

	return matches
}

// Rules returns a snapshot of every registered rule in registration order.
func (s *Store) Rules() []*Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.rules)
}

// Len returns the number of registered rules.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rules)
}

// Generation changes every time the store is reset.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.generation
}

// OnReset registers a function called after every Reset.
func (s *Store) OnReset(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onReset = append(s.onReset, fn)
}

// Reset removes every rule and naming convention and notifies dependents.
func (s *Store) Reset() {
	s.mu.Lock()
	s.rules = nil
	s.generation++
	hooks := slices.Clone(s.onReset)
	s.mu.Unlock()

	s.naming.Reset()

	for _, fn := range hooks {
		fn()
	}
}

func sameMember(a, b *Rule) bool {
	return strings.EqualFold(a.Member, b.Member)
}

func normalizeMember(path string) string {
	return strings.ReplaceAll(strings.TrimSpace(path), "[]", match.ElementPlaceholder)
}
