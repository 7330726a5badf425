package match

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// ElementPlaceholder marks an element index inside a joined name.
const ElementPlaceholder = "[i]"

// Naming holds the configured naming conventions used when matching members:
// aliases between names and prefixes or suffixes that may be dropped.
// It is safe for concurrent use.
type Naming struct {
	mu       sync.RWMutex
	aliases  map[string][]string // normalized name -> alternates
	prefixes []string
	suffixes []string
}

// NewNaming creates empty naming settings.
func NewNaming() *Naming {
	return &Naming{aliases: make(map[string][]string)}
}

// AddAlias declares alternate names for a member name. Aliases are symmetric.
func (n *Naming) AddAlias(name string, alternates ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	group := append([]string{name}, alternates...)
	for _, member := range group {
		key := Normalize(member)
		for _, other := range group {
			if other != member && !containsFold(n.aliases[key], other) {
				n.aliases[key] = append(n.aliases[key], other)
			}
		}
	}
}

// AddPrefixes declares prefixes that are ignored when matching names.
func (n *Naming) AddPrefixes(prefixes ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.prefixes = append(n.prefixes, prefixes...)
}

// AddSuffixes declares suffixes that are ignored when matching names.
func (n *Naming) AddSuffixes(suffixes ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.suffixes = append(n.suffixes, suffixes...)
}

// Reset removes every configured convention.
func (n *Naming) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.aliases = make(map[string][]string)
	n.prefixes, n.suffixes = nil, nil
}

// AlternateNames lists the names a member may appear under, the name itself
// first. Extra names (e.g. from struct tags) follow, then configured aliases,
// then the name with a configured prefix or suffix removed.
func (n *Naming) AlternateNames(name string, extra ...string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	names := []string{name}
	add := func(s string) {
		if s != "" && !containsFold(names, s) {
			names = append(names, s)
		}
	}

	for _, e := range extra {
		add(e)
	}

	for _, alias := range n.aliases[Normalize(name)] {
		add(alias)
	}

	for _, p := range n.prefixes {
		if len(name) > len(p) && strings.EqualFold(name[:len(p)], p) {
			add(name[len(p):])
		}
	}

	for _, s := range n.suffixes {
		if len(name) > len(s) && strings.EqualFold(name[len(name)-len(s):], s) {
			add(name[:len(name)-len(s)])
		}
	}

	return names
}

// Match reports whether a source name matches any of the target's alternate names.
// The source name is also tried without configured prefixes and suffixes.
func (n *Naming) Match(sourceName string, targetNames []string) bool {
	for _, candidate := range n.AlternateNames(sourceName) {
		normalized := Normalize(candidate)
		for _, target := range targetNames {
			if normalized == Normalize(target) {
				return true
			}
		}
	}

	return false
}

// JoinedNames returns every combination of the alternate names of each
// segment, joined both with dots ("Address.Line1") and flattened
// ("AddressLine1"). Element segments attach without a separator.
func JoinedNames(alternates [][]string) []string {
	if len(alternates) == 0 {
		return nil
	}

	combos := [][]string{{}}
	for _, names := range alternates {
		next := make([][]string, 0, len(combos)*len(names))
		for _, combo := range combos {
			for _, name := range names {
				next = append(next, append(slices.Clip(combo), name))
			}
		}
		combos = next
	}

	var joined []string
	add := func(s string) {
		if !slices.Contains(joined, s) {
			joined = append(joined, s)
		}
	}

	for _, combo := range combos {
		add(join(combo, "."))
	}
	for _, combo := range combos {
		add(join(combo, ""))
	}

	return joined
}

func join(parts []string, sep string) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 && !strings.HasPrefix(p, "[") {
			sb.WriteString(sep)
		}
		sb.WriteString(p)
	}

	return sb.String()
}

// Fold case-folds a name for case-insensitive key comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}

	return false
}
