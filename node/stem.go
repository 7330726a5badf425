package node

import "strconv"

// Stem hands out procedure names built from a stem and a counter: map1, map2
// and so on. Names already taken are skipped.
type Stem struct {
	stem  string
	n     int
	taken map[string]bool
}

// NewStem creates a Stem. Names in taken are never handed out; taken may be nil.
func NewStem(stem string, taken map[string]struct{}) *Stem {
	s := &Stem{stem: stem, taken: make(map[string]bool, len(taken))}
	for name := range taken {
		s.taken[name] = true
	}

	return s
}

// Next returns the next free name.
func (s *Stem) Next() string {
	for {
		s.n++

		if name := s.stem + strconv.Itoa(s.n); !s.taken[name] {
			s.taken[name] = true
			return name
		}
	}
}
