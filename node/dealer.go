package node

import "reflect"

// StructPair is a source and target type a procedure is built for.
type StructPair struct{ Src, Dst reflect.Type }

// Dealer hands out the type pairs that still need a procedure, in the order
// they were first requested. A pair is handed out at most once.
// The zero value is ready to use.
type Dealer struct {
	pending []StructPair
	seen    map[StructPair]bool // queued or handed out
	done    map[StructPair]bool
}

// Needs queues the pair unless it was queued or handed out before.
func (d *Dealer) Needs(src, dst reflect.Type) {
	pair := StructPair{Src: src, Dst: dst}
	if d.seen[pair] {
		return
	}

	if d.seen == nil {
		d.seen = make(map[StructPair]bool)
	}

	d.seen[pair] = true
	d.pending = append(d.pending, pair)
}

// NextNeeds hands out the oldest queued pair that is not done yet.
func (d *Dealer) NextNeeds() (src, dst reflect.Type, ok bool) {
	for len(d.pending) > 0 {
		pair := d.pending[0]
		d.pending = d.pending[1:]

		if !d.done[pair] {
			d.Done(pair.Src, pair.Dst)
			return pair.Src, pair.Dst, true
		}
	}

	return nil, nil, false
}

// Done marks a pair as handled; it is never handed out afterwards.
func (d *Dealer) Done(src, dst reflect.Type) {
	pair := StructPair{Src: src, Dst: dst}

	if d.done == nil {
		d.done = make(map[StructPair]bool)
	}

	if d.seen == nil {
		d.seen = make(map[StructPair]bool)
	}

	d.done[pair] = true
	d.seen[pair] = true
}

// IsDone reports whether the pair was handed out or marked done.
func (d *Dealer) IsDone(src, dst reflect.Type) bool {
	return d.done[StructPair{Src: src, Dst: dst}]
}
