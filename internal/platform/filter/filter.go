// Package filter implements structural narrowing of reference collections.
//
// A Group is satisfied when any of its predicates matches (OR). Criteria is
// satisfied when every group is satisfied (AND). A group without predicates
// does not narrow, so zero-value criteria return the input unchanged.
package filter

// Predicate reports whether an item satisfies a single structural condition.
type Predicate[T any] func(T) bool

// Group is a named set of alternative predicates.
type Group[T any] struct {
	Name string
	Any  []Predicate[T]
}

// NewGroup builds a group from a name and its alternatives.
func NewGroup[T any](name string, preds ...Predicate[T]) Group[T] {
	return Group[T]{Name: name, Any: preds}
}

// Empty reports whether the group places no constraint on items.
func (g Group[T]) Empty() bool {
	return len(g.Any) == 0
}

// Match reports whether item satisfies at least one predicate in the group.
func (g Group[T]) Match(item T) bool {
	if g.Empty() {
		return true
	}
	for _, p := range g.Any {
		if p(item) {
			return true
		}
	}
	return false
}

// Criteria is a conjunction of groups.
type Criteria[T any] []Group[T]

// And returns the conjunction of c and other. Neither input is modified.
func (c Criteria[T]) And(other Criteria[T]) Criteria[T] {
	out := make(Criteria[T], 0, len(c)+len(other))
	out = append(out, c...)
	return append(out, other...)
}

// Active returns the groups that actually narrow.
func (c Criteria[T]) Active() Criteria[T] {
	var out Criteria[T]
	for _, g := range c {
		if !g.Empty() {
			out = append(out, g)
		}
	}
	return out
}

// Match reports whether item satisfies every group.
func (c Criteria[T]) Match(item T) bool {
	for _, g := range c {
		if !g.Match(item) {
			return false
		}
	}
	return true
}

// Apply returns the items satisfying all criteria, in input order. When no
// group narrows, the input slice itself is returned.
func Apply[T any](items []T, c Criteria[T]) []T {
	active := c.Active()
	if len(active) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if active.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Indices returns the positions in items that satisfy all criteria.
func Indices[T any](items []T, c Criteria[T]) []int {
	active := c.Active()
	out := make([]int, 0, len(items))
	for i, item := range items {
		if active.Match(item) {
			out = append(out, i)
		}
	}
	return out
}

// OneOf builds one predicate per wanted value using key to extract the
// item's value. Duplicated wanted values collapse to one predicate.
func OneOf[T any, V comparable](key func(T) V, wanted ...V) []Predicate[T] {
	seen := make(map[V]bool, len(wanted))
	preds := make([]Predicate[T], 0, len(wanted))
	for _, w := range wanted {
		if seen[w] {
			continue
		}
		seen[w] = true
		w := w
		preds = append(preds, func(item T) bool { return key(item) == w })
	}
	return preds
}

// AnyOf builds one predicate per wanted value, each matching when the item's
// value list contains that value.
func AnyOf[T any, V comparable](values func(T) []V, wanted ...V) []Predicate[T] {
	seen := make(map[V]bool, len(wanted))
	preds := make([]Predicate[T], 0, len(wanted))
	for _, w := range wanted {
		if seen[w] {
			continue
		}
		seen[w] = true
		w := w
		preds = append(preds, func(item T) bool {
			for _, v := range values(item) {
				if v == w {
					return true
				}
			}
			return false
		})
	}
	return preds
}
