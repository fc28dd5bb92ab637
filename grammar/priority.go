package grammar

import (
	"errors"
	"fmt"
)

var ErrPriorityCycle = errors.New("grammar: cyclic priority")

// Priority is a node of a programmer-declared partial order. A rule tagged
// with a priority is only eligible at a reference site whose filter the
// priority satisfies.
type Priority struct {
	name  string
	lower []*Priority
}

// NewPriority declares a priority higher than each of lower.
func NewPriority(name string, lower ...*Priority) *Priority {
	p := &Priority{name: name}
	return p.Over(lower...)
}

// Over adds "higher than" relations, for priorities that have to be
// declared before the ones below them exist. It panics with
// ErrPriorityCycle if a relation would put p below itself.
func (p *Priority) Over(lower ...*Priority) *Priority {
	for _, q := range lower {
		if q == nil {
			panic(fmt.Errorf("grammar: priority %s declared over nil", p.name))
		}
		if q == p || q.Higher(p) {
			panic(fmt.Errorf("%w: %s over %s", ErrPriorityCycle, p.name, q.name))
		}
		p.lower = append(p.lower, q)
	}
	return p
}

// Higher reports whether p is strictly above q in the transitive order.
func (p *Priority) Higher(q *Priority) bool {
	if p == nil || q == nil {
		return false
	}
	seen := make(map[*Priority]bool)
	var walk func(*Priority) bool
	walk = func(n *Priority) bool {
		for _, l := range n.lower {
			if l == q {
				return true
			}
			if !seen[l] {
				seen[l] = true
				if walk(l) {
					return true
				}
			}
		}
		return false
	}
	return walk(p)
}

func (p *Priority) Name() string {
	return p.name
}

// Lower returns the priorities directly below p.
func (p *Priority) Lower() []*Priority {
	return append([]*Priority(nil), p.lower...)
}

func (p *Priority) String() string {
	if p == nil {
		return "<none>"
	}
	return p.name
}

// checkPriorities reports any cycle in the relations reachable from ps.
func checkPriorities(ps []*Priority) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[*Priority]int)
	var visit func(*Priority) error
	visit = func(p *Priority) error {
		switch state[p] {
		case visiting:
			return fmt.Errorf("%w: %s", ErrPriorityCycle, p.name)
		case done:
			return nil
		}
		state[p] = visiting
		for _, l := range p.lower {
			if err := visit(l); err != nil {
				return err
			}
		}
		state[p] = done
		return nil
	}
	for _, p := range ps {
		if err := visit(p); err != nil {
			return err
		}
	}
	return nil
}
