// Package fuzzy implements linguistic variables, membership functions, rule sets
// and two defuzzification methods: center of gravity and zero-order weighted average.
package fuzzy

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// System owns a set of uniquely named domains. Domain names only need to be
// unique within one System.
type System struct {
	mu      sync.RWMutex
	domains map[string]*Domain
	order   []string
}

// NewSystem creates an empty fuzzy system
func NewSystem() *System {
	return &System{
		domains: make(map[string]*Domain),
	}
}

// DefineDomain creates a new domain on [low, high] sampled every res units
func (s *System) DefineDomain(name string, low, high, res float64) (*Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.domains[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDomain, name)
	}

	if !(low < high) || !(res > 0) || math.IsInf(high-low, 0) {
		return nil, fmt.Errorf("%w: %s [%g, %g] res %g", ErrInvalidDomain, name, low, high, res)
	}

	d := &Domain{
		name:  name,
		low:   low,
		high:  high,
		res:   res,
		terms: make(map[string]*Term),
	}
	s.domains[name] = d
	s.order = append(s.order, name)

	return d, nil
}

// Domain returns a domain by name
func (s *System) Domain(name string) (*Domain, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.domains[name]
	return d, ok
}

// Domains returns all domains in definition order
func (s *System) Domains() []*Domain {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Domain, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.domains[name])
	}
	return out
}

// Domain is a named scalar axis partitioned into fuzzy terms.
type Domain struct {
	name  string
	low   float64
	high  float64
	res   float64
	terms map[string]*Term
	order []string
}

func (d *Domain) Name() string        { return d.name }
func (d *Domain) Low() float64        { return d.low }
func (d *Domain) High() float64       { return d.high }
func (d *Domain) Resolution() float64 { return d.res }

// SampleCount returns the number of discrete samples x_i = low + i*res, i in [0, n).
func (d *Domain) SampleCount() int {
	n := int(math.Ceil((d.high-d.low)/d.res - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// Sample returns the i-th discretized point of the domain
func (d *Domain) Sample(i int) float64 {
	return d.low + float64(i)*d.res
}

// AddTerm registers a named membership function on the domain
func (d *Domain) AddTerm(name string, shape Shape) (*Term, error) {
	if _, exists := d.terms[name]; exists {
		return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateTerm, d.name, name)
	}
	if shape == nil {
		return nil, fmt.Errorf("%w: %s.%s has no shape", ErrInvalidShape, d.name, name)
	}
	if err := shape.validate(); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", d.name, name, err)
	}

	t := &Term{name: name, domain: d, shape: shape}
	d.terms[name] = t
	d.order = append(d.order, name)

	return t, nil
}

// MustTerm looks up a term and panics when it is missing. Meant for rule tables
// built right after the terms were registered.
func (d *Domain) MustTerm(name string) *Term {
	t, ok := d.terms[name]
	if !ok {
		panic(fmt.Sprintf("fuzzy: term %s.%s not registered", d.name, name))
	}
	return t
}

// Term returns a registered term by name
func (d *Domain) Term(name string) (*Term, bool) {
	t, ok := d.terms[name]
	return t, ok
}

// Terms returns the domain's terms in registration order
func (d *Domain) Terms() []*Term {
	out := make([]*Term, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.terms[name])
	}
	return out
}

// TermNames returns the sorted term names
func (d *Domain) TermNames() []string {
	names := make([]string, 0, len(d.terms))
	for name := range d.terms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Domain) String() string {
	return fmt.Sprintf("%s[%g..%g/%g]", d.name, d.low, d.high, d.res)
}
