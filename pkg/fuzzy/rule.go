package fuzzy

import (
	"fmt"
	"strings"
)

// Percepts maps each input domain to its crisp reading.
type Percepts map[*Domain]float64

// Rule maps an AND-ed antecedent combination to one consequent term.
type Rule struct {
	Antecedent []*Term
	Consequent *Term
}

// FiringStrength returns the minimum membership over the antecedent terms.
// A rule with no antecedent never fires.
func (r Rule) FiringStrength(percepts Percepts) (float64, error) {
	if len(r.Antecedent) == 0 {
		return 0, nil
	}

	strength := 1.0
	for _, term := range r.Antecedent {
		x, ok := percepts[term.domain]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingInput, term.domain.name)
		}
		if m := term.Membership(x); m < strength {
			strength = m
		}
	}
	return strength, nil
}

func (r Rule) String() string {
	parts := make([]string, len(r.Antecedent))
	for i, t := range r.Antecedent {
		parts[i] = t.String()
	}
	return fmt.Sprintf("IF %s THEN %s", strings.Join(parts, " AND "), r.Consequent)
}

// RuleSet is a named collection of rules meant to share one output domain.
type RuleSet struct {
	name  string
	rules []Rule
}

// NewRuleSet creates a rule set
func NewRuleSet(name string, rules ...Rule) *RuleSet {
	rs := &RuleSet{name: name}
	rs.rules = append(rs.rules, rules...)
	return rs
}

// When appends a rule: IF all antecedent terms THEN consequent
func (rs *RuleSet) When(consequent *Term, antecedent ...*Term) *RuleSet {
	rs.rules = append(rs.rules, Rule{
		Antecedent: append([]*Term(nil), antecedent...),
		Consequent: consequent,
	})
	return rs
}

func (rs *RuleSet) Name() string { return rs.name }

func (rs *RuleSet) Len() int { return len(rs.rules) }

// Rules returns a copy of the rules
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Extend returns a new rule set whose every rule carries the extra antecedent terms.
// Used to gate a sub-rule-set to certain regimes of another input.
func (rs *RuleSet) Extend(terms ...*Term) *RuleSet {
	gate := make([]string, len(terms))
	for i, t := range terms {
		gate[i] = t.String()
	}

	out := &RuleSet{name: fmt.Sprintf("%s|%s", rs.name, strings.Join(gate, "&"))}
	for _, r := range rs.rules {
		ante := make([]*Term, 0, len(r.Antecedent)+len(terms))
		ante = append(ante, r.Antecedent...)
		ante = append(ante, terms...)
		out.rules = append(out.rules, Rule{Antecedent: ante, Consequent: r.Consequent})
	}
	return out
}

// Union merges rule sets into one
func Union(name string, sets ...*RuleSet) *RuleSet {
	out := &RuleSet{name: name}
	for _, rs := range sets {
		out.rules = append(out.rules, rs.rules...)
	}
	return out
}

// OutputDomain returns the single consequent domain, or ErrDomainMismatch.
func (rs *RuleSet) OutputDomain() (*Domain, error) {
	var out *Domain
	for _, r := range rs.rules {
		if r.Consequent == nil {
			return nil, fmt.Errorf("%w: rule set %s has a rule without consequent", ErrConfiguration, rs.name)
		}
		if out == nil {
			out = r.Consequent.domain
			continue
		}
		if r.Consequent.domain != out {
			return nil, fmt.Errorf("%w: %s targets %s and %s",
				ErrDomainMismatch, rs.name, out.name, r.Consequent.domain.name)
		}
	}
	return out, nil
}
