package fuzzy

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the parent of every setup-time error. Setup errors are fatal and
// must be surfaced to the caller rather than ignored.
var ErrConfiguration = errors.New("fuzzy configuration error")

var (
	ErrDuplicateDomain = fmt.Errorf("%w: duplicate domain", ErrConfiguration)
	ErrDuplicateTerm   = fmt.Errorf("%w: duplicate term", ErrConfiguration)
	ErrInvalidDomain   = fmt.Errorf("%w: invalid domain bounds", ErrConfiguration)
	ErrInvalidShape    = fmt.Errorf("%w: invalid membership shape", ErrConfiguration)
	ErrNotSingleton    = fmt.Errorf("%w: consequent is not a singleton", ErrConfiguration)
)

// ErrDomainMismatch is returned at evaluation time when a rule set's consequents
// target more than one output domain.
var ErrDomainMismatch = errors.New("rule set consequents span multiple domains")

// ErrMissingInput is returned when the percept vector lacks a value for a domain
// referenced by a rule antecedent.
var ErrMissingInput = errors.New("missing percept for antecedent domain")

// ErrUnknownMethod is returned for a defuzzification method outside the supported set.
var ErrUnknownMethod = errors.New("unknown defuzzification method")
