package core

import (
	"fmt"
	"math"

	"github.com/picogrid/swarm-foraging/pkg/fuzzy"
)

// FarFrom is where the "far" perception term starts rising. The perception
// range must lie beyond it.
const FarFrom = 100.0

// ErrInvalidController reports controller settings the rule base cannot use
var ErrInvalidController = fmt.Errorf("%w: invalid robot controller", fuzzy.ErrConfiguration)

// FLCConfig sizes the robot's input domains and selects defuzzification methods
type FLCConfig struct {
	PerceptionRange   float64
	DistanceRange     float64
	RotationMethod    fuzzy.Method
	TranslationMethod fuzzy.Method
}

// DefaultFLCConfig matches a 400 unit sensor on a 500x500 board
func DefaultFLCConfig() FLCConfig {
	return FLCConfig{
		PerceptionRange:   400,
		DistanceRange:     800,
		RotationMethod:    fuzzy.WeightedAverage,
		TranslationMethod: fuzzy.CenterOfGravity,
	}
}

// Percept is one robot's crisp input vector
type Percept struct {
	Left     float64
	Front    float64
	Right    float64
	Bearing  float64
	Distance float64
}

// RobotFLC is the fuzzy controller shared by every robot of a swarm. Its rule sets
// are immutable once built.
type RobotFLC struct {
	cfg    FLCConfig
	system *fuzzy.System

	left, front, right *fuzzy.Domain
	bearing, distance  *fuzzy.Domain
	vrot, vtrans       *fuzzy.Domain

	goal        *fuzzy.RuleSet
	avoidance   *fuzzy.RuleSet
	rotation    *fuzzy.RuleSet
	translation *fuzzy.RuleSet
}

// NewRobotFLC builds the domains, terms and rule sets. Any error is a setup error.
func NewRobotFLC(cfg FLCConfig) (*RobotFLC, error) {
	if cfg.PerceptionRange <= FarFrom {
		return nil, fmt.Errorf("%w: perception range %g must exceed %g", ErrInvalidController, cfg.PerceptionRange, FarFrom)
	}
	if cfg.DistanceRange <= 0 {
		return nil, fmt.Errorf("%w: distance range must be positive", ErrInvalidController)
	}

	f := &RobotFLC{cfg: cfg, system: fuzzy.NewSystem()}

	steps := []func() error{
		f.defineInputs,
		f.defineOutputs,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("building robot controller: %w", err)
		}
	}

	f.buildRules()
	return f, nil
}

type termDef struct {
	name  string
	shape fuzzy.Shape
}

func (f *RobotFLC) domain(name string, low, high, res float64, terms ...termDef) (*fuzzy.Domain, error) {
	d, err := f.system.DefineDomain(name, low, high, res)
	if err != nil {
		return nil, err
	}
	for _, t := range terms {
		if _, err := d.AddTerm(t.name, t.shape); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (f *RobotFLC) perception(name string) (*fuzzy.Domain, error) {
	return f.domain(name, 0, f.cfg.PerceptionRange, 1,
		termDef{"near", fuzzy.Ramp(55, 0)},
		termDef{"medium", fuzzy.Triangular{Low: 48, Peak: 100, High: 150}},
		termDef{"far", fuzzy.Ramp(FarFrom, f.cfg.PerceptionRange)},
	)
}

func (f *RobotFLC) defineInputs() error {
	var err error
	if f.left, err = f.perception("left"); err != nil {
		return err
	}
	if f.front, err = f.perception("front"); err != nil {
		return err
	}
	if f.right, err = f.perception("right"); err != nil {
		return err
	}

	const q = math.Pi / 4
	f.bearing, err = f.domain("bearing", -math.Pi, math.Pi, 0.01,
		termDef{"hneg", fuzzy.Ramp(-q, -2*q)},
		termDef{"neg", fuzzy.Triangular{Low: -2 * q, Peak: -q, High: 0}},
		termDef{"zero", fuzzy.Triangular{Low: -q, Peak: 0, High: q}},
		termDef{"pos", fuzzy.Triangular{Low: 0, Peak: q, High: 2 * q}},
		termDef{"hpos", fuzzy.Ramp(q, 2*q)},
	)
	if err != nil {
		return err
	}

	f.distance, err = f.domain("distance", 0, f.cfg.DistanceRange, 1,
		termDef{"close", fuzzy.Ramp(60, 0)},
		termDef{"medium", fuzzy.Triangular{Low: 40, Peak: 150, High: 300}},
		termDef{"far", fuzzy.Ramp(150, 400)},
	)
	return err
}

func (f *RobotFLC) defineOutputs() error {
	var err error
	f.vrot, err = f.domain("vrot", -2, 2, 0.1,
		termDef{"hleft", fuzzy.Crisp(-2)},
		termDef{"left", fuzzy.Crisp(-1.5)},
		termDef{"none", fuzzy.Crisp(0)},
		termDef{"right", fuzzy.Crisp(1.5)},
		termDef{"hright", fuzzy.Crisp(2)},
	)
	if err != nil {
		return err
	}

	f.vtrans, err = f.domain("vtrans", 0, 40, 0.5,
		termDef{"stop", fuzzy.Crisp(0)},
		termDef{"slow", fuzzy.Triangular{Low: 0, Peak: 5, High: 10}},
		termDef{"medium", fuzzy.Triangular{Low: 5, Peak: 15, High: 25}},
		termDef{"fast", fuzzy.Triangular{Low: 15, Peak: 30, High: 40}},
	)
	return err
}

func (f *RobotFLC) buildRules() {
	l, fr, r := f.left.MustTerm, f.front.MustTerm, f.right.MustTerm
	b, d := f.bearing.MustTerm, f.distance.MustTerm
	rot, tr := f.vrot.MustTerm, f.vtrans.MustTerm

	f.goal = fuzzy.NewRuleSet("goal").
		When(rot("hleft"), b("hneg")).
		When(rot("left"), b("neg")).
		When(rot("none"), b("zero")).
		When(rot("right"), b("pos")).
		When(rot("hright"), b("hpos"))

	// positive vrot turns toward the right-hand side of the fan
	f.avoidance = fuzzy.NewRuleSet("avoidance").
		When(rot("none"), l("far"), fr("far"), r("far")).
		When(rot("right"), l("near"), r("medium")).
		When(rot("hright"), l("near"), r("far")).
		When(rot("left"), r("near"), l("medium")).
		When(rot("hleft"), r("near"), l("far")).
		When(rot("left"), fr("near"), l("far")).
		When(rot("hright"), fr("near"), r("far")).
		When(rot("none"), l("medium"), fr("medium"), r("medium"))

	f.rotation = fuzzy.Union("rotation",
		f.goal,
		f.avoidance.Extend(d("medium")),
		f.avoidance.Extend(d("far")),
	)

	f.translation = fuzzy.NewRuleSet("translation").
		When(tr("stop"), d("close")).
		When(tr("medium"), d("medium"), fr("far")).
		When(tr("medium"), d("medium"), fr("medium")).
		When(tr("fast"), d("far"), fr("far")).
		When(tr("medium"), d("far"), fr("medium")).
		When(tr("slow"), fr("near"))
}

func (f *RobotFLC) percepts(p Percept) fuzzy.Percepts {
	return fuzzy.Percepts{
		f.left:     p.Left,
		f.front:    p.Front,
		f.right:    p.Right,
		f.bearing:  p.Bearing,
		f.distance: p.Distance,
	}
}

// Evaluate returns (vTrans, vRot). An axis with no fired rule is zero.
func (f *RobotFLC) Evaluate(p Percept) (vTrans, vRot float64, err error) {
	in := f.percepts(p)

	vRot, _, err = fuzzy.Evaluate(f.rotation, in, f.cfg.RotationMethod)
	if err != nil {
		return 0, 0, fmt.Errorf("rotational speed: %w", err)
	}
	vTrans, _, err = fuzzy.Evaluate(f.translation, in, f.cfg.TranslationMethod)
	if err != nil {
		return 0, 0, fmt.Errorf("translational speed: %w", err)
	}
	return vTrans, vRot, nil
}

// Avoid evaluates only the obstacle avoidance rules on the zone distances
func (f *RobotFLC) Avoid(left, front, right float64) (float64, bool, error) {
	return fuzzy.Evaluate(f.avoidance, fuzzy.Percepts{
		f.left:  left,
		f.front: front,
		f.right: right,
	}, fuzzy.WeightedAverage)
}

func (f *RobotFLC) System() *fuzzy.System { return f.system }

// RuleSets returns the named rule sets in evaluation order
func (f *RobotFLC) RuleSets() []*fuzzy.RuleSet {
	return []*fuzzy.RuleSet{f.goal, f.avoidance, f.rotation, f.translation}
}
