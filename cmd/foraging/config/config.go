package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/picogrid/swarm-foraging/cmd/foraging/controllers"
	"github.com/picogrid/swarm-foraging/cmd/foraging/core"
	"github.com/picogrid/swarm-foraging/cmd/foraging/env"
	"github.com/picogrid/swarm-foraging/cmd/foraging/world"
	"github.com/picogrid/swarm-foraging/pkg/fuzzy"
)

// SimulationConfig holds the complete simulation configuration
type SimulationConfig struct {
	// Basic simulation settings
	Simulation SimulationSettings `yaml:"simulation"`

	// Board geometry and timing
	World WorldConfig `yaml:"world"`

	// Formation settings
	Swarm SwarmConfig `yaml:"swarm"`

	// Per-robot body and motion
	Robot RobotConfig `yaml:"robot"`

	// Laser range finder
	Sensor SensorConfig `yaml:"sensor"`

	// Fuzzy controller
	Fuzzy FuzzyConfig `yaml:"fuzzy"`

	// Reward policy
	Reward RewardConfig `yaml:"reward"`

	// Action selection
	Policy PolicyConfig `yaml:"policy"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// SimulationSettings holds basic simulation settings
type SimulationSettings struct {
	Name               string `yaml:"name"`
	Description        string `yaml:"description"`
	Episodes           int    `yaml:"episodes"`
	Seed               uint64 `yaml:"seed"`
	MaxStepsPerEpisode int    `yaml:"max_steps_per_episode"`
	MaxTicksPerAction  int    `yaml:"max_ticks_per_action"`
}

// WorldConfig defines the board
type WorldConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	TickRate   float64 `yaml:"tick_rate"` // ticks per simulated second
	ObjectSide float64 `yaml:"object_side"`
	GoalRadius float64 `yaml:"goal_radius"`
}

// SwarmConfig defines the formation
type SwarmConfig struct {
	Size                int     `yaml:"size"`
	FormationRadius     float64 `yaml:"formation_radius"`
	GapDegrees          float64 `yaml:"gap_degrees"`
	RotationStepDegrees float64 `yaml:"rotation_step_degrees"`
	NearObject          float64 `yaml:"near_object"` // switch to the home task under this distance
}

// RobotConfig defines robot bodies and motion primitives
type RobotConfig struct {
	Radius           float64 `yaml:"radius"`
	MaxSpeed         float64 `yaml:"max_speed"`
	ArrivalThreshold float64 `yaml:"arrival_threshold"`
	TurnRateDegrees  float64 `yaml:"turn_rate_degrees"`
	TurnTolerance    float64 `yaml:"turn_tolerance"`
}

// SensorConfig defines the laser range finder
type SensorConfig struct {
	BeamCount         int     `yaml:"beam_count"`
	StartAngleDegrees float64 `yaml:"start_angle_degrees"`
	SpacingDegrees    float64 `yaml:"spacing_degrees"`
	Range             float64 `yaml:"range"`
	Steps             int     `yaml:"steps"`
	DistanceSigma     float64 `yaml:"distance_sigma"`
	AngleSigma        float64 `yaml:"angle_sigma"`
}

// FuzzyConfig selects defuzzification methods and domain sizes
type FuzzyConfig struct {
	RotationMethod    string  `yaml:"rotation_method"`    // "wavg" or "cog"
	TranslationMethod string  `yaml:"translation_method"` // "wavg" or "cog"
	DistanceRange     float64 `yaml:"distance_range"`
}

// RewardConfig weights the reward policy
type RewardConfig struct {
	Delivery    float64 `yaml:"delivery"`
	Approach    float64 `yaml:"approach"`
	Transport   float64 `yaml:"transport"`
	Penalty     float64 `yaml:"penalty"`
	MinProgress float64 `yaml:"min_progress"`
}

// PolicyConfig defines how actions are chosen
type PolicyConfig struct {
	Type                    string  `yaml:"type"` // "heuristic", "epsilon_greedy", "random"
	Epsilon                 float64 `yaml:"epsilon"`
	EpsilonDecay            float64 `yaml:"epsilon_decay"`
	EpsilonMin              float64 `yaml:"epsilon_min"`
	BearingThresholdDegrees float64 `yaml:"bearing_threshold_degrees"`
}

// LoggingConfig defines logging and reporting settings
type LoggingConfig struct {
	ConsoleLevel     string `yaml:"console_level"` // "debug", "info", "warn", "error"
	Verbose          bool   `yaml:"verbose"`
	EnableReport     bool   `yaml:"enable_report"`
	ReportFormat     string `yaml:"report_format"` // "json", "markdown"
	ReportOutputPath string `yaml:"report_output_path"`
}

var (
	validPolicies      = []string{"heuristic", "epsilon_greedy", "random"}
	validLevels        = []string{"debug", "info", "warn", "error"}
	validReportFormats = []string{"json", "markdown"}
)

// Validate checks if the configuration is valid
func (c *SimulationConfig) Validate() error {
	if c.Simulation.Name == "" {
		return fmt.Errorf("simulation name is required")
	}

	if c.Simulation.Episodes <= 0 {
		return fmt.Errorf("number of episodes must be positive")
	}

	if c.Simulation.MaxTicksPerAction <= 0 {
		return fmt.Errorf("max ticks per action must be positive")
	}

	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world dimensions must be positive")
	}

	if c.World.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive")
	}

	if c.Swarm.Size <= 0 {
		return fmt.Errorf("swarm size must be positive")
	}

	if c.Swarm.FormationRadius <= 0 {
		return fmt.Errorf("formation radius must be positive")
	}

	if c.Swarm.GapDegrees < 0 || c.Swarm.GapDegrees >= 360 {
		return fmt.Errorf("formation gap must be in [0, 360) degrees")
	}

	if c.Swarm.RotationStepDegrees <= 0 || c.Swarm.RotationStepDegrees >= 180 {
		return fmt.Errorf("rotation step must be in (0, 180) degrees")
	}

	if c.Robot.Radius <= 0 {
		return fmt.Errorf("robot radius must be positive")
	}

	if c.Robot.MaxSpeed <= 0 {
		return fmt.Errorf("robot max speed must be positive")
	}

	if c.Robot.ArrivalThreshold <= 0 {
		return fmt.Errorf("arrival threshold must be positive")
	}

	if c.Robot.TurnRateDegrees <= 0 {
		return fmt.Errorf("turn rate must be positive")
	}

	if c.Robot.TurnTolerance <= 0 {
		return fmt.Errorf("turn tolerance must be positive")
	}

	// a turn must not step across the whole tolerance window in one tick
	if turnPerTick := radians(c.Robot.TurnRateDegrees) / c.World.TickRate; turnPerTick >= 2*c.Robot.TurnTolerance {
		return fmt.Errorf("turn rate %.1f deg/s at %.0f ticks/s overshoots the %.3f rad turn tolerance",
			c.Robot.TurnRateDegrees, c.World.TickRate, c.Robot.TurnTolerance)
	}

	if c.Sensor.BeamCount < 3 {
		return fmt.Errorf("sensor needs at least 3 beams")
	}

	if c.Sensor.Range <= core.FarFrom {
		return fmt.Errorf("sensor range must exceed %.0f", core.FarFrom)
	}

	if c.Fuzzy.DistanceRange <= 0 {
		return fmt.Errorf("fuzzy distance range must be positive")
	}

	if _, err := fuzzy.ParseMethod(c.Fuzzy.RotationMethod); err != nil {
		return fmt.Errorf("rotation method: %w", err)
	}

	if _, err := fuzzy.ParseMethod(c.Fuzzy.TranslationMethod); err != nil {
		return fmt.Errorf("translation method: %w", err)
	}

	if !oneOf(c.Policy.Type, validPolicies) {
		return fmt.Errorf("policy type must be one of %s", strings.Join(validPolicies, ", "))
	}

	// Validate probability ranges
	if c.Policy.Epsilon < 0 || c.Policy.Epsilon > 1 {
		return fmt.Errorf("epsilon must be between 0.0 and 1.0")
	}

	if c.Policy.EpsilonMin < 0 || c.Policy.EpsilonMin > c.Policy.Epsilon {
		return fmt.Errorf("epsilon min must be between 0.0 and epsilon")
	}

	if c.Policy.EpsilonDecay <= 0 || c.Policy.EpsilonDecay > 1 {
		return fmt.Errorf("epsilon decay must be in (0.0, 1.0]")
	}

	if c.Logging.ConsoleLevel != "" && !oneOf(c.Logging.ConsoleLevel, validLevels) {
		return fmt.Errorf("console level must be one of %s", strings.Join(validLevels, ", "))
	}

	if c.Logging.EnableReport && !oneOf(c.Logging.ReportFormat, validReportFormats) {
		return fmt.Errorf("report format must be one of %s", strings.Join(validReportFormats, ", "))
	}

	return nil
}

// String returns a human-readable representation of the configuration
func (c *SimulationConfig) String() string {
	return fmt.Sprintf(`Simulation Configuration:
  Name: %s
  Description: %s
  Episodes: %d
  Seed: %d
  Max Steps/Episode: %d

World:
  Board: %.0fx%.0f
  Tick Rate: %.0f/s
  Goal Radius: %.1f

Swarm:
  Robots: %d
  Formation Radius: %.1f
  Gap: %.1f deg
  Rotation Step: %.1f deg

Sensor:
  Beams: %d every %.1f deg from %.1f deg
  Range: %.0f

Fuzzy Controller:
  Rotation: %s
  Translation: %s

Policy:
  Type: %s
  Epsilon: %.3f (decay %.4f, min %.3f)

Logging:
  Console Level: %s
  Report: %v (%s -> %s)`,
		c.Simulation.Name,
		c.Simulation.Description,
		c.Simulation.Episodes,
		c.Simulation.Seed,
		c.Simulation.MaxStepsPerEpisode,
		c.World.Width, c.World.Height,
		c.World.TickRate,
		c.World.GoalRadius,
		c.Swarm.Size,
		c.Swarm.FormationRadius,
		c.Swarm.GapDegrees,
		c.Swarm.RotationStepDegrees,
		c.Sensor.BeamCount, c.Sensor.SpacingDegrees, c.Sensor.StartAngleDegrees,
		c.Sensor.Range,
		c.Fuzzy.RotationMethod,
		c.Fuzzy.TranslationMethod,
		c.Policy.Type,
		c.Policy.Epsilon, c.Policy.EpsilonDecay, c.Policy.EpsilonMin,
		c.Logging.ConsoleLevel,
		c.Logging.EnableReport, c.Logging.ReportFormat, c.Logging.ReportOutputPath,
	)
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *SimulationConfig {
	return &SimulationConfig{
		Simulation: SimulationSettings{
			Name:               "foraging",
			Description:        "Fuzzy-controlled robot swarm carrying an object to its home base",
			Episodes:           10,
			Seed:               1,
			MaxStepsPerEpisode: 500,
			MaxTicksPerAction:  2000,
		},
		World: WorldConfig{
			Width:      500,
			Height:     500,
			TickRate:   50,
			ObjectSide: 20,
			GoalRadius: 30,
		},
		Swarm: SwarmConfig{
			Size:                3,
			FormationRadius:     20,
			GapDegrees:          72,
			RotationStepDegrees: 15,
			NearObject:          40,
		},
		Robot: RobotConfig{
			Radius:           10,
			MaxSpeed:         10,
			ArrivalThreshold: 0.25,
			TurnRateDegrees:  60,
			TurnTolerance:    0.1,
		},
		Sensor: SensorConfig{
			BeamCount:         32,
			StartAngleDegrees: -90,
			SpacingDegrees:    6,
			Range:             400,
			Steps:             100,
			DistanceSigma:     0.5,
			AngleSigma:        0.01,
		},
		Fuzzy: FuzzyConfig{
			RotationMethod:    "wavg",
			TranslationMethod: "cog",
			DistanceRange:     800,
		},
		Reward: RewardConfig{
			Delivery:    100,
			Approach:    1,
			Transport:   5,
			Penalty:     -1,
			MinProgress: 0.1,
		},
		Policy: PolicyConfig{
			Type:                    "epsilon_greedy",
			Epsilon:                 0.5,
			EpsilonDecay:            0.999,
			EpsilonMin:              0.01,
			BearingThresholdDegrees: 10,
		},
		Logging: LoggingConfig{
			ConsoleLevel:     "info",
			Verbose:          false,
			EnableReport:     true,
			ReportFormat:     "json",
			ReportOutputPath: "./reports",
		},
	}
}

// EnvironmentConfig converts the file layout into the environment's config
func (c *SimulationConfig) EnvironmentConfig() (env.Config, error) {
	rotation, err := fuzzy.ParseMethod(c.Fuzzy.RotationMethod)
	if err != nil {
		return env.Config{}, fmt.Errorf("rotation method: %w", err)
	}
	translation, err := fuzzy.ParseMethod(c.Fuzzy.TranslationMethod)
	if err != nil {
		return env.Config{}, fmt.Errorf("translation method: %w", err)
	}

	return env.Config{
		SwarmSize:          c.Swarm.Size,
		RobotRadius:        c.Robot.Radius,
		NearObject:         c.Swarm.NearObject,
		MaxTicksPerAction:  c.Simulation.MaxTicksPerAction,
		MaxStepsPerEpisode: c.Simulation.MaxStepsPerEpisode,
		Seed:               c.Simulation.Seed,
		World: world.Config{
			Width:      c.World.Width,
			Height:     c.World.Height,
			TickRate:   c.World.TickRate,
			ObjectSide: c.World.ObjectSide,
			GoalRadius: c.World.GoalRadius,
		},
		Sensor: core.SensorConfig{
			BeamCount:     c.Sensor.BeamCount,
			StartAngle:    radians(c.Sensor.StartAngleDegrees),
			AngleSpacing:  radians(c.Sensor.SpacingDegrees),
			RangeMax:      c.Sensor.Range,
			Steps:         c.Sensor.Steps,
			BodyRadius:    c.Robot.Radius,
			DistanceSigma: c.Sensor.DistanceSigma,
			AngleSigma:    c.Sensor.AngleSigma,
		},
		FLC: core.FLCConfig{
			PerceptionRange:   c.Sensor.Range,
			DistanceRange:     c.Fuzzy.DistanceRange,
			RotationMethod:    rotation,
			TranslationMethod: translation,
		},
		Motion: controllers.MotionConfig{
			MaxSpeed:         c.Robot.MaxSpeed,
			ArrivalThreshold: c.Robot.ArrivalThreshold,
			TurnRate:         radians(c.Robot.TurnRateDegrees),
			TurnTolerance:    c.Robot.TurnTolerance,
			TickRate:         c.World.TickRate,
		},
		Formation: controllers.FormationConfig{
			Radius:           c.Swarm.FormationRadius,
			Gap:              radians(c.Swarm.GapDegrees),
			RotationStep:     radians(c.Swarm.RotationStepDegrees),
			TranslationScale: 1 / c.World.TickRate,
		},
		Reward: env.RewardConfig{
			Delivery:    c.Reward.Delivery,
			Approach:    c.Reward.Approach,
			Transport:   c.Reward.Transport,
			Penalty:     c.Reward.Penalty,
			MinProgress: c.Reward.MinProgress,
		},
	}, nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func oneOf(s string, valid []string) bool {
	for _, v := range valid {
		if s == v {
			return true
		}
	}
	return false
}
