package simulation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/picogrid/swarm-foraging/cmd/foraging/config"
	"github.com/picogrid/swarm-foraging/cmd/foraging/env"
	"github.com/picogrid/swarm-foraging/cmd/foraging/reporting"
	"github.com/picogrid/swarm-foraging/pkg/geom"
	"github.com/picogrid/swarm-foraging/pkg/logger"
	"github.com/picogrid/swarm-foraging/pkg/simulation"
)

// SimulationName is the registry key and the descriptor name
const SimulationName = "Swarm Foraging"

var errStopped = errors.New("simulation stopped")

// ForagingSimulation runs episodes of the foraging environment under a policy
// and reports per-episode statistics
type ForagingSimulation struct {
	config *config.SimulationConfig
	layout *env.Layout

	environment *env.Environment
	policy      Policy

	simLogger *reporting.SimulationLogger
	report    *reporting.EpisodeReport
	runID     uuid.UUID

	mu       sync.RWMutex
	stopChan chan struct{}
}

// NewForagingSimulation creates a new instance of the foraging simulation
func NewForagingSimulation() simulation.Simulation {
	return &ForagingSimulation{
		stopChan: make(chan struct{}),
	}
}

// Name returns the simulation name
func (s *ForagingSimulation) Name() string {
	return SimulationName
}

// Description returns the simulation description
func (s *ForagingSimulation) Description() string {
	return "Fuzzy-controlled robot swarm that finds an object and pushes it to its home base"
}

// Configure loads the YAML config named by "config_path" (or the default
// locations) and applies the remaining parameters as overrides. Setting all of
// object_x, object_y, home_x and home_y pins the layout of every episode.
func (s *ForagingSimulation) Configure(params map[string]interface{}) error {
	logger.Info("Configuring foraging simulation...")

	path, _ := params["config_path"].(string)
	overrides := make(map[string]interface{}, len(params))
	for k, v := range params {
		if k != "config_path" {
			overrides[k] = v
		}
	}

	cfg, err := config.LoadConfigWithOverrides(path, overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Logging.ConsoleLevel != "" {
		logger.SetLevel(logger.ParseLevel(cfg.Logging.ConsoleLevel))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.layout = layoutFromParams(params, cfg)

	logger.Debugf("%s", cfg)
	return nil
}

// Run executes the configured number of episodes. A cancelled context or Stop
// ends the run after the current step; finished episodes are still reported.
func (s *ForagingSimulation) Run(ctx context.Context) error {
	if s.config == nil {
		if err := s.Configure(map[string]interface{}{}); err != nil {
			return err
		}
	}
	logger.Infof("Starting %s simulation", s.Name())

	if err := s.initialize(); err != nil {
		return fmt.Errorf("failed to initialize simulation: %w", err)
	}

	episodes := s.config.Simulation.Episodes
	var bar *logger.ProgressBar
	if !s.config.Logging.Verbose {
		bar = logger.NewProgressBar(episodes, "Episodes")
	}

	var runErr error
	for ep := 1; ep <= episodes; ep++ {
		stats, err := s.runEpisode(ctx, ep)
		if err != nil {
			if !errors.Is(err, errStopped) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				s.simLogger.LogError("episode failed", err, map[string]interface{}{"episode": ep})
				return fmt.Errorf("episode %d: %w", ep, err)
			}
			if ctx.Err() != nil {
				runErr = ctx.Err()
			}
			logger.Warnf("Simulation stopped during episode %d", ep)
			break
		}

		s.mu.Lock()
		s.report.Add(stats)
		s.mu.Unlock()

		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	s.simLogger.PrintSummary()
	s.printResults()

	if s.config.Logging.EnableReport {
		if _, err := s.report.Save(reporting.ReportConfig{
			OutputDir: s.config.Logging.ReportOutputPath,
			Format:    s.config.Logging.ReportFormat,
		}); err != nil {
			logger.Errorf("Failed to save episode report: %v", err)
		}
	}

	return runErr
}

// Stop gracefully shuts down the simulation
func (s *ForagingSimulation) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.stopChan:
		// Already closed
	default:
		close(s.stopChan)
	}
	return nil
}

// Report returns the statistics gathered so far
func (s *ForagingSimulation) Report() *reporting.EpisodeReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Events returns the event log of the current run
func (s *ForagingSimulation) Events() *reporting.SimulationLogger {
	return s.simLogger
}

func (s *ForagingSimulation) initialize() error {
	envCfg, err := s.config.EnvironmentConfig()
	if err != nil {
		return err
	}
	envCfg.Layout = s.layout

	environment, err := env.New(envCfg)
	if err != nil {
		return err
	}

	policy, err := NewPolicy(s.config.Policy, s.config.Swarm.NearObject, environment.Rand())
	if err != nil {
		return err
	}

	s.runID = uuid.New()
	s.environment = environment
	s.policy = policy
	s.simLogger = reporting.NewSimulationLogger(s.runID.String(), s.config.Logging.Verbose)
	environment.SetEventSink(s.simLogger)

	report := reporting.NewEpisodeReport(s.runID.String(), s.config.Simulation.Seed, policy.Name())
	report.Config = map[string]interface{}{
		"swarm_size":         s.config.Swarm.Size,
		"episodes":           s.config.Simulation.Episodes,
		"max_steps":          s.config.Simulation.MaxStepsPerEpisode,
		"rotation_method":    s.config.Fuzzy.RotationMethod,
		"translation_method": s.config.Fuzzy.TranslationMethod,
	}

	s.mu.Lock()
	s.report = report
	s.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"run":    s.runID.String()[:8],
		"robots": s.config.Swarm.Size,
		"policy": policy.Name(),
	}).Info("Simulation initialized")
	return nil
}

func (s *ForagingSimulation) runEpisode(ctx context.Context, episode int) (reporting.EpisodeStats, error) {
	stats := reporting.EpisodeStats{Episode: episode, Epsilon: s.policy.Epsilon()}

	obs := s.environment.Reset()
	s.simLogger.LogEpisodeStart(episode, stats.Epsilon)

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-s.stopChan:
			return stats, errStopped
		default:
		}

		res, err := s.environment.Step(s.policy.Act(obs))
		if err != nil {
			return stats, err
		}

		obs = res.Observation
		stats.Steps++
		stats.Ticks += res.Ticks
		stats.Reward += res.Reward

		if res.Done {
			stats.Outcome = string(res.Outcome)
			break
		}
	}

	s.policy.EndEpisode()
	s.simLogger.LogEpisodeEnd(episode, stats.Steps, stats.Reward, stats.Outcome)
	return stats, nil
}

func (s *ForagingSimulation) printResults() {
	r := s.Report()
	if r == nil || len(r.Episodes) == 0 {
		return
	}

	logger.LogSection("Episode Results")
	table := logger.NewTable("Episode", "Outcome", "Steps", "Ticks", "Reward", "Epsilon")
	for _, e := range r.Episodes {
		table.AddRow(
			strconv.Itoa(e.Episode),
			e.Outcome,
			strconv.Itoa(e.Steps),
			strconv.Itoa(e.Ticks),
			fmt.Sprintf("%.1f", e.Reward),
			fmt.Sprintf("%.3f", e.Epsilon),
		)
	}
	table.Print()
	logger.LogKeyValue("Success rate", fmt.Sprintf("%.1f%%", r.SuccessRate()*100))
}

// layoutFromParams returns a fixed layout when every coordinate is given. The
// swarm starts at the board center facing the object.
func layoutFromParams(params map[string]interface{}, cfg *config.SimulationConfig) *env.Layout {
	keys := []string{"object_x", "object_y", "home_x", "home_y"}
	v := make([]float64, len(keys))
	for i, k := range keys {
		f, ok := paramFloat(params[k])
		if !ok {
			return nil
		}
		v[i] = f
	}

	start := geom.Vec2{X: cfg.World.Width / 2, Y: cfg.World.Height / 2}
	object := geom.Vec2{X: v[0], Y: v[1]}
	return &env.Layout{
		Object:  object,
		Home:    geom.Vec2{X: v[2], Y: v[3]},
		Start:   start,
		Heading: object.Sub(start).Angle(),
	}
}

func paramFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func init() {
	err := simulation.DefaultRegistry.Register(SimulationName, NewForagingSimulation)
	if err != nil {
		logger.Errorf("Failed to register foraging simulation: %v", err)
		return
	}
}
