package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/picogrid/swarm-foraging/pkg/logger"
)

// EpisodeStats is one finished episode
type EpisodeStats struct {
	Episode int     `json:"episode"`
	Reward  float64 `json:"reward"`
	Steps   int     `json:"steps"`
	Ticks   int     `json:"ticks"`
	Outcome string  `json:"outcome"`
	Epsilon float64 `json:"epsilon"`
}

// EpisodeReport is the per-run statistics file. The two series keep the key
// names earlier runs were saved with.
type EpisodeReport struct {
	RunID          string                 `json:"run_id"`
	GeneratedAt    time.Time              `json:"generated_at"`
	Seed           uint64                 `json:"seed"`
	Policy         string                 `json:"policy"`
	EpisodeReward  []float64              `json:"episode_reward"`
	NbEpisodeSteps []int                  `json:"nb_episode_steps"`
	Episodes       []EpisodeStats         `json:"episodes"`
	Outcomes       map[string]int         `json:"outcomes"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

// ReportConfig configures report output
type ReportConfig struct {
	OutputDir string
	Format    string // "json" or "markdown"
}

// NewEpisodeReport starts an empty report
func NewEpisodeReport(runID string, seed uint64, policy string) *EpisodeReport {
	return &EpisodeReport{
		RunID:          runID,
		Seed:           seed,
		Policy:         policy,
		EpisodeReward:  []float64{},
		NbEpisodeSteps: []int{},
		Outcomes:       make(map[string]int),
	}
}

// Add appends one episode to every series
func (r *EpisodeReport) Add(s EpisodeStats) {
	r.Episodes = append(r.Episodes, s)
	r.EpisodeReward = append(r.EpisodeReward, s.Reward)
	r.NbEpisodeSteps = append(r.NbEpisodeSteps, s.Steps)
	r.Outcomes[s.Outcome]++
}

// AverageRewards is the per-step mean reward of every episode. Episodes with no
// steps average to zero.
func (r *EpisodeReport) AverageRewards() []float64 {
	out := make([]float64, len(r.EpisodeReward))
	for i, reward := range r.EpisodeReward {
		if i < len(r.NbEpisodeSteps) && r.NbEpisodeSteps[i] > 0 {
			out[i] = reward / float64(r.NbEpisodeSteps[i])
		}
	}
	return out
}

// SuccessRate is the fraction of delivered episodes
func (r *EpisodeReport) SuccessRate() float64 {
	if len(r.Episodes) == 0 {
		return 0
	}
	return float64(r.Outcomes["delivered"]) / float64(len(r.Episodes))
}

// Save writes the report into cfg.OutputDir and returns the file path
func (r *EpisodeReport) Save(cfg ReportConfig) (string, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	r.GeneratedAt = time.Now()

	base := fmt.Sprintf("episodes_%s_%s", shortID(r.RunID), r.GeneratedAt.Format("20060102_150405"))

	var (
		path string
		data []byte
		err  error
	)
	switch cfg.Format {
	case "json", "":
		path = filepath.Join(cfg.OutputDir, base+".json")
		data, err = json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal report: %w", err)
		}
	case "markdown", "md":
		path = filepath.Join(cfg.OutputDir, base+".md")
		data = []byte(r.Markdown())
	default:
		return "", fmt.Errorf("unsupported format: %s", cfg.Format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	logger.Successf("Episode report saved to: %s", path)
	return path, nil
}

// Markdown renders the report as a Markdown document
func (r *EpisodeReport) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Foraging Episode Report\n\n")
	sb.WriteString(fmt.Sprintf("**Run ID:** %s\n", r.RunID))
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Seed:** %d\n", r.Seed))
	sb.WriteString(fmt.Sprintf("**Policy:** %s\n\n", r.Policy))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Episodes:** %d\n", len(r.Episodes)))
	sb.WriteString(fmt.Sprintf("- **Success rate:** %.1f%%\n\n", r.SuccessRate()*100))

	sb.WriteString("## Episodes\n\n")
	sb.WriteString("| Episode | Outcome | Steps | Reward | Avg reward/step |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	avg := r.AverageRewards()
	for i, e := range r.Episodes {
		sb.WriteString(fmt.Sprintf("| %d | %s | %d | %.1f | %.3f |\n", e.Episode, e.Outcome, e.Steps, e.Reward, avg[i]))
	}
	return sb.String()
}

// LoadEpisodeReport reads a JSON report written by Save
func LoadEpisodeReport(path string) (*EpisodeReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r EpisodeReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if len(r.EpisodeReward) != len(r.NbEpisodeSteps) {
		return nil, fmt.Errorf("report %s: %d rewards but %d step counts",
			path, len(r.EpisodeReward), len(r.NbEpisodeSteps))
	}
	if r.Outcomes == nil {
		r.Outcomes = make(map[string]int)
	}
	return &r, nil
}
