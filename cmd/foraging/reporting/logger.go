package reporting

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/picogrid/swarm-foraging/pkg/logger"
)

// SimulationLogger records typed simulation events and metrics and echoes the
// notable ones to the console
type SimulationLogger struct {
	simulationID string
	startTime    time.Time
	episode      int
	events       []SimulationEvent
	metrics      map[string]Metric
	out          io.Writer
	verbose      bool
	mu           sync.RWMutex
}

// SimulationEvent represents a logged simulation event
type SimulationEvent struct {
	Timestamp time.Time
	Type      string
	Severity  string
	Episode   int
	Message   string
	Details   map[string]interface{}
}

// Metric represents a tracked metric
type Metric struct {
	Name        string
	Value       float64
	Unit        string
	LastUpdated time.Time
	History     []MetricPoint
}

// MetricPoint represents a metric value at a point in time
type MetricPoint struct {
	Timestamp time.Time
	Value     float64
}

// EventType constants
const (
	EventTypeEpisodeStart = "episode_start"
	EventTypeEpisodeEnd   = "episode_end"
	EventTypeCommand      = "command"
	EventTypeTransition   = "transition"
	EventTypeDelivery     = "delivery"
	EventTypeBoundary     = "boundary"
	EventTypeSystem       = "system"
)

// Severity constants
const (
	SeverityDebug   = "debug"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

var (
	colorDebug   = color.New(color.FgHiBlack)
	colorInfo    = color.New(color.FgCyan)
	colorWarning = color.New(color.FgYellow)
	colorError   = color.New(color.FgRed)
	colorSuccess = color.New(color.FgGreen)
)

const (
	maxEvents         = 10000
	maxMetricsHistory = 1000
)

// NewSimulationLogger creates a logger writing to stdout. verbose also echoes
// commands and state transitions.
func NewSimulationLogger(simulationID string, verbose bool) *SimulationLogger {
	return NewSimulationLoggerTo(simulationID, verbose, os.Stdout)
}

// NewSimulationLoggerTo creates a logger writing to out
func NewSimulationLoggerTo(simulationID string, verbose bool, out io.Writer) *SimulationLogger {
	sl := &SimulationLogger{
		simulationID: simulationID,
		startTime:    time.Now(),
		events:       make([]SimulationEvent, 0),
		metrics:      make(map[string]Metric),
		out:          out,
		verbose:      verbose,
	}

	sl.print(SeverityInfo, "Simulation Started",
		fmt.Sprintf("ID: %s | Time: %s", shortID(simulationID), sl.startTime.Format("15:04:05")))
	return sl
}

func (sl *SimulationLogger) SimulationID() string { return sl.simulationID }

// LogEpisodeStart marks the beginning of an episode
func (sl *SimulationLogger) LogEpisodeStart(episode int, epsilon float64) {
	sl.mu.Lock()
	sl.episode = episode
	sl.mu.Unlock()

	sl.logEvent(SimulationEvent{
		Type:     EventTypeEpisodeStart,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("Episode %d started", episode),
		Details:  map[string]interface{}{"epsilon": epsilon},
	})
	if sl.verbose {
		sl.print(SeverityInfo, "Episode", fmt.Sprintf("#%d | epsilon %.3f", episode, epsilon))
	}
}

// LogEpisodeEnd records the episode result and its reward metrics
func (sl *SimulationLogger) LogEpisodeEnd(episode, steps int, reward float64, outcome string) {
	severity := SeverityInfo
	switch outcome {
	case "out_of_bounds":
		severity = SeverityWarning
	case "timeout":
		severity = SeverityDebug
	}

	sl.logEvent(SimulationEvent{
		Type:     EventTypeEpisodeEnd,
		Severity: severity,
		Message:  fmt.Sprintf("Episode %d ended: %s", episode, outcome),
		Details: map[string]interface{}{
			"steps":   steps,
			"reward":  reward,
			"outcome": outcome,
		},
	})

	sl.UpdateMetric("episode_reward", reward, "pts")
	sl.UpdateMetric("episode_steps", float64(steps), "steps")

	switch outcome {
	case "delivered":
		sl.logEvent(SimulationEvent{Type: EventTypeDelivery, Severity: SeverityInfo, Message: "Object delivered"})
	case "out_of_bounds":
		sl.logEvent(SimulationEvent{Type: EventTypeBoundary, Severity: SeverityWarning, Message: "Swarm left the arena"})
	}

	if sl.verbose {
		sl.print(severity, "Episode End",
			fmt.Sprintf("#%d | %s | steps %d | reward %.1f", episode, outcome, steps, reward))
	}
}

// LogCommand records a coordinator command
func (sl *SimulationLogger) LogCommand(command string, accepted bool, reason string) {
	severity := SeverityDebug
	msg := fmt.Sprintf("Command %s accepted", command)
	if !accepted {
		severity = SeverityWarning
		msg = fmt.Sprintf("Command %s rejected: %s", command, reason)
	}

	sl.logEvent(SimulationEvent{
		Type:     EventTypeCommand,
		Severity: severity,
		Message:  msg,
		Details:  map[string]interface{}{"command": command, "accepted": accepted},
	})
	if sl.verbose || !accepted {
		sl.print(severity, "Command", msg)
	}
}

// LogTransition records a coordinator state change
func (sl *SimulationLogger) LogTransition(from, to string) {
	sl.logEvent(SimulationEvent{
		Type:     EventTypeTransition,
		Severity: SeverityDebug,
		Message:  fmt.Sprintf("%s -> %s", from, to),
		Details:  map[string]interface{}{"from": from, "to": to},
	})
	if sl.verbose {
		sl.print(SeverityDebug, "Transition", fmt.Sprintf("%s -> %s", from, to))
	}
}

// LogError logs an error event
func (sl *SimulationLogger) LogError(message string, err error, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["error"] = err.Error()

	sl.logEvent(SimulationEvent{
		Type:     EventTypeSystem,
		Severity: SeverityError,
		Message:  message,
		Details:  details,
	})

	logger.Errorf("%s: %v", message, err)
}

// UpdateMetric updates a metric value
func (sl *SimulationLogger) UpdateMetric(name string, value float64, unit string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	metric, exists := sl.metrics[name]
	if !exists {
		metric = Metric{
			Name:    name,
			Unit:    unit,
			History: make([]MetricPoint, 0),
		}
	}

	now := time.Now()
	metric.Value = value
	metric.LastUpdated = now
	metric.History = append(metric.History, MetricPoint{Timestamp: now, Value: value})
	if len(metric.History) > maxMetricsHistory {
		metric.History = metric.History[len(metric.History)-maxMetricsHistory:]
	}

	sl.metrics[name] = metric
}

// GetEvents returns all logged events
func (sl *SimulationLogger) GetEvents() []SimulationEvent {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	events := make([]SimulationEvent, len(sl.events))
	copy(events, sl.events)
	return events
}

// GetMetrics returns current metrics
func (sl *SimulationLogger) GetMetrics() map[string]Metric {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	metrics := make(map[string]Metric, len(sl.metrics))
	for k, v := range sl.metrics {
		metrics[k] = v
	}
	return metrics
}

// SimulationSummary represents a summary of the simulation
type SimulationSummary struct {
	SimulationID string
	StartTime    time.Time
	Duration     time.Duration
	TotalEvents  int
	Episodes     int
	EventCounts  map[string]int
	Outcomes     map[string]int
	Metrics      map[string]Metric
}

// GetSummary returns a simulation summary
func (sl *SimulationLogger) GetSummary() SimulationSummary {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	eventCounts := make(map[string]int)
	outcomes := make(map[string]int)
	for _, event := range sl.events {
		eventCounts[event.Type]++
		if event.Type == EventTypeEpisodeEnd {
			if o, ok := event.Details["outcome"].(string); ok {
				outcomes[o]++
			}
		}
	}

	metrics := make(map[string]Metric, len(sl.metrics))
	for k, v := range sl.metrics {
		metrics[k] = v
	}

	return SimulationSummary{
		SimulationID: sl.simulationID,
		StartTime:    sl.startTime,
		Duration:     time.Since(sl.startTime),
		TotalEvents:  len(sl.events),
		Episodes:     eventCounts[EventTypeEpisodeEnd],
		EventCounts:  eventCounts,
		Outcomes:     outcomes,
		Metrics:      metrics,
	}
}

// PrintSummary prints a formatted summary
func (sl *SimulationLogger) PrintSummary() {
	summary := sl.GetSummary()
	line := "══════════════════════════════════════════════════════"

	colorSuccess.Fprintln(sl.out, "\n"+line)
	colorSuccess.Fprintf(sl.out, "  SIMULATION SUMMARY - %s\n", shortID(summary.SimulationID))
	colorSuccess.Fprintln(sl.out, line)

	fmt.Fprintf(sl.out, "\nDuration: %v | Episodes: %d | Events: %d\n",
		summary.Duration.Round(time.Millisecond), summary.Episodes, summary.TotalEvents)

	fmt.Fprintln(sl.out, "\nOutcomes:")
	for _, k := range sortedKeys(summary.Outcomes) {
		fmt.Fprintf(sl.out, "   %-20s: %d\n", k, summary.Outcomes[k])
	}

	fmt.Fprintln(sl.out, "\nEvent Distribution:")
	for _, k := range sortedKeys(summary.EventCounts) {
		fmt.Fprintf(sl.out, "   %-20s: %d\n", k, summary.EventCounts[k])
	}

	if len(summary.Metrics) > 0 {
		fmt.Fprintln(sl.out, "\nLast Metrics:")
		names := make([]string, 0, len(summary.Metrics))
		for name := range summary.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m := summary.Metrics[name]
			fmt.Fprintf(sl.out, "   %-20s: %.2f %s\n", name, m.Value, m.Unit)
		}
	}

	colorSuccess.Fprintln(sl.out, "\n"+line)
}

// logEvent adds an event to the log
func (sl *SimulationLogger) logEvent(event SimulationEvent) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Episode = sl.episode
	sl.events = append(sl.events, event)

	if len(sl.events) > maxEvents {
		sl.events = sl.events[len(sl.events)-maxEvents:]
	}
}

// print writes one colored console line
func (sl *SimulationLogger) print(severity, eventType, message string) {
	var severityColor *color.Color
	switch severity {
	case SeverityDebug:
		severityColor = colorDebug
	case SeverityWarning:
		severityColor = colorWarning
	case SeverityError:
		severityColor = colorError
	default:
		severityColor = colorInfo
	}

	fmt.Fprintf(sl.out, "[%s] %s %s | %s\n",
		time.Now().Format("15:04:05.000"),
		severityColor.Sprintf("%-8s", severity),
		eventType,
		message)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
