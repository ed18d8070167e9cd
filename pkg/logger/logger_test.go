package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(Config{Level: WarnLevel, Writer: &buf, NoColor: true})

	l.Info("hidden")
	l.Warn("shown")
	l.Errorf("code %d", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN  shown")
	assert.Contains(t, out, "ERROR code 7")
}

func TestFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(Config{Level: DebugLevel, Writer: &buf, NoColor: true})

	l.WithFields(map[string]interface{}{"z": 1, "a": 2}).WithField("m", 3).Debug("tick")
	assert.Equal(t, "DEBUG a=2 m=3 z=1 tick\n", buf.String())
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(Config{Level: InfoLevel, Writer: &buf, NoColor: true})

	l.Named("swarm").Named("robot-1").Info("stopped")
	l.WithPrefix("env").Info("reset")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"INFO  [swarm/robot-1] stopped",
		"INFO  [env] reset",
	}, lines)
}

func TestDerivedLoggersShareLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithConfig(Config{Level: InfoLevel, Writer: &buf, NoColor: true})
	child := root.Named("robot")

	root.(*logger).root.level = ErrorLevel
	child.Warn("dropped")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestTableString(t *testing.T) {
	tbl := NewTable("episode", "reward")
	tbl.AddRow("1", "-12.0")
	tbl.AddRow("10", "100.0")

	want := "episode  reward  \n" +
		"-------  ------  \n" +
		"1        -12.0   \n" +
		"10       100.0   \n"
	assert.Equal(t, want, tbl.String())
}
