package controllers

import (
	"math"
	"testing"

	"github.com/picogrid/swarm-foraging/cmd/foraging/core"
	"github.com/picogrid/swarm-foraging/cmd/foraging/world"
	"github.com/picogrid/swarm-foraging/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	transitions []string
	rejected    int
	accepted    int
}

func (r *recorder) LogCommand(_ string, accepted bool, _ string) {
	if accepted {
		r.accepted++
	} else {
		r.rejected++
	}
}

func (r *recorder) LogTransition(_, to string) {
	r.transitions = append(r.transitions, to)
}

func newSwarm(t *testing.T, n int, cfg FormationConfig) (*world.World, *SwarmController) {
	t.Helper()

	w := world.New(world.DefaultConfig())
	w.PlaceObject(geom.Vec2{X: 450, Y: 50})
	w.SetHome(geom.Vec2{X: 60, Y: 440})

	flc, err := core.NewRobotFLC(core.DefaultFLCConfig())
	require.NoError(t, err)

	sensorCfg := core.DefaultSensorConfig()
	sensorCfg.DistanceSigma, sensorCfg.AngleSigma = 0, 0

	members := make([]*Robot, n)
	for i := range members {
		body := w.AddRobot(geom.Vec2{}, 0, 10)
		sensor, err := core.NewLaserSensor(sensorCfg, w, nil)
		require.NoError(t, err)
		members[i] = NewRobot(i, body, sensor, flc, w, DefaultMotionConfig())
	}

	return w, NewSwarmController(cfg, members, geom.Vec2{X: 250, Y: 250}, 0)
}

func TestFormationSlotsOnCircle(t *testing.T) {
	cfg := DefaultFormationConfig()
	cfg.Gap = math.Pi
	_, sc := newSwarm(t, 3, cfg)

	slots := sc.Slots()
	require.Len(t, slots, 3)
	for i, s := range slots {
		assert.InDelta(t, cfg.Radius, s.Dist(sc.Center()), 1e-9, "slot %d", i)
		assert.InDelta(t, 0, s.Dist(sc.Members()[i].Position()), 1e-9, "member %d seated", i)
	}

	assert.InDelta(t, math.Pi/2, SlotAngle(0, math.Pi, 0, 3), 1e-12)
	assert.InDelta(t, math.Pi, SlotAngle(0, math.Pi, 1, 3), 1e-12)
	assert.InDelta(t, 3*math.Pi/2, SlotAngle(0, math.Pi, 2, 3), 1e-12)
	assert.InDelta(t, 1.0, SlotAngle(0, 2, 0, 1), 1e-12)
}

func TestCommandRejectedWhileBusy(t *testing.T) {
	_, sc := newSwarm(t, 3, DefaultFormationConfig())
	rec := &recorder{}
	sc.SetEventSink(rec)

	require.NoError(t, sc.Command(Translate))
	require.Equal(t, TranslationInit, sc.State())

	err := sc.Command(Rotate)
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.Equal(t, TranslationInit, sc.State())

	assert.Equal(t, 1, rec.accepted)
	assert.Equal(t, 1, rec.rejected)
}

func TestUnknownCommand(t *testing.T) {
	_, sc := newSwarm(t, 3, DefaultFormationConfig())

	err := sc.Command(Command(5))
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.Equal(t, Idle, sc.State())
}

func TestTranslate(t *testing.T) {
	w, sc := newSwarm(t, 3, DefaultFormationConfig())
	rec := &recorder{}
	sc.SetEventSink(rec)

	before := make([]geom.Vec2, 3)
	for i, m := range sc.Members() {
		before[i] = m.Position()
	}
	center := sc.Center()

	require.NoError(t, sc.Command(Translate))
	vTrans, _ := sc.AverageVotes()
	require.Greater(t, vTrans, 0.0, "the object is far away so the swarm should move")

	assert.Equal(t, TranslationStop, sc.Run())
	w.Step(w.Dt())
	assert.Equal(t, Idle, sc.Run())
	w.Step(w.Dt())

	shift := vTrans * w.Dt()
	assert.InDelta(t, center.X+shift, sc.Center().X, 1e-9)
	assert.InDelta(t, center.Y, sc.Center().Y, 1e-9)
	for i, m := range sc.Members() {
		assert.InDelta(t, before[i].X+shift, m.Position().X, 1e-9)
		assert.InDelta(t, before[i].Y, m.Position().Y, 1e-9)
		assert.Equal(t, geom.Vec2{}, m.Body().Velocity)
	}

	assert.Equal(t, []string{"TRANSLATION_INIT", "TRANSLATION_STOP", "IDLE"}, rec.transitions)
}

func TestRotateConvergesToNewHeading(t *testing.T) {
	w, sc := newSwarm(t, 3, DefaultFormationConfig())
	rec := &recorder{}
	sc.SetEventSink(rec)
	start := sc.Heading()

	require.NoError(t, sc.Command(Rotate))
	require.Equal(t, RotationReposition, sc.State())

	ticks := 0
	for sc.Run() != Idle {
		w.Step(w.Dt())
		ticks++
		require.Less(t, ticks, 5000, "rotation did not converge")

		err := sc.Command(Translate)
		require.ErrorIs(t, err, ErrInvalidCommand)
	}

	assert.Equal(t, []string{"ROTATION_REPOSITION", "ROTATION_ALIGN", "IDLE"}, rec.transitions)
	assert.InDelta(t, DefaultFormationConfig().RotationStep, math.Abs(geom.WrapAngle(sc.Heading()-start)), 1e-9)

	slots := sc.Slots()
	for i, m := range sc.Members() {
		assert.Less(t, math.Abs(geom.WrapAngle(m.Heading()-sc.Heading())), 0.1, "member %d heading", i)
		assert.Less(t, m.Position().Dist(slots[i]), 0.5, "member %d position", i)
		assert.Equal(t, 0.0, m.Body().AngularVelocity)
	}
}

func rotateToIdle(t *testing.T, w *world.World, sc *SwarmController) {
	t.Helper()
	ticks := 0
	for sc.Run() != Idle {
		w.Step(w.Dt())
		ticks++
		require.Less(t, ticks, 5000, "rotation did not converge")
	}
}

func TestRotationFollowsVoteSign(t *testing.T) {
	assert.Equal(t, 1.0, RotationSign(0.3))
	assert.Equal(t, -1.0, RotationSign(-0.3))
	assert.Equal(t, -1.0, RotationSign(0))

	step := DefaultFormationConfig().RotationStep
	tests := []struct {
		name   string
		avgRot float64
		want   float64
	}{
		{"positive vote turns clockwise", 0.4, step},
		{"negative vote turns counter-clockwise", -0.4, -step},
		{"zero vote turns counter-clockwise", 0, -step},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, sc := newSwarm(t, 3, DefaultFormationConfig())
			start := sc.Heading()

			sc.avgRot = tt.avgRot
			sc.startRotation()
			rotateToIdle(t, w, sc)

			assert.InDelta(t, tt.want, geom.WrapAngle(sc.Heading()-start), 1e-9)
		})
	}
}

func TestRotateCommandTurnsBySignedVote(t *testing.T) {
	// object below and above the formation, so at positive and negative bearing
	for _, object := range []geom.Vec2{{X: 250, Y: 450}, {X: 250, Y: 50}} {
		w, sc := newSwarm(t, 3, DefaultFormationConfig())
		w.PlaceObject(object)
		start := sc.Heading()

		require.NoError(t, sc.Command(Rotate))
		_, avgRot := sc.AverageVotes()
		rotateToIdle(t, w, sc)

		want := RotationSign(avgRot) * DefaultFormationConfig().RotationStep
		assert.InDelta(t, want, geom.WrapAngle(sc.Heading()-start), 1e-9, "object at %v", object)
	}
}

func TestResetForcesIdle(t *testing.T) {
	_, sc := newSwarm(t, 3, DefaultFormationConfig())

	require.NoError(t, sc.Command(Rotate))
	sc.Run()
	require.NotEqual(t, Idle, sc.State())

	sc.Reset(geom.Vec2{X: 100, Y: 100}, math.Pi/2)
	assert.Equal(t, Idle, sc.State())
	assert.Equal(t, geom.Vec2{X: 100, Y: 100}, sc.Center())
	for _, m := range sc.Members() {
		assert.InDelta(t, math.Pi/2, m.Heading(), 1e-12)
		assert.InDelta(t, 20, m.Position().Dist(sc.Center()), 1e-9)
	}
	require.NoError(t, sc.Command(Translate))
}

func TestRobotMotionPrimitives(t *testing.T) {
	w := world.New(world.DefaultConfig())
	flc, err := core.NewRobotFLC(core.DefaultFLCConfig())
	require.NoError(t, err)
	sensorCfg := core.DefaultSensorConfig()
	sensorCfg.DistanceSigma, sensorCfg.AngleSigma = 0, 0
	sensor, err := core.NewLaserSensor(sensorCfg, w, nil)
	require.NoError(t, err)

	body := w.AddRobot(geom.Vec2{X: 100, Y: 100}, 0, 10)
	r := NewRobot(0, body, sensor, flc, w, DefaultMotionConfig())

	target := geom.Vec2{X: 100, Y: 110}
	ticks := 0
	for !r.MoveTo(target) {
		w.Step(w.Dt())
		ticks++
		require.Less(t, ticks, 1000)
	}
	assert.Less(t, body.Position.Sub(target).LenSqr(), 0.25)
	assert.Equal(t, geom.Vec2{}, body.Velocity)

	ticks = 0
	for !r.RotateTo(-math.Pi/2, -1) {
		w.Step(w.Dt())
		ticks++
		require.Less(t, ticks, 1000)
	}
	assert.Less(t, math.Abs(geom.WrapAngle(body.Heading+math.Pi/2)), 0.1)

	_, _, err = r.ComputeVelocities(world.TaskMode(9))
	assert.ErrorIs(t, err, ErrUnknownTaskMode)
}

func TestRobotStatus(t *testing.T) {
	w := world.New(world.DefaultConfig())
	w.PlaceObject(geom.Vec2{X: 150, Y: 100})
	flc, err := core.NewRobotFLC(core.DefaultFLCConfig())
	require.NoError(t, err)
	sensorCfg := core.DefaultSensorConfig()
	sensorCfg.DistanceSigma, sensorCfg.AngleSigma = 0, 0
	sensor, err := core.NewLaserSensor(sensorCfg, w, nil)
	require.NoError(t, err)

	body := w.AddRobot(geom.Vec2{X: 100, Y: 100}, 0, 10)
	r := NewRobot(0, body, sensor, flc, w, DefaultMotionConfig())

	st, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, r.ID, st.ID)
	assert.False(t, st.AvoidFired, "no scan yet")

	_, _, err = r.VelocitiesToward(geom.Vec2{X: 400, Y: 100})
	require.NoError(t, err)

	st, err = r.Status()
	require.NoError(t, err)
	assert.Less(t, st.Nearest.Distance, 40.0, "the object is straight ahead")
	assert.Less(t, math.Abs(st.Nearest.Angle), 0.2)
	assert.True(t, st.AvoidFired)
	vt, vr := r.Velocities()
	assert.Equal(t, vt, st.VTrans)
	assert.Equal(t, vr, st.VRot)
}
