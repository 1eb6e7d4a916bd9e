package atlas

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-atlas/internal/config"
	"github.com/teslashibe/go-atlas/pkg/mission"
	"github.com/teslashibe/go-atlas/pkg/planner"
	"github.com/teslashibe/go-atlas/pkg/tracking/detection"
)

func simConfig() *config.Config {
	cfg := config.Default()
	cfg.Camera.Device = -1
	cfg.Robot.Driver = config.RobotDriverSim
	cfg.Robot.SimulateMotion = false
	cfg.Robot.SafeDistance = 0
	cfg.Planner.Provider = config.PlannerKeyword
	cfg.Mission.TickInterval = 0
	cfg.Search.Mode = config.SearchModeWaypoint
	cfg.Search.AreaWidth = 1
	cfg.Search.AreaHeight = 0
	cfg.Search.Step = 1
	cfg.Servo.SettleDelay = 0
	return cfg
}

func TestApp_WaypointSearchNotFoundThenQuit(t *testing.T) {
	var out bytes.Buffer
	stdin := strings.NewReader("fetch the red ball\n")

	app, err := New(simConfig(), Options{Stdin: stdin, Stdout: &out}, nil)
	require.NoError(t, err)
	require.NoError(t, app.Init(context.Background()))

	var states []mission.State
	app.Machine().Subscribe(mission.ObserverFunc(func(e mission.Event) {
		if e.Kind == mission.EventTransition {
			states = append(states, e.To)
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, app.Run(ctx))
	app.Shutdown()

	assert.Equal(t, []mission.State{mission.Planning, mission.Searching, mission.Idle}, states)
	text := out.String()
	assert.Contains(t, text, "SIMULATION MODE")
	assert.Contains(t, text, "🤖 ATLAS: I couldn't find the red ball.")
	assert.Contains(t, text, "🤖 ATLAS: Shutting down. Goodbye!")
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := simConfig()
	cfg.Search.Step = 0
	_, err := New(cfg, Options{}, nil)
	assert.Error(t, err)
}

func TestBuildPlanner(t *testing.T) {
	ctx := context.Background()

	p, err := BuildPlanner(ctx, config.PlannerConfig{Provider: config.PlannerKeyword}, nil)
	require.NoError(t, err)
	assert.Equal(t, "keyword", p.Name())

	p, err = BuildPlanner(ctx, config.PlannerConfig{Provider: config.PlannerGemini, Fallback: true}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "keyword", p.Name(), "missing API key falls back")

	_, err = BuildPlanner(ctx, config.PlannerConfig{Provider: config.PlannerGemini}, testLogger())
	assert.True(t, errors.Is(err, planner.ErrNoAPIKey), "err = %v", err)
}

func TestColorRanges(t *testing.T) {
	assert.Nil(t, colorRanges(nil))

	got := colorRanges(map[string][]config.ColorBand{
		"brown": {
			{Lower: []float64{5, 100, 50}, Upper: []float64{25, 255, 200}},
			{Lower: []float64{170, 100, 50}, Upper: []float64{180, 255, 200}},
		},
	})
	assert.Equal(t, map[string][]detection.HSVRange{
		"brown": {
			{Lower: [3]float64{5, 100, 50}, Upper: [3]float64{25, 255, 200}},
			{Lower: [3]float64{170, 100, 50}, Upper: [3]float64{180, 255, 200}},
		},
	}, got)
}
