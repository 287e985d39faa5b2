package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/logging"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const doorDefinition = `
name: door
initial: closed
events: {open: 1, close: 2}
states:
  - {name: closed, id: 1}
  - {name: opened, id: 2}
transitions:
  - {from: closed, event: open, to: opened}
  - {from: opened, event: close, to: closed}
  - {from: closed, event: open, to: closed}
`

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "swarm-fsm version dev\n", out)
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `digraph "patrol" {`))
	assert.Contains(t, out, `"idle" -> "walk" [label="waited"];`)

	out, err = execute(t, "graph", writeFile(t, "door.yaml", doorDefinition))
	require.NoError(t, err)
	assert.Contains(t, out, `"closed" -> "closed" [label="open", style=dashed];`)

	_, err = execute(t, "graph", "nosuchdomain")
	assert.ErrorContains(t, err, "neither a definition file nor a registered domain")
}

func TestValidateCommand(t *testing.T) {
	path := writeFile(t, "door.yaml", doorDefinition)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: transition closed --open--> closed is unreachable")
	assert.Contains(t, out, "door: 2 states, 2 events, 3 transitions: ok")

	// Door state IDs happen to match the patrol domain
	_, err = execute(t, "validate", "--domain", "patrol", path)
	assert.NoError(t, err)

	bad := writeFile(t, "bad.yaml", "name: x\ninitial: a\nstates: [{name: a, id: 9}]\n")
	_, err = execute(t, "validate", "--domain", "patrol", bad)
	assert.ErrorContains(t, err, "missing preparation action")

	_, err = execute(t, "validate", "--domain", "nosuchdomain", path)
	assert.ErrorContains(t, err, "unknown domain")

	_, err = execute(t, "validate")
	assert.Error(t, err)
}

func TestRunCommand_Ticks(t *testing.T) {
	_, err := execute(t, "run", "--ticks", "30", "--agents", "16", "--workers", "4", "--batch-size", "3", "--log-level", "error")
	assert.NoError(t, err)

	_, err = execute(t, "run", "--ticks", "-1", "--log-level", "error")
	assert.ErrorContains(t, err, "ticks must be >= 0")

	_, err = execute(t, "run", "--ticks", "1", "--log-level", "loud")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "sandbox.yaml", `
agents: 12
ticks: 40
spacing: 3
engine:
  tick_interval: 20ms
  workers: 2
patrol:
  wait_duration: 100ms
  move_duration: 1s
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Agents)
	assert.Equal(t, 40, cfg.Ticks)
	assert.Equal(t, 3, cfg.Spacing)
	assert.Equal(t, DefaultConfig().Waypoints, cfg.Waypoints, "unset keys keep defaults")
	assert.Equal(t, 20*time.Millisecond, cfg.Engine.TickInterval)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, 100*time.Millisecond, cfg.Patrol.WaitDuration)
	assert.Equal(t, time.Second, cfg.Patrol.MoveDuration)

	_, err = LoadConfig(writeFile(t, "typo.yaml", "agentz: 3\n"))
	assert.ErrorContains(t, err, "agentz")

	_, err = LoadConfig(writeFile(t, "neg.yaml", "spacing: 0\n"))
	assert.ErrorContains(t, err, "spacing")
}

func TestRunCommand_ConfigWithOverrides(t *testing.T) {
	path := writeFile(t, "sandbox.yaml", "agents: 4\nticks: 10\nlog_level: error\n")
	_, err := execute(t, "run", "--config", path, "--ticks", "5")
	assert.NoError(t, err)
}

func newTestSimulation(t *testing.T, agents int, reg prometheus.Registerer) *Simulation {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Agents = agents
	cfg.Engine = engine.Config{TickInterval: 50 * time.Millisecond, Workers: 4, BatchSize: 8}
	sim, err := NewSimulation(cfg, logging.NewNop(), reg)
	require.NoError(t, err)
	return sim
}

func TestSimulation_Status(t *testing.T) {
	sim := newTestSimulation(t, 25, nil)
	require.Len(t, sim.Agents, 25)
	assert.Equal(t, []string{"idle", "walk"}, sim.StateNames())

	st := sim.Status()
	assert.Equal(t, map[string]int{"inactive": 25}, st.States)
	assert.Equal(t, uint64(0), st.Tick)

	engine.RunTicks(sim.World, 1, 50*time.Millisecond)
	st = sim.Status()
	assert.Equal(t, uint64(1), st.Tick)
	assert.Equal(t, map[string]int{"idle": 25}, st.States)
	assert.Equal(t, 0, st.Pending)

	// Default wait is ten ticks, then every agent walks
	engine.RunTicks(sim.World, 11, 50*time.Millisecond)
	assert.Equal(t, map[string]int{"walk": 25}, sim.Status().States)

	views := sim.Snapshot()
	require.Len(t, views, 25)
	for i, v := range views {
		assert.Equal(t, sim.Agents[i], v.Agent)
		assert.Equal(t, "walk", v.State)
	}
}

func TestSimulation_CustomDefinition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agents = 2
	cfg.Definition = writeFile(t, "door.yaml", doorDefinition)
	sim, err := NewSimulation(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	assert.Equal(t, "door", sim.Def.Name)

	cfg.Definition = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewSimulation(cfg, logging.NewNop(), nil)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	sim := newTestSimulation(t, 9, reg)
	engine.RunTicks(sim.World, 3, 50*time.Millisecond)

	srv := httptest.NewServer(NewHandler(sim, reg))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	code, body = get("/status")
	require.Equal(t, http.StatusOK, code)
	var st Status
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.Equal(t, sim.RunID, st.RunID)
	assert.Equal(t, "patrol", st.Machine)
	assert.Equal(t, uint64(3), st.Tick)
	assert.Equal(t, 9, st.Agents)

	code, body = get("/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "swarm_fsm_ticks_total 3")
	assert.Contains(t, body, `swarm_fsm_preparations_total{domain="patrol"} 9`)

	code, body = get("/graph")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `digraph "patrol"`)

	code, _ = get("/nope")
	assert.Equal(t, http.StatusNotFound, code)
}
