package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/swarm-fsm/engine"
)

func TestInstall_StageOrder(t *testing.T) {
	w := engine.NewTestWorld()
	require.NoError(t, Install(w,
		NewPrepareSystem[testDomain](w, NewDomain("first")),
		NewPrepareSystem[testDomain](w, NewDomain("second")),
	))
	require.NoError(t, AddActionSystem(w, NewActionSystem[script](w, "test.script", 150, scriptBehavior{})))

	var names []string
	for _, s := range w.Systems() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"fsm.start_state",
		"fsm.consume_event",
		"fsm.reset_event",
		"fsm.prepare.first",
		"fsm.prepare.second",
		"fsm.action_start",
		"test.script",
		"fsm.action_end",
	}, names)
}

func TestInstall_Twice(t *testing.T) {
	w := engine.NewTestWorld()
	require.NoError(t, Install(w))
	assert.ErrorIs(t, Install(w), engine.ErrSystemExists)
}

func TestInstall_RejectsMisplacedPrepare(t *testing.T) {
	w := engine.NewTestWorld()
	wrong := engine.NewSystemFunc("wrong", 5, func(*engine.Tick) {})
	assert.ErrorIs(t, Install(w, wrong), ErrStageOrder)
	assert.Empty(t, w.Systems())
}

func TestAddActionSystem_Window(t *testing.T) {
	w := engine.NewTestWorld()
	require.NoError(t, Install(w))

	for _, p := range []int{100, 200, 5, 250} {
		s := engine.NewSystemFunc("outside", p, func(*engine.Tick) {})
		assert.ErrorIs(t, AddActionSystem(w, s), ErrStageOrder, "priority %d", p)
	}
	assert.NoError(t, AddActionSystem(w, engine.NewSystemFunc("inside", 101, func(*engine.Tick) {})))
}
