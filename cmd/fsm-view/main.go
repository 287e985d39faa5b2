package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/swarm-fsm/cli"
	"github.com/lixenwraith/swarm-fsm/core"
	"github.com/lixenwraith/swarm-fsm/engine"
	"github.com/lixenwraith/swarm-fsm/logging"
)

var (
	agentsFlag     = flag.Int("agents", 64, "Number of patrol agents")
	workersFlag    = flag.Int("workers", 0, "Parallel action workers, 0 uses GOMAXPROCS")
	definitionFlag = flag.String("definition", "", "Machine definition file")
)

// Agent glyph and color per state; unknown states fall back to the last entry
var palette = []struct {
	glyph rune
	color tcell.Color
}{
	{'o', tcell.ColorYellow},
	{'>', tcell.ColorGreen},
	{'*', tcell.ColorBlue},
	{'?', tcell.ColorPurple},
}

type viewer struct {
	screen    tcell.Screen
	sim       *cli.Simulation
	scheduler *engine.ClockScheduler
	states    map[string]int
	offX      int
	offY      int
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()
	flag.Parse()

	cfg := cli.DefaultConfig()
	cfg.Agents = *agentsFlag
	cfg.Engine.Workers = *workersFlag
	cfg.Definition = *definitionFlag

	sim, err := cli.NewSimulation(cfg, logging.NewNop(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build simulation: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}
	core.OnCrash(screen.Fini)
	defer screen.Fini()

	v := &viewer{
		screen:    screen,
		sim:       sim,
		scheduler: engine.NewClockScheduler(sim.World, nil),
		states:    make(map[string]int),
	}
	for i, name := range sim.StateNames() {
		v.states[name] = min(i, len(palette)-1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v.scheduler.Start(ctx)
	defer v.scheduler.Stop()

	// Redraw after each tick through the screen's event queue
	core.Go(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-v.scheduler.TickDone():
				_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	})

	v.render()
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			screen.Sync()
			v.render()
		case *tcell.EventInterrupt:
			v.render()
		case *tcell.EventKey:
			if v.handleKey(ev) {
				return
			}
			v.render()
		}
	}
}

// handleKey returns true when the viewer should exit
func (v *viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		v.offX -= 4
	case tcell.KeyRight:
		v.offX += 4
	case tcell.KeyUp:
		v.offY -= 2
	case tcell.KeyDown:
		v.offY += 2
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return true
		case ' ':
			if v.scheduler.IsPaused() {
				v.scheduler.Resume()
			} else {
				v.scheduler.Pause()
			}
		case 's':
			// Single step while paused
			if v.scheduler.IsPaused() {
				v.scheduler.Step()
			}
		}
	}
	return false
}

func (v *viewer) render() {
	s := v.screen
	s.Clear()
	width, height := s.Size()

	for _, a := range v.sim.Snapshot() {
		x, y := a.Position.Cell()
		x, y = x-v.offX, y-v.offY+1
		if x < 0 || y < 1 || x >= width || y >= height {
			continue
		}
		p := palette[len(palette)-1]
		if i, ok := v.states[a.State]; ok {
			p = palette[i]
		}
		s.SetContent(x, y, p.glyph, nil, tcell.StyleDefault.Foreground(p.color))
	}

	st := v.sim.Status()
	var b strings.Builder
	fmt.Fprintf(&b, " %s tick %d agents %d", st.Machine, st.Tick, st.Agents)
	for _, name := range v.sim.StateNames() {
		fmt.Fprintf(&b, " %s=%d", name, st.States[name])
	}
	if pausedFor := v.scheduler.PausedFor(); pausedFor > 0 {
		fmt.Fprintf(&b, " paused total %s", pausedFor.Round(time.Second))
	}
	if v.scheduler.IsPaused() {
		b.WriteString(" [paused: space resume, s step]")
	} else {
		b.WriteString(" [space pause, arrows pan, q quit]")
	}

	header := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range b.String() {
		if col >= width {
			break
		}
		s.SetContent(col, 0, r, nil, header)
		col++
	}
	for ; col < width; col++ {
		s.SetContent(col, 0, ' ', nil, header)
	}

	s.Show()
}
