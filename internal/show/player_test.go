package show

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/armio/internal/anim"
	"github.com/coreman2200/armio/internal/display"
)

type harness struct {
	eng    *anim.Engine
	ring   *display.Ring
	faults []error
	cues   []string
	done   int
}

func newHarness(t *testing.T, capacity int) (*harness, *Player) {
	t.Helper()
	h := &harness{}
	fatal := func(err error) { h.faults = append(h.faults, err) }
	h.ring = display.NewRing(display.Config{Fatal: fatal})
	h.eng = anim.New(h.ring, anim.Options{Capacity: capacity, Fatal: fatal})
	p := NewPlayer(h.eng, Hooks{
		OnCue:  func(c Cue, _ uint64) { h.cues = append(h.cues, c.Name) },
		OnDone: func() { h.done++ },
	})
	return h, p
}

func (h *harness) run(p *Player, n int) {
	for i := 0; i < n; i++ {
		p.Tick()
		h.eng.Tic()
	}
}

func TestStartupSwirl(t *testing.T) {
	h, p := newHarness(t, 4)
	require.NoError(t, p.Load(Startup(display.RingSize)))
	p.Start()

	h.run(p, 1)
	assert.Equal(t, []string{"startup"}, h.cues)
	assert.Equal(t, 1, h.ring.InUse())

	h.run(p, 239)
	assert.Equal(t, Running, p.State)
	assert.Zero(t, h.ring.InUse(), "swirl releases its snake when done")

	p.Tick()
	assert.Equal(t, Idle, p.State)
	assert.Equal(t, 1, h.done)
	assert.Empty(t, h.faults)
}

func TestCuesFireOnScheduleAndAreReaped(t *testing.T) {
	h, p := newHarness(t, 4)
	require.NoError(t, p.Load(Program{Version: Version, Cues: []Cue{
		{Name: "spin", At: 2, Effect: Rotate, Pos: 10, Interval: 1, Duration: 3, Clockwise: true},
		{Name: "glow", At: 0, Effect: FadeIn, Pos: 5, Brightness: 4, Interval: 1},
	}}))
	assert.Equal(t, "glow", p.Program().Cues[0].Name, "cues sorted by start tick")
	p.Start()

	h.run(p, 2)
	assert.Equal(t, []string{"glow"}, h.cues)
	h.run(p, 1)
	assert.Equal(t, []string{"glow", "spin"}, h.cues)
	assert.Equal(t, 2, h.ring.InUse())

	h.run(p, 2)
	assert.Equal(t, 1, h.ring.InUse(), "finished fade released its point")
	assert.Equal(t, 1, h.eng.Active())
	assert.Equal(t, 1, p.Live())

	p.Tick()
	assert.Equal(t, Idle, p.State)
	assert.Zero(t, h.ring.InUse())
	assert.Zero(t, h.eng.Active())
	assert.Equal(t, 1, h.done)
}

func TestStopReleasesRunningCues(t *testing.T) {
	h, p := newHarness(t, 4)
	require.NoError(t, p.Load(Program{Version: Version, Cues: []Cue{
		{Name: "spin", Effect: Rotate, Length: 3, Brightness: 50, Duration: anim.Infinite},
		{Name: "swirl", Effect: Swirl, Length: 5, Distance: anim.Infinite},
	}}))
	p.Start()
	h.run(p, 10)
	assert.Equal(t, 2, h.ring.InUse())

	p.Stop()
	assert.Equal(t, Idle, p.State)
	assert.Zero(t, p.Now())
	assert.Zero(t, h.ring.InUse())
	assert.Zero(t, h.eng.Active())
	assert.Empty(t, h.faults)
}

func TestLoopRestarts(t *testing.T) {
	h, p := newHarness(t, 2)
	require.NoError(t, p.Load(Program{Version: Version, Loop: true, Cues: []Cue{
		{Name: "hop", Effect: Random, Duration: 1},
	}}))
	p.Start()
	h.run(p, 3)
	assert.Equal(t, []string{"hop", "hop"}, h.cues)
	assert.Equal(t, Running, p.State)
	assert.Zero(t, h.done)
}

func TestPauseHoldsClock(t *testing.T) {
	_, p := newHarness(t, 2)
	require.NoError(t, p.Load(Startup(display.RingSize)))
	p.Start()
	p.Tick()
	p.Pause()
	p.Tick()
	p.Tick()
	assert.Equal(t, 1, p.Now())
	p.Resume()
	p.Tick()
	assert.Equal(t, 2, p.Now())
}

func TestExhaustedCueReturnsItsComponent(t *testing.T) {
	h, p := newHarness(t, 1)
	require.NoError(t, p.Load(Program{Version: Version, Cues: []Cue{
		{Name: "a", Effect: Rotate, Duration: anim.Infinite},
		{Name: "b", Effect: Rotate, Duration: anim.Infinite},
	}}))
	p.Start()
	p.Tick()
	assert.Equal(t, []string{"a"}, h.cues)
	assert.Equal(t, 1, h.ring.InUse())
	require.Len(t, h.faults, 1)
	assert.True(t, errors.Is(h.faults[0], anim.ErrPoolExhausted))
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "show.yaml")
	require.NoError(t, os.WriteFile(yml, []byte(`
loop: true
cues:
  - name: pulse
    effect: fade
    pos: 30
    brightness: 10
    bright_end: 90
    cycles: -1
`), 0644))
	p, err := Load(yml)
	require.NoError(t, err)
	assert.Equal(t, Version, p.Version)
	assert.True(t, p.Loop)
	require.Len(t, p.Cues, 1)
	assert.Equal(t, Fade, p.Cues[0].Effect)
	assert.Equal(t, 90, p.Cues[0].BrightEnd)
	assert.Equal(t, anim.Infinite, p.Cues[0].Cycles)

	js := filepath.Join(dir, "show.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"version":"show.v1","cues":[{"name":"s","effect":"swirl","length":4,"distance":60,"clockwise":true}]}`), 0644))
	p, err = Load(js)
	require.NoError(t, err)
	assert.Equal(t, Swirl, p.Cues[0].Effect)
	assert.True(t, p.Cues[0].Clockwise)
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name string
		prog Program
	}{
		{"version", Program{Version: "seq.v1", Cues: []Cue{{Effect: Fade}}}},
		{"empty", Program{Version: Version}},
		{"effect", Program{Version: Version, Cues: []Cue{{Effect: "strobe"}}}},
		{"start", Program{Version: Version, Cues: []Cue{{Effect: Fade, At: -1}}}},
		{"swirl", Program{Version: Version, Cues: []Cue{{Effect: Swirl, Length: 3}}}},
		{"rotate", Program{Version: Version, Cues: []Cue{{Effect: Rotate}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.prog.Validate())
		})
	}
	assert.NoError(t, Startup(60).Validate())
}
