package led

import (
	"bytes"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"
)

var TestScaleMapsLevels = []struct {
	Level  uint8
	Max    int
	Expect byte
}{
	{0, 100, 0},
	{100, 100, 255},
	{50, 100, 127},
	{1, 100, 2},
	{120, 100, 255},
	{7, 0, 255},
	{0, 0, 0},
}

func TestScale(t *testing.T) {
	for _, v := range TestScaleMapsLevels {
		assert.Equal(t, v.Expect, Scale(v.Level, v.Max), "Scale(%d, %d)", v.Level, v.Max)
	}
}

func TestSimKeepsLastFrame(t *testing.T) {
	var buf bytes.Buffer
	d := NewSim(zerolog.New(&buf).Level(zerolog.DebugLevel))

	require.NoError(t, d.Write([]uint8{0, 40, 90, 0}))
	assert.Equal(t, 1, d.Count)
	assert.Equal(t, []uint8{0, 40, 90, 0}, d.Last)
	assert.Contains(t, buf.String(), `"peak_at":2`)

	require.NoError(t, d.Close())
	assert.Equal(t, []uint8{0, 0, 0, 0}, d.Last)
}

func TestNRZWritesEncodedStream(t *testing.T) {
	buf := bytes.Buffer{}
	n, err := NewNRZ(spitest.NewRecordRaw(&buf), 4, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", n.String())

	require.NoError(t, n.Write([]uint8{100, 0, 0, 0}))
	first := append([]byte{}, buf.Bytes()...)
	require.NotEmpty(t, first)

	buf.Reset()
	require.NoError(t, n.Write([]uint8{0, 0, 0, 0}))
	assert.Len(t, buf.Bytes(), len(first), "frames encode to a fixed size")
	assert.NotEqual(t, first, buf.Bytes())

	assert.Error(t, n.Write(make([]uint8, 5)))
	require.NoError(t, n.Close())
	assert.Error(t, n.Write([]uint8{1}))
	assert.Equal(t, "nrz{closed}", n.String())
}

func TestNRZRejectsEmptyRing(t *testing.T) {
	_, err := NewNRZ(spitest.NewRecordRaw(&bytes.Buffer{}), 0, 100, 0)
	assert.Error(t, err)
}

func newPins(names ...string) ([]gpio.PinOut, []*gpiotest.Pin) {
	outs := make([]gpio.PinOut, len(names))
	pins := make([]*gpiotest.Pin, len(names))
	for i, n := range names {
		p := &gpiotest.Pin{N: n}
		pins[i], outs[i] = p, p
	}
	return outs, pins
}

func TestMatrixScan(t *testing.T) {
	bankOut, banks := newPins("B0", "B1")
	segOut, segs := newPins("S0", "S1", "S2")
	m, err := NewMatrix(bankOut, segOut, 100, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 6, m.Count())
	for _, p := range append(append([]*gpiotest.Pin{}, banks...), segs...) {
		assert.Equal(t, gpio.High, p.L, "pin %s should start off", p.N)
	}

	type lit struct {
		bank, seg string
		hold      time.Duration
	}
	var got []lit
	m.sleep = func(d time.Duration) {
		var l lit
		for _, p := range banks {
			if p.L == gpio.Low {
				l.bank = p.N
			}
		}
		for _, p := range segs {
			if p.L == gpio.Low {
				l.seg = p.N
			}
		}
		l.hold = d
		got = append(got, l)
	}

	require.NoError(t, m.Write([]uint8{0, 50, 0, 0, 100, 0}))
	assert.Equal(t, []lit{
		{"B0", "S1", 500 * time.Microsecond},
		{"B1", "S1", time.Millisecond},
	}, got)
	for _, p := range segs {
		assert.Equal(t, gpio.High, p.L)
	}

	assert.Error(t, m.Write(make([]uint8, 7)))
	require.NoError(t, m.Close())
}

func TestMatrixNeedsPins(t *testing.T) {
	_, err := NewMatrix(nil, nil, 100, 0)
	assert.Error(t, err)
	_, err = OpenMatrix([]string{"NO_SUCH_PIN"}, DefaultSegmentPins, 100, 0)
	assert.Error(t, err)
}

func TestTerminalDrawsRing(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	term := NewTerminal(screen, 100)
	defer term.Close()

	levels := make([]uint8, 60)
	levels[0] = 100
	levels[15] = 10
	require.NoError(t, term.Write(levels))

	x, y := term.Cell(0, 60)
	assert.Equal(t, 40, x)
	assert.Equal(t, 1, y, "position 0 is at the top")
	mainc, _, _, _ := screen.GetContent(x, y)
	assert.Equal(t, '●', mainc)

	x, y = term.Cell(15, 60)
	assert.Greater(t, x, 40, "a quarter turn clockwise is right of centre")
	assert.Equal(t, 12, y)

	x, y = term.Cell(30, 60)
	mainc, _, _, _ = screen.GetContent(x, y)
	assert.Equal(t, '·', mainc)
}

func TestGammaLUT(t *testing.T) {
	lin := GammaLUT(100, 1)
	require.Len(t, lin, 101)
	assert.Equal(t, byte(127), lin[50])
	assert.Equal(t, byte(255), lin[100])

	g := GammaLUT(100, 2.2)
	assert.Equal(t, byte(0), g[0])
	assert.Equal(t, byte(1), g[1], "lit levels never round to dark")
	assert.Equal(t, byte(255), g[100])
	for l := 1; l < len(g); l++ {
		assert.GreaterOrEqual(t, g[l], g[l-1])
	}
	assert.Less(t, g[50], lin[50])
}

func TestLimiter(t *testing.T) {
	white := func() []byte {
		b := make([]byte, 30)
		for i := range b {
			b[i] = 255
		}
		return b
	}

	l := Limiter{ChanMA: 20, BudgetMA: 300}
	buf := white()
	assert.InDelta(t, 600, l.Estimate(buf), 0.001)
	l.Apply(buf)
	assert.LessOrEqual(t, l.Estimate(buf), 300.0)
	assert.Equal(t, byte(127), buf[0])

	buf = white()
	Limiter{ChanMA: 20, BudgetMA: 1000}.Apply(buf)
	assert.Equal(t, white(), buf, "under the knee nothing changes")

	buf = white()
	Limiter{}.Apply(buf)
	assert.Equal(t, white(), buf, "no budget, no limit")

	buf = white()
	Limiter{ChanMA: 20, BudgetMA: 620, Knee: 0.9}.Apply(buf)
	assert.Less(t, buf[0], byte(255), "between knee and budget scales gently")
	assert.Greater(t, buf[0], byte(240))
}

func TestNRZGammaAndLimit(t *testing.T) {
	buf := bytes.Buffer{}
	n, err := NewNRZ(spitest.NewRecordRaw(&buf), 2, 100, 0)
	require.NoError(t, err)
	defer n.Close()

	require.NoError(t, n.Write([]uint8{50, 50}))
	linear := append([]byte{}, buf.Bytes()...)

	buf.Reset()
	n.SetGamma(2.2)
	require.NoError(t, n.Write([]uint8{50, 50}))
	assert.NotEqual(t, linear, buf.Bytes())

	buf.Reset()
	n.SetGamma(1)
	n.SetLimiter(Limiter{ChanMA: 20, BudgetMA: 1})
	require.NoError(t, n.Write([]uint8{50, 50}))
	assert.NotEqual(t, linear, buf.Bytes())
}
