package led

import (
	"math"

	"github.com/gdamore/tcell/v2"
)

var shades = []rune{'·', '∘', 'o', 'O', '●'}

// Terminal draws the ring as a circle of glyphs on a tcell screen. Position 0 sits at
// twelve o'clock and positions increase clockwise.
type Terminal struct {
	screen   tcell.Screen
	maxLevel int
}

// OpenTerminal takes over the controlling terminal.
func OpenTerminal(maxLevel int) (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return NewTerminal(s, maxLevel), nil
}

// NewTerminal draws on an initialized screen.
func NewTerminal(s tcell.Screen, maxLevel int) *Terminal {
	return &Terminal{screen: s, maxLevel: maxLevel}
}

func (t *Terminal) Screen() tcell.Screen { return t.screen }

func (t *Terminal) Write(levels []uint8) error {
	t.screen.Clear()
	n := len(levels)
	for i, l := range levels {
		x, y := t.Cell(i, n)
		ch, style := t.glyph(l)
		t.screen.SetContent(x, y, ch, nil, style)
	}
	t.screen.Show()
	return nil
}

// Cell returns the screen cell of ring position i out of n.
func (t *Terminal) Cell(i, n int) (int, int) {
	w, h := t.screen.Size()
	cx, cy := w/2, h/2
	r := min(h/2-1, w/4-1)
	if r < 1 {
		r = 1
	}
	a := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
	// cells are about twice as tall as wide
	x := cx + int(math.Round(2*float64(r)*math.Cos(a)))
	y := cy + int(math.Round(float64(r)*math.Sin(a)))
	return x, y
}

func (t *Terminal) glyph(l uint8) (rune, tcell.Style) {
	if l == 0 {
		return '·', tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
	v := Scale(l, t.maxLevel)
	idx := int(v) * len(shades) / 256
	c := tcell.NewRGBColor(int32(v), int32(v)/3, 0)
	return shades[idx], tcell.StyleDefault.Foreground(c)
}

func (t *Terminal) Close() error {
	t.screen.Fini()
	return nil
}
