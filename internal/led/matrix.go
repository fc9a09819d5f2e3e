package led

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Default pin map of the watch board: 5 banks by 12 segments, 60 LEDs.
var (
	DefaultBankPins    = []string{"PA17", "PA18", "PA25", "PA24", "PA23"}
	DefaultSegmentPins = []string{"PA16", "PA15", "PA14", "PA11", "PA07", "PA06", "PA05", "PA04", "PA28", "PA27", "PA22", "PA19"}
)

// Matrix drives a bank/segment LED matrix. LED i sits on bank i/segments and segment
// i%segments; it lights when both of its pins are driven low. Only one LED is lit at a
// time, so brightness comes from how long each one is held during a scan.
type Matrix struct {
	banks    []gpio.PinOut
	segments []gpio.PinOut
	maxLevel int
	dwell    time.Duration // hold time of a full-brightness LED per scan
	sleep    func(time.Duration)
}

// OpenMatrix looks the pins up by name in periph's gpio registry.
func OpenMatrix(bankNames, segmentNames []string, maxLevel int, dwell time.Duration) (*Matrix, error) {
	banks, err := lookupPins(bankNames)
	if err != nil {
		return nil, err
	}
	segments, err := lookupPins(segmentNames)
	if err != nil {
		return nil, err
	}
	return NewMatrix(banks, segments, maxLevel, dwell)
}

func lookupPins(names []string) ([]gpio.PinOut, error) {
	pins := make([]gpio.PinOut, 0, len(names))
	for _, n := range names {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, fmt.Errorf("gpio pin %q not found", n)
		}
		pins = append(pins, p)
	}
	return pins, nil
}

// NewMatrix configures every pin as an output, all LEDs off.
func NewMatrix(banks, segments []gpio.PinOut, maxLevel int, dwell time.Duration) (*Matrix, error) {
	if len(banks) == 0 || len(segments) == 0 {
		return nil, fmt.Errorf("matrix needs bank and segment pins")
	}
	m := &Matrix{
		banks:    banks,
		segments: segments,
		maxLevel: maxLevel,
		dwell:    dwell,
		sleep:    time.Sleep,
	}
	if err := m.blank(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Matrix) Count() int { return len(m.banks) * len(m.segments) }

// Write runs one scan pass over the frame.
func (m *Matrix) Write(levels []uint8) error {
	if len(levels) > m.Count() {
		return fmt.Errorf("frame length %d exceeds LED count %d", len(levels), m.Count())
	}
	for i, l := range levels {
		if l == 0 {
			continue
		}
		if err := m.set(i, gpio.Low); err != nil {
			return err
		}
		m.sleep(m.hold(l))
		if err := m.set(i, gpio.High); err != nil {
			return err
		}
	}
	return nil
}

func (m *Matrix) Close() error { return m.blank() }

func (m *Matrix) hold(l uint8) time.Duration {
	if m.maxLevel <= 0 {
		return m.dwell
	}
	return m.dwell * time.Duration(l) / time.Duration(m.maxLevel)
}

func (m *Matrix) set(led int, lvl gpio.Level) error {
	b := m.banks[led/len(m.segments)]
	s := m.segments[led%len(m.segments)]
	if err := b.Out(lvl); err != nil {
		return fmt.Errorf("bank %s: %w", b.Name(), err)
	}
	if err := s.Out(lvl); err != nil {
		return fmt.Errorf("segment %s: %w", s.Name(), err)
	}
	return nil
}

// blank drives every pin high; the LEDs are active low.
func (m *Matrix) blank() error {
	for _, p := range append(append([]gpio.PinOut{}, m.banks...), m.segments...) {
		if err := p.Out(gpio.High); err != nil {
			return fmt.Errorf("pin %s: %w", p.Name(), err)
		}
	}
	return nil
}
