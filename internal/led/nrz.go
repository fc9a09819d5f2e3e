package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
)

// DefaultNRZFreq suits WS2812 strips driven through an SPI MOSI line.
const DefaultNRZFreq = 2500 * physic.KiloHertz

// NRZ drives a ring of WS2812-style pixels through periph's nrzled encoder. Levels are
// shown as white.
type NRZ struct {
	mu       sync.Mutex
	dev      *nrzled.Dev
	closer   spi.PortCloser
	count    int
	maxLevel int
	pixels   []byte
	lut      []byte
	limit    Limiter
}

// OpenNRZ opens the named SPI port ("" picks the first one registered) and wraps it.
// host.Init must have run first.
func OpenNRZ(port string, count, maxLevel int, freq physic.Frequency) (*NRZ, error) {
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", port, err)
	}
	n, err := NewNRZ(p, count, maxLevel, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	n.closer = p
	return n, nil
}

// NewNRZ wraps an already open SPI port.
func NewNRZ(p spi.Port, count, maxLevel int, freq physic.Frequency) (*NRZ, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if freq == 0 {
		freq = DefaultNRZFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &NRZ{
		dev:      d,
		count:    count,
		maxLevel: maxLevel,
		pixels:   make([]byte, count*3),
		lut:      GammaLUT(maxLevel, 1),
	}, nil
}

// SetGamma switches level mapping to a gamma curve; 1 is linear.
func (n *NRZ) SetGamma(gamma float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lut = GammaLUT(n.maxLevel, gamma)
}

// SetLimiter caps the strip's estimated current draw.
func (n *NRZ) SetLimiter(l Limiter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.limit = l
}

func (n *NRZ) String() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return "nrz{closed}"
	}
	return n.dev.String()
}

func (n *NRZ) Write(levels []uint8) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.dev == nil {
		return fmt.Errorf("nrz closed")
	}
	if len(levels) > n.count {
		return fmt.Errorf("frame length %d exceeds LED count %d", len(levels), n.count)
	}
	for i := range n.pixels {
		n.pixels[i] = 0
	}
	for i, l := range levels {
		v := n.lut[min(int(l), len(n.lut)-1)]
		n.pixels[i*3+0], n.pixels[i*3+1], n.pixels[i*3+2] = v, v, v
	}
	n.limit.Apply(n.pixels)
	if _, err := n.dev.Write(n.pixels); err != nil {
		return fmt.Errorf("nrzled write: %w", err)
	}
	return nil
}

// Close blanks the strip and closes the port when NRZ opened it.
func (n *NRZ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.dev == nil {
		return nil
	}
	err := n.dev.Halt()
	n.dev = nil
	if n.closer != nil {
		if cerr := n.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
