// Package led pushes composed ring frames to an output.
//
// A frame is one brightness level per ring position, 0 through the ring's maximum
// brightness. Drivers turn levels into whatever the hardware wants: NRZ pixel data
// over SPI, a charlieplexed scan over GPIO, or glyphs on a terminal.
package led

//go:generate mockgen -destination mock_led/mock_driver.go -package mock_led github.com/coreman2200/armio/internal/led Driver

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes one frame. len(levels) must not exceed the driver's LED count.
	Write(levels []uint8) error
	// Close blanks the output and releases resources.
	Close() error
}

// Scale maps a level in [0, maxLevel] onto a full 8-bit channel value.
func Scale(level uint8, maxLevel int) byte {
	if maxLevel <= 0 || int(level) >= maxLevel {
		if level == 0 {
			return 0
		}
		return 255
	}
	return byte(int(level) * 255 / maxLevel)
}
