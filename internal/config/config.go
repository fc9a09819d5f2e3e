package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ARMIO_DRIVER=nrz.
const EnvPrefix = "ARMIO_"

type Ring struct {
	Size          int `yaml:"size"`
	MaxBrightness int `yaml:"max_brightness"`
}

type SPI struct {
	Port    string `yaml:"port"`     // spireg name, "" picks the first port
	FreqKHz int    `yaml:"freq_khz"` // e.g. 2500

	Gamma    float64 `yaml:"gamma"`     // 1 is linear
	ChanMA   float64 `yaml:"chan_ma"`   // per channel current at full drive
	BudgetMA float64 `yaml:"budget_ma"` // 0 disables the current limiter
}

type Matrix struct {
	BankPins    []string `yaml:"bank_pins"`
	SegmentPins []string `yaml:"segment_pins"`
	DwellUs     int      `yaml:"dwell_us"` // hold time of a full-brightness LED per scan
}

type Config struct {
	Driver     string `yaml:"driver"` // "sim" | "nrz" | "matrix" | "terminal"
	TickMS     int    `yaml:"tick_ms"`
	Capacity   int    `yaml:"capacity"`   // animation records
	Components int    `yaml:"components"` // display components
	Seed       int64  `yaml:"seed"`
	LogLevel   string `yaml:"log_level"`
	Addr       string `yaml:"addr"`
	Show       string `yaml:"show,omitempty"` // show program run at startup

	Ring   Ring   `yaml:"ring"`
	SPI    SPI    `yaml:"spi,omitempty"`
	Matrix Matrix `yaml:"matrix,omitempty"`
}

func Default() *Config {
	return &Config{
		Driver:     "sim",
		TickMS:     10,
		Capacity:   16,
		Components: 16,
		LogLevel:   "info",
		Addr:       ":8080",
		Ring:       Ring{Size: 60, MaxBrightness: 100},
		SPI:        SPI{FreqKHz: 2500, Gamma: 2.2, ChanMA: 20},
		Matrix: Matrix{
			BankPins:    []string{"PA17", "PA18", "PA25", "PA24", "PA23"},
			SegmentPins: []string{"PA16", "PA15", "PA14", "PA11", "PA07", "PA06", "PA05", "PA04", "PA28", "PA27", "PA22", "PA19"},
			DwellUs:     100,
		},
	}
}

// Load reads path over the defaults, so a partial file only overrides what it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "sim", "nrz", "matrix", "terminal":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.TickMS <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.TickMS)
	}
	if c.Capacity <= 0 || c.Components <= 0 {
		return fmt.Errorf("capacity and components must be positive")
	}
	if c.Ring.Size <= 0 || c.Ring.MaxBrightness <= 0 {
		return fmt.Errorf("ring size and max_brightness must be positive")
	}
	return nil
}

// Env reads a dotenv file and overlays the process environment on it. A missing file
// is not an error.
func Env(path string) (map[string]string, error) {
	env := map[string]string{}
	if path != "" {
		m, err := godotenv.Read(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for k, v := range m {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides fields from ARMIO_* variables.
func (c *Config) ApplyEnv(env map[string]string) error {
	str := func(key string, dst *string) {
		if v, ok := env[EnvPrefix+key]; ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := env[EnvPrefix+key]
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("DRIVER", &c.Driver)
	str("LOG_LEVEL", &c.LogLevel)
	str("ADDR", &c.Addr)
	str("SHOW", &c.Show)
	str("SPI_PORT", &c.SPI.Port)
	for key, dst := range map[string]*int{
		"TICK_MS":      &c.TickMS,
		"CAPACITY":     &c.Capacity,
		"COMPONENTS":   &c.Components,
		"SPI_FREQ_KHZ": &c.SPI.FreqKHz,
		"DWELL_US":     &c.Matrix.DwellUs,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	if v, ok := env[EnvPrefix+"SEED"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		c.Seed = n
	}
	return c.Validate()
}
