package show

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Version is the only program format Load accepts.
const Version = "show.v1"

// Effect names the engine constructor a cue calls.
type Effect string

const (
	Swirl   Effect = "swirl"
	Rotate  Effect = "rotate"
	Random  Effect = "random"
	Fade    Effect = "fade"
	FadeIn  Effect = "fade_in"
	FadeOut Effect = "fade_out"
)

// Cue starts one animation At ticks after the program starts. Rotate, random and fade
// cues light their own component: a point, or a snake when Length > 1. Swirls own theirs.
type Cue struct {
	Name       string `yaml:"name" json:"name"`
	At         int    `yaml:"at" json:"at"`
	Effect     Effect `yaml:"effect" json:"effect"`
	Pos        int    `yaml:"pos" json:"pos"`
	Length     int    `yaml:"length,omitempty" json:"length,omitempty"`
	Brightness int    `yaml:"brightness,omitempty" json:"brightness,omitempty"`
	BrightEnd  int    `yaml:"bright_end,omitempty" json:"brightEnd,omitempty"`
	Interval   int    `yaml:"interval,omitempty" json:"interval,omitempty"`
	Duration   int    `yaml:"duration,omitempty" json:"duration,omitempty"` // ticks, -1 runs until stopped
	Distance   int    `yaml:"distance,omitempty" json:"distance,omitempty"` // swirl steps
	Cycles     int    `yaml:"cycles,omitempty" json:"cycles,omitempty"`     // fade half-cycles
	Clockwise  bool   `yaml:"clockwise,omitempty" json:"clockwise,omitempty"`
}

// Program is a full list of cues, kept sorted by At.
type Program struct {
	Version string `yaml:"version" json:"version"`
	Loop    bool   `yaml:"loop,omitempty" json:"loop,omitempty"`
	Seed    int64  `yaml:"seed,omitempty" json:"seed,omitempty"`
	Cues    []Cue  `yaml:"cues" json:"cues"`
}

// Load reads a program from YAML, or JSON when path ends in .json.
func Load(path string) (Program, error) {
	var p Program
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(b, &p)
	} else {
		err = yaml.Unmarshal(b, &p)
	}
	if err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	if p.Version == "" {
		p.Version = Version
	}
	return p, p.Validate()
}

func (p Program) Validate() error {
	if p.Version != Version {
		return fmt.Errorf("unsupported program version %q", p.Version)
	}
	if len(p.Cues) == 0 {
		return fmt.Errorf("program has no cues")
	}
	for i, c := range p.Cues {
		if c.At < 0 {
			return fmt.Errorf("cue %d (%s): negative start tick", i, c.Name)
		}
		switch c.Effect {
		case Swirl:
			if c.Distance == 0 || c.Length <= 0 {
				return fmt.Errorf("cue %d (%s): swirl needs length and distance", i, c.Name)
			}
		case Rotate, Random:
			if c.Duration == 0 {
				return fmt.Errorf("cue %d (%s): %s needs a duration", i, c.Name, c.Effect)
			}
		case Fade, FadeIn, FadeOut:
		default:
			return fmt.Errorf("cue %d (%s): unknown effect %q", i, c.Name, c.Effect)
		}
	}
	return nil
}

// Startup is the boot show: one clockwise swirl of a 25 long snake over four laps.
func Startup(ringSize int) Program {
	return Program{
		Version: Version,
		Cues: []Cue{{
			Name:      "startup",
			Effect:    Swirl,
			Length:    25,
			Interval:  1,
			Distance:  4 * ringSize,
			Clockwise: true,
		}},
	}
}

// PlayerState enumerates player states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are optional callbacks fired from Tick.
type Hooks struct {
	OnCue  func(c Cue, id uint64)
	OnDone func()
}
