package metronome

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/stagelist/internal/shared"
)

// Sound names a metronome timbre.
type Sound string

const (
	Click     Sound = "click"
	Beep      Sound = "beep"
	Woodblock Sound = "woodblock"
	Cowbell   Sound = "cowbell"
	Snap      Sound = "snap"
)

// Waveform is the oscillator shape of a timbre.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Timbre is the synthesis recipe for one pulse.
type Timbre struct {
	Frequency float64 // Hz
	Waveform  Waveform
	Duration  time.Duration
	Gain      float64 // relative gain, scaled by master volume
}

var sounds = []Sound{Click, Beep, Woodblock, Cowbell, Snap}

var timbres = map[Sound]Timbre{
	Click:     {Frequency: 1000, Waveform: Sine, Duration: 50 * time.Millisecond, Gain: 1.0},
	Beep:      {Frequency: 800, Waveform: Square, Duration: 100 * time.Millisecond, Gain: 0.3},
	Woodblock: {Frequency: 1200, Waveform: Triangle, Duration: 80 * time.Millisecond, Gain: 0.5},
	Cowbell:   {Frequency: 587, Waveform: Square, Duration: 150 * time.Millisecond, Gain: 0.4},
	Snap:      {Frequency: 2000, Waveform: Sine, Duration: 30 * time.Millisecond, Gain: 0.6},
}

// Sounds lists every timbre in display order.
func Sounds() []Sound {
	return append([]Sound(nil), sounds...)
}

// ParseSound resolves a sound name case-insensitively.
func ParseSound(name string) (Sound, error) {
	s := Sound(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := timbres[s]; !ok {
		return "", fmt.Errorf("%w: unknown sound %q", shared.ErrInvalidInput, name)
	}
	return s, nil
}

// Timbre returns the recipe for s; unknown sounds fall back to [Click].
func (s Sound) Timbre() Timbre {
	if t, ok := timbres[s]; ok {
		return t
	}
	return timbres[Click]
}

// Next returns the sound after s in display order, wrapping around.
func (s Sound) Next() Sound {
	for i, candidate := range sounds {
		if candidate == s {
			return sounds[(i+1)%len(sounds)]
		}
	}
	return Click
}

func (s Sound) String() string { return string(s) }
