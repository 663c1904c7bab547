package metronome

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// DefaultSampleRate is used when no sample rate is configured.
const DefaultSampleRate = beep.SampleRate(44100)

// envelopeFloor is the level the exponential decay reaches at the end of a pulse.
const envelopeFloor = 0.01

// Pulse is one metronome beat handed to a [Sink].
type Pulse struct {
	Sound  Sound
	Timbre Timbre
	Volume float64
	At     time.Time
}

// Peak returns the starting amplitude of the pulse.
func (p Pulse) Peak() float64 {
	return p.Timbre.Gain * p.Volume
}

// Envelope returns the amplitude at elapsed time t: peak at t=0, decaying exponentially to 0.01 at the end of d.
func Envelope(peak float64, t, d time.Duration) float64 {
	if peak <= 0 || t < 0 || t >= d {
		return 0
	}
	floor := math.Min(envelopeFloor, peak)
	return peak * math.Pow(floor/peak, float64(t)/float64(d))
}

// oscillate samples waveform w at phase (in cycles).
func oscillate(w Waveform, phase float64) float64 {
	_, frac := math.Modf(phase)
	switch w {
	case Square:
		if frac < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		return 1 - 4*math.Abs(frac-0.5)
	default:
		return math.Sin(2 * math.Pi * frac)
	}
}

// Render returns a finite stereo [beep.Streamer] synthesizing the pulse at sample rate sr.
func Render(p Pulse, sr beep.SampleRate) beep.Streamer {
	total := sr.N(p.Timbre.Duration)
	peak := p.Peak()
	pos := 0

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}

		n := 0
		for n < len(samples) && pos < total {
			elapsed := sr.D(pos)
			v := Envelope(peak, elapsed, p.Timbre.Duration) * oscillate(p.Timbre.Waveform, p.Timbre.Frequency*elapsed.Seconds())
			samples[n][0], samples[n][1] = v, v
			n++
			pos++
		}
		return n, true
	})
}

// RenderWAV writes one pulse as a 16-bit stereo WAV file.
func RenderWAV(w io.WriteSeeker, p Pulse, sr beep.SampleRate) error {
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	if err := wav.Encode(w, Render(p, sr), format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	return nil
}
