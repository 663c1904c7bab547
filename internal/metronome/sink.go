package metronome

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Sink turns pulses into sound. Play must not wait for playback to finish.
type Sink interface {
	Play(p Pulse)
	Close() error
}

// SilentSink drops pulses. It stands in when no audio device is available.
type SilentSink struct {
	played atomic.Uint64
}

func (s *SilentSink) Play(Pulse) { s.played.Add(1) }

func (s *SilentSink) Close() error { return nil }

// Played returns the number of pulses received.
func (s *SilentSink) Played() uint64 { return s.played.Load() }

var (
	speakerMu   sync.Mutex
	speakerRate beep.SampleRate
)

// SpeakerSink plays pulses on the default audio device through [speaker].
type SpeakerSink struct {
	rate beep.SampleRate
}

// NewSpeakerSink initializes the audio device once per process.
func NewSpeakerSink(rate beep.SampleRate) (*SpeakerSink, error) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerRate == 0 {
		if err := speaker.Init(rate, rate.N(50*time.Millisecond)); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAudioUnavailable, err)
		}
		speakerRate = rate
	}
	return &SpeakerSink{rate: speakerRate}, nil
}

func (s *SpeakerSink) Play(p Pulse) {
	speaker.Play(Render(p, s.rate))
}

// Close clears queued pulses. The device stays open for the rest of the process.
func (s *SpeakerSink) Close() error {
	speaker.Clear()
	return nil
}

// NewSink returns a speaker-backed sink, degrading to a [SilentSink] when audio cannot be initialized.
func NewSink(sampleRate int, logger *log.Logger) Sink {
	sink, err := NewSpeakerSink(beep.SampleRate(sampleRate))
	if err != nil {
		if logger != nil {
			logger.Warn("audio unavailable, metronome is silent", "error", err)
		}
		return &SilentSink{}
	}
	return sink
}
