package metronome

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
)

// State reports whether the engine is emitting pulses.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Params is the playback input the engine follows. The engine runs iff Playing && !Muted.
type Params struct {
	BPM     int
	Playing bool
	Muted   bool
}

// Interval returns the time between pulses at bpm.
func Interval(bpm int) time.Duration {
	if bpm <= 0 {
		return 0
	}
	return time.Minute / time.Duration(bpm)
}

// Option configures an [Engine].
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithSound sets the initial timbre.
func WithSound(s Sound) Option { return func(e *Engine) { e.sound = s } }

// WithVolume sets the initial master volume.
func WithVolume(v float64) Option { return func(e *Engine) { e.volume = v } }

// WithPulseHook registers fn to observe every emitted pulse. fn runs with the engine locked
// and must neither block nor call back into the engine.
func WithPulseHook(fn func(Pulse)) Option { return func(e *Engine) { e.hook = fn } }

// Engine is a metronome that emits one pulse immediately on start and then one per beat interval.
//
// All methods are safe for concurrent use. Changing tempo restarts the pulse train;
// sound and volume changes apply to the next pulse without a restart.
type Engine struct {
	mu     sync.Mutex
	sink   Sink
	clock  Clock
	logger *log.Logger
	hook   func(Pulse)

	sound  Sound
	volume float64
	bpm    int
	state  State
	pulses uint64

	stop chan struct{}
	done chan struct{}
}

// New creates a stopped engine that plays through sink.
func New(sink Sink, opts ...Option) *Engine {
	e := &Engine{
		sink:   sink,
		clock:  realClock{},
		sound:  Sound(models.DefaultSound),
		volume: models.DefaultVolume,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink == nil {
		e.sink = &SilentSink{}
	}
	return e
}

// Start is a checked convenience over [Engine.Update]: it rejects tempos outside
// [models.MinBPM]..[models.MaxBPM] with [shared.ErrInvalidInput], then begins pulsing at bpm.
// Update trusts its caller and treats a non-positive BPM as stopped.
// Starting a running engine at a different tempo restarts it.
func (e *Engine) Start(bpm int) error {
	if err := models.ValidateBPM(bpm); err != nil {
		return err
	}
	e.Update(Params{BPM: bpm, Playing: true})
	return nil
}

// Stop halts pulsing. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	done := e.halt()
	e.mu.Unlock()
	wait(done)
}

// Update reconciles the engine with p.
func (e *Engine) Update(p Params) {
	want := p.Playing && !p.Muted && p.BPM > 0

	e.mu.Lock()
	var done chan struct{}
	switch {
	case !want:
		done = e.halt()
	case e.state == Stopped:
		e.launch(p.BPM)
	case e.bpm != p.BPM:
		done = e.halt()
		e.launch(p.BPM)
	}
	e.mu.Unlock()
	wait(done)
}

// SetSound changes the timbre of subsequent pulses.
func (e *Engine) SetSound(s Sound) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sound = s
}

// SetVolume changes the master volume of subsequent pulses.
func (e *Engine) SetVolume(v float64) error {
	if err := models.ValidateVolume(v); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = v
	return nil
}

func (e *Engine) Sound() Sound {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sound
}

func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// BPM returns the tempo of the current (or last) pulse train.
func (e *Engine) BPM() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bpm
}

// Pulses returns the number of pulses emitted since creation.
func (e *Engine) Pulses() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pulses
}

// Preview plays a single pulse with the current sound and volume without changing state.
func (e *Engine) Preview() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emit()
}

// Close stops the engine and releases the sink.
func (e *Engine) Close() error {
	e.Stop()
	if err := e.sink.Close(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAudioUnavailable, err)
	}
	return nil
}

// launch starts a pulse train. Caller holds e.mu.
func (e *Engine) launch(bpm int) {
	e.bpm = bpm
	e.state = Running
	e.stop = make(chan struct{})
	e.done = make(chan struct{})

	if e.logger != nil {
		e.logger.Debug("metronome started", "bpm", bpm, "interval", Interval(bpm))
	}

	e.emit()
	go e.loop(e.clock.NewTicker(Interval(bpm)), e.stop, e.done)
}

// halt cancels the running pulse train exactly once and returns its done channel. Caller holds e.mu.
func (e *Engine) halt() chan struct{} {
	if e.state == Stopped {
		return nil
	}
	close(e.stop)
	done := e.done
	e.stop, e.done = nil, nil
	e.state = Stopped

	if e.logger != nil {
		e.logger.Debug("metronome stopped", "bpm", e.bpm)
	}
	return done
}

func (e *Engine) loop(t Ticker, stop, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C():
			e.mu.Lock()
			// A restart may have replaced this train while we waited for the lock.
			if e.stop == stop {
				e.emit()
			}
			e.mu.Unlock()
		}
	}
}

// emit hands one pulse to the sink. Caller holds e.mu.
func (e *Engine) emit() {
	p := Pulse{Sound: e.sound, Timbre: e.sound.Timbre(), Volume: e.volume, At: e.clock.Now()}
	e.pulses++
	e.sink.Play(p)
	if e.hook != nil {
		e.hook(p)
	}
}

func wait(done chan struct{}) {
	if done != nil {
		<-done
	}
}
