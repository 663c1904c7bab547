package metronome

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"go.uber.org/goleak"
)

type manualTicker struct {
	ch    chan time.Time
	mu    sync.Mutex
	stops int
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stops++
}

func (t *manualTicker) Stops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}

type manualClock struct {
	mu        sync.Mutex
	tickers   []*manualTicker
	intervals []time.Duration
}

func (c *manualClock) Now() time.Time { return time.Unix(0, 0) }

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	c.intervals = append(c.intervals, d)
	return t
}

func (c *manualClock) last() *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[len(c.tickers)-1]
}

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type recordingSink struct {
	pulses chan Pulse
	closed bool
}

func newRecordingSink() *recordingSink { return &recordingSink{pulses: make(chan Pulse, 64)} }

func (s *recordingSink) Play(p Pulse) { s.pulses <- p }

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func (s *recordingSink) next(t *testing.T) Pulse {
	t.Helper()
	select {
	case p := <-s.pulses:
		return p
	case <-time.After(time.Second):
		t.Fatal("expected a pulse")
		return Pulse{}
	}
}

func (s *recordingSink) none(t *testing.T) {
	t.Helper()
	select {
	case p := <-s.pulses:
		t.Fatalf("unexpected pulse: %+v", p)
	default:
	}
}

func TestInterval(t *testing.T) {
	tests := []struct {
		bpm  int
		want time.Duration
	}{
		{120, 500 * time.Millisecond},
		{60, time.Second},
		{240, 250 * time.Millisecond},
		{0, 0},
	}

	for _, tt := range tests {
		if got := Interval(tt.bpm); got != tt.want {
			t.Errorf("Interval(%d) = %v, want %v", tt.bpm, got, tt.want)
		}
	}
}

func TestEngine(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("start pulses immediately then once per tick", func(t *testing.T) {
		clock := &manualClock{}
		sink := newRecordingSink()
		e := New(sink, WithClock(clock))

		if err := e.Start(120); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		sink.next(t)
		if clock.intervals[0] != 500*time.Millisecond {
			t.Errorf("interval = %v, want 500ms", clock.intervals[0])
		}

		clock.last().ch <- time.Now()
		sink.next(t)
		clock.last().ch <- time.Now()
		sink.next(t)

		e.Stop()
		if e.State() != Stopped {
			t.Errorf("State() = %v, want stopped", e.State())
		}
		if got := e.Pulses(); got != 3 {
			t.Errorf("Pulses() = %d, want 3", got)
		}
	})

	t.Run("stop cancels the ticker exactly once", func(t *testing.T) {
		clock := &manualClock{}
		sink := newRecordingSink()
		e := New(sink, WithClock(clock))

		_ = e.Start(100)
		sink.next(t)
		e.Stop()
		e.Stop()
		e.Update(Params{BPM: 100, Playing: false})

		if got := clock.last().Stops(); got != 1 {
			t.Errorf("ticker stopped %d times, want 1", got)
		}
		sink.none(t)
	})

	t.Run("tempo change restarts with a fresh pulse", func(t *testing.T) {
		clock := &manualClock{}
		sink := newRecordingSink()
		e := New(sink, WithClock(clock))

		e.Update(Params{BPM: 120, Playing: true})
		sink.next(t)
		first := clock.last()

		e.Update(Params{BPM: 90, Playing: true})
		sink.next(t)

		if clock.count() != 2 {
			t.Fatalf("tickers = %d, want 2", clock.count())
		}
		if first.Stops() != 1 {
			t.Errorf("old ticker stops = %d, want 1", first.Stops())
		}
		if clock.intervals[1] != time.Minute/90 {
			t.Errorf("interval = %v, want %v", clock.intervals[1], time.Minute/90)
		}
		if e.BPM() != 90 {
			t.Errorf("BPM() = %d, want 90", e.BPM())
		}
		e.Stop()
	})

	t.Run("same params do not restart", func(t *testing.T) {
		clock := &manualClock{}
		sink := newRecordingSink()
		e := New(sink, WithClock(clock))

		e.Update(Params{BPM: 120, Playing: true})
		sink.next(t)
		e.Update(Params{BPM: 120, Playing: true})
		sink.none(t)

		if clock.count() != 1 {
			t.Errorf("tickers = %d, want 1", clock.count())
		}
		e.Stop()
	})

	t.Run("mute stops and unmute restarts", func(t *testing.T) {
		clock := &manualClock{}
		sink := newRecordingSink()
		e := New(sink, WithClock(clock))

		e.Update(Params{BPM: 120, Playing: true})
		sink.next(t)

		e.Update(Params{BPM: 120, Playing: true, Muted: true})
		if e.State() != Stopped {
			t.Fatalf("muted engine should be stopped")
		}
		e.Update(Params{BPM: 120, Playing: true, Muted: true})
		sink.none(t)

		e.Update(Params{BPM: 120, Playing: true})
		sink.next(t)
		if e.State() != Running {
			t.Errorf("State() = %v, want running", e.State())
		}
		e.Stop()
	})

	t.Run("sound and volume apply without restart", func(t *testing.T) {
		clock := &manualClock{}
		sink := newRecordingSink()
		e := New(sink, WithClock(clock))

		_ = e.Start(120)
		first := sink.next(t)
		if first.Sound != Click || first.Volume != 0.3 {
			t.Errorf("first pulse = %+v, want click at 0.3", first)
		}

		e.SetSound(Cowbell)
		if err := e.SetVolume(0.8); err != nil {
			t.Fatalf("SetVolume() error = %v", err)
		}
		clock.last().ch <- time.Now()
		p := sink.next(t)

		if p.Sound != Cowbell || p.Volume != 0.8 {
			t.Errorf("pulse = %+v, want cowbell at 0.8", p)
		}
		if p.Timbre.Frequency != 587 {
			t.Errorf("frequency = %v, want 587", p.Timbre.Frequency)
		}
		if clock.count() != 1 {
			t.Errorf("tickers = %d, want 1", clock.count())
		}
		e.Stop()
	})

	t.Run("rejects out of range input", func(t *testing.T) {
		e := New(newRecordingSink(), WithClock(&manualClock{}))
		for _, bpm := range []int{-5, 0, models.MaxBPM + 1} {
			if err := e.Start(bpm); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("Start(%d) error = %v, want ErrInvalidInput", bpm, err)
			}
		}
		if err := e.SetVolume(1.5); err == nil {
			t.Error("SetVolume(1.5) should fail")
		}
		if e.State() != Stopped {
			t.Error("engine should remain stopped")
		}
	})

	t.Run("pulse hook and close", func(t *testing.T) {
		sink := newRecordingSink()
		var seen []Sound
		e := New(sink, WithClock(&manualClock{}), WithSound(Snap), WithPulseHook(func(p Pulse) {
			seen = append(seen, p.Sound)
		}))

		e.Preview()
		sink.next(t)
		if e.State() != Stopped {
			t.Error("Preview should not start the engine")
		}

		_ = e.Start(60)
		sink.next(t)
		if err := e.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		if len(seen) != 2 || seen[0] != Snap {
			t.Errorf("hook saw %v", seen)
		}
		if !sink.closed {
			t.Error("sink should be closed")
		}
	})
}

func TestEngineRealClock(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &SilentSink{}
	e := New(sink)
	_ = e.Start(300)
	time.Sleep(450 * time.Millisecond)
	e.Stop()

	// 1 immediate + ~2 ticks at 200ms
	if got := sink.Played(); got < 2 || got > 4 {
		t.Errorf("Played() = %d, want 2..4", got)
	}
}
