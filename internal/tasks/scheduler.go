package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/shared"
)

// DefaultSyncDelay is the quiet period a key must see before its job runs.
const DefaultSyncDelay = time.Second

// Job is one unit of remote mirroring work.
type Job func(ctx context.Context) error

// Recorder persists job outcomes. [repositories.SyncLogRepository] satisfies it.
type Recorder interface {
	Record(ctx context.Context, job string, err error) error
}

// Scheduler debounces and coalesces sync jobs per key.
//
// Every Notify re-arms the key's timer; when it fires only the most recent job for that key runs.
// Jobs run one at a time. Their errors are logged and recorded, never returned.
type Scheduler struct {
	mu      sync.Mutex
	runMu   sync.Mutex
	wg      sync.WaitGroup
	pending map[string]*pendingJob
	seq     uint64
	enabled bool
	closed  bool

	delay    time.Duration
	timeout  time.Duration
	logger   *log.Logger
	recorder Recorder
}

type pendingJob struct {
	job   Job
	timer *time.Timer
	seq   uint64
}

// SchedulerOption configures a [Scheduler].
type SchedulerOption func(*Scheduler)

// WithDelay sets the debounce window.
func WithDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithJobTimeout bounds a single job run.
func WithJobTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSchedulerLogger sets the logger used for job failures.
func WithSchedulerLogger(l *log.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithRecorder records every job outcome.
func WithRecorder(r Recorder) SchedulerOption {
	return func(s *Scheduler) { s.recorder = r }
}

// NewScheduler creates a disabled Scheduler; call SetEnabled once remote mirroring is available.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		pending: make(map[string]*pendingJob),
		delay:   DefaultSyncDelay,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	return s
}

// SetEnabled turns mirroring on or off. Disabling drops every pending job.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = enabled
	if !enabled {
		s.dropLocked()
	}
}

// Enabled reports whether notifications are accepted.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && !s.closed
}

// Notify schedules job under key, replacing any job already pending for it.
// It reports false when the scheduler is disabled or closed and the job was dropped.
func (s *Scheduler) Notify(key string, job Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.enabled {
		return false
	}

	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
	}

	s.seq++
	seq := s.seq
	p := &pendingJob{job: job, seq: seq}
	p.timer = time.AfterFunc(s.delay, func() { s.fire(key, seq) })
	s.pending[key] = p
	return true
}

// Cancel drops the job pending under key and reports whether there was one.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[key]
	if ok {
		p.timer.Stop()
		delete(s.pending, key)
	}
	return ok
}

// Pending returns the number of keys waiting for their timer.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush runs every pending job immediately, in no particular order, and waits for them.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	due := make(map[string]Job, len(s.pending))
	for key, p := range s.pending {
		p.timer.Stop()
		due[key] = p.job
	}
	s.pending = make(map[string]*pendingJob)
	s.wg.Add(len(due))
	s.mu.Unlock()

	for key, job := range due {
		s.run(ctx, key, job)
		s.wg.Done()
	}
	return ctx.Err()
}

// Close cancels every pending timer and waits for in-flight jobs. It is safe to call more than once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.dropLocked()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) dropLocked() {
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
	}
}

func (s *Scheduler) fire(key string, seq uint64) {
	s.mu.Lock()
	p, ok := s.pending[key]
	if !ok || p.seq != seq || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	s.run(context.Background(), key, p.job)
}

func (s *Scheduler) run(parent context.Context, key string, job Job) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	err := job(ctx)
	if err != nil {
		s.logger.Warn("sync job failed", "key", key, "err", err)
	} else {
		s.logger.Debug("sync job done", "key", key)
	}

	if s.recorder != nil {
		if rerr := s.recorder.Record(ctx, key, err); rerr != nil {
			s.logger.Warn("failed to record sync result", "key", key, "err", rerr)
		}
	}
}
