package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/metronome"
	"github.com/desertthunder/stagelist/internal/repositories"
	"github.com/desertthunder/stagelist/internal/services"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/desertthunder/stagelist/internal/stage"
	"github.com/desertthunder/stagelist/internal/tasks"
)

// openOpts controls how much of the application a command needs.
type openOpts struct {
	audio   bool                  // play through the runner's sink instead of a silent one
	hook    func(metronome.Pulse) // forwarded to the metronome
	offline bool                  // skip the initial cloud load
	logger  *log.Logger
}

// env is the application wired for one command invocation.
type env struct {
	db        *sql.DB
	lists     *repositories.StageListRepository
	workspace *repositories.WorkspaceRepository
	syncLog   *repositories.SyncLogRepository
	auth      *services.AuthService // nil when cloud sync is disabled
	engine    *tasks.SyncEngine     // nil when cloud sync is disabled
	session   *stage.Session
	logger    *log.Logger
}

// open wires storage, the metronome, the sync scheduler and (when enabled) the cloud client,
// then opens the session and runs the initial cloud load for a signed-in user.
func (r *Runner) open(ctx context.Context, o openOpts) (*env, error) {
	logger := o.logger
	if logger == nil {
		logger = r.logger
	}

	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return nil, err
	}

	store := repositories.NewLocalStore(db)
	e := &env{
		db:        db,
		lists:     repositories.NewStageListRepository(store),
		workspace: repositories.NewWorkspaceRepository(store),
		syncLog:   repositories.NewSyncLogRepository(db),
		logger:    logger,
	}

	sched := tasks.NewScheduler(
		tasks.WithDelay(r.config.Cloud.SyncDelay),
		tasks.WithRecorder(e.syncLog),
		tasks.WithSchedulerLogger(shared.WithLogger(logger, "component", "sync")),
	)

	if r.config.Cloud.Enabled {
		e.auth = services.NewAuthService(r.api, repositories.NewAuthRepository(store), services.WithAuthLogger(logger))
		authed := services.NewAPIService(
			r.config.Cloud.BaseURL,
			r.httpClient,
			services.WithRateLimit(r.config.Cloud.RateLimit),
			services.WithTokenSource(e.auth.TokenSource(ctx)),
		)
		e.engine = tasks.NewSyncEngine(services.NewCloudService(authed, r.config.Cloud.HealthTimeout), e.lists, e.workspace, logger)
		e.engine.SetHealthTimeout(r.config.Cloud.HealthTimeout)
	}

	var sink metronome.Sink = &metronome.SilentSink{}
	if o.audio {
		sink = r.sink
		if sink == nil {
			sink = metronome.NewSink(r.config.Metronome.SampleRate, logger)
		}
	}
	metroOpts := []metronome.Option{metronome.WithLogger(shared.WithLogger(logger, "component", "metronome"))}
	if o.hook != nil {
		metroOpts = append(metroOpts, metronome.WithPulseHook(o.hook))
	}

	e.session, err = stage.Open(ctx, stage.Options{
		Workspace: e.workspace,
		Lists:     e.lists,
		Metronome: metronome.New(sink, metroOpts...),
		Scheduler: sched,
		Sync:      e.engine,
		Logger:    logger,
	})
	if err != nil {
		sched.Close()
		db.Close()
		return nil, err
	}

	if !o.offline {
		e.connect(ctx, nil)
	}
	return e, nil
}

// connect runs the initial cloud load when a session is stored. Failures leave the app local-only.
func (e *env) connect(ctx context.Context, prog chan<- tasks.ProgressUpdate) (*tasks.ReconcileResult, error) {
	if e.auth == nil {
		return nil, fmt.Errorf("%w: cloud sync is disabled", shared.ErrServiceUnavailable)
	}
	if _, err := e.auth.Session(ctx); err != nil {
		return nil, err
	}

	result, err := e.session.OnSessionChanged(ctx, true, prog)
	if err != nil {
		e.logger.Warn("cloud load failed, working locally", "error", err)
	}
	return result, err
}

// Close flushes pending sync jobs, stops the metronome and closes the database.
func (e *env) Close(ctx context.Context) error {
	return errors.Join(e.session.Close(ctx), e.db.Close())
}

// withSession opens the application, runs fn and closes everything again.
func (r *Runner) withSession(ctx context.Context, fn func(*env) error) error {
	e, err := r.open(ctx, openOpts{})
	if err != nil {
		return err
	}
	return errors.Join(fn(e), e.Close(context.WithoutCancel(ctx)))
}
