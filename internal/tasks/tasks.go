// package tasks implements cloud reconciliation, debounced background sync and bulk export for stage lists.
//
// The core abstraction is SyncEngine, which owns the collaborators needed to move lists between local storage and the cloud.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/services"
	"github.com/desertthunder/stagelist/internal/shared"
)

// ListStore is the local saved-lists collection.
type ListStore interface {
	List(ctx context.Context) ([]*models.StageList, error)
	ReplaceAll(ctx context.Context, lists []*models.StageList) error
}

// SettingsStore is the local settings record.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, s models.Settings) error
}

// Outcome is the path taken by [SyncEngine.Reconcile].
type Outcome int

const (
	LocalOnly Outcome = iota // cloud unreachable, unauthenticated, or a step failed
	InSync                   // both sides empty
	Migrated                 // local lists uploaded to an empty cloud
	Adopted                  // cloud lists replaced the local collection
)

func (o Outcome) String() string {
	switch o {
	case LocalOnly:
		return "local-only"
	case InSync:
		return "in-sync"
	case Migrated:
		return "migrated"
	case Adopted:
		return "adopted"
	default:
		return ""
	}
}

// ReconcileResult describes what the initial cloud load did.
type ReconcileResult struct {
	Outcome   Outcome
	Lists     []*models.StageList // local lists after reconciliation
	Settings  models.Settings     // effective settings after reconciliation
	CurrentID string              // list the workspace should show
	Err       error               // cause of a LocalOnly outcome
}

// SyncEngine moves stage lists between local storage and the cloud.
type SyncEngine struct {
	remote        services.Remote
	lists         ListStore
	settings      SettingsStore
	logger        *log.Logger
	healthTimeout time.Duration
}

// NewSyncEngine creates a SyncEngine. remote may be nil, in which case every reconciliation is local-only.
func NewSyncEngine(remote services.Remote, lists ListStore, settings SettingsStore, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncEngine{
		remote:        remote,
		lists:         lists,
		settings:      settings,
		logger:        logger,
		healthTimeout: services.DefaultHealthTimeout,
	}
}

// SetHealthTimeout overrides the health probe budget.
func (e *SyncEngine) SetHealthTimeout(d time.Duration) {
	if d > 0 {
		e.healthTimeout = d
	}
}

// Remote returns the cloud collaborator, or nil when running local-only.
func (e *SyncEngine) Remote() services.Remote { return e.remote }

// Reconcile runs the initial cloud load.
//
// An empty cloud receives every local list and the local settings. A non-empty cloud replaces the local
// collection and settings, and currentID is kept when the cloud has it, otherwise the first cloud list wins.
// Any failure leaves local data untouched and yields a LocalOnly result whose Err is also returned.
func (e *SyncEngine) Reconcile(ctx context.Context, prog chan<- ProgressUpdate, currentID string) (*ReconcileResult, error) {
	local, err := e.lists.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local lists: %w", err)
	}
	localSettings, err := e.settings.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local settings: %w", err)
	}

	result := &ReconcileResult{Outcome: LocalOnly, Lists: local, Settings: localSettings, CurrentID: currentID}
	fail := func(err error) (*ReconcileResult, error) {
		e.logger.Warn("cloud reconciliation failed, staying local-only", "err", err)
		result.Outcome = LocalOnly
		result.Lists = local
		result.Settings = localSettings
		result.CurrentID = currentID
		result.Err = err
		return result, err
	}

	if e.remote == nil {
		return fail(fmt.Errorf("%w: cloud sync disabled", shared.ErrServiceUnavailable))
	}

	e.sendProgress(prog, checkHealthUpdate())
	hctx, cancel := context.WithTimeout(ctx, e.healthTimeout)
	err = e.remote.Health(hctx)
	cancel()
	if err != nil {
		return fail(err)
	}

	cloud, err := e.remote.ListAll(ctx)
	if err != nil {
		return fail(err)
	}
	e.sendProgress(prog, fetchListsUpdate(len(cloud)))

	cloudSettings, err := e.remote.GetSettings(ctx)
	if err != nil {
		return fail(err)
	}
	e.sendProgress(prog, fetchSettingsUpdate(cloudSettings))

	switch {
	case len(cloud) == 0 && len(local) > 0:
		for i, l := range local {
			e.sendProgress(prog, migrateListUpdate(i+1, len(local), l))
			if _, err := e.remote.Create(ctx, l); err != nil {
				return fail(fmt.Errorf("failed to migrate list %s: %w", l.ID, err))
			}
		}

		e.sendProgress(prog, uploadSettingsUpdate())
		sound, volume := localSettings.MetronomeSound, localSettings.MetronomeVolume
		patch := models.SettingsPatch{MetronomeSound: &sound, MetronomeVolume: &volume}
		if _, err := e.remote.UpdateSettings(ctx, patch); err != nil {
			return fail(fmt.Errorf("failed to upload settings: %w", err))
		}

		e.logger.Info("migrated local lists to the cloud", "lists", len(local))
		result.Outcome = Migrated
		return result, nil

	case len(cloud) > 0:
		if err := e.lists.ReplaceAll(ctx, cloud); err != nil {
			return fail(fmt.Errorf("failed to store cloud lists: %w", err))
		}
		e.sendProgress(prog, adoptListsUpdate(cloud))

		if err := e.settings.SaveSettings(ctx, cloudSettings); err != nil {
			return fail(fmt.Errorf("failed to store cloud settings: %w", err))
		}
		e.sendProgress(prog, adoptSettingsUpdate(cloudSettings))

		result.Outcome = Adopted
		result.Lists = cloud
		result.Settings = cloudSettings
		result.CurrentID = cloud[0].ID
		for _, l := range cloud {
			if l.ID == currentID {
				result.CurrentID = currentID
				break
			}
		}
		e.logger.Info("adopted cloud lists", "lists", len(cloud), "current", result.CurrentID)
		return result, nil
	}

	result.Outcome = InSync
	return result, nil
}

// sendProgress sends a progress update without blocking; updates are dropped when nobody is listening.
func (e *SyncEngine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}
