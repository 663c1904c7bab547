package main

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/stagelist/internal/repositories"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/desertthunder/stagelist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncNow runs the cloud reconciliation and reports each phase as it happens.
func (r *Runner) SyncNow(ctx context.Context, cmd *cli.Command) error {
	return r.withCloud(ctx, func(e *env) error {
		if _, err := e.auth.Session(ctx); errors.Is(err, shared.ErrNotAuthenticated) {
			return r.writePlain("Not signed in; run `stagelist auth signin` first.\n")
		}

		progressCh := make(chan tasks.ProgressUpdate, 50)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for update := range progressCh {
				switch update.Phase {
				case tasks.CheckHealth:
					r.writePlain("🔌 %s\n", update.Message)
				case tasks.MigrateLists, tasks.UploadSettings:
					r.writePlain("📤 %s\n", update.Message)
				default:
					r.writePlain("📥 %s\n", update.Message)
				}
			}
		}()

		result, err := e.connect(ctx, progressCh)
		close(progressCh)
		<-done

		if err != nil {
			return err
		}

		r.writePlain("\n")
		r.writePlainHeader("Sync Complete")
		r.writePlain("Outcome: %s\n", result.Outcome)
		r.writePlain("Lists:   %d\n", len(result.Lists))
		r.writePlain("Current: %s\n", e.session.Title())
		return r.writePlain("Sound:   %s at %.0f%%\n", result.Settings.MetronomeSound, result.Settings.MetronomeVolume*100)
	})
}

// SyncStatus prints the most recent background sync results.
func (r *Runner) SyncStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := repositories.NewSyncLogRepository(db).Recent(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return r.writePlain("No sync jobs recorded yet.\n")
	}

	for _, entry := range entries {
		status := "✓"
		if !entry.OK {
			status = "✗ " + entry.Error
		}
		r.writePlain("%s  %-40s %s\n", entry.CreatedAt.Local().Format(time.DateTime), entry.Job, status)
	}
	return nil
}

// SyncPrune deletes sync log entries older than --older-than.
func (r *Runner) SyncPrune(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := repositories.NewSyncLogRepository(db).Prune(ctx, time.Now().Add(-cmd.Duration("older-than")))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Removed %d entries\n", n)
}
