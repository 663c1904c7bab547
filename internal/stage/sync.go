package stage

import (
	"context"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/services"
	"github.com/desertthunder/stagelist/internal/tasks"
)

// Sync job keys. List keys are per list so edits to one list never coalesce away another's.
const (
	SettingsKey = "settings"
	listKey     = "list:"
	deleteKey   = "delete:"
)

// CloudEnabled reports whether mutations are being mirrored.
func (s *Session) CloudEnabled() bool { return s.sched.Enabled() }

// OnSessionChanged re-derives state after a sign-in or sign-out without a restart.
//
// Signing in runs the initial cloud load while playback is held, adopts whatever it produced and
// enables mirroring unless the load fell back to local-only. Signing out disables mirroring.
func (s *Session) OnSessionChanged(ctx context.Context, signedIn bool, prog chan<- tasks.ProgressUpdate) (*tasks.ReconcileResult, error) {
	if !signedIn || s.sync == nil {
		s.sched.SetEnabled(false)
		return nil, nil
	}

	s.mu.Lock()
	s.loading = true
	s.updatePlaybackLocked()
	current := s.listID
	s.mu.Unlock()

	result, err := s.sync.Reconcile(ctx, prog, current)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		s.loading = false
		s.updatePlaybackLocked()
	}()

	if err != nil {
		s.sched.SetEnabled(false)
		return result, err
	}

	if result.Outcome == tasks.Adopted {
		s.applySettings(result.Settings)
		for _, l := range result.Lists {
			if l.ID == result.CurrentID {
				if err := s.loadLocked(ctx, l); err != nil {
					return result, err
				}
				break
			}
		}
	}

	s.sched.SetEnabled(true)
	s.logger.Info("cloud sync enabled", "outcome", result.Outcome, "list", s.listID)
	return result, nil
}

// WatchAuth subscribes the session to auth events: sign-in triggers the cloud load and
// sign-out or expiry switches to local-only. Refreshes are ignored.
func (s *Session) WatchAuth(ctx context.Context, auth *services.AuthService) (unsubscribe func()) {
	return auth.Subscribe(func(ev services.SessionEvent) {
		switch ev.Kind {
		case services.SignedIn:
			if _, err := s.OnSessionChanged(ctx, true, nil); err != nil {
				s.logger.Warn("cloud load failed, working locally", "err", err)
			}
		case services.SignedOut, services.Expired:
			_, _ = s.OnSessionChanged(ctx, false, nil)
		}
	})
}

func (s *Session) remote() services.Remote {
	if s.sync == nil {
		return nil
	}
	return s.sync.Remote()
}

func (s *Session) notifyList(list *models.StageList) {
	remote := s.remote()
	if remote == nil {
		return
	}
	snapshot := list.Clone()
	s.sched.Notify(listKey+snapshot.ID, func(ctx context.Context) error {
		_, err := remote.Upsert(ctx, snapshot)
		return err
	})
}

func (s *Session) notifyDelete(id string) {
	remote := s.remote()
	if remote == nil {
		return
	}
	s.sched.Cancel(listKey + id)
	s.sched.Notify(deleteKey+id, func(ctx context.Context) error {
		return remote.Delete(ctx, id)
	})
}

func (s *Session) notifySettings(settings models.Settings) {
	remote := s.remote()
	if remote == nil {
		return
	}
	sound, volume := settings.MetronomeSound, settings.MetronomeVolume
	s.sched.Notify(SettingsKey, func(ctx context.Context) error {
		_, err := remote.UpdateSettings(ctx, models.SettingsPatch{MetronomeSound: &sound, MetronomeVolume: &volume})
		return err
	})
}
