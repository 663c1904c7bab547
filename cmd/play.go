package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/stagelist/internal/metronome"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/gopxl/beep"
	"github.com/urfave/cli/v3"
)

// Play runs the metronome at a song's tempo until interrupted or --duration elapses.
// --sound and --volume apply to this run only.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	n, err := intArg(cmd, "number")
	if err != nil {
		return err
	}
	volume, hasVolume, err := volumeFlag(cmd)
	if err != nil {
		return err
	}

	e, err := r.open(ctx, openOpts{audio: true, offline: true})
	if err != nil {
		return err
	}
	defer e.Close(context.WithoutCancel(ctx))

	song, err := songAt(e.session, n)
	if err != nil {
		return err
	}
	if song.Locked {
		return fmt.Errorf("%w: %q is locked; unlock it with `stagelist list lock %d`", shared.ErrInvalidInput, song.Title, n)
	}

	metro := e.session.Metronome()
	if name := cmd.String("sound"); name != "" {
		sound, err := metronome.ParseSound(name)
		if err != nil {
			return err
		}
		metro.SetSound(sound)
	}
	if hasVolume {
		if err := metro.SetVolume(volume); err != nil {
			return err
		}
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := cmd.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, d)
		defer cancel()
	}

	if _, err := e.session.ToggleActive(song.ID); err != nil {
		return err
	}
	started := time.Now()
	r.writePlain("♪ %s at %d BPM (%s, %.0f%%). Press Ctrl+C to stop.\n", song.Title, song.BPM, metro.Sound(), metro.Volume()*100)

	<-runCtx.Done()
	e.session.Deactivate()

	return r.writePlain("■ Stopped after %d beats (%s)\n", metro.Pulses(), time.Since(started).Round(time.Second))
}

// SoundsList prints every metronome sound, marking the selected one.
func (r *Runner) SoundsList(ctx context.Context, cmd *cli.Command) error {
	return r.withSession(ctx, func(e *env) error {
		current := e.session.Settings().MetronomeSound
		for _, s := range metronome.Sounds() {
			mark := " "
			if s.String() == current {
				mark = "*"
			}
			t := s.Timbre()
			r.writePlain("%s %-10s %-8s %6.0f Hz  %s\n", mark, s, t.Waveform, t.Frequency, t.Duration)
		}
		return nil
	})
}

// SoundsRender writes one pulse of a sound to a WAV file.
func (r *Runner) SoundsRender(ctx context.Context, cmd *cli.Command) error {
	sound, err := metronome.ParseSound(cmd.StringArg("name"))
	if err != nil {
		return err
	}
	out := cmd.StringArg("output")
	if out == "" {
		return fmt.Errorf("%w: output", shared.ErrMissingArgument)
	}

	volume := r.config.Metronome.Volume
	if v, ok, err := volumeFlag(cmd); err != nil {
		return err
	} else if ok {
		volume = v
	}

	rate := metronome.DefaultSampleRate
	if r.config.Metronome.SampleRate > 0 {
		rate = beep.SampleRate(r.config.Metronome.SampleRate)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	pulse := metronome.Pulse{Sound: sound, Timbre: sound.Timbre(), Volume: volume, At: time.Now()}
	if err := errors.Join(metronome.RenderWAV(f, pulse, rate), f.Close()); err != nil {
		return fmt.Errorf("failed to render %s: %w", sound, err)
	}

	r.logger.Info("rendered pulse", "sound", sound, "path", out, "sample_rate", int(rate))
	return r.writePlain("✓ Wrote %s\n", out)
}

// SettingsShow prints the metronome settings.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	return r.withSession(ctx, func(e *env) error {
		s := e.session.Settings()
		if cmd.Bool("json") {
			return r.writeJSON(s, true)
		}
		return r.writePlain("Sound:  %s\nVolume: %.0f%%\n", s.MetronomeSound, s.MetronomeVolume*100)
	})
}

// SettingsSet updates the metronome sound and/or volume.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("sound")
	volume, hasVolume, err := volumeFlag(cmd)
	if err != nil {
		return err
	}
	if name == "" && !hasVolume {
		return fmt.Errorf("%w: pass --sound and/or --volume", shared.ErrMissingArgument)
	}

	return r.withSession(ctx, func(e *env) error {
		if name != "" {
			if err := e.session.SetSound(ctx, name); err != nil {
				return err
			}
		}
		if hasVolume {
			if err := e.session.SetVolume(ctx, volume); err != nil {
				return err
			}
		}
		s := e.session.Settings()
		return r.writePlain("✓ Sound: %s, volume: %.0f%%\n", s.MetronomeSound, s.MetronomeVolume*100)
	})
}

// volumeFlag reads --volume. ok is false when the flag was not passed.
func volumeFlag(cmd *cli.Command) (v float64, ok bool, err error) {
	if !cmd.IsSet("volume") {
		return 0, false, nil
	}
	v = cmd.Float("volume")
	if err := models.ValidateVolume(v); err != nil {
		return 0, false, fmt.Errorf("%w: --volume must be between 0 and 1, got %g", shared.ErrInvalidFlag, v)
	}
	return v, true, nil
}
