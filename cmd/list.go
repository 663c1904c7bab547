package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/desertthunder/stagelist/internal/stage"
	"github.com/urfave/cli/v3"
)

// ListShow prints the current list.
func (r *Runner) ListShow(ctx context.Context, cmd *cli.Command) error {
	return r.withSession(ctx, func(e *env) error {
		if cmd.Bool("json") {
			return r.writeJSON(e.session.CurrentList(), true)
		}
		return r.printList(e.session)
	})
}

// ListAdd appends a song.
func (r *Runner) ListAdd(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	bpm, err := intArg(cmd, "bpm")
	if err != nil {
		return err
	}

	return r.withSession(ctx, func(e *env) error {
		song, err := e.session.AddSong(ctx, title, bpm)
		if err != nil {
			return err
		}
		r.logger.Debug("song added", "id", song.ID, "title", song.Title)
		return r.writePlain("✓ Added #%d %s (%d BPM)\n", song.Number, song.Title, song.BPM)
	})
}

// ListEdit changes a song's title and/or tempo.
func (r *Runner) ListEdit(ctx context.Context, cmd *cli.Command) error {
	n, err := intArg(cmd, "number")
	if err != nil {
		return err
	}
	if !cmd.IsSet("title") && !cmd.IsSet("bpm") {
		return fmt.Errorf("%w: pass --title and/or --bpm", shared.ErrMissingArgument)
	}

	return r.withSession(ctx, func(e *env) error {
		song, err := songAt(e.session, n)
		if err != nil {
			return err
		}
		title, bpm := song.Title, song.BPM
		if cmd.IsSet("title") {
			title = cmd.String("title")
		}
		if cmd.IsSet("bpm") {
			bpm = cmd.Int("bpm")
		}
		if err := e.session.EditSong(ctx, song.ID, title, bpm); err != nil {
			return err
		}
		return r.writePlain("✓ Updated #%d\n", n)
	})
}

// ListRemove deletes a song.
func (r *Runner) ListRemove(ctx context.Context, cmd *cli.Command) error {
	n, err := intArg(cmd, "number")
	if err != nil {
		return err
	}

	return r.withSession(ctx, func(e *env) error {
		song, err := songAt(e.session, n)
		if err != nil {
			return err
		}
		if err := e.session.DeleteSong(ctx, song.ID); err != nil {
			return err
		}
		return r.writePlain("✓ Deleted %s\n", song.Title)
	})
}

// ListMove moves the song at position from to position to (both 1-based).
func (r *Runner) ListMove(ctx context.Context, cmd *cli.Command) error {
	from, err := intArg(cmd, "from")
	if err != nil {
		return err
	}
	to, err := intArg(cmd, "to")
	if err != nil {
		return err
	}

	return r.withSession(ctx, func(e *env) error {
		moved, err := e.session.MoveSong(ctx, from-1, to-1)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: positions must be between 1 and %d", shared.ErrInvalidArgument, len(e.session.Songs()))
		}
		return r.printList(e.session)
	})
}

// ListLock toggles a song's lock.
func (r *Runner) ListLock(ctx context.Context, cmd *cli.Command) error {
	n, err := intArg(cmd, "number")
	if err != nil {
		return err
	}

	return r.withSession(ctx, func(e *env) error {
		song, err := songAt(e.session, n)
		if err != nil {
			return err
		}
		if err := e.session.ToggleLock(ctx, song.ID); err != nil {
			return err
		}
		if song.Locked {
			return r.writePlain("✓ Unlocked %s\n", song.Title)
		}
		return r.writePlain("✓ Locked %s\n", song.Title)
	})
}

// ListRename renames the current list.
func (r *Runner) ListRename(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	return r.withSession(ctx, func(e *env) error {
		if err := e.session.Rename(ctx, name); err != nil {
			return err
		}
		return r.writePlain("✓ Renamed to %s\n", e.session.Title())
	})
}

// ListsShow prints the saved lists, marking the current one.
func (r *Runner) ListsShow(ctx context.Context, cmd *cli.Command) error {
	return r.withSession(ctx, func(e *env) error {
		lists, err := e.session.SavedLists(ctx)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(lists, true)
		}

		r.writePlainHeader("Saved Stage Lists")
		current := e.session.ListID()
		for _, l := range lists {
			mark := " "
			if l.ID == current {
				mark = "*"
			}
			r.writePlain("%s %-36s  %-30s %3d songs  %s\n", mark, l.ID, l.Name, len(l.Songs), l.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	})
}

// ListsSaveAs saves the current songs under a new name.
func (r *Runner) ListsSaveAs(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	return r.withSession(ctx, func(e *env) error {
		list, err := e.session.SaveAs(ctx, name)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Saved %s (%s)\n", list.Name, list.ID)
	})
}

// ListsLoad makes a saved list current.
func (r *Runner) ListsLoad(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	return r.withSession(ctx, func(e *env) error {
		if err := e.session.LoadList(ctx, id); err != nil {
			return err
		}
		return r.printList(e.session)
	})
}

// ListsRename renames a saved list.
func (r *Runner) ListsRename(ctx context.Context, cmd *cli.Command) error {
	id, name := cmd.StringArg("id"), cmd.StringArg("name")
	return r.withSession(ctx, func(e *env) error {
		if err := e.session.RenameList(ctx, id, name); err != nil {
			return err
		}
		return r.writePlain("✓ Renamed %s to %s\n", id, strings.TrimSpace(name))
	})
}

// ListsDelete removes a saved list.
func (r *Runner) ListsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	return r.withSession(ctx, func(e *env) error {
		if err := e.session.DeleteList(ctx, id); err != nil {
			return err
		}
		return r.writePlain("✓ Deleted %s; current list is %s\n", id, e.session.Title())
	})
}

// ListsNew starts an empty list.
func (r *Runner) ListsNew(ctx context.Context, cmd *cli.Command) error {
	return r.withSession(ctx, func(e *env) error {
		list, err := e.session.NewList(ctx)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Started %s (%s)\n", list.Name, list.ID)
	})
}

// ListsDuplicate copies a saved list and loads the copy.
func (r *Runner) ListsDuplicate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	return r.withSession(ctx, func(e *env) error {
		list, err := e.session.DuplicateList(ctx, id)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Created %s (%s)\n", list.Name, list.ID)
	})
}

func (r *Runner) printList(s *stage.Session) error {
	songs := s.Songs()
	r.writePlainHeader(s.Title())
	if len(songs) == 0 {
		return r.writePlain("No songs yet. Add one with `stagelist list add <title> <bpm>`.\n")
	}
	for _, song := range songs {
		lock := ""
		if song.Locked {
			lock = "  [locked]"
		}
		r.writePlain("%3d. %-40s %3d BPM%s\n", song.Number, song.Title, song.BPM, lock)
	}
	return nil
}

// songAt returns the song at 1-based position n.
func songAt(s *stage.Session, n int) (models.Song, error) {
	songs := s.Songs()
	if n < 1 || n > len(songs) {
		return models.Song{}, fmt.Errorf("%w: no song at position %d", shared.ErrSongNotFound, n)
	}
	return songs[n-1], nil
}

func intArg(cmd *cli.Command, name string) (int, error) {
	raw := strings.TrimSpace(cmd.StringArg(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return n, nil
}
