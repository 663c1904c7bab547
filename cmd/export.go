package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/stagelist/internal/formatter"
	"github.com/desertthunder/stagelist/internal/metadata"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/desertthunder/stagelist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes the current list, or with --all every saved list, in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("format")
	if name == "" {
		name = string(formatter.JSON)
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		return err
	}

	return r.withSession(ctx, func(e *env) error {
		switch {
		case cmd.Bool("all"):
			return r.exportAll(ctx, e, format, cmd)
		case cmd.Bool("stdout"):
			data, err := formatter.Export(e.session.CurrentList(), format)
			if err != nil {
				return err
			}
			_, err = r.output.Write(data)
			return err
		}

		files, err := formatter.WriteExport(e.session.CurrentList(), format, cmd.String("dir"))
		if err != nil {
			return err
		}
		for _, f := range files {
			r.writePlain("✓ Wrote %s\n", f)
		}
		return nil
	})
}

func (r *Runner) exportAll(ctx context.Context, e *env, format formatter.Format, cmd *cli.Command) error {
	engine := e.engine
	if engine == nil {
		engine = tasks.NewSyncEngine(nil, e.lists, e.workspace, e.logger)
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := engine.BulkExport(ctx, progressCh, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	r.writePlain("Lists:     %d\n", result.TotalLists)
	r.writePlain("Succeeded: %d\n", result.SuccessfulExports)
	r.writePlain("Failed:    %d\n", result.FailedExports)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	return r.writePlain("Manifest:  %s\n", result.ManifestPath)
}

// Import reads a list from a yaml or json file, saves it and makes it current.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	list, err := formatter.ImportFile(path)
	if err != nil {
		return err
	}

	return r.withSession(ctx, func(e *env) error {
		if err := e.session.ImportList(ctx, list); err != nil {
			return err
		}
		return r.writePlain("✓ Imported %q with %d songs\n", e.session.Title(), len(e.session.Songs()))
	})
}

// Share prints the share text for the current list.
func (r *Runner) Share(ctx context.Context, cmd *cli.Command) error {
	return r.withSession(ctx, func(e *env) error {
		return r.writePlain("%s\n", e.session.Share())
	})
}

// SongImport adds a song using the title and tempo read from an audio file's tags.
func (r *Runner) SongImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	meta, err := metadata.NewExtractor(r.logger).ExtractFromFile(path)
	if err != nil {
		return err
	}
	title, bpm, err := meta.Song(cmd.Int("bpm"))
	if err != nil {
		return err
	}
	if !meta.Tagged {
		r.logger.Warn("no tags found, using the file name", "path", path)
	}

	return r.withSession(ctx, func(e *env) error {
		song, err := e.session.AddSong(ctx, title, bpm)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Added %q at %d BPM\n", song.Title, song.BPM)
	})
}
