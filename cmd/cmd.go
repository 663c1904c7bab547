// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

// setupCommand initializes configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file, initialize the database and run migrations",
		Action: r.Setup,
	}
}

// listCommand handles song operations on the current stage list.
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "Show and edit the current stage list",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.ListShow,
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Append a song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "title"},
					&cli.StringArg{Name: "bpm"},
				},
				Action: r.ListAdd,
			},
			{
				Name:      "edit",
				Usage:     "Change a song's title or tempo",
				Arguments: []cli.Argument{&cli.StringArg{Name: "number"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.IntFlag{Name: "bpm", Usage: "New tempo"},
				},
				Action: r.ListEdit,
			},
			{
				Name:      "rm",
				Aliases:   []string{"delete"},
				Usage:     "Delete a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "number"}},
				Action:    r.ListRemove,
			},
			{
				Name:  "mv",
				Usage: "Move a song to another position",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "from"},
					&cli.StringArg{Name: "to"},
				},
				Action: r.ListMove,
			},
			{
				Name:      "lock",
				Usage:     "Toggle a song's lock",
				Arguments: []cli.Argument{&cli.StringArg{Name: "number"}},
				Action:    r.ListLock,
			},
			{
				Name:      "rename",
				Usage:     "Rename the current list",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.ListRename,
			},
		},
	}
}

// listsCommand handles the saved-lists collection.
func listsCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "id"}} }
	return &cli.Command{
		Name:   "lists",
		Usage:  "Manage saved stage lists",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.ListsShow,
		Commands: []*cli.Command{
			{Name: "ls", Usage: "Show saved lists", Action: r.ListsShow},
			{
				Name:      "save-as",
				Usage:     "Save the current songs as a new list",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.ListsSaveAs,
			},
			{Name: "load", Usage: "Make a saved list current", Arguments: idArg(), Action: r.ListsLoad},
			{
				Name:  "rename",
				Usage: "Rename a saved list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "name"},
				},
				Action: r.ListsRename,
			},
			{Name: "rm", Aliases: []string{"delete"}, Usage: "Delete a saved list", Arguments: idArg(), Action: r.ListsDelete},
			{Name: "new", Usage: "Start a new empty list", Action: r.ListsNew},
			{Name: "duplicate", Aliases: []string{"dup"}, Usage: "Copy a saved list", Arguments: idArg(), Action: r.ListsDuplicate},
		},
	}
}

// playCommand runs the metronome for one song.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Run the metronome at a song's tempo until interrupted",
		Arguments: []cli.Argument{&cli.StringArg{Name: "number"}},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sound", Usage: "Metronome sound for this run"},
			&cli.FloatFlag{Name: "volume", Usage: "Volume for this run (0-1)", Value: -1},
			&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Stop after this long"},
		},
		Action: r.Play,
	}
}

// soundsCommand lists and renders metronome sounds.
func soundsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sounds",
		Usage:  "List metronome sounds",
		Action: r.SoundsList,
		Commands: []*cli.Command{
			{
				Name:  "render",
				Usage: "Render one pulse of a sound to a WAV file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
					&cli.StringArg{Name: "output"},
				},
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "volume", Usage: "Pulse volume (0-1); defaults to metronome.volume", Value: -1},
				},
				Action: r.SoundsRender,
			},
		},
	}
}

// settingsCommand shows and updates playback settings.
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "settings",
		Usage:  "Show metronome settings",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.SettingsShow,
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Update metronome settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sound", Usage: "Metronome sound"},
					&cli.FloatFlag{Name: "volume", Usage: "Volume (0-1)", Value: -1},
				},
				Action: r.SettingsSet,
			},
		},
	}
}

// authCommand handles authentication against the backend.
func authCommand(r *Runner) *cli.Command {
	credentials := func(extra ...cli.Flag) []cli.Flag {
		return append([]cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password (read from stdin when omitted)"},
			&cli.BoolFlag{Name: "remember", Usage: "Remember the email on this device", Value: true},
		}, extra...)
	}
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "signup",
				Usage:  "Create an account and sign in",
				Flags:  credentials(&cli.StringFlag{Name: "name", Usage: "Display name"}),
				Action: r.AuthSignUp,
			},
			{Name: "signin", Aliases: []string{"login"}, Usage: "Sign in", Flags: credentials(), Action: r.AuthSignIn},
			{Name: "signout", Aliases: []string{"logout"}, Usage: "Sign out", Action: r.AuthSignOut},
			{Name: "status", Usage: "Show the signed-in account and backend health", Action: r.AuthStatus},
		},
	}
}

// syncCommand reconciles with the cloud and inspects background sync.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Reconcile local lists with the cloud now",
		Action: r.SyncNow,
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show recent background sync results",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Entries to show", Value: 20},
				},
				Action: r.SyncStatus,
			},
			{
				Name:  "prune",
				Usage: "Delete old sync log entries",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "older-than", Usage: "Age cutoff", Value: 7 * 24 * time.Hour},
				},
				Action: r.SyncPrune,
			},
		},
	}
}

// exportCommand writes lists to files.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export the current list (or every saved list) as json, yaml, csv, markdown or txt",
		Arguments: []cli.Argument{&cli.StringArg{Name: "format"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "Export every saved list"},
			&cli.StringFlag{Name: "dir", Aliases: []string{"o"}, Usage: "Output directory"},
			&cli.IntFlag{Name: "workers", Usage: "Concurrent exports with --all", Value: 5},
			&cli.BoolFlag{Name: "stdout", Usage: "Print the current list instead of writing a file"},
		},
		Action: r.Export,
	}
}

// importCommand reads a list from a file.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a stage list from a yaml or json file and make it current",
		Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
		Action:    r.Import,
	}
}

// shareCommand prints the share text.
func shareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "share",
		Usage:  "Print the share text for the current list",
		Action: r.Share,
	}
}

// songCommand adds songs from audio files.
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "song",
		Usage: "Song helpers",
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Add a song using the title and tempo tagged in an audio file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "bpm", Usage: "Tempo when the file has none", Value: 120},
				},
				Action: r.SongImport,
			},
		},
	}
}

// serveCommand runs the REST backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides server.host)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides server.port)"},
			&cli.StringFlag{Name: "store", Usage: "Store driver (overrides store.driver)"},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body to send", Required: true},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive editing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive stage list editor",
		Action:  r.TUI,
	}
}
