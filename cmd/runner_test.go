package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/stagelist/internal/metronome"
	"github.com/desertthunder/stagelist/internal/services"
	"github.com/desertthunder/stagelist/internal/shared"
	tu "github.com/desertthunder/stagelist/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			input := strings.NewReader("secret\n")
			httpClient := &http.Client{}
			sink := &metronome.SilentSink{}
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				Input:      input,
				HTTPClient: httpClient,
				API:        api,
				Sink:       sink,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.input != input {
				t.Error("expected input to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.sink != sink {
				t.Error("expected sink to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil input uses stdin", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Input: nil})

			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil api builds one for the cloud base URL", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Cloud.BaseURL = "http://backend.test"
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.api == nil || runner.api.BaseURL() != "http://backend.test" {
				t.Errorf("expected api for http://backend.test, got %v", runner.api)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("SetConfig", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		config := shared.DefaultConfig()
		config.Cloud.BaseURL = "http://other.test"

		runner.SetConfig(config, "other.toml")

		if runner.config != config || runner.configPath != "other.toml" {
			t.Error("expected config and path to be replaced")
		}
		if runner.api.BaseURL() != "http://other.test" {
			t.Errorf("expected api rebuilt for the new base URL, got %s", runner.api.BaseURL())
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			if seen[cmd.Name] {
				t.Errorf("command %q registered twice", cmd.Name)
			}
			seen[cmd.Name] = true
		}

		for _, name := range []string{"setup", "list", "lists", "play", "sounds", "settings", "auth", "sync", "export", "import", "share", "song", "serve", "api", "tui"} {
			if !seen[name] {
				t.Errorf("expected %q to be registered", name)
			}
		}
	})
}

// newTestRunner returns a runner over a fresh database with cloud sync off and a silent sink.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "stagelist.db")
	config.Cloud.Enabled = false

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
		Sink:   &metronome.SilentSink{},
	})
	return runner, output
}

// run executes args against a fresh command tree and returns the output it wrote.
func run(t *testing.T, r *Runner, output *bytes.Buffer, args ...string) (string, error) {
	t.Helper()
	output.Reset()
	app := &cli.Command{Name: "stagelist", Commands: r.register()}
	err := app.Run(context.Background(), append([]string{"stagelist"}, args...))
	return output.String(), err
}

func mustRun(t *testing.T, r *Runner, output *bytes.Buffer, args ...string) string {
	t.Helper()
	out, err := run(t, r, output, args...)
	require.NoError(t, err, "stagelist %s", strings.Join(args, " "))
	return out
}

func TestListCommands(t *testing.T) {
	t.Run("show prints the seeded list", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "list")
		assert.Contains(t, got, "Stage List")
		assert.Contains(t, got, "  1. Get Back")
		assert.Contains(t, got, "120 BPM")
	})

	t.Run("show as json", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "list", "--json")
		assert.Contains(t, got, `"title": "Get Back"`)
		assert.Contains(t, got, `"bpm": 120`)
	})

	t.Run("add appends and persists", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "list", "add", "Encore", "150")
		assert.Contains(t, got, "Added #6 Encore (150 BPM)")

		got = mustRun(t, r, out, "list")
		assert.Contains(t, got, "  6. Encore")
	})

	t.Run("add rejects a non-numeric tempo", func(t *testing.T) {
		r, out := newTestRunner(t)

		_, err := run(t, r, out, "list", "add", "Encore", "fast")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("add requires a tempo", func(t *testing.T) {
		r, out := newTestRunner(t)

		_, err := run(t, r, out, "list", "add", "Encore")
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("edit changes the tempo only", func(t *testing.T) {
		r, out := newTestRunner(t)

		mustRun(t, r, out, "list", "edit", "--bpm", "99", "1")
		got := mustRun(t, r, out, "list")
		assert.Contains(t, got, "Get Back")
		assert.Contains(t, got, " 99 BPM")
	})

	t.Run("edit without changes fails", func(t *testing.T) {
		r, out := newTestRunner(t)

		_, err := run(t, r, out, "list", "edit", "1")
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("move uses one-based positions", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "list", "mv", "1", "5")
		assert.Contains(t, got, "  1. Better Than This")
		assert.Contains(t, got, "  5. Get Back")
	})

	t.Run("move out of range fails", func(t *testing.T) {
		r, out := newTestRunner(t)

		_, err := run(t, r, out, "list", "mv", "1", "9")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("remove", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "list", "rm", "1")
		assert.Contains(t, got, "Deleted Get Back")

		got = mustRun(t, r, out, "list")
		assert.NotContains(t, got, "Get Back")
		assert.Contains(t, got, "  1. Better Than This")

		_, err := run(t, r, out, "list", "rm", "9")
		assert.ErrorIs(t, err, shared.ErrSongNotFound)
	})

	t.Run("lock toggles and blocks play", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "list", "lock", "1")
		assert.Contains(t, got, "Locked Get Back")
		assert.Contains(t, mustRun(t, r, out, "list"), "[locked]")

		_, err := run(t, r, out, "play", "1")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		got = mustRun(t, r, out, "list", "lock", "1")
		assert.Contains(t, got, "Unlocked Get Back")
	})

	t.Run("rename", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "list", "rename", "  Friday Gig  ")
		assert.Contains(t, got, "Renamed to Friday Gig")

		_, err := run(t, r, out, "list", "rename", "   ")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestListsCommands(t *testing.T) {
	r, out := newTestRunner(t)

	got := mustRun(t, r, out, "lists")
	assert.Contains(t, got, "* default")
	assert.Contains(t, got, "my first Stage List")

	got = mustRun(t, r, out, "lists", "save-as", "Friday")
	assert.Contains(t, got, "Saved Friday")

	got = mustRun(t, r, out, "lists", "ls")
	assert.Contains(t, got, "Friday")
	assert.Contains(t, got, "my first Stage List")

	got = mustRun(t, r, out, "lists", "load", "default")
	assert.Contains(t, got, "Get Back")

	_, err := run(t, r, out, "lists", "load", "missing")
	assert.ErrorIs(t, err, shared.ErrListNotFound)

	got = mustRun(t, r, out, "lists", "new")
	assert.Contains(t, got, "New Stage List")
	assert.Contains(t, mustRun(t, r, out, "list"), "No songs yet")
}

func TestPlay(t *testing.T) {
	r, out := newTestRunner(t)

	got := mustRun(t, r, out, "play", "--duration", "50ms", "--sound", "snap", "2")
	assert.Contains(t, got, "Better Than This at 128 BPM (snap")
	assert.Contains(t, got, "Stopped after")

	settings := mustRun(t, r, out, "settings")
	assert.NotContains(t, settings, "snap", "--sound applies to one run only")

	_, err := run(t, r, out, "play", "--duration", "10ms", "--sound", "kazoo", "2")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestSettingsAndSounds(t *testing.T) {
	t.Run("set persists sound and volume", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "settings", "set", "--sound", "cowbell", "--volume", "0.5")
		assert.Contains(t, got, "Sound: cowbell, volume: 50%")

		got = mustRun(t, r, out, "settings", "--json")
		assert.Contains(t, got, `"metronomeSound": "cowbell"`)

		got = mustRun(t, r, out, "sounds")
		assert.Contains(t, got, "* cowbell")
	})

	t.Run("set validates", func(t *testing.T) {
		r, out := newTestRunner(t)

		_, err := run(t, r, out, "settings", "set")
		assert.ErrorIs(t, err, shared.ErrMissingArgument)

	})

	t.Run("volume out of range is a flag error", func(t *testing.T) {
		tc := []struct {
			name string
			args []string
		}{
			{"settings set", []string{"settings", "set", "--volume", "2"}},
			{"play", []string{"play", "--volume", "1.5", "1"}},
			{"sounds render", []string{"sounds", "render", "--volume", "3", "beep", filepath.Join(t.TempDir(), "x.wav")}},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				r, out := newTestRunner(t)
				_, err := run(t, r, out, tt.args...)
				assert.ErrorIs(t, err, shared.ErrInvalidFlag)
			})
		}
	})

	t.Run("render writes a wav file", func(t *testing.T) {
		r, out := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "beep.wav")

		got := mustRun(t, r, out, "sounds", "render", "beep", path)
		assert.Contains(t, got, "Wrote "+path)
		tu.AssertFileExists(t, path)
		assert.True(t, strings.HasPrefix(tu.MustReadFile(t, path), "RIFF"))

		_, err := run(t, r, out, "sounds", "render", "kazoo", path)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestExportImportShare(t *testing.T) {
	t.Run("export writes the current list", func(t *testing.T) {
		r, out := newTestRunner(t)
		dir := t.TempDir()

		mustRun(t, r, out, "export", "--dir", dir, "yaml")
		tu.AssertFileExists(t, filepath.Join(dir, "default.yaml"))
		assert.Contains(t, tu.MustReadFile(t, filepath.Join(dir, "default.yaml")), "Get Back")
	})

	t.Run("export to stdout", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "export", "--stdout", "markdown")
		assert.Contains(t, got, "Get Back")
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		r, out := newTestRunner(t)

		_, err := run(t, r, out, "export", "pdf")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("export all writes a manifest", func(t *testing.T) {
		r, out := newTestRunner(t)
		dir := filepath.Join(t.TempDir(), "all")
		mustRun(t, r, out, "lists", "save-as", "Friday")

		got := mustRun(t, r, out, "export", "--all", "--dir", dir, "json")
		assert.Contains(t, got, "Lists:     2")
		assert.Contains(t, got, "Failed:    0")
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})

	t.Run("import loads the file as the current list", func(t *testing.T) {
		r, out := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "gig.yaml")
		doc := "name: Saturday\nsongs:\n  - title: Opener\n    bpm: 132\n  - title: Closer\n    bpm: 90\n"
		require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

		got := mustRun(t, r, out, "import", path)
		assert.Contains(t, got, `Imported "Saturday" with 2 songs`)

		got = mustRun(t, r, out, "list")
		assert.Contains(t, got, "  1. Opener")
		assert.Contains(t, got, "  2. Closer")
	})

	t.Run("import of a missing file fails", func(t *testing.T) {
		r, out := newTestRunner(t)

		_, err := run(t, r, out, "import", filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("share", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "share")
		assert.Equal(t, "Check out my Stage List with 5 songs!\n", got)
	})
}

func TestSyncCommands(t *testing.T) {
	t.Run("status with nothing recorded", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "sync", "status")
		assert.Contains(t, got, "No sync jobs recorded yet.")
	})

	t.Run("prune", func(t *testing.T) {
		r, out := newTestRunner(t)

		got := mustRun(t, r, out, "sync", "prune")
		assert.Contains(t, got, "Removed 0 entries")
	})

	t.Run("cloud commands need cloud enabled", func(t *testing.T) {
		r, out := newTestRunner(t)

		for _, args := range [][]string{{"sync"}, {"auth", "status"}, {"auth", "signout"}} {
			_, err := run(t, r, out, args...)
			assert.ErrorIs(t, err, shared.ErrServiceUnavailable, "stagelist %s", strings.Join(args, " "))
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("post rejects invalid json", func(t *testing.T) {
		r, out := newTestRunner(t)

		_, err := run(t, r, out, "api", "post", "--data", "{nope", "/api/lists")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("get reports non-2xx responses", func(t *testing.T) {
		r, out := newTestRunner(t)
		r.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(`{"error":"not found"}`)),
		}, nil)}
		r.SetConfig(r.config, "")

		_, err := run(t, r, out, "api", "get", "/api/lists/nope")
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
	})

	t.Run("get prints json", func(t *testing.T) {
		r, out := newTestRunner(t)
		r.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(`{"status":"ok"}`)),
		}, nil)}
		r.SetConfig(r.config, "")

		got := mustRun(t, r, out, "api", "get", "/health")
		assert.Contains(t, got, `"status": "ok"`)
	})
}

func TestHelpers(t *testing.T) {
	t.Run("intArg", func(t *testing.T) {
		tests := []struct {
			name    string
			args    []string
			want    int
			wantErr error
		}{
			{name: "number", args: []string{"7"}, want: 7},
			{name: "padded", args: []string{" 3 "}, want: 3},
			{name: "missing", args: nil, wantErr: shared.ErrMissingArgument},
			{name: "word", args: []string{"seven"}, wantErr: shared.ErrInvalidArgument},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var got int
				var gotErr error
				cmd := &cli.Command{
					Name:      "argcheck",
					Arguments: []cli.Argument{&cli.StringArg{Name: "n"}},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						got, gotErr = intArg(cmd, "n")
						return nil
					},
				}
				require.NoError(t, cmd.Run(context.Background(), append([]string{"argcheck"}, tt.args...)))

				if tt.wantErr != nil {
					if !errors.Is(gotErr, tt.wantErr) {
						t.Errorf("intArg() error = %v, want %v", gotErr, tt.wantErr)
					}
					return
				}
				if gotErr != nil || got != tt.want {
					t.Errorf("intArg() = %d, %v; want %d", got, gotErr, tt.want)
				}
			})
		}
	})
}
