package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stagelist/internal/metronome"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/repositories"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/desertthunder/stagelist/internal/stage"
	"github.com/desertthunder/stagelist/internal/tasks"
)

func newTestModel(t *testing.T) (*Model, *stage.Session) {
	t.Helper()

	db, err := shared.OpenMigrated(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := shared.NewLogger(io.Discard)
	store := repositories.NewLocalStore(db)
	session, err := stage.Open(context.Background(), stage.Options{
		Workspace: repositories.NewWorkspaceRepository(store),
		Lists:     repositories.NewStageListRepository(store),
		Scheduler: tasks.NewScheduler(tasks.WithDelay(time.Hour), tasks.WithSchedulerLogger(logger)),
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("stage.Open() error = %v", err)
	}
	t.Cleanup(func() { session.Close(context.Background()) })

	return NewModel(context.Background(), session, nil, logger), session
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func songTitles(s *stage.Session) []string {
	var out []string
	for _, song := range s.Songs() {
		out = append(out, song.Title)
	}
	return out
}

func TestModel_Navigation(t *testing.T) {
	t.Run("CursorClampsToList", func(t *testing.T) {
		m, s := newTestModel(t)
		press(m, tea.KeyMsg{Type: tea.KeyUp})
		if m.cursor != 0 {
			t.Errorf("cursor = %d after up at top", m.cursor)
		}
		for range 10 {
			press(m, runes("j"))
		}
		if want := len(s.Songs()) - 1; m.cursor != want {
			t.Errorf("cursor = %d, want %d", m.cursor, want)
		}
	})

	t.Run("ShiftMovesSong", func(t *testing.T) {
		m, s := newTestModel(t)
		press(m, runes("J"))
		if m.cursor != 1 {
			t.Errorf("cursor = %d, want 1", m.cursor)
		}
		got := songTitles(s)
		if got[0] != "Better Than This" || got[1] != "Get Back" {
			t.Errorf("order = %v", got)
		}

		press(m, runes("K"), runes("K"))
		if m.cursor != 0 {
			t.Errorf("cursor = %d, want 0", m.cursor)
		}
		if songTitles(s)[0] != "Get Back" {
			t.Errorf("order = %v", songTitles(s))
		}
	})

	t.Run("QuitReturnsQuitCmd", func(t *testing.T) {
		m, _ := newTestModel(t)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected a command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("q did not quit")
		}
	})
}

func TestModel_Playback(t *testing.T) {
	t.Run("EnterTogglesActiveSong", func(t *testing.T) {
		m, s := newTestModel(t)
		press(m, tea.KeyMsg{Type: tea.KeyEnter})

		song, ok := s.Active()
		if !ok || song.Title != "Get Back" {
			t.Fatalf("Active() = %v, %v", song, ok)
		}
		if !strings.Contains(m.View(), "▶ Get Back @ 120 BPM") {
			t.Error("header does not show the playing song")
		}

		press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		if _, ok := s.Active(); ok {
			t.Error("second toggle did not stop playback")
		}
	})

	t.Run("LockedSongRefusesPlay", func(t *testing.T) {
		m, s := newTestModel(t)
		press(m, runes("l"), tea.KeyMsg{Type: tea.KeyEnter})

		if _, ok := s.Active(); ok {
			t.Error("locked song became active")
		}
		if !strings.Contains(m.status, "is locked") {
			t.Errorf("status = %q", m.status)
		}
	})

	t.Run("MuteSoundAndVolume", func(t *testing.T) {
		m, s := newTestModel(t)
		press(m, runes("m"))
		if !s.Muted() {
			t.Error("m did not mute")
		}

		press(m, runes("s"))
		if got := s.Settings().MetronomeSound; got != "beep" {
			t.Errorf("sound = %q, want beep", got)
		}

		press(m, runes("+"), runes("+"))
		if got := s.Settings().MetronomeVolume; got != 0.5 {
			t.Errorf("volume = %v, want 0.5", got)
		}
		for range 10 {
			press(m, runes("-"))
		}
		if got := s.Settings().MetronomeVolume; got != 0 {
			t.Errorf("volume = %v, want 0", got)
		}
	})

	t.Run("PulseFlipsBeat", func(t *testing.T) {
		m, _ := newTestModel(t)
		ch := make(chan metronome.Pulse, 1)
		m.pulses = ch

		hook := PulseHook(ch)
		hook(metronome.Pulse{})
		hook(metronome.Pulse{}) // dropped, buffer full

		msg := m.waitForPulse()()
		_, cmd := m.Update(msg)
		if !m.beat {
			t.Error("pulse did not flip the beat indicator")
		}
		if cmd == nil {
			t.Error("model stopped listening for pulses")
		}

		close(ch)
		m.Update(cmd())
		if m.pulses != nil {
			t.Error("closed pulse channel still attached")
		}
	})
}

func TestModel_Forms(t *testing.T) {
	t.Run("AddSong", func(t *testing.T) {
		m, s := newTestModel(t)
		press(m, runes("a"))
		if m.mode != FormMode {
			t.Fatalf("mode = %v, want FormMode", m.mode)
		}

		typeText(m, "Closer")
		press(m, tea.KeyMsg{Type: tea.KeyTab})
		typeText(m, "98")
		press(m, tea.KeyMsg{Type: tea.KeyEnter})

		if m.mode != BrowseMode {
			t.Fatalf("mode = %v after submit, err = %v", m.mode, m.err)
		}
		songs := s.Songs()
		last := songs[len(songs)-1]
		if last.Title != "Closer" || last.BPM != 98 {
			t.Errorf("added %+v", last)
		}
		if m.cursor != len(songs)-1 {
			t.Errorf("cursor = %d, want last row", m.cursor)
		}
	})

	t.Run("InvalidTempoKeepsForm", func(t *testing.T) {
		m, s := newTestModel(t)
		before := len(s.Songs())
		press(m, runes("a"))
		typeText(m, "Closer")
		press(m, tea.KeyMsg{Type: tea.KeyTab})
		typeText(m, "999")
		press(m, tea.KeyMsg{Type: tea.KeyEnter})

		if m.mode != FormMode {
			t.Error("form closed on invalid input")
		}
		if !errors.Is(m.err, shared.ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", m.err)
		}
		if len(s.Songs()) != before {
			t.Error("invalid song was added")
		}

		press(m, tea.KeyMsg{Type: tea.KeyEsc})
		if m.mode != BrowseMode {
			t.Error("esc did not cancel")
		}
	})

	t.Run("EditPrefillsSong", func(t *testing.T) {
		m, s := newTestModel(t)
		press(m, runes("e"))
		if got := m.form.inputs[0].Value(); got != "Get Back" {
			t.Fatalf("title field = %q", got)
		}
		if got := m.form.inputs[1].Value(); got != "120" {
			t.Fatalf("bpm field = %q", got)
		}

		typeText(m, "!")
		press(m, tea.KeyMsg{Type: tea.KeyEnter})
		if song, _ := s.Song(1); song.Title != "Get Back!" {
			t.Errorf("title = %q", song.Title)
		}
	})

	t.Run("RenameList", func(t *testing.T) {
		m, s := newTestModel(t)
		press(m, runes("r"))
		m.form.inputs[0].SetValue("Friday Gig")
		press(m, tea.KeyMsg{Type: tea.KeyEnter})

		if s.Title() != "Friday Gig" {
			t.Errorf("Title() = %q", s.Title())
		}
	})
}

func TestModel_Delete(t *testing.T) {
	t.Run("ConfirmDeletes", func(t *testing.T) {
		m, s := newTestModel(t)
		before := len(s.Songs())
		press(m, runes("d"))
		if m.mode != ConfirmMode {
			t.Fatalf("mode = %v, want ConfirmMode", m.mode)
		}
		if !strings.Contains(m.View(), `Delete "Get Back"?`) {
			t.Error("confirm prompt missing")
		}

		press(m, runes("y"))
		if len(s.Songs()) != before-1 {
			t.Errorf("songs = %d, want %d", len(s.Songs()), before-1)
		}
	})

	t.Run("DeclineKeepsSong", func(t *testing.T) {
		m, s := newTestModel(t)
		before := len(s.Songs())
		press(m, runes("d"), runes("n"))
		if m.mode != BrowseMode || len(s.Songs()) != before {
			t.Errorf("mode = %v, songs = %d", m.mode, len(s.Songs()))
		}
	})

	t.Run("EmptyListView", func(t *testing.T) {
		m, s := newTestModel(t)
		for range len(s.Songs()) {
			press(m, runes("d"), runes("y"))
		}
		if len(s.Songs()) != 0 {
			t.Fatalf("songs = %d", len(s.Songs()))
		}
		if !strings.Contains(m.View(), "No songs yet") {
			t.Error("empty list hint missing")
		}
		press(m, runes("d"))
		if m.mode != BrowseMode {
			t.Error("delete with no songs entered confirm mode")
		}
	})
}

func TestModel_MouseDrag(t *testing.T) {
	mouse := func(action tea.MouseAction, y int) tea.MouseMsg {
		return tea.MouseMsg{X: 4, Y: y, Action: action, Button: tea.MouseButtonLeft}
	}

	m, s := newTestModel(t)
	press(m,
		mouse(tea.MouseActionPress, listTop),
		mouse(tea.MouseActionMotion, listTop+2),
	)
	if got := songTitles(s)[2]; got != "Get Back" {
		t.Errorf("row 2 = %q after drag, order = %v", got, songTitles(s))
	}
	if m.drag != 2 || m.cursor != 2 {
		t.Errorf("drag = %d cursor = %d, want 2", m.drag, m.cursor)
	}

	press(m, mouse(tea.MouseActionMotion, listTop+2))
	if got := songTitles(s)[2]; got != "Get Back" {
		t.Error("hovering the dragged row moved it")
	}

	press(m, mouse(tea.MouseActionRelease, listTop+2))
	if m.drag != -1 {
		t.Errorf("drag = %d after release", m.drag)
	}

	press(m, mouse(tea.MouseActionMotion, listTop))
	if got := songTitles(s)[2]; got != "Get Back" {
		t.Error("motion without a drag moved a song")
	}

	m, s = newTestModel(t)
	first := songTitles(s)[0]
	press(m,
		mouse(tea.MouseActionPress, listTop),
		mouse(tea.MouseActionMotion, listTop+1),
	)
	if got := songTitles(s)[1]; got != first {
		t.Errorf("one-row drag did not commit: order = %v", songTitles(s))
	}
	if m.drag != 1 {
		t.Errorf("drag = %d after one-row move, want 1", m.drag)
	}
}

func TestRowAtScrolls(t *testing.T) {
	m, s := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: listTop + footerLines + 2})
	for range len(s.Songs()) {
		press(m, runes("j"))
	}

	start, end := m.visible(len(s.Songs()))
	if end-start != 2 || end != len(s.Songs()) {
		t.Fatalf("visible = [%d, %d)", start, end)
	}
	if i, ok := m.rowAt(listTop + 1); !ok || i != end-1 {
		t.Errorf("rowAt() = %d, %v", i, ok)
	}
	if _, ok := m.rowAt(listTop - 1); ok {
		t.Error("header line mapped to a row")
	}
}

func TestSongColor(t *testing.T) {
	tests := []struct {
		gradient string
		want     string
	}{
		{models.Palette[0], "#34D399"},
		{models.Palette[1], "#22D3EE"},
		{"from-rose-400 to-red-500", "#FB7185"},
		{"plain", "#626262"},
	}
	for _, tt := range tests {
		if got := string(songColor(tt.gradient)); got != tt.want {
			t.Errorf("songColor(%q) = %q, want %q", tt.gradient, got, tt.want)
		}
	}
}

func TestFit(t *testing.T) {
	if got := fit("abc", 5); got != "abc  " {
		t.Errorf("fit() = %q", got)
	}
	if got := fit("abcdefgh", 5); got != "abcd…" {
		t.Errorf("fit() = %q", got)
	}
}

func TestModel_CloudLoaded(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(CloudLoadedMsg(nil))
	if m.status != "Synced with the cloud" {
		t.Errorf("status = %q", m.status)
	}

	m.Update(CloudLoadedMsg(errors.New("unreachable")))
	if m.status != "Working offline" {
		t.Errorf("status = %q", m.status)
	}
	if m.err != nil {
		t.Errorf("a failed cloud load is not an edit error: %v", m.err)
	}
}
