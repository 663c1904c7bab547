package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
)

type formKind int

const (
	addForm formKind = iota
	editForm
	renameForm
)

// songForm collects a title and, for songs, a tempo.
type songForm struct {
	kind   formKind
	songID int
	inputs []textinput.Model
	focus  int
}

func newSongForm(kind formKind, song models.Song, listTitle string) songForm {
	title := textinput.New()
	title.Prompt = "Title: "
	title.CharLimit = 120
	title.Width = titleWidth

	f := songForm{kind: kind, songID: song.ID}
	switch kind {
	case renameForm:
		title.Prompt = "List name: "
		title.SetValue(listTitle)
		f.inputs = []textinput.Model{title}
	default:
		bpm := textinput.New()
		bpm.Prompt = "BPM:   "
		bpm.CharLimit = 3
		bpm.Width = 4
		bpm.Placeholder = "120"
		if kind == editForm {
			title.SetValue(song.Title)
			bpm.SetValue(strconv.Itoa(song.BPM))
		}
		f.inputs = []textinput.Model{title, bpm}
	}
	return f
}

func (f *songForm) Focus() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.focus].Focus()
}

func (f *songForm) focusNext() tea.Cmd {
	f.focus = (f.focus + 1) % len(f.inputs)
	return f.Focus()
}

func (f *songForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// values returns the entered title and tempo. The tempo is 0 for the rename form.
func (f songForm) values() (string, int, error) {
	title := strings.TrimSpace(f.inputs[0].Value())
	if f.kind == renameForm {
		return title, 0, nil
	}

	raw := strings.TrimSpace(f.inputs[1].Value())
	bpm, err := strconv.Atoi(raw)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bpm must be a whole number, got %q", shared.ErrInvalidInput, raw)
	}
	return title, bpm, nil
}

func (f songForm) View() string {
	var heading string
	switch f.kind {
	case addForm:
		heading = "Add song"
	case editForm:
		heading = "Edit song"
	case renameForm:
		heading = "Rename list"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(heading))
	for _, in := range f.inputs {
		b.WriteString("\n")
		b.WriteString(in.View())
	}
	return b.String()
}
