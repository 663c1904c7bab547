package ui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/metronome"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/setlist"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/desertthunder/stagelist/internal/stage"
)

// ViewMode represents the current input mode of the TUI.
type ViewMode int

const (
	BrowseMode ViewMode = iota
	FormMode
	ConfirmMode
)

// listTop is the number of header lines rendered above the first song row.
const listTop = 4

// footerLines is the space reserved below the rows for help and prompts.
const footerLines = 4

const volumeStep = 0.1

var _ tea.Model = (*Model)(nil)

// Model holds the state for the stage list editor.
type Model struct {
	ctx     context.Context
	session *stage.Session
	pulses  <-chan metronome.Pulse
	logger  *log.Logger

	keys keyMap
	help help.Model
	mode ViewMode
	form songForm

	cursor int
	offset int
	drag   int
	beat   bool

	width  int
	height int

	status string
	err    error
}

// NewModel creates a new TUI model over session. Pulses may be nil when no beat indicator is wanted.
func NewModel(ctx context.Context, session *stage.Session, pulses <-chan metronome.Pulse, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Model{
		ctx:     ctx,
		session: session,
		pulses:  pulses,
		logger:  logger,
		keys:    newKeyMap(),
		help:    help.New(),
		drag:    -1,
	}
}

// PulseHook returns a metronome pulse hook that forwards pulses to ch without ever blocking the engine.
func PulseHook(ch chan<- metronome.Pulse) func(metronome.Pulse) {
	return func(p metronome.Pulse) {
		select {
		case ch <- p:
		default:
		}
	}
}

// Init starts listening for metronome pulses.
func (m *Model) Init() tea.Cmd {
	return m.waitForPulse()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgPulse:
			m.beat = !m.beat
			return m, m.waitForPulse()
		case MsgPulsesClosed:
			m.pulses = nil
		case MsgCloudLoaded:
			if err, _ := msg.data.(error); err != nil {
				m.logger.Warn("cloud load failed", "err", err)
				m.status = "Working offline"
			} else {
				m.status = "Synced with the cloud"
			}
			m.setCursor(m.cursor)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case FormMode:
			return m.handleFormKeys(msg)
		case ConfirmMode:
			return m.handleConfirmKeys(msg)
		default:
			return m.handleBrowseKeys(msg)
		}

	case tea.MouseMsg:
		if m.mode == BrowseMode {
			m.handleMouse(msg)
		}
		return m, nil
	}

	if m.mode == FormMode {
		return m, m.form.Update(msg)
	}
	return m, nil
}

// View renders the header, the song rows and the footer for the current mode.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())

	songs := m.session.Songs()
	if len(songs) == 0 {
		b.WriteString(styles.help.Render("No songs yet. Press a to add one."))
		b.WriteString("\n")
	}

	active, playing := m.session.Active()
	start, end := m.visible(len(songs))
	for i := start; i < end; i++ {
		row := songRow{
			song:     songs[i],
			cursor:   i == m.cursor,
			playing:  playing && active.ID == songs[i].ID,
			beat:     m.beat,
			dragging: i == m.drag,
		}
		b.WriteString(row.String())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch m.mode {
	case FormMode:
		b.WriteString(m.form.View())
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.next, m.keys.back}))
	case ConfirmMode:
		if song, ok := m.selected(); ok {
			b.WriteString(styles.warn.Render(fmt.Sprintf("Delete %q?", song.Title)))
			b.WriteString("\n")
		}
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
	default:
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

// renderHeader renders exactly listTop lines.
func (m *Model) renderHeader() string {
	title := styles.title.Render(m.session.Title())
	if song, ok := m.session.Active(); ok {
		title += "  " + styles.ok.Render(fmt.Sprintf("▶ %s @ %d BPM", song.Title, song.BPM))
	}

	settings := m.session.Settings()
	info := fmt.Sprintf("sound: %s  volume: %d%%", settings.MetronomeSound, int(math.Round(settings.MetronomeVolume*100)))
	if m.session.Muted() {
		info += "  " + styles.warn.Render("muted")
	}
	if m.session.CloudEnabled() {
		info += "  cloud: on"
	} else {
		info += "  cloud: local"
	}
	if m.session.Loading() {
		info += "  " + styles.help.Render("syncing...")
	}

	var status string
	switch {
	case m.err != nil:
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.status != "":
		status = styles.help.Render(m.status)
	}

	return strings.Join([]string{title, styles.help.Render(info), status, ""}, "\n") + "\n"
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	song, hasSong := m.selected()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.up):
		m.setCursor(m.cursor - 1)
	case key.Matches(msg, m.keys.down):
		m.setCursor(m.cursor + 1)
	case key.Matches(msg, m.keys.moveUp):
		m.move(m.cursor, m.cursor-1)
	case key.Matches(msg, m.keys.moveDown):
		m.move(m.cursor, m.cursor+1)
	case key.Matches(msg, m.keys.play):
		if hasSong {
			m.togglePlay(song)
		}
	case key.Matches(msg, m.keys.lock):
		if hasSong {
			m.report("", m.session.ToggleLock(m.ctx, song.ID))
		}
	case key.Matches(msg, m.keys.mute):
		if m.session.ToggleMute() {
			m.report("muted", nil)
		} else {
			m.report("unmuted", nil)
		}
	case key.Matches(msg, m.keys.sound):
		sound, err := m.session.CycleSound(m.ctx)
		m.report("sound: "+sound.String(), err)
	case key.Matches(msg, m.keys.volUp):
		m.nudgeVolume(volumeStep)
	case key.Matches(msg, m.keys.volDown):
		m.nudgeVolume(-volumeStep)
	case key.Matches(msg, m.keys.add):
		return m, m.openForm(addForm, models.Song{})
	case key.Matches(msg, m.keys.edit):
		if hasSong {
			return m, m.openForm(editForm, song)
		}
	case key.Matches(msg, m.keys.rename):
		return m, m.openForm(renameForm, models.Song{})
	case key.Matches(msg, m.keys.remove):
		if hasSong {
			m.mode = ConfirmMode
		}
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		if song, ok := m.selected(); ok {
			m.report(fmt.Sprintf("deleted %q", song.Title), m.session.DeleteSong(m.ctx, song.ID))
		}
		m.mode = BrowseMode
		m.setCursor(m.cursor)
	case key.Matches(msg, m.keys.no):
		m.mode = BrowseMode
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.mode = BrowseMode
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.form.focusNext()
	case key.Matches(msg, m.keys.submit):
		if err := m.submitForm(); err != nil {
			m.err = err
			return m, nil
		}
		m.mode = BrowseMode
		return m, nil
	}
	return m, m.form.Update(msg)
}

func (m *Model) submitForm() error {
	title, bpm, err := m.form.values()
	if err != nil {
		return err
	}

	switch m.form.kind {
	case addForm:
		song, err := m.session.AddSong(m.ctx, title, bpm)
		if err != nil {
			return err
		}
		m.report(fmt.Sprintf("added %q", song.Title), nil)
		m.setCursor(len(m.session.Songs()) - 1)
	case editForm:
		if err := m.session.EditSong(m.ctx, m.form.songID, title, bpm); err != nil {
			return err
		}
		m.report("saved", nil)
	case renameForm:
		if err := m.session.Rename(m.ctx, title); err != nil {
			return err
		}
		m.report("renamed", nil)
	}
	return nil
}

func (m *Model) openForm(kind formKind, song models.Song) tea.Cmd {
	m.form = newSongForm(kind, song, m.session.Title())
	m.mode = FormMode
	m.err = nil
	return m.form.Focus()
}

func (m *Model) togglePlay(song models.Song) {
	changed, err := m.session.ToggleActive(song.ID)
	switch {
	case err != nil:
		m.report("", err)
	case !changed && song.Locked:
		m.report(fmt.Sprintf("%q is locked", song.Title), nil)
	default:
		m.report("", nil)
	}
}

func (m *Model) nudgeVolume(delta float64) {
	v := m.session.Settings().MetronomeVolume + delta
	v = math.Round(math.Max(0, math.Min(1, v))*10) / 10
	err := m.session.SetVolume(m.ctx, v)
	m.report(fmt.Sprintf("volume: %d%%", int(math.Round(v*100))), err)
}

// move reorders the list and keeps the cursor on the moved song.
func (m *Model) move(from, to int) bool {
	ok, err := m.session.MoveSong(m.ctx, from, to)
	if err != nil {
		m.report("", err)
		return false
	}
	if ok {
		m.setCursor(to)
	}
	return ok
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	row, onRow := m.rowAt(msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && onRow {
			m.drag = row
			m.setCursor(row)
		}
	case tea.MouseActionMotion:
		if m.drag < 0 || !onRow {
			return
		}
		// Cells are the finest pointer unit, so entering a row is crossing its midpoint.
		top := float64(msg.Y)
		to, hit := setlist.ComputeTargetIndex(m.drag, row, top+0.5, setlist.Rect{Top: top, Bottom: top + 1})
		if hit && m.move(m.drag, to) {
			m.drag = to
		}
	case tea.MouseActionRelease:
		m.drag = -1
	}
}

// rowAt maps a terminal line to a song index.
func (m *Model) rowAt(y int) (int, bool) {
	n := len(m.session.Songs())
	start, end := m.visible(n)
	i := y - listTop + start
	if y < listTop || i < start || i >= end {
		return 0, false
	}
	return i, true
}

func (m *Model) selected() (models.Song, bool) {
	songs := m.session.Songs()
	if m.cursor < 0 || m.cursor >= len(songs) {
		return models.Song{}, false
	}
	return songs[m.cursor], true
}

func (m *Model) setCursor(i int) {
	n := len(m.session.Songs())
	m.cursor = max(0, min(i, n-1))
	m.scroll()
}

// rows returns how many song rows fit on screen; 0 means unbounded.
func (m *Model) rows() int {
	if m.height == 0 {
		return 0
	}
	return max(1, m.height-listTop-footerLines)
}

func (m *Model) scroll() {
	rows := m.rows()
	if rows == 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m *Model) visible(n int) (int, int) {
	rows := m.rows()
	if rows == 0 {
		return 0, n
	}
	start := min(m.offset, max(0, n-1))
	return start, min(n, start+rows)
}

func (m *Model) report(text string, err error) {
	if err != nil {
		m.logger.Warn("edit failed", "err", err)
		m.err = err
		return
	}
	m.err = nil
	m.status = text
}

func (m *Model) waitForPulse() tea.Cmd {
	if m.pulses == nil {
		return nil
	}
	ch := m.pulses
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return pulsesClosedMsg()
		}
		return pulseMsg(p)
	}
}
