package stage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/formatter"
	"github.com/desertthunder/stagelist/internal/metronome"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/setlist"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/desertthunder/stagelist/internal/tasks"
)

// WorkspaceStore persists the list being edited and the settings.
type WorkspaceStore interface {
	Load(ctx context.Context) (*models.Workspace, bool, error)
	Save(ctx context.Context, ws *models.Workspace) error
	SaveSettings(ctx context.Context, s models.Settings) error
}

// ListStore is the saved-lists collection.
type ListStore interface {
	models.Repository[*models.StageList]
	Upsert(ctx context.Context, list *models.StageList) error
}

// Options wires a [Session] to its collaborators. Workspace and Lists are required.
type Options struct {
	Workspace WorkspaceStore
	Lists     ListStore
	Metronome *metronome.Engine // defaults to a silent engine
	Scheduler *tasks.Scheduler  // defaults to a disabled scheduler
	Sync      *tasks.SyncEngine // nil keeps the session local-only
	Logger    *log.Logger
}

// Session is the single owner of editing state.
//
// Every mutation is validated, applied in memory, written to local storage before the method returns,
// and then handed to the sync scheduler. Local storage is the source of truth; the cloud is a best-effort mirror.
type Session struct {
	mu sync.Mutex

	listID   string
	title    string
	list     *setlist.List
	sel      setlist.Selection
	settings models.Settings
	muted    bool
	loading  bool

	workspace WorkspaceStore
	lists     ListStore
	metro     *metronome.Engine
	sched     *tasks.Scheduler
	sync      *tasks.SyncEngine
	logger    *log.Logger
}

// Open loads the workspace and returns a ready session. A first run seeds the default list and saves it.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Workspace == nil || opts.Lists == nil {
		return nil, fmt.Errorf("%w: session requires workspace and list storage", shared.ErrInvalidConfig)
	}

	s := &Session{
		workspace: opts.Workspace,
		lists:     opts.Lists,
		metro:     opts.Metronome,
		sched:     opts.Scheduler,
		sync:      opts.Sync,
		logger:    opts.Logger,
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	if s.metro == nil {
		s.metro = metronome.New(&metronome.SilentSink{}, metronome.WithLogger(s.logger))
	}
	if s.sched == nil {
		s.sched = tasks.NewScheduler(tasks.WithSchedulerLogger(s.logger))
	}

	ws, fresh, err := s.workspace.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	s.listID = ws.ListID
	s.title = ws.Title
	s.list = setlist.New(ws.Songs, ws.NextID)
	s.applySettings(ws.Settings)

	if _, err := s.lists.Get(ctx, s.listID); errors.Is(err, shared.ErrListNotFound) {
		name := s.title
		if s.listID == models.DefaultListID {
			name = models.DefaultListName
		}
		seed := models.NewStageList(s.listID, name)
		seed.Songs = s.list.Songs()
		seed.NextID = s.list.NextID()
		if err := s.lists.Create(ctx, seed); err != nil {
			return nil, fmt.Errorf("failed to seed saved lists: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read saved lists: %w", err)
	}

	if fresh {
		if err := s.workspace.Save(ctx, s.snapshotWorkspace()); err != nil {
			return nil, fmt.Errorf("failed to save workspace: %w", err)
		}
	}
	return s, nil
}

// ListID returns the id of the list being edited.
func (s *Session) ListID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listID
}

// Title returns the display title, which is also the current list's saved name.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Songs returns a copy of the current songs in order.
func (s *Session) Songs() []models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Songs()
}

// Song returns the song with id.
func (s *Session) Song(id int) (models.Song, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Get(id)
}

// CurrentList returns the current list as a saved-list value.
func (s *Session) CurrentList() *models.StageList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// Active returns the active song.
func (s *Session) Active() (models.Song, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sel.Active()
	if !ok {
		return models.Song{}, false
	}
	return s.list.Get(id)
}

// Settings returns the playback settings.
func (s *Session) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Muted reports the mute flag.
func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Loading reports whether a cloud load is in progress. Playback is held while loading.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Metronome exposes the engine for read-only inspection (state, pulse count).
func (s *Session) Metronome() *metronome.Engine { return s.metro }

// Share returns the text used to share the current list.
func (s *Session) Share() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return formatter.ShareText(s.title, s.list.Len())
}

// AddSong validates and appends a song.
func (s *Session) AddSong(ctx context.Context, title string, bpm int) (models.Song, error) {
	title, err := models.ValidateTitle(title)
	if err != nil {
		return models.Song{}, err
	}
	if err := models.ValidateBPM(bpm); err != nil {
		return models.Song{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	song := s.list.Add(title, bpm)
	return song, s.commitLocked(ctx)
}

// EditSong replaces a song's title and tempo. Editing the active song's tempo restarts the metronome.
func (s *Session) EditSong(ctx context.Context, id int, title string, bpm int) error {
	title, err := models.ValidateTitle(title)
	if err != nil {
		return err
	}
	if err := models.ValidateBPM(bpm); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.list.Edit(id, title, bpm) {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	s.updatePlaybackLocked()
	return s.commitLocked(ctx)
}

// DeleteSong removes a song, deactivating it first when it is playing.
func (s *Session) DeleteSong(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.list.Get(id); !ok {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	if s.sel.Remove(id) {
		s.updatePlaybackLocked()
	}
	s.list.Delete(id)
	return s.commitLocked(ctx)
}

// MoveSong moves the song at position from to position to. Out-of-range positions report false and change nothing.
func (s *Session) MoveSong(ctx context.Context, from, to int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.list.Move(from, to) {
		return false, nil
	}
	return true, s.commitLocked(ctx)
}

// ToggleLock flips a song's lock flag. The active selection is unaffected.
func (s *Session) ToggleLock(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.list.ToggleLock(id) {
		return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	return s.commitLocked(ctx)
}

// ToggleActive applies a play click to a song and reports whether the selection changed.
// Locked songs ignore the click.
func (s *Session) ToggleActive(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.list.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	changed := s.sel.Toggle(song)
	if changed {
		s.updatePlaybackLocked()
	}
	return changed, nil
}

// Deactivate clears the active song.
func (s *Session) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
	s.updatePlaybackLocked()
}

// Rename sets the display title, which is also the current list's saved name.
func (s *Session) Rename(ctx context.Context, title string) error {
	title, err := models.ValidateTitle(title)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
	return s.commitLocked(ctx)
}

// SetMuted sets the mute flag. Unmuting with an active song restarts the pulse train.
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	s.updatePlaybackLocked()
}

// ToggleMute flips the mute flag and returns the new value.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	s.updatePlaybackLocked()
	return s.muted
}

// SetSound selects the metronome timbre by name.
func (s *Session) SetSound(ctx context.Context, name string) error {
	sound, err := metronome.ParseSound(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.MetronomeSound = sound.String()
	s.metro.SetSound(sound)
	return s.commitSettingsLocked(ctx)
}

// CycleSound advances to the next timbre and returns it.
func (s *Session) CycleSound(ctx context.Context) (metronome.Sound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := metronome.Sound(s.settings.MetronomeSound).Next()
	s.settings.MetronomeSound = next.String()
	s.metro.SetSound(next)
	return next, s.commitSettingsLocked(ctx)
}

// SetVolume sets the master volume in [0, 1].
func (s *Session) SetVolume(ctx context.Context, v float64) error {
	if err := models.ValidateVolume(v); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.MetronomeVolume = v
	if err := s.metro.SetVolume(v); err != nil {
		return err
	}
	return s.commitSettingsLocked(ctx)
}

// Close stops the metronome, runs pending sync jobs and stops the scheduler.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.sel.Clear()
	s.mu.Unlock()

	merr := s.metro.Close()
	ferr := s.sched.Flush(ctx)
	s.sched.Close()
	return errors.Join(merr, ferr)
}

// applySettings adopts s into the session and metronome; unknown sounds fall back to the default timbre.
func (s *Session) applySettings(settings models.Settings) {
	sound, err := metronome.ParseSound(settings.MetronomeSound)
	if err != nil {
		s.logger.Warn("unknown metronome sound, using default", "sound", settings.MetronomeSound)
		sound = metronome.Sound(models.DefaultSound)
	}
	settings.MetronomeSound = sound.String()
	if models.ValidateVolume(settings.MetronomeVolume) != nil {
		settings.MetronomeVolume = models.DefaultVolume
	}

	s.settings = settings
	s.metro.SetSound(sound)
	_ = s.metro.SetVolume(settings.MetronomeVolume)
}

// updatePlaybackLocked reconciles the metronome with the active song, mute flag and loading flag.
func (s *Session) updatePlaybackLocked() {
	p := metronome.Params{Muted: s.muted}
	if id, ok := s.sel.Active(); ok && !s.loading {
		if song, found := s.list.Get(id); found {
			p.BPM = song.BPM
			p.Playing = true
		}
	}
	s.metro.Update(p)
}

func (s *Session) currentLocked() *models.StageList {
	l := models.NewStageList(s.listID, s.title)
	l.Songs = s.list.Songs()
	l.NextID = s.list.NextID()
	return l
}

func (s *Session) snapshotWorkspace() *models.Workspace {
	return &models.Workspace{
		ListID:   s.listID,
		Title:    s.title,
		Songs:    s.list.Songs(),
		NextID:   s.list.NextID(),
		Settings: s.settings,
	}
}

// commitLocked writes the workspace keys and the current list's saved entry, then schedules the cloud upsert.
func (s *Session) commitLocked(ctx context.Context) error {
	if err := s.workspace.Save(ctx, s.snapshotWorkspace()); err != nil {
		return err
	}

	current := s.currentLocked()
	if existing, err := s.lists.Get(ctx, current.ID); err == nil {
		current.CreatedAt = existing.CreatedAt
	}
	if err := s.lists.Upsert(ctx, current); err != nil {
		return fmt.Errorf("failed to save list: %w", err)
	}
	s.notifyList(current)
	return nil
}

func (s *Session) commitSettingsLocked(ctx context.Context) error {
	if err := s.workspace.SaveSettings(ctx, s.settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.notifySettings(s.settings)
	return nil
}
