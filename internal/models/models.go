// package models defines the stage list data model and persistence contracts
package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/stagelist/internal/shared"
	"golang.org/x/oauth2"
)

// Tempo bounds for a song.
const (
	MinBPM = 1
	MaxBPM = 300
)

// Seed values for a first run and for freshly created lists.
const (
	DefaultListID   = "default"
	DefaultListName = "my first Stage List"
	DefaultTitle    = "Stage List"
	NewListName     = "New Stage List"
	DefaultSound    = "click"
	DefaultVolume   = 0.3
)

// Palette is the fixed, cyclic set of song colors. Entries are gradient identifiers shared with the web client.
var Palette = [...]string{
	"from-emerald-400 to-teal-500",
	"from-cyan-400 to-blue-500",
	"from-purple-400 to-pink-500",
	"from-amber-400 to-orange-500",
	"from-rose-400 to-red-500",
	"from-indigo-400 to-purple-500",
	"from-green-400 to-emerald-500",
	"from-pink-400 to-rose-500",
}

// ColorFor returns the palette entry a song created at position n receives.
func ColorFor(n int) string {
	return Palette[n%len(Palette)]
}

// Song is one entry of a stage list.
//
// Number is derived from the song's position and is recomputed by the list engine after every structural change.
type Song struct {
	ID     int    `json:"id" yaml:"id"`
	Number int    `json:"number" yaml:"number"`
	Title  string `json:"title" yaml:"title"`
	BPM    int    `json:"bpm" yaml:"bpm"`
	Color  string `json:"color" yaml:"color"`
	Locked bool   `json:"locked,omitempty" yaml:"locked,omitempty"`
}

// StageList is a named, ordered collection of songs plus its id counter; the unit of save, load and sync.
type StageList struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Songs     []Song    `json:"songs" yaml:"songs"`
	NextID    int       `json:"nextId" yaml:"nextId"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
	UserID    string    `json:"userId,omitempty" yaml:"-"`
}

// NewStageList creates an empty list with a counter starting at 1.
func NewStageList(id, name string) *StageList {
	now := time.Now().UTC()
	return &StageList{ID: id, Name: name, Songs: []Song{}, NextID: 1, CreatedAt: now, UpdatedAt: now}
}

// SeedStageList returns the list a first run starts with.
func SeedStageList() *StageList {
	l := NewStageList(DefaultListID, DefaultListName)
	l.Songs = SeedSongs()
	l.NextID = len(l.Songs) + 1
	return l
}

// SeedSongs returns the sample songs shown on a first run.
func SeedSongs() []Song {
	seed := []struct {
		title string
		bpm   int
	}{
		{"Get Back", 120},
		{"Better Than This", 128},
		{"THANK YOU FOR BEING A FRIEND", 95},
		{"ANNALISE", 140},
		{"Work HOLIDAY", 110},
	}

	songs := make([]Song, len(seed))
	for i, s := range seed {
		songs[i] = Song{ID: i + 1, Number: i + 1, Title: s.title, BPM: s.bpm, Color: ColorFor(i)}
	}
	return songs
}

// Clone returns a deep copy of the list.
func (l *StageList) Clone() *StageList {
	c := *l
	c.Songs = append([]Song(nil), l.Songs...)
	return &c
}

// Validate checks structural invariants: an id, a name, valid songs numbered 1..N with unique ids below the counter.
func (l *StageList) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: stage list id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: stage list name is required", shared.ErrInvalidInput)
	}

	seen := make(map[int]bool, len(l.Songs))
	for i, s := range l.Songs {
		if s.Number != i+1 {
			return fmt.Errorf("%w: song %d has number %d at position %d", shared.ErrInvalidInput, s.ID, s.Number, i+1)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate song id %d", shared.ErrInvalidInput, s.ID)
		}
		if s.ID >= l.NextID {
			return fmt.Errorf("%w: song id %d not below counter %d", shared.ErrInvalidInput, s.ID, l.NextID)
		}
		seen[s.ID] = true
		if _, err := ValidateTitle(s.Title); err != nil {
			return err
		}
		if err := ValidateBPM(s.BPM); err != nil {
			return err
		}
	}
	return nil
}

// ListPatch carries the fields of a partial stage list update. Nil fields are left untouched.
type ListPatch struct {
	Name      *string    `json:"name,omitempty"`
	Songs     []Song     `json:"songs,omitempty"`
	NextID    *int       `json:"nextId,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Apply merges the patch into l.
func (p ListPatch) Apply(l *StageList) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Songs != nil {
		l.Songs = append([]Song(nil), p.Songs...)
	}
	if p.NextID != nil {
		l.NextID = *p.NextID
	}
	if p.UpdatedAt != nil {
		l.UpdatedAt = *p.UpdatedAt
	} else {
		l.UpdatedAt = time.Now().UTC()
	}
}

// Settings is the per-user metronome preference record.
type Settings struct {
	MetronomeSound  string  `json:"metronomeSound" yaml:"metronomeSound"`
	MetronomeVolume float64 `json:"metronomeVolume" yaml:"metronomeVolume"`
}

// DefaultSettings returns the settings used when nothing has been stored.
func DefaultSettings() Settings {
	return Settings{MetronomeSound: DefaultSound, MetronomeVolume: DefaultVolume}
}

// SettingsPatch carries a partial settings update.
type SettingsPatch struct {
	MetronomeSound  *string  `json:"metronomeSound,omitempty"`
	MetronomeVolume *float64 `json:"metronomeVolume,omitempty"`
}

// Workspace is the editing state persisted under the client's individual storage keys.
type Workspace struct {
	ListID   string
	Title    string
	Songs    []Song
	NextID   int
	Settings Settings
}

// User is a backend account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public strips the password hash.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// ValidateTitle trims the title and rejects empty values.
func ValidateTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", fmt.Errorf("%w: title must not be empty", shared.ErrInvalidInput)
	}
	return t, nil
}

// ValidateBPM rejects tempos outside [MinBPM, MaxBPM].
func ValidateBPM(bpm int) error {
	if bpm < MinBPM || bpm > MaxBPM {
		return fmt.Errorf("%w: bpm must be between %d and %d, got %d", shared.ErrInvalidInput, MinBPM, MaxBPM, bpm)
	}
	return nil
}

// ValidateVolume rejects volumes outside [0, 1].
func ValidateVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: volume must be between 0 and 1, got %v", shared.ErrInvalidInput, v)
	}
	return nil
}

// Repository defines data access for a collection of models keyed by string id.
type Repository[T any] interface {
	Create(ctx context.Context, model T) error     // Create stores a new model
	Get(ctx context.Context, id string) (T, error) // Get retrieves a model by its ID
	Update(ctx context.Context, model T) error     // Update replaces an existing model
	Delete(ctx context.Context, id string) error   // Delete removes a model by its ID
	List(ctx context.Context) ([]T, error)         // List retrieves all models in storage order
}

// AuthSession is the persisted credential of a signed-in client.
type AuthSession struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	Expiry       time.Time `json:"expiry"`
}

// RememberMe is the remembered sign-in identity. It never holds a password.
type RememberMe struct {
	Email       string    `json:"email"`
	Fingerprint string    `json:"fingerprint"`
	SavedAt     time.Time `json:"savedAt"`
}

// RememberMeMaxAge bounds how long a [RememberMe] entry is honored.
const RememberMeMaxAge = 90 * 24 * time.Hour

// Valid reports whether the entry is younger than [RememberMeMaxAge] and was saved on this device.
func (r RememberMe) Valid(fingerprint string, now time.Time) bool {
	return r.Email != "" && r.Fingerprint == fingerprint && now.Sub(r.SavedAt) < RememberMeMaxAge
}

// SyncLogEntry records the outcome of one background sync job.
type SyncLogEntry struct {
	ID        int64
	Job       string
	OK        bool
	Error     string
	CreatedAt time.Time
}

// Token converts the session to an OAuth2 token.
func (s *AuthSession) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}
