// package setlist implements the ordered song list engine, active-song selection and drag target computation
package setlist

import "github.com/desertthunder/stagelist/internal/models"

// List is the ordered song sequence of one stage list plus its id counter.
//
// Numbers always read 1..N in order. Ids are never reused. Operations that cannot apply
// (unknown id, index out of range) leave the list untouched and report false.
type List struct {
	songs  []models.Song
	nextID int
}

// New creates a list from existing songs and counter, renumbering the songs by position.
//
// A counter that would reuse an existing id is raised past the highest id.
func New(songs []models.Song, nextID int) *List {
	l := &List{songs: append([]models.Song(nil), songs...), nextID: nextID}
	for _, s := range l.songs {
		if s.ID >= l.nextID {
			l.nextID = s.ID + 1
		}
	}
	if l.nextID < 1 {
		l.nextID = 1
	}
	l.renumber()
	return l
}

// FromStageList creates a list holding a copy of sl's songs and counter.
func FromStageList(sl *models.StageList) *List {
	return New(sl.Songs, sl.NextID)
}

// Add appends a song. Title and bpm are expected to be validated by the caller.
func (l *List) Add(title string, bpm int) models.Song {
	s := models.Song{
		ID:     l.nextID,
		Number: len(l.songs) + 1,
		Title:  title,
		BPM:    bpm,
		Color:  models.ColorFor(len(l.songs)),
	}
	l.songs = append(l.songs, s)
	l.nextID++
	return s
}

// Edit replaces the title and bpm of the song with the given id.
func (l *List) Edit(id int, title string, bpm int) bool {
	i := l.Index(id)
	if i < 0 {
		return false
	}
	l.songs[i].Title = title
	l.songs[i].BPM = bpm
	return true
}

// Delete removes the song with the given id and renumbers the rest.
func (l *List) Delete(id int) bool {
	i := l.Index(id)
	if i < 0 {
		return false
	}
	l.songs = append(l.songs[:i], l.songs[i+1:]...)
	l.renumber()
	return true
}

// Move removes the song at from and reinserts it at to, an index into the sequence after removal.
func (l *List) Move(from, to int) bool {
	n := len(l.songs)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}

	s := l.songs[from]
	rest := append(l.songs[:from:from], l.songs[from+1:]...)
	l.songs = append(rest[:to:to], append([]models.Song{s}, rest[to:]...)...)
	l.renumber()
	return true
}

// ToggleLock flips the locked flag of the song with the given id.
func (l *List) ToggleLock(id int) bool {
	i := l.Index(id)
	if i < 0 {
		return false
	}
	l.songs[i].Locked = !l.songs[i].Locked
	return true
}

// Index returns the position of the song with the given id, or -1.
func (l *List) Index(id int) int {
	for i, s := range l.songs {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the song with the given id.
func (l *List) Get(id int) (models.Song, bool) {
	if i := l.Index(id); i >= 0 {
		return l.songs[i], true
	}
	return models.Song{}, false
}

// At returns the song at position i.
func (l *List) At(i int) (models.Song, bool) {
	if i < 0 || i >= len(l.songs) {
		return models.Song{}, false
	}
	return l.songs[i], true
}

// Songs returns a copy of the ordered songs.
func (l *List) Songs() []models.Song {
	return append([]models.Song{}, l.songs...)
}

// Len returns the number of songs.
func (l *List) Len() int { return len(l.songs) }

// NextID returns the id the next added song receives.
func (l *List) NextID() int { return l.nextID }

func (l *List) renumber() {
	for i := range l.songs {
		l.songs[i].Number = i + 1
	}
}
