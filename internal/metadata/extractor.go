package metadata

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"github.com/dhowden/tag"
)

// bpmKeys are the raw tag names that carry a tempo, in lookup order.
var bpmKeys = []string{"TBPM", "TBP", "tmpo", "tempo", "BPM", "bpm"}

var bpmInName = regexp.MustCompile(`(?i)[\s_(\[-]*(\d{2,3})\s*bpm[)\]]?`)

// SongMetadata is what a file contributes to a new song.
type SongMetadata struct {
	Title  string
	Artist string
	BPM    int // 0 when no tempo was found
	Source string
	Tagged bool // false when the values came from the file name
}

// Song returns the metadata as a title and tempo ready for the list engine,
// using fallbackBPM when the file had no usable tempo.
func (m SongMetadata) Song(fallbackBPM int) (string, int, error) {
	title, err := models.ValidateTitle(m.Title)
	if err != nil {
		return "", 0, err
	}
	bpm := m.BPM
	if bpm == 0 {
		bpm = fallbackBPM
	}
	if err := models.ValidateBPM(bpm); err != nil {
		return "", 0, err
	}
	return title, bpm, nil
}

// tags is the subset of [tag.Metadata] the extractor reads.
type tags interface {
	Title() string
	Artist() string
	Raw() map[string]any
}

// Extractor reads [SongMetadata] from audio files.
type Extractor struct {
	logger *log.Logger
}

// NewExtractor creates an Extractor. A nil logger falls back to the default one.
func NewExtractor(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Extractor{logger: logger}
}

// ExtractFromFile reads tags from path. A missing file is an error; a file without tags is not.
func (e *Extractor) ExtractFromFile(path string) (SongMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return SongMetadata{}, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	defer f.Close()

	return e.ExtractFromReader(f, path), nil
}

// ExtractFromReader reads tags from r. source names the file for the fallback.
func (e *Extractor) ExtractFromReader(r io.ReadSeeker, source string) SongMetadata {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fromFileName(source)
	}

	md, err := tag.ReadFrom(r)
	if err != nil {
		e.logger.Debug("no readable tags, using file name", "file", source, "err", err)
		return fromFileName(source)
	}
	return fromTags(md, source)
}

func fromTags(t tags, source string) SongMetadata {
	fallback := fromFileName(source)
	m := SongMetadata{
		Title:  strings.TrimSpace(t.Title()),
		Artist: strings.TrimSpace(t.Artist()),
		BPM:    bpmFromRaw(t.Raw()),
		Source: source,
		Tagged: true,
	}
	if m.Title == "" {
		m.Title = fallback.Title
	}
	if m.Artist == "" {
		m.Artist = fallback.Artist
	}
	if m.BPM == 0 {
		m.BPM = fallback.BPM
	}
	return m
}

func bpmFromRaw(raw map[string]any) int {
	for _, key := range bpmKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if bpm := parseBPM(v); bpm > 0 {
			return bpm
		}
	}
	return 0
}

// parseBPM accepts the shapes tag readers produce for a tempo: text frames, integers and raw bytes.
func parseBPM(v any) int {
	var n float64
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		n = f
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint8:
		n = float64(x)
	case uint16:
		n = float64(x)
	case uint32:
		n = float64(x)
	case float64:
		n = x
	case []byte:
		// MP4 integer atoms are big-endian.
		var u uint64
		for _, b := range x {
			u = u<<8 | uint64(b)
		}
		n = float64(u)
	default:
		return 0
	}

	bpm := int(math.Round(n))
	if models.ValidateBPM(bpm) != nil {
		return 0
	}
	return bpm
}

// fromFileName parses "Artist - Title (120 BPM).ext"; every part but the title is optional.
func fromFileName(source string) SongMetadata {
	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	m := SongMetadata{Source: source}
	if match := bpmInName.FindStringSubmatchIndex(name); match != nil {
		bpm, _ := strconv.Atoi(name[match[2]:match[3]])
		if models.ValidateBPM(bpm) == nil {
			m.BPM = bpm
			name = name[:match[0]] + name[match[1]:]
		}
	}

	if artist, title, ok := strings.Cut(name, " - "); ok {
		m.Artist = strings.TrimSpace(artist)
		name = title
	}
	m.Title = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	return m
}
