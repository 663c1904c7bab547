package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"gopkg.in/yaml.v3"
)

// ImportFile reads a JSON or YAML list from path, choosing the decoder by extension.
func ImportFile(path string) (*models.StageList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var f Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f = YAML
	case ".json":
		f = JSON
	}
	return Import(data, f)
}

// Import decodes a list and repairs it into a valid [models.StageList].
//
// An empty format sniffs the payload: a leading '{' or '[' is JSON, anything else YAML.
// Documents may be a full list or a bare array of songs.
func Import(data []byte, f Format) (*models.StageList, error) {
	if f == "" {
		f = YAML
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			f = JSON
		}
	}

	var (
		list  models.StageList
		songs []models.Song
		err   error
	)
	switch f {
	case JSON:
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(data, &songs)
			list.Songs = songs
		} else {
			err = json.Unmarshal(data, &list)
		}
	case YAML:
		var node yaml.Node
		if err = yaml.Unmarshal(data, &node); err == nil {
			if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
				err = node.Decode(&songs)
				list.Songs = songs
			} else {
				err = node.Decode(&list)
			}
		}
	default:
		return nil, fmt.Errorf("%w: cannot import %s", shared.ErrInvalidArgument, f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", shared.ErrInvalidInput, f, err)
	}

	Normalize(&list, time.Now().UTC())
	if err := list.Validate(); err != nil {
		return nil, err
	}
	return &list, nil
}

// Normalize fills missing identity fields and restores the numbering and counter invariants.
//
// Songs keep their ids unless missing or duplicated; those get fresh ids from the counter.
// Missing colors are assigned from the palette by position.
func Normalize(list *models.StageList, now time.Time) {
	if list.ID == "" {
		list.ID = shared.NewListID()
	}
	if strings.TrimSpace(list.Name) == "" {
		list.Name = models.NewListName
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}
	if list.UpdatedAt.IsZero() {
		list.UpdatedAt = now
	}
	if list.Songs == nil {
		list.Songs = []models.Song{}
	}

	next := list.NextID
	for _, s := range list.Songs {
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	if next < 1 {
		next = 1
	}

	seen := make(map[int]bool, len(list.Songs))
	for i := range list.Songs {
		s := &list.Songs[i]
		if s.ID <= 0 || seen[s.ID] {
			s.ID = next
			next++
		}
		seen[s.ID] = true
		s.Number = i + 1
		s.Title = strings.TrimSpace(s.Title)
		if s.Color == "" {
			s.Color = models.ColorFor(i)
		}
	}
	list.NextID = next
}
