// package formatter converts stage lists to and from export formats (JSON, YAML, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	JSON     Format = "json"
	YAML     Format = "yaml"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats returns every supported export format.
func Formats() []Format {
	return []Format{JSON, YAML, CSV, Markdown, Text}
}

// ParseFormat resolves a format name; "md", "yml" and "text" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, name)
}

// Ext returns the file extension written for f.
func (f Format) Ext() string {
	switch f {
	case YAML:
		return ".yaml"
	case Markdown:
		return ".md"
	default:
		return "." + string(f)
	}
}

// ShareText returns the message used when sharing a list.
func ShareText(title string, songs int) string {
	return fmt.Sprintf("Check out my %s with %d songs!", title, songs)
}

// ExportToJSON encodes the full list, including ids and the counter.
func ExportToJSON(list *models.StageList) ([]byte, error) {
	return shared.MarshalJSON(list, true)
}

// ExportToYAML encodes the full list as a YAML document.
func ExportToYAML(list *models.StageList) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(list); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts a list to CSV with columns: Number, Title, BPM, Color, Locked
func ExportToCSV(list *models.StageList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Number", "Title", "BPM", "Color", "Locked"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range list.Songs {
		record := []string{
			strconv.Itoa(s.Number),
			s.Title,
			strconv.Itoa(s.BPM),
			s.Color,
			strconv.FormatBool(s.Locked),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a list as a Markdown table.
func ExportToMarkdown(list *models.StageList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", list.Name)
	fmt.Fprintf(&buf, "**Songs**: %d\n", len(list.Songs))
	if !list.UpdatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Updated**: %s\n", list.UpdatedAt.Format("2006-01-02 15:04"))
	}
	buf.WriteString("\n| # | Title | BPM |\n|---|---|---|\n")
	for _, s := range list.Songs {
		title := strings.ReplaceAll(s.Title, "|", `\|`)
		if s.Locked {
			title += " (locked)"
		}
		fmt.Fprintf(&buf, "| %d | %s | %d |\n", s.Number, title, s.BPM)
	}
	return buf.Bytes(), nil
}

// ExportToText renders a list as a numbered plain text sheet.
func ExportToText(list *models.StageList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Stage List: %s\n", list.Name)
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(list.Songs))
	for _, s := range list.Songs {
		fmt.Fprintf(&buf, "%d. %s (%d BPM)\n", s.Number, s.Title, s.BPM)
	}
	return buf.Bytes(), nil
}

// Export encodes list in format f.
func Export(list *models.StageList, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return ExportToJSON(list)
	case YAML:
		return ExportToYAML(list)
	case CSV:
		return ExportToCSV(list)
	case Markdown:
		return ExportToMarkdown(list)
	case Text:
		return ExportToText(list)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

// WriteExport writes list in format f into dir and returns the created files.
//
// Files are named after the list id. CSV exports add a {id}_metadata.json file carrying the list without its songs.
func WriteExport(list *models.StageList, f Format, dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := Export(list, f)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, list.ID+f.Ext())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s export: %w", f, err)
	}
	files := []string{path}

	if f == CSV {
		meta := list.Clone()
		meta.Songs = nil
		metaJSON, err := shared.MarshalJSON(meta, true)
		if err != nil {
			return files, fmt.Errorf("failed to generate metadata JSON: %w", err)
		}
		metaPath := filepath.Join(dir, list.ID+"_metadata.json")
		if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
			return files, fmt.Errorf("failed to write metadata file: %w", err)
		}
		files = append(files, metaPath)
	}
	return files, nil
}
