package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	th "github.com/desertthunder/stagelist/internal/testing"
)

func testList() *models.StageList {
	at := time.Date(2025, 3, 14, 20, 30, 0, 0, time.UTC)
	return &models.StageList{
		ID:   "list_test",
		Name: "Friday Set",
		Songs: []models.Song{
			{ID: 1, Number: 1, Title: "Get Back", BPM: 120, Color: models.ColorFor(0)},
			{ID: 4, Number: 2, Title: "Pipes | Drums", BPM: 95, Color: models.ColorFor(1), Locked: true},
		},
		NextID:    5,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testList())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Number,Title,BPM,Color,Locked\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,Get Back,120,from-emerald-400 to-teal-500,false") {
			t.Errorf("CSV missing first song, got: %s", output)
		}
		if !strings.Contains(output, "2,Pipes | Drums,95,") {
			t.Errorf("CSV missing second song, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testList())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Friday Set\n",
			"**Songs**: 2",
			"**Updated**: 2025-03-14 20:30",
			"| 1 | Get Back | 120 |",
			`| 2 | Pipes \| Drums (locked) | 95 |`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testList())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		want := "Stage List: Friday Set\nSongs: 2\n\n1. Get Back (120 BPM)\n2. Pipes | Drums (95 BPM)\n"
		if string(data) != want {
			t.Errorf("ExportToText() = %q, want %q", data, want)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testList())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["nextId"] != float64(5) {
			t.Errorf("nextId = %v, want 5", decoded["nextId"])
		}
		if _, ok := decoded["userId"]; ok {
			t.Error("empty userId should be omitted")
		}
	})

	t.Run("ExportToYAML", func(t *testing.T) {
		data, err := ExportToYAML(testList())
		if err != nil {
			t.Fatalf("ExportToYAML failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{"id: list_test", "name: Friday Set", "nextId: 5", "locked: true"} {
			if !strings.Contains(output, want) {
				t.Errorf("YAML missing %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "userId") {
			t.Error("YAML should not carry userId")
		}
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		if _, err := Export(testList(), Format("pdf")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("Export(pdf) error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", JSON, false},
		{"", JSON, false},
		{"YML", YAML, false},
		{"md", Markdown, false},
		{" text ", Text, false},
		{"csv", CSV, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestShareText(t *testing.T) {
	if got := ShareText("Stage List", 5); got != "Check out my Stage List with 5 songs!" {
		t.Errorf("ShareText() = %q", got)
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("WritesOneFilePerFormat", func(t *testing.T) {
		for _, f := range []Format{JSON, YAML, Markdown, Text} {
			dir := t.TempDir()
			files, err := WriteExport(testList(), f, dir)
			if err != nil {
				t.Fatalf("WriteExport(%s) failed: %v", f, err)
			}
			if len(files) != 1 {
				t.Fatalf("WriteExport(%s) files = %v, want 1", f, files)
			}
			if files[0] != filepath.Join(dir, "list_test"+f.Ext()) {
				t.Errorf("WriteExport(%s) path = %s", f, files[0])
			}
			th.AssertFileExists(t, files[0])
		}
	})

	t.Run("CSVAddsMetadata", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")
		files, err := WriteExport(testList(), CSV, dir)
		if err != nil {
			t.Fatalf("WriteExport(csv) failed: %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("files = %v, want csv and metadata", files)
		}

		meta := th.MustReadFile(t, filepath.Join(dir, "list_test_metadata.json"))
		if !strings.Contains(meta, `"name": "Friday Set"`) {
			t.Errorf("metadata missing name: %s", meta)
		}
		if !strings.Contains(meta, `"songs": null`) {
			t.Errorf("metadata should not carry songs: %s", meta)
		}
	})

	t.Run("UnwritableDirectory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := WriteExport(testList(), JSON, filepath.Join(blocker, "out")); err == nil {
			t.Error("expected error when the directory cannot be created")
		}
	})
}

func TestImport(t *testing.T) {
	t.Run("JSONRoundTripKeepsIdentity", func(t *testing.T) {
		data, err := ExportToJSON(testList())
		if err != nil {
			t.Fatal(err)
		}

		got, err := Import(data, "")
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if got.ID != "list_test" || got.NextID != 5 || got.Songs[1].ID != 4 || !got.Songs[1].Locked {
			t.Errorf("Import() = %+v", got)
		}
	})

	t.Run("YAMLList", func(t *testing.T) {
		doc := "name: Acoustic\nsongs:\n  - title: '  Wonderwall '\n    bpm: 87\n  - title: Creep\n    bpm: 92\n"
		got, err := Import([]byte(doc), YAML)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}

		if got.Name != "Acoustic" {
			t.Errorf("Name = %q", got.Name)
		}
		if !strings.HasPrefix(got.ID, "list_") {
			t.Errorf("ID = %q, want generated list id", got.ID)
		}
		if got.Songs[0].Title != "Wonderwall" || got.Songs[0].ID != 1 || got.Songs[1].ID != 2 {
			t.Errorf("Songs = %+v", got.Songs)
		}
		if got.Songs[1].Number != 2 || got.Songs[1].Color != models.ColorFor(1) {
			t.Errorf("second song not normalized: %+v", got.Songs[1])
		}
		if got.NextID != 3 {
			t.Errorf("NextID = %d, want 3", got.NextID)
		}
	})

	t.Run("BareSongArray", func(t *testing.T) {
		got, err := Import([]byte(`[{"title":"One","bpm":100},{"id":7,"title":"Two","bpm":110}]`), JSON)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if got.Name != models.NewListName {
			t.Errorf("Name = %q", got.Name)
		}
		if got.Songs[0].ID != 8 || got.Songs[1].ID != 7 || got.NextID != 9 {
			t.Errorf("ids = %d,%d next %d", got.Songs[0].ID, got.Songs[1].ID, got.NextID)
		}
	})

	t.Run("DuplicateIDsReassigned", func(t *testing.T) {
		got, err := Import([]byte(`{"name":"Dupes","songs":[{"id":2,"title":"A","bpm":90},{"id":2,"title":"B","bpm":90}]}`), JSON)
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if got.Songs[0].ID == got.Songs[1].ID {
			t.Errorf("duplicate ids survived: %+v", got.Songs)
		}
	})

	t.Run("RejectsInvalidSongs", func(t *testing.T) {
		tests := []struct {
			name string
			doc  string
		}{
			{"BPMTooHigh", `{"songs":[{"title":"Fast","bpm":301}]}`},
			{"BlankTitle", `{"songs":[{"title":"   ","bpm":120}]}`},
			{"Malformed", `{"songs":`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := Import([]byte(tt.doc), JSON); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("Import() error = %v, want ErrInvalidInput", err)
				}
			})
		}
	})

	t.Run("ImportFile", func(t *testing.T) {
		dir := t.TempDir()
		files, err := WriteExport(testList(), YAML, dir)
		if err != nil {
			t.Fatal(err)
		}

		got, err := ImportFile(files[0])
		if err != nil {
			t.Fatalf("ImportFile failed: %v", err)
		}
		if got.Name != "Friday Set" || len(got.Songs) != 2 {
			t.Errorf("ImportFile() = %+v", got)
		}

		if _, err := ImportFile(filepath.Join(dir, "missing.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestWriteBulkExportManifest(t *testing.T) {
	t.Run("SuccessfulExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		result := &BulkExportResult{
			TotalLists:        2,
			SuccessfulExports: 2,
			Results: []ExportResult{
				{ListID: "a", ListName: "Set A", Success: true, Files: []string{"a.csv", "a_metadata.json"}},
				{ListID: "b", ListName: "Set B", Success: true, Files: []string{"b.csv"}},
			},
		}

		if err := WriteBulkExportManifest(result, CSV, path); err != nil {
			t.Fatalf("WriteBulkExportManifest failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		for _, want := range []string{`"format": "csv"`, `"total_lists": 2`, `"successful_exports": 2`, `"Set A"`, `"status": "success"`} {
			if !strings.Contains(content, want) {
				t.Errorf("manifest missing %s:\n%s", want, content)
			}
		}
	})

	t.Run("WithFailedExports", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		result := &BulkExportResult{
			TotalLists:        2,
			SuccessfulExports: 1,
			FailedExports:     1,
			Results: []ExportResult{
				{ListID: "a", ListName: "Set A", Success: true, Files: []string{"a.json"}},
				{ListID: "b", ListName: "Set B", Error: errors.New("disk full")},
			},
		}

		if err := WriteBulkExportManifest(result, JSON, path); err != nil {
			t.Fatalf("WriteBulkExportManifest failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		for _, want := range []string{`"failed_exports": 1`, `"status": "failed"`, `"error": "disk full"`} {
			if !strings.Contains(content, want) {
				t.Errorf("manifest missing %s:\n%s", want, content)
			}
		}
	})
}
