package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/stagelist/internal/shared"
)

// ExportResult is the outcome of exporting a single list.
type ExportResult struct {
	ListID   string
	ListName string
	Success  bool
	Files    []string
	Error    error
}

// BulkExportResult summarizes a multi-list export.
type BulkExportResult struct {
	TotalLists        int
	SuccessfulExports int
	FailedExports     int
	Results           []ExportResult
	OutputDirectory   string
	ManifestPath      string
}

type manifestEntry struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Files  []string `json:"files,omitempty"`
	Error  string   `json:"error,omitempty"`
}

type manifest struct {
	ExportedAt        time.Time       `json:"exported_at"`
	Format            Format          `json:"format"`
	TotalLists        int             `json:"total_lists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Lists             []manifestEntry `json:"lists"`
}

// WriteBulkExportManifest writes a JSON summary of a bulk export to path.
func WriteBulkExportManifest(result *BulkExportResult, f Format, path string) error {
	m := manifest{
		ExportedAt:        time.Now().UTC(),
		Format:            f,
		TotalLists:        result.TotalLists,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Lists:             make([]manifestEntry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		e := manifestEntry{ID: r.ListID, Name: r.ListName, Status: "success", Files: r.Files}
		if !r.Success {
			e.Status = "failed"
			if r.Error != nil {
				e.Error = r.Error.Error()
			}
		}
		m.Lists = append(m.Lists, e)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
