package tasks

import (
	"fmt"

	"github.com/desertthunder/stagelist/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CheckHealth Phase = iota
	FetchLists
	FetchSettings
	MigrateLists
	UploadSettings
	AdoptLists
	AdoptSettings
	ExportList
)

func (p Phase) String() string {
	switch p {
	case CheckHealth:
		return "check_health"
	case FetchLists:
		return "fetch_lists"
	case FetchSettings:
		return "fetch_settings"
	case MigrateLists:
		return "migrate_lists"
	case UploadSettings:
		return "upload_settings"
	case AdoptLists:
		return "adopt_lists"
	case AdoptSettings:
		return "adopt_settings"
	case ExportList:
		return "export_list"
	default:
		return ""
	}
}

func checkHealthUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: CheckHealth, Step: 1, Total: 1, Message: "Checking cloud availability..."}
}

func fetchListsUpdate(n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d stage lists in the cloud", n),
	}
}

func fetchSettingsUpdate(s models.Settings) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSettings,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Cloud settings: %s at %.0f%%", s.MetronomeSound, s.MetronomeVolume*100),
		Data:    s,
	}
}

func migrateListUpdate(step, total int, l *models.StageList) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MigrateLists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading %s (%d songs)", step, total, l.Name, len(l.Songs)),
		Data:    l,
	}
}

func uploadSettingsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: UploadSettings, Step: 1, Total: 1, Message: "Uploading settings..."}
}

func adoptListsUpdate(lists []*models.StageList) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AdoptLists,
		Step:    len(lists),
		Total:   len(lists),
		Message: fmt.Sprintf("Loaded %d stage lists from the cloud", len(lists)),
		Data:    lists,
	}
}

func adoptSettingsUpdate(s models.Settings) ProgressUpdate {
	return ProgressUpdate{Phase: AdoptSettings, Step: 1, Total: 1, Message: "Applied cloud settings", Data: s}
}

func exportingListUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
