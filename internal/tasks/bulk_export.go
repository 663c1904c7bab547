package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/stagelist/internal/formatter"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk list exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: json, yaml, csv, markdown, txt
	OutputDir  string           // Base output directory (default: stagelist_export_{epoch})
	IDs        []string         // Lists to export; empty means every saved list
	NumWorkers int              // Concurrent workers (default: 5)
	RateLimit  float64          // Lists dispatched per second (default: 5)
}

type exportJob struct {
	list *models.StageList
}

// BulkExport exports saved lists concurrently with rate limiting and progress tracking.
//
// Lists are fed to a worker pool, partial failures are collected rather than aborting the run,
// and an export_manifest.json file summarizes the results.
func (e *SyncEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*formatter.BulkExportResult, error) {
	lists, err := e.selectLists(ctx, opts.IDs)
	if err != nil {
		return nil, err
	}

	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("stagelist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &formatter.BulkExportResult{
		TotalLists:      len(lists),
		OutputDirectory: opts.OutputDir,
		Results:         make([]formatter.ExportResult, 0, len(lists)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(lists))
	results := make(chan formatter.ExportResult, len(lists))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, l := range lists {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- exportJob{list: l}
			e.sendProgress(prog, exportingListUpdate(i+1, len(lists), l.Name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(lists), res.ListName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(lists), res.ListName, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func (e *SyncEngine) selectLists(ctx context.Context, ids []string) ([]*models.StageList, error) {
	all, err := e.lists.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved lists: %w", err)
	}
	if len(ids) == 0 {
		return all, nil
	}

	byID := make(map[string]*models.StageList, len(all))
	for _, l := range all {
		byID[l.ID] = l
	}

	selected := make([]*models.StageList, 0, len(ids))
	for _, id := range ids {
		l, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
		}
		selected = append(selected, l)
	}
	return selected, nil
}

// exportWorker is a worker goroutine that exports lists from the jobs channel.
func (e *SyncEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- formatter.ExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			continue
		}
		results <- exportSingleList(job.list, opts)
	}
}

func exportSingleList(l *models.StageList, opts BulkExportOpts) formatter.ExportResult {
	res := formatter.ExportResult{ListID: l.ID, ListName: l.Name, Files: []string{}}

	files, err := formatter.WriteExport(l, opts.Format, opts.OutputDir)
	if err != nil {
		res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return res
	}
	res.Files = files
	res.Success = true
	return res
}
