// Package sync batch-migrates a legacy collection into the target
// collection, recording a status row per record. A failed record never
// aborts the batch; its failure is logged, recorded, and the runner moves
// on.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/openacq/metamigrate/internal/docstore"
	"github.com/openacq/metamigrate/internal/migrate"
	"github.com/openacq/metamigrate/internal/output"
	"github.com/openacq/metamigrate/internal/statusdb"
	"github.com/openacq/metamigrate/internal/version"
)

// BatchSize is how many records one page of the legacy collection holds.
const BatchSize = 100

// Source pages the legacy collection.
type Source interface {
	Count(ctx context.Context, filter docstore.Filter) (int, error)
	Retrieve(ctx context.Context, filter docstore.Filter, limit, skip int) ([]map[string]any, error)
}

// Target receives migrated records.
type Target interface {
	Upsert(ctx context.Context, doc map[string]any) (string, error)
}

// MigrateFunc migrates one record; the engine's Migrate method satisfies it.
type MigrateFunc func(rec map[string]any) (map[string]any, *migrate.Result, error)

// Options tune one sync run.
type Options struct {
	// Limit caps the number of records processed; zero means all.
	Limit int

	// DryRun migrates without writing to the target collection or the
	// status store.
	DryRun bool

	// Filter restricts which legacy records are paged.
	Filter docstore.Filter
}

// Summary is the outcome of a run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Runner pages, migrates, upserts, and records.
type Runner struct {
	source  Source
	target  Target
	status  statusdb.Store
	migrate MigrateFunc
	opts    Options

	// now is swapped in tests for deterministic status rows.
	now func() time.Time
}

// NewRunner wires a sync run. The status store may not be nil; use a
// memory store when no durable table is wanted.
func NewRunner(source Source, target Target, status statusdb.Store, fn MigrateFunc, opts Options) *Runner {
	return &Runner{
		source:  source,
		target:  target,
		status:  status,
		migrate: fn,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run pages through the legacy collection and migrates every record.
// It returns early only on context cancellation or a paging failure;
// per-record errors are recorded and counted, never returned.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	filter := r.opts.Filter
	if filter == nil {
		filter = docstore.Filter{}
	}

	total, err := r.source.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting legacy records: %w", err)
	}
	if r.opts.Limit > 0 && r.opts.Limit < total {
		total = r.opts.Limit
	}
	output.Info("starting sync", "records", total, "dry_run", r.opts.DryRun)

	summary := &Summary{}
	skip := 0
	for summary.Total < total {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		batch := BatchSize
		if remaining := total - summary.Total; remaining < batch {
			batch = remaining
		}
		page, err := r.source.Retrieve(ctx, filter, batch, skip)
		if err != nil {
			return summary, fmt.Errorf("fetching page at offset %d: %w", skip, err)
		}
		if len(page) == 0 {
			break
		}
		skip += len(page)

		for _, rec := range page {
			if summary.Total >= total {
				break
			}
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			summary.Total++
			if r.processRecord(ctx, rec) {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
		}
	}

	output.Info("sync finished",
		"total", summary.Total, "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}

// processRecord migrates one record and records the outcome. It reports
// success; every failure path records a status row.
func (r *Runner) processRecord(ctx context.Context, rec map[string]any) bool {
	v1ID, _ := rec["_id"].(string)
	name, _ := rec["name"].(string)
	if v1ID == "" {
		output.Warn("skipping record with no _id", "name", name)
		return false
	}

	migrated, _, err := r.migrate(rec)
	if err != nil {
		output.Warn("migration failed", "id", v1ID, "name", name, "error", err)
		r.record(ctx, v1ID, "", fmt.Sprintf("error: %v", err))
		return false
	}

	v2ID := ""
	if !r.opts.DryRun {
		v2ID, err = r.target.Upsert(ctx, migrated)
		if err != nil {
			output.Warn("upsert failed", "id", v1ID, "name", name, "error", err)
			r.record(ctx, v1ID, "", fmt.Sprintf("error: upsert: %v", err))
			return false
		}
	}

	output.Debug("record migrated", "id", v1ID, "name", name, "v2_id", v2ID)
	r.record(ctx, v1ID, v2ID, statusdb.StatusSuccess)
	return true
}

// record writes one status row; dry runs skip the write.
func (r *Runner) record(ctx context.Context, v1ID, v2ID, status string) {
	if r.opts.DryRun {
		return
	}
	row := statusdb.Row{
		V1ID:            v1ID,
		V2ID:            v2ID,
		UpgraderVersion: version.GetInfo().Version,
		LastModified:    r.now(),
		Status:          status,
	}
	if err := r.status.Record(ctx, row); err != nil {
		output.Warn("recording status failed", "id", v1ID, "error", err)
	}
}
