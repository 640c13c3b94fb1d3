// Package pipeline runs the mesh preparation steps over exported meshes.
package pipeline

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Fedoresko/landon/internal/config"
	"github.com/Fedoresko/landon/internal/logger"
	"github.com/Fedoresko/landon/pkg/blender"
	"github.com/Fedoresko/landon/pkg/mesh"
)

// queueSize bounds tasks waiting for a worker.
const queueSize = 256

// Options selects the steps to run. Steps always run in the order
// Triangulate, YUp, SetGroupsPerVertex, CombineIndices.
type Options struct {
	Triangulate     bool
	YUp             bool
	GroupsPerVertex uint8 // 0 skips group normalization
	CombineIndices  bool
	Workers         int
}

// OptionsFrom builds Options from the pipeline config section.
func OptionsFrom(cfg config.PipelineConfig) Options {
	return Options{
		Triangulate:     cfg.Triangulate,
		YUp:             cfg.YUp,
		GroupsPerVertex: cfg.GroupsPerVertex,
		CombineIndices:  cfg.CombineIndices,
		Workers:         cfg.Workers,
	}
}

// Stats describes one processed mesh.
type Stats struct {
	Faces     int
	Positions int
	Indices   int
	Duration  time.Duration
}

// Item is one mesh to process.
type Item struct {
	File string
	Name string
	Mesh *mesh.Mesh
}

// Result is the outcome for one Item.
type Result struct {
	Item
	Stats Stats
	Err   error
}

// Items flattens an export into items ordered by file, then mesh name.
func Items(exported blender.FilenamesToMeshes) []Item {
	var items []Item
	for _, file := range slices.Sorted(maps.Keys(exported)) {
		meshes := exported[file]
		for _, name := range slices.Sorted(maps.Keys(meshes)) {
			items = append(items, Item{File: file, Name: name, Mesh: meshes[name]})
		}
	}
	return items
}

// Process runs the selected steps on m. The steps work on a copy, so m is
// only replaced when every step succeeds.
func Process(name string, m *mesh.Mesh, opts Options) (Stats, error) {
	start := time.Now()
	log := logger.Mesh(name)

	work := m.Clone()

	if opts.Triangulate {
		if err := work.Triangulate(); err != nil {
			return Stats{}, fmt.Errorf("triangulate %s: %w", name, err)
		}
		log.Debug("triangulated", zap.Int("faces", len(work.FaceArities)))
	}

	if opts.YUp {
		work.YUp()
	}

	if opts.GroupsPerVertex > 0 && work.HasGroups() {
		if err := work.SetGroupsPerVertex(opts.GroupsPerVertex); err != nil {
			return Stats{}, fmt.Errorf("set groups per vertex %s: %w", name, err)
		}
		log.Debug("normalized bone groups", zap.Uint8("groups_per_vertex", opts.GroupsPerVertex))
	}

	if opts.CombineIndices {
		before := work.Positions.Len()
		if err := work.CombineIndices(); err != nil {
			return Stats{}, fmt.Errorf("combine indices %s: %w", name, err)
		}
		log.Debug("combined indices",
			zap.Int("positions_before", before),
			zap.Int("vertices", work.Positions.Len()))
	}

	*m = *work

	stats := Stats{
		Faces:     len(m.FaceArities),
		Positions: m.Positions.Len(),
		Indices:   len(m.PositionIndices),
		Duration:  time.Since(start),
	}
	log.Info("processed mesh",
		zap.Int("faces", stats.Faces),
		zap.Int("vertices", stats.Positions),
		zap.Duration("took", stats.Duration))
	return stats, nil
}

// RunBatch processes items concurrently on a bounded worker pool. Results
// are in the same order as items. Items not started before ctx is done get
// ctx's error.
func RunBatch(ctx context.Context, items []Item, opts Options) []Result {
	results := make([]Result, len(items))
	if len(items) == 0 {
		return results
	}

	pool := worker.NewDynamicWorkerPool(opts.Workers, queueSize, time.Second)
	defer pool.Stop()

	// Each task writes only its own slot. The WaitGroup is the barrier;
	// pool.Wait waits for workers to go idle, not for these tasks.
	var wg sync.WaitGroup
	for i, item := range items {
		results[i].Item = item

		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: item.Name,
			Do: func() (any, error) {
				defer wg.Done()

				if err := ctx.Err(); err != nil {
					results[i].Err = err
					return nil, err
				}
				stats, err := Process(item.Name, item.Mesh, opts)
				results[i].Stats, results[i].Err = stats, err
				return stats, err
			},
		})
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Mesh(r.Name).Error("mesh failed", zap.String("file", r.File), zap.Error(r.Err))
		}
	}
	logger.Info("batch done", zap.Int("meshes", len(items)), zap.Int("failed", failed))

	return results
}

// Err joins the errors of every failed result, or returns nil.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.File, r.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d meshes failed: %w", len(errs), len(results), multierr.Combine(errs...))
}
