package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/law52525/StardewSeedSearcher/internal/weather"
	"github.com/law52525/StardewSeedSearcher/pkg/search/core"
	"github.com/law52525/StardewSeedSearcher/pkg/search/hardware"
)

// Engine is the CPU worker-pool search engine. It partitions the seed range
// into contiguous sub-ranges of roughly equal size, one per worker, and
// evaluates each sub-range in ascending order. Always available.
type Engine struct {
	log         *zap.Logger
	mu          sync.RWMutex
	initialized bool
}

// New creates a new worker-pool engine.
func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Name returns the human-readable name of the engine
func (e *Engine) Name() string {
	return "workers"
}

// IsAvailable returns true if this engine can run on the current system
func (e *Engine) IsAvailable() bool {
	return true // the worker pool has no hardware requirements
}

// Initialize performs any necessary setup for the engine
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = true
	return nil
}

// Shutdown performs cleanup and shuts down the engine
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
	return nil
}

// GetCapabilities returns the capabilities and performance characteristics
func (e *Engine) GetCapabilities() *core.Capabilities {
	return &core.Capabilities{
		Name:            e.Name(),
		DataParallel:    false,
		MaxParallelism:  hardware.LogicalCores(),
		ProductionReady: true,
	}
}

// progressInterval returns the per-worker throttle for progress callbacks.
func progressInterval(totalSeeds int64) int64 {
	if totalSeeds < 10_000 {
		return 1_000
	}
	return 5_000
}

// Search runs the job across the worker pool. Per-worker match lists are
// merged in range order after completion, so the returned matches are the
// smallest matching seeds in ascending order. With a single worker, matches
// are additionally streamed through the sink as they are found.
func (e *Engine) Search(ctx context.Context, job core.Job, sink core.Sink) (*core.Result, error) {
	e.mu.RLock()
	initialized := e.initialized
	e.mu.RUnlock()
	if !initialized {
		return nil, fmt.Errorf("workers engine not initialized")
	}
	if sink == nil {
		sink = core.NopSink{}
	}

	total := job.TotalSeeds()
	numWorkers := hardware.WorkersFor(total)
	interval := progressInterval(total)
	eager := numWorkers == 1

	seedsPerWorker := total / int64(numWorkers)
	if seedsPerWorker == 0 {
		seedsPerWorker = 1
	}

	e.log.Info("starting worker search",
		zap.Int64("start_seed", job.StartSeed),
		zap.Int64("end_seed", job.EndSeed),
		zap.Int("workers", numWorkers))

	var (
		stop    atomic.Bool
		checked atomic.Int64
	)

	// Per-worker results plus completion tracking for the prefix check:
	// once every worker covering the lowest ranges has finished and those
	// ranges already hold OutputLimit matches, no higher range can
	// contribute and the rest may stop.
	results := make([][]int64, numWorkers)
	done := make([]bool, numWorkers)
	var doneMu sync.Mutex

	finishWorker := func(id int, matches []int64) {
		doneMu.Lock()
		defer doneMu.Unlock()
		results[id] = matches
		done[id] = true

		prefix := 0
		for i := 0; i < numWorkers && done[i]; i++ {
			prefix += len(results[i])
			if prefix >= job.OutputLimit {
				stop.Store(true)
				return
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < numWorkers; i++ {
		id := i
		start := job.StartSeed + int64(id)*seedsPerWorker
		end := start + seedsPerWorker - 1
		if id == numWorkers-1 {
			end = job.EndSeed
		}

		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("worker %d: panic: %v", id, r)
				}
			}()

			if err := gctx.Err(); err != nil {
				return err
			}

			predictor := weather.NewPredictor()
			for _, c := range job.Conditions {
				predictor.AddCondition(c)
			}

			matches := make([]int64, 0, job.OutputLimit)
			var sinceProgress int64
			for seed := start; seed <= end; seed++ {
				if stop.Load() {
					break
				}

				if predictor.Check(int32(seed), job.UseLegacyRandom) {
					matches = append(matches, seed)
					if eager {
						sink.Found(seed)
					}
					// A worker never contributes more than OutputLimit
					// seeds to the global result; the rest of its range
					// cannot matter.
					if len(matches) >= job.OutputLimit {
						checked.Add(1)
						break
					}
				}

				n := checked.Add(1)
				sinceProgress++
				if sinceProgress%interval == 0 {
					sink.Progress(n)
					if gctx.Err() != nil {
						return gctx.Err()
					}
				}
			}

			finishWorker(id, matches)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]int64, 0, job.OutputLimit)
	for _, r := range results {
		merged = append(merged, r...)
		if len(merged) >= job.OutputLimit {
			merged = merged[:job.OutputLimit]
			break
		}
	}

	streamed := 0
	if eager {
		streamed = len(merged)
	}

	return &core.Result{
		Matches:  merged,
		Streamed: streamed,
		Checked:  checked.Load(),
	}, nil
}
