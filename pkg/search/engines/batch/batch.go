package batch

import (
	"context"
	"fmt"
	bits64 "math/bits"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/law52525/StardewSeedSearcher/internal/weather"
	"github.com/law52525/StardewSeedSearcher/pkg/search/core"
	"github.com/law52525/StardewSeedSearcher/pkg/search/hardware"
)

// DefaultTileSize is the number of seeds evaluated per tile.
const DefaultTileSize int64 = 100_000_000

// Config contains tuning knobs for the batch engine.
type Config struct {
	// TileSize is the number of seeds per data-parallel tile.
	TileSize int64 `json:"tile_size"`

	// Lanes is the number of parallel lanes evaluating a tile. Zero means
	// one lane per logical core.
	Lanes int `json:"lanes"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{TileSize: DefaultTileSize}
}

// Engine is the data-parallel search engine. It tiles the seed range into
// fixed-size batches, evaluates the full weather pipeline per seed into a
// match bit per lane slot, then gathers set bits in ascending order after
// each tile. Because tiles ascend and gathering is ordered, the collected
// matches are the smallest matching seeds.
//
// The engine shares the weather oracle with the worker pool, so the two
// produce bit-identical match sets by construction.
type Engine struct {
	log         *zap.Logger
	config      Config
	mu          sync.RWMutex
	initialized bool
}

// New creates a new batch engine with the given configuration.
func New(log *zap.Logger, config Config) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if config.TileSize <= 0 {
		config.TileSize = DefaultTileSize
	}
	if config.Lanes <= 0 {
		config.Lanes = hardware.LogicalCores()
	}
	return &Engine{log: log, config: config}
}

// Name returns the human-readable name of the engine
func (e *Engine) Name() string {
	return "batch"
}

// IsAvailable returns true if this engine can run on the current system
func (e *Engine) IsAvailable() bool {
	return true
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
		DataParallel:    true,
		TileSize:        e.config.TileSize,
		MaxParallelism:  e.config.Lanes,
		ProductionReady: true,
	}
}

// Search evaluates the job tile by tile. Matches are appended in ascending
// seed order after each tile and the run stops as soon as the output limit
// is reached. Matches are returned rather than streamed so that a failed run
// can be transparently retried on another engine without duplicate delivery.
func (e *Engine) Search(ctx context.Context, job core.Job, sink core.Sink) (*core.Result, error) {
	e.mu.RLock()
	initialized := e.initialized
	e.mu.RUnlock()
	if !initialized {
		return nil, fmt.Errorf("batch engine not initialized")
	}
	if sink == nil {
		sink = core.NopSink{}
	}

	e.log.Info("starting batch search",
		zap.Int64("start_seed", job.StartSeed),
		zap.Int64("end_seed", job.EndSeed),
		zap.Int64("tile_size", e.config.TileSize),
		zap.Int("lanes", e.config.Lanes))

	var checked atomic.Int64
	matches := make([]int64, 0, job.OutputLimit)

	// Match bitset, one bit per tile slot, reused across tiles. Lane chunks
	// are aligned to 64 slots so no two lanes ever touch the same word.
	bits := make([]uint64, (e.config.TileSize+63)/64)

	for tileStart := job.StartSeed; tileStart <= job.EndSeed; tileStart += e.config.TileSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tileEnd := tileStart + e.config.TileSize - 1
		if tileEnd > job.EndSeed {
			tileEnd = job.EndSeed
		}
		tileCount := tileEnd - tileStart + 1

		words := (tileCount + 63) / 64
		for i := int64(0); i < words; i++ {
			bits[i] = 0
		}

		if err := e.evaluateTile(ctx, job, tileStart, tileCount, bits, &checked, sink); err != nil {
			return nil, err
		}

		// Gather lane indices with the match bit set, ascending.
		for w := int64(0); w < words && len(matches) < job.OutputLimit; w++ {
			word := bits[w]
			for word != 0 && len(matches) < job.OutputLimit {
				bit := bits64.TrailingZeros64(word)
				word &^= 1 << uint(bit)
				seed := tileStart + w*64 + int64(bit)
				matches = append(matches, seed)
			}
		}

		if len(matches) >= job.OutputLimit {
			break
		}
	}

	return &core.Result{
		Matches: matches,
		Checked: checked.Load(),
	}, nil
}

// evaluateTile fans the tile out across lanes. Each lane owns a contiguous,
// 64-aligned chunk of slots and its own predictor.
func (e *Engine) evaluateTile(ctx context.Context, job core.Job, tileStart, tileCount int64, bits []uint64, checked *atomic.Int64, sink core.Sink) error {
	lanes := e.config.Lanes
	chunk := (tileCount + int64(lanes) - 1) / int64(lanes)
	chunk = (chunk + 63) &^ 63

	g, gctx := errgroup.WithContext(ctx)

	for lane := 0; lane < lanes; lane++ {
		offset := int64(lane) * chunk
		if offset >= tileCount {
			break
		}
		end := offset + chunk
		if end > tileCount {
			end = tileCount
		}
		laneStart, laneEnd := offset, end

		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("lane at offset %d: panic: %v", laneStart, r)
				}
			}()

			predictor := weather.NewPredictor()
			for _, c := range job.Conditions {
				predictor.AddCondition(c)
			}

			for slot := laneStart; slot < laneEnd; slot++ {
				seed := tileStart + slot
				if predictor.Check(int32(seed), job.UseLegacyRandom) {
					bits[slot/64] |= 1 << uint(slot%64)
				}

				n := checked.Add(1)
				if n%5000 == 0 {
					sink.Progress(n)
					if gctx.Err() != nil {
						return gctx.Err()
					}
				}
			}
			return nil
		})
	}

	return g.Wait()
}
