package core

import (
	"context"

	"github.com/law52525/StardewSeedSearcher/internal/models"
)

// Job is a pre-validated search job in the form the engines consume.
// Validation happens at the transport boundary; engines trust their input.
type Job struct {
	StartSeed       int64
	EndSeed         int64
	UseLegacyRandom bool
	Conditions      []models.WeatherCondition
	OutputLimit     int
}

// TotalSeeds returns the number of seeds in the inclusive range.
func (j Job) TotalSeeds() int64 {
	return j.EndSeed - j.StartSeed + 1
}

// Sink receives callbacks from an engine while a search runs.
type Sink interface {
	// Progress reports the cumulative number of seeds checked so far.
	// Advisory and throttled by the engine; not every seed is reported.
	Progress(checked int64)

	// Found reports one matching seed. Engines call Found only when they can
	// guarantee the seed belongs to the globally ascending result prefix;
	// matches delivered this way are counted in Result.Streamed.
	Found(seed int64)
}

// NopSink discards all callbacks.
type NopSink struct{}

func (NopSink) Progress(int64) {}
func (NopSink) Found(int64)    {}

// Result is the outcome of a completed search.
type Result struct {
	// Matches holds the first matching seeds in ascending order, capped at
	// the job's output limit.
	Matches []int64

	// Streamed is the length of the Matches prefix already delivered through
	// Sink.Found during the run.
	Streamed int

	// Checked is the number of seeds actually evaluated.
	Checked int64
}

// Engine defines the interface that all search engine implementations must
// follow.
type Engine interface {
	// Name returns the human-readable name of the engine
	Name() string

	// IsAvailable returns true if this engine can run on the current system
	IsAvailable() bool

	// Initialize performs any necessary setup for the engine
	Initialize() error

	// Shutdown performs cleanup and shuts down the engine
	Shutdown() error

	// Search evaluates the job over its seed range and returns the matches.
	// Cancellation is cooperative through ctx; engines poll it at batch
	// boundaries.
	Search(ctx context.Context, job Job, sink Sink) (*Result, error)

	// GetCapabilities returns the capabilities and performance characteristics
	GetCapabilities() *Capabilities
}

// Capabilities describes the characteristics of a search engine
type Capabilities struct {
	// Name of the engine
	Name string `json:"name"`

	// Whether the engine evaluates seeds in data-parallel tiles
	DataParallel bool `json:"data_parallel"`

	// Tile size for data-parallel engines, 0 otherwise
	TileSize int64 `json:"tile_size,omitempty"`

	// Number of parallel execution units the engine will use at most
	MaxParallelism int `json:"max_parallelism"`

	// Whether this engine is recommended for production use
	ProductionReady bool `json:"production_ready"`

	// Reason for unavailability (if applicable)
	Reason string `json:"reason,omitempty"`
}
