package factory

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/law52525/StardewSeedSearcher/pkg/search/core"
	"github.com/law52525/StardewSeedSearcher/pkg/search/engines/batch"
	"github.com/law52525/StardewSeedSearcher/pkg/search/engines/workers"
)

// Config contains configuration for engine selection
type Config struct {
	// Preferred engine order (highest priority first)
	PreferredOrder []string `json:"preferred_order"`

	// Minimum range size before the data-parallel engine is worth its
	// setup cost; smaller ranges always use the worker pool.
	BatchThreshold int64 `json:"batch_threshold"`

	// Allow fallback to the worker pool on batch engine errors
	EnableFallback bool `json:"enable_fallback"`

	// Batch engine tuning
	Batch batch.Config `json:"batch"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		PreferredOrder: []string{"batch", "workers"},
		BatchThreshold: 100_000,
		EnableFallback: true,
		Batch:          batch.DefaultConfig(),
	}
}

// Factory creates and manages search engine instances
type Factory struct {
	config  Config
	log     *zap.Logger
	engines map[string]core.Engine
}

// New creates a new factory and instantiates all engines.
func New(config Config, log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	if len(config.PreferredOrder) == 0 {
		config.PreferredOrder = DefaultConfig().PreferredOrder
	}

	f := &Factory{
		config: config,
		log:    log,
		engines: map[string]core.Engine{
			"workers": workers.New(log),
			"batch":   batch.New(log, config.Batch),
		},
	}
	return f
}

// Config returns the factory configuration.
func (f *Factory) Config() Config {
	return f.config
}

// Engine returns a specific engine by name, or nil.
func (f *Factory) Engine(name string) core.Engine {
	return f.engines[name]
}

// EngineFor selects the engine for a job. The data-parallel engine is chosen
// only when it is available, the job carries conditions, and the range is
// large enough to amortize tiling; everything else runs on the worker pool.
func (f *Factory) EngineFor(job core.Job) core.Engine {
	for _, name := range f.config.PreferredOrder {
		engine, ok := f.engines[name]
		if !ok || !engine.IsAvailable() {
			continue
		}
		if name == "batch" {
			if len(job.Conditions) == 0 || job.TotalSeeds() < f.config.BatchThreshold {
				continue
			}
		}
		return engine
	}
	return f.Fallback()
}

// Fallback returns the worker-pool engine, which is always available.
func (f *Factory) Fallback() core.Engine {
	return f.engines["workers"]
}

// InitializeAll initializes every engine.
func (f *Factory) InitializeAll() error {
	for name, engine := range f.engines {
		if err := engine.Initialize(); err != nil {
			return fmt.Errorf("initialize %s: %w", name, err)
		}
	}
	return nil
}

// ShutdownAll shuts down all engines
func (f *Factory) ShutdownAll() error {
	var errs []string
	for name, engine := range f.engines {
		if err := engine.Shutdown(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Report returns the status of every engine in preference order.
func (f *Factory) Report() *DetectionReport {
	report := &DetectionReport{
		Engines: make([]*EngineStatus, 0, len(f.engines)),
	}

	for i, name := range f.config.PreferredOrder {
		engine, ok := f.engines[name]
		if !ok {
			continue
		}
		status := &EngineStatus{
			Name:         name,
			Available:    engine.IsAvailable(),
			Priority:     i,
			Capabilities: engine.GetCapabilities(),
		}
		report.Engines = append(report.Engines, status)
		if status.Available {
			report.AvailableCount++
			if report.BestEngine == "" {
				report.BestEngine = name
			}
		}
	}

	report.TotalEngines = len(report.Engines)
	return report
}

// DetectionReport contains the results of engine detection
type DetectionReport struct {
	Engines        []*EngineStatus `json:"engines"`
	BestEngine     string          `json:"best_engine"`
	TotalEngines   int             `json:"total_engines"`
	AvailableCount int             `json:"available_count"`
}

// EngineStatus describes the status of a single engine
type EngineStatus struct {
	Name         string             `json:"name"`
	Available    bool               `json:"available"`
	Priority     int                `json:"priority"`
	Capabilities *core.Capabilities `json:"capabilities"`
}
