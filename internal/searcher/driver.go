package searcher

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/law52525/StardewSeedSearcher/internal/models"
	"github.com/law52525/StardewSeedSearcher/pkg/search/core"
	"github.com/law52525/StardewSeedSearcher/pkg/search/factory"
)

// Broadcaster delivers one event to every connected client. Fire-and-forget:
// delivery failures are handled by the transport and never reported back to
// the driver.
type Broadcaster interface {
	Broadcast(event interface{})
}

// Driver owns the lifecycle of search runs: engine selection, event
// emission, output-cap enforcement and fallback.
type Driver struct {
	factory *factory.Factory
	hub     Broadcaster
	log     *zap.Logger
}

// New creates a driver on top of an engine factory and an event broadcaster.
func New(f *factory.Factory, hub Broadcaster, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{factory: f, hub: hub, log: log}
}

// Run executes one validated search request to completion, streaming start,
// progress, found and complete events. Matches are delivered in ascending
// seed order; the first OutputLimit matches are reported and the run stops
// once the cap is reached. A failed engine run aborts with an error
// completion event and discards partial matches.
func (d *Driver) Run(ctx context.Context, req models.SearchRequest) {
	startTime := time.Now()
	total := req.TotalSeeds()

	job := core.Job{
		StartSeed:       req.StartSeed,
		EndSeed:         req.EndSeed,
		UseLegacyRandom: req.UseLegacyRandom,
		Conditions:      req.Conditions,
		OutputLimit:     req.OutputLimit,
	}

	d.log.Info("search run starting",
		zap.Int64("start_seed", req.StartSeed),
		zap.Int64("end_seed", req.EndSeed),
		zap.Int("conditions", len(req.Conditions)),
		zap.Int("output_limit", req.OutputLimit),
		zap.Bool("legacy_random", req.UseLegacyRandom))

	d.hub.Broadcast(models.NewStartEvent(total))

	sink := &eventSink{driver: d, total: total, startTime: startTime}

	engine := d.factory.EngineFor(job)
	result, err := d.searchWithFallback(ctx, engine, job, sink)

	elapsed := round2(time.Since(startTime).Seconds())

	if err != nil {
		d.log.Error("search run aborted", zap.Error(err))
		d.hub.Broadcast(models.CompleteEvent{
			Type:    "complete",
			Elapsed: elapsed,
			Error:   err.Error(),
		})
		return
	}

	// Final advisory progress so the frontend lands on the true count.
	sink.Progress(result.Checked)

	// Matches not already streamed by the engine are delivered now, in
	// merge order.
	for _, seed := range result.Matches[result.Streamed:] {
		d.hub.Broadcast(models.NewFoundEvent(seed))
	}

	d.hub.Broadcast(models.CompleteEvent{
		Type:       "complete",
		TotalFound: len(result.Matches),
		Elapsed:    elapsed,
	})

	d.log.Info("search run complete",
		zap.Int("found", len(result.Matches)),
		zap.Int64("checked", result.Checked),
		zap.Float64("elapsed_sec", elapsed))
}

// searchWithFallback runs the job on the selected engine and retries on the
// worker pool when a data-parallel run fails. Worker-pool failures are fatal.
func (d *Driver) searchWithFallback(ctx context.Context, engine core.Engine, job core.Job, sink core.Sink) (*core.Result, error) {
	result, err := engine.Search(ctx, job, sink)
	if err == nil {
		return result, nil
	}

	fallback := d.factory.Fallback()
	if !d.factory.Config().EnableFallback || engine.Name() == fallback.Name() {
		return nil, err
	}

	d.log.Warn("engine failed, falling back",
		zap.String("engine", engine.Name()),
		zap.String("fallback", fallback.Name()),
		zap.Error(err))
	return fallback.Search(ctx, job, sink)
}

// eventSink adapts engine callbacks to broadcast events.
type eventSink struct {
	driver    *Driver
	total     int64
	startTime time.Time
}

// Progress formats and broadcasts a progress event. Throttling already
// happened in the engine.
func (s *eventSink) Progress(checked int64) {
	elapsed := time.Since(s.startTime).Seconds()

	var speed float64
	if elapsed > 0 {
		speed = math.Round(float64(checked) / elapsed)
	}

	s.driver.hub.Broadcast(models.ProgressEvent{
		Type:         "progress",
		CheckedCount: checked,
		Total:        s.total,
		Progress:     round2(float64(checked) / float64(s.total) * 100),
		Speed:        speed,
		Elapsed:      round2(elapsed),
	})
}

// Found broadcasts one matching seed.
func (s *eventSink) Found(seed int64) {
	s.driver.hub.Broadcast(models.NewFoundEvent(seed))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
