package searcher

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law52525/StardewSeedSearcher/internal/models"
	"github.com/law52525/StardewSeedSearcher/pkg/search/factory"
)

// captureHub records every broadcast event in order.
type captureHub struct {
	mu     sync.Mutex
	events []interface{}
}

func (h *captureHub) Broadcast(event interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *captureHub) foundSeeds() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	seeds := []int64{}
	for _, e := range h.events {
		if f, ok := e.(models.FoundEvent); ok {
			seeds = append(seeds, f.Seed)
		}
	}
	return seeds
}

func (h *captureHub) complete() (models.CompleteEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.events {
		if c, ok := e.(models.CompleteEvent); ok {
			return c, true
		}
	}
	return models.CompleteEvent{}, false
}

func (h *captureHub) starts() []models.StartEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []models.StartEvent{}
	for _, e := range h.events {
		if s, ok := e.(models.StartEvent); ok {
			out = append(out, s)
		}
	}
	return out
}

func newDriver(t *testing.T, hub Broadcaster) *Driver {
	t.Helper()
	f := factory.New(factory.DefaultConfig(), nil)
	require.NoError(t, f.InitializeAll())
	t.Cleanup(func() { f.ShutdownAll() })
	return New(f, hub, nil)
}

func springRequest(start, end int64, limit int) models.SearchRequest {
	return models.SearchRequest{
		StartSeed:   start,
		EndSeed:     end,
		OutputLimit: limit,
		Conditions: []models.WeatherCondition{
			{Season: models.SeasonSpring, StartDay: 1, EndDay: 10, MinRainDays: 5},
		},
	}
}

func TestRunKnownRange(t *testing.T) {
	hub := &captureHub{}
	d := newDriver(t, hub)

	d.Run(context.Background(), springRequest(0, 1000, 20))

	starts := hub.starts()
	require.Len(t, starts, 1)
	assert.Equal(t, int64(1001), starts[0].Total)

	assert.Equal(t, []int64{59, 73, 101, 142, 659, 932, 938}, hub.foundSeeds())

	complete, ok := hub.complete()
	require.True(t, ok)
	assert.Equal(t, 7, complete.TotalFound)
	assert.Empty(t, complete.Error)
}

func TestRunOutputCapSelectsSmallestSeeds(t *testing.T) {
	hub := &captureHub{}
	d := newDriver(t, hub)

	d.Run(context.Background(), springRequest(0, 1000, 3))

	assert.Equal(t, []int64{59, 73, 101}, hub.foundSeeds())

	complete, ok := hub.complete()
	require.True(t, ok)
	assert.Equal(t, 3, complete.TotalFound)
}

func TestRunIsDeterministic(t *testing.T) {
	first := &captureHub{}
	second := &captureHub{}

	newDriver(t, first).Run(context.Background(), springRequest(0, 1000, 20))
	newDriver(t, second).Run(context.Background(), springRequest(0, 1000, 20))

	assert.Equal(t, first.foundSeeds(), second.foundSeeds())
}

func TestRunPartitionUnion(t *testing.T) {
	whole := &captureHub{}
	left := &captureHub{}
	right := &captureHub{}

	newDriver(t, whole).Run(context.Background(), springRequest(0, 1000, 20))
	newDriver(t, left).Run(context.Background(), springRequest(0, 500, 20))
	newDriver(t, right).Run(context.Background(), springRequest(501, 1000, 20))

	assert.Equal(t, whole.foundSeeds(), append(left.foundSeeds(), right.foundSeeds()...))
}

func TestRunEmptyConditions(t *testing.T) {
	hub := &captureHub{}
	d := newDriver(t, hub)

	d.Run(context.Background(), models.SearchRequest{
		StartSeed:   10,
		EndSeed:     1000,
		OutputLimit: 4,
	})

	assert.Equal(t, []int64{10, 11, 12, 13}, hub.foundSeeds())
}

func TestRunTwoSeasonScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("long range scan")
	}

	hub := &captureHub{}
	d := newDriver(t, hub)

	d.Run(context.Background(), models.SearchRequest{
		StartSeed:   0,
		EndSeed:     100_000,
		OutputLimit: 100,
		Conditions: []models.WeatherCondition{
			{Season: models.SeasonSpring, StartDay: 1, EndDay: 10, MinRainDays: 5},
			{Season: models.SeasonSummer, StartDay: 1, EndDay: 10, MinRainDays: 6},
		},
	})

	assert.Contains(t, hub.foundSeeds(), int64(58038))

	complete, ok := hub.complete()
	require.True(t, ok)
	assert.Empty(t, complete.Error)
}

func TestRunEventOrdering(t *testing.T) {
	hub := &captureHub{}
	d := newDriver(t, hub)

	d.Run(context.Background(), springRequest(0, 1000, 20))

	hub.mu.Lock()
	defer hub.mu.Unlock()
	require.NotEmpty(t, hub.events)

	_, isStart := hub.events[0].(models.StartEvent)
	assert.True(t, isStart, "first event must be start")

	_, isComplete := hub.events[len(hub.events)-1].(models.CompleteEvent)
	assert.True(t, isComplete, "last event must be complete")

	// Found events arrive in ascending seed order.
	seeds := []int64{}
	for _, e := range hub.events {
		if f, ok := e.(models.FoundEvent); ok {
			seeds = append(seeds, f.Seed)
		}
	}
	for i := 1; i < len(seeds); i++ {
		assert.Less(t, seeds[i-1], seeds[i])
	}
}
