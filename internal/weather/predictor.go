package weather

import (
	"github.com/law52525/StardewSeedSearcher/internal/models"
	"github.com/law52525/StardewSeedSearcher/pkg/hashing/core"
)

// Hash constants used by every probabilistic draw. Computed once.
var (
	summerRainChanceHash = int64(core.HashString("summer_rain_chance"))
	locationWeatherHash  = int64(core.HashString("location_weather"))
)

// greenRainDays are the candidate summer days for the forced green rain.
var greenRainDays = [8]int{5, 6, 7, 14, 15, 16, 18, 23}

// Predictor reconstructs the first-year weather schedule of a game seed and
// evaluates rain-count clauses against it. A Predictor is not safe for
// concurrent use: each worker owns one and reuses its day buffer across
// seeds to avoid per-seed allocation.
type Predictor struct {
	conditions []models.WeatherCondition
	enabled    bool

	// days is indexed by absolute day 1..84; index 0 is unused.
	days [models.TotalDays + 1]bool

	cachedSeed   int32
	cachedLegacy bool
	cacheValid   bool
}

// NewPredictor creates an enabled predictor with no conditions.
func NewPredictor() *Predictor {
	return &Predictor{enabled: true}
}

// Name returns the feature name.
func (p *Predictor) Name() string { return "weather" }

// Enabled reports whether the predictor participates in seed checks.
func (p *Predictor) Enabled() bool { return p.enabled }

// SetEnabled toggles participation in seed checks.
func (p *Predictor) SetEnabled(enabled bool) { p.enabled = enabled }

// AddCondition appends a rain-count clause. Clauses are evaluated in the
// order they were added.
func (p *Predictor) AddCondition(c models.WeatherCondition) {
	p.conditions = append(p.conditions, c)
}

// Conditions returns a copy of the clause list.
func (p *Predictor) Conditions() []models.WeatherCondition {
	out := make([]models.WeatherCondition, len(p.conditions))
	copy(out, p.conditions)
	return out
}

// Clone creates an independent predictor with the same conditions and
// enablement, for handing to another worker.
func (p *Predictor) Clone() *Predictor {
	return &Predictor{
		conditions: p.Conditions(),
		enabled:    p.enabled,
	}
}

// Check reports whether the seed satisfies every clause conjunctively.
// A disabled predictor or an empty clause list accepts every seed without
// predicting anything.
func (p *Predictor) Check(gameSeed int32, useLegacyRandom bool) bool {
	if !p.enabled || len(p.conditions) == 0 {
		return true
	}

	days := p.PredictYear(gameSeed, useLegacyRandom)

	for _, c := range p.conditions {
		count := 0
		for day := c.AbsoluteStartDay(); day <= c.AbsoluteEndDay(); day++ {
			if days[day] {
				count++
			}
		}
		if count < c.MinRainDays {
			return false
		}
	}
	return true
}

// PredictYear fills and returns the 84-day rain vector for the seed. The
// returned slice is indexed by absolute day (index 0 unused) and is owned by
// the predictor; it is valid until the next PredictYear call. The most
// recently computed vector is cached by (seed, legacy flag).
func (p *Predictor) PredictYear(gameSeed int32, useLegacyRandom bool) []bool {
	if p.cacheValid && p.cachedSeed == gameSeed && p.cachedLegacy == useLegacyRandom {
		return p.days[:]
	}

	greenRainDay := GreenRainDay(gameSeed, useLegacyRandom)

	for absoluteDay := 1; absoluteDay <= models.TotalDays; absoluteDay++ {
		season := (absoluteDay - 1) / models.DaysPerSeason
		dayOfMonth := (absoluteDay-1)%models.DaysPerSeason + 1
		p.days[absoluteDay] = isRainyDay(season, dayOfMonth, absoluteDay, gameSeed, useLegacyRandom, greenRainDay)
	}

	p.cachedSeed = gameSeed
	p.cachedLegacy = useLegacyRandom
	p.cacheValid = true
	return p.days[:]
}

// GreenRainDay returns the summer day-of-month on which green rain is forced
// for the seed.
func GreenRainDay(gameSeed int32, useLegacyRandom bool) int {
	const year = 1
	seed := core.CreateRandomSeed(year*777, int64(gameSeed), 0, 0, 0, useLegacyRandom)
	return greenRainDays[core.NextInt(seed, len(greenRainDays))]
}

// isRainyDay applies the fixed calendar rules first, then the probabilistic
// draws. Seasons: 0 spring, 1 summer, 2 fall.
func isRainyDay(season, dayOfMonth, absoluteDay int, gameSeed int32, useLegacyRandom bool, greenRainDay int) bool {
	if dayOfMonth == 1 {
		return false
	}

	switch season {
	case 0:
		switch dayOfMonth {
		case 2, 4, 5:
			return false
		case 3:
			return true
		case 13, 24: // festivals
			return false
		}

	case 1:
		if dayOfMonth == greenRainDay {
			return true
		}
		switch dayOfMonth {
		case 11, 28: // festivals
			return false
		}
		if dayOfMonth%13 == 0 { // thunderstorms on 13 and 26
			return true
		}

		// Normal summer rain; chance grows with the date.
		seed := core.CreateRandomSeed(int64(absoluteDay-1), int64(gameSeed/2), summerRainChanceHash, 0, 0, useLegacyRandom)
		chance := 0.12 + 0.003*float64(dayOfMonth-1)
		return core.NextDouble(seed) < chance

	case 2:
		switch dayOfMonth {
		case 16, 27: // festivals
			return false
		}
	}

	// Spring and fall normal days.
	seed := core.CreateRandomSeed(locationWeatherHash, int64(gameSeed), int64(absoluteDay-1), 0, 0, useLegacyRandom)
	return core.NextDouble(seed) < 0.183
}

// Detail flattens the predicted vector into per-season rain day lists.
func (p *Predictor) Detail(gameSeed int32, useLegacyRandom bool) models.WeatherDetail {
	days := p.PredictYear(gameSeed, useLegacyRandom)

	detail := models.WeatherDetail{
		SpringRain:   []int{},
		SummerRain:   []int{},
		FallRain:     []int{},
		GreenRainDay: GreenRainDay(gameSeed, useLegacyRandom),
	}

	for absoluteDay := 1; absoluteDay <= models.TotalDays; absoluteDay++ {
		if !days[absoluteDay] {
			continue
		}
		dayOfMonth := (absoluteDay-1)%models.DaysPerSeason + 1
		switch (absoluteDay - 1) / models.DaysPerSeason {
		case 0:
			detail.SpringRain = append(detail.SpringRain, dayOfMonth)
		case 1:
			detail.SummerRain = append(detail.SummerRain, dayOfMonth)
		case 2:
			detail.FallRain = append(detail.FallRain, dayOfMonth)
		}
	}
	return detail
}
