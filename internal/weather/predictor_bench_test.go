package weather

import (
	"testing"

	"github.com/law52525/StardewSeedSearcher/internal/models"
)

func BenchmarkPredictYear(b *testing.B) {
	p := NewPredictor()
	for i := 0; i < b.N; i++ {
		// Vary the seed so the single-entry cache never hits.
		p.PredictYear(int32(i), false)
	}
}

func BenchmarkPredictYearLegacy(b *testing.B) {
	p := NewPredictor()
	for i := 0; i < b.N; i++ {
		p.PredictYear(int32(i), true)
	}
}

func BenchmarkCheck(b *testing.B) {
	p := NewPredictor()
	p.AddCondition(models.WeatherCondition{
		Season: models.SeasonSpring, StartDay: 1, EndDay: 10, MinRainDays: 5,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Check(int32(i), false)
	}
}
