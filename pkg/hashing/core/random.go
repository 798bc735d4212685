package core

// Constants of the .NET-compatible linear congruential step. The game reads a
// single value from each freshly-constructed generator, so only the first
// draw of the sequence matters.
const (
	rngMultiplier int64 = 1121899819
	rngIncrement  int64 = 1559595546

	// Int32Max is the modulus of the generator, 2^31 - 1.
	Int32Max int64 = 2147483647
)

// FirstRand returns the first raw draw of a generator constructed with seed.
// The constructor takes the absolute value of negative seeds before mixing.
// The result lies in [0, 2^31-2].
func FirstRand(seed int32) uint32 {
	x := int64(seed)
	if x < 0 {
		x = -x
	}
	return uint32((rngMultiplier*x + rngIncrement) % Int32Max)
}

// NextDouble returns the first draw of the generator scaled into [0, 1).
// Both search engines share this exact float64 division, so threshold
// comparisons cannot diverge between them.
func NextDouble(seed int32) float64 {
	return float64(FirstRand(seed)) / float64(Int32Max)
}

// NextInt returns the first bounded draw in [0, maxValue), computed as
// floor(FirstRand * maxValue / (2^31-1)) in 64-bit arithmetic. Returns 0
// when maxValue <= 0.
func NextInt(seed int32, maxValue int) int {
	if maxValue <= 0 {
		return 0
	}
	return int(int64(FirstRand(seed)) * int64(maxValue) / Int32Max)
}

// CreateRandomSeed mixes five values into a single seed the way the game
// does. Each input is first reduced modulo 2^31-1 with Go's truncated
// remainder, which preserves the sign of negative inputs. In legacy mode the
// reduced values are summed in 64-bit arithmetic and reduced again; otherwise
// they are hashed.
func CreateRandomSeed(a, b, c, d, e int64, useLegacyRandom bool) int32 {
	a %= Int32Max
	b %= Int32Max
	c %= Int32Max
	d %= Int32Max
	e %= Int32Max

	if useLegacyRandom {
		return int32((a + b + c + d + e) % Int32Max)
	}
	return HashInts(int32(a), int32(b), int32(c), int32(d), int32(e))
}
