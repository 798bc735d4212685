package core

import (
	"encoding/binary"
)

// XXHash32 primes as defined by the reference algorithm.
const (
	prime32x1 uint32 = 2654435761
	prime32x2 uint32 = 2246822519
	prime32x3 uint32 = 3266489917
	prime32x4 uint32 = 668265263
	prime32x5 uint32 = 374761393
)

// CanonicalXXHash32 provides the canonical XXHash32 implementation with seed 0.
// This is the reference implementation shared by every search engine; the
// game derives all of its weather seeds from it, so the output must match the
// reference algorithm bit for bit, including the reinterpretation of the
// unsigned digest as a signed 32-bit value.
type CanonicalXXHash32 struct{}

// NewCanonicalXXHash32 creates a new canonical XXHash32 instance
func NewCanonicalXXHash32() *CanonicalXXHash32 {
	return &CanonicalXXHash32{}
}

// HashBytes computes XXHash32 of data with seed 0 and reinterprets the
// unsigned 32-bit digest as a two's-complement signed value.
func (c *CanonicalXXHash32) HashBytes(data []byte) int32 {
	return int32(xxhash32(data, 0))
}

// HashString computes HashBytes over the UTF-8 encoding of s.
func (c *CanonicalXXHash32) HashString(s string) int32 {
	return int32(xxhash32([]byte(s), 0))
}

// HashInts packs the five values into a 20-byte little-endian buffer (each
// value taken as its unsigned 32-bit representation) and hashes the buffer.
func (c *CanonicalXXHash32) HashInts(a, b, c2, d, e int32) int32 {
	var buf [20]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(a))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(b))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(c2))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(d))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(e))
	return int32(xxhash32(buf[:], 0))
}

var canonicalHasher = NewCanonicalXXHash32()

// HashBytes computes XXHash32 of data using the shared canonical instance.
func HashBytes(data []byte) int32 {
	return canonicalHasher.HashBytes(data)
}

// HashString computes XXHash32 of the UTF-8 encoding of s.
func HashString(s string) int32 {
	return canonicalHasher.HashString(s)
}

// HashInts computes XXHash32 of five integers packed little-endian.
func HashInts(a, b, c, d, e int32) int32 {
	return canonicalHasher.HashInts(a, b, c, d, e)
}

func rotl32(x uint32, r uint) uint32 {
	return (x << r) | (x >> (32 - r))
}

func round32(acc, input uint32) uint32 {
	acc += input * prime32x2
	acc = rotl32(acc, 13)
	acc *= prime32x1
	return acc
}

// xxhash32 implements the full XXHash32 algorithm. All arithmetic is
// unsigned 32-bit with wrap-around.
func xxhash32(data []byte, seed uint32) uint32 {
	n := len(data)
	var h32 uint32

	p := 0
	if n >= 16 {
		v1 := seed + prime32x1 + prime32x2
		v2 := seed + prime32x2
		v3 := seed
		v4 := seed - prime32x1

		for ; p+16 <= n; p += 16 {
			v1 = round32(v1, binary.LittleEndian.Uint32(data[p:p+4]))
			v2 = round32(v2, binary.LittleEndian.Uint32(data[p+4:p+8]))
			v3 = round32(v3, binary.LittleEndian.Uint32(data[p+8:p+12]))
			v4 = round32(v4, binary.LittleEndian.Uint32(data[p+12:p+16]))
		}

		h32 = rotl32(v1, 1) + rotl32(v2, 7) + rotl32(v3, 12) + rotl32(v4, 18)
	} else {
		h32 = seed + prime32x5
	}

	h32 += uint32(n)

	for ; p+4 <= n; p += 4 {
		h32 += binary.LittleEndian.Uint32(data[p:p+4]) * prime32x3
		h32 = rotl32(h32, 17) * prime32x4
	}

	for ; p < n; p++ {
		h32 += uint32(data[p]) * prime32x5
		h32 = rotl32(h32, 11) * prime32x1
	}

	h32 ^= h32 >> 15
	h32 *= prime32x2
	h32 ^= h32 >> 13
	h32 *= prime32x3
	h32 ^= h32 >> 16

	return h32
}
