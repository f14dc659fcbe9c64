package tracecache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Key identifies a trace by algorithm id and input contents.
type Key struct {
	Algorithm string
	Digest    [sha256.Size]byte
}

// KeyFor derives the cache key for tracing values with algorithm.
// The digest covers the length and the IEEE-754 bits of every value, so
// 0 and -0 produce different keys.
func KeyFor(algorithm string, values []float64) Key {
	hasher := sha256.New()

	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(len(values)))
	hasher.Write(buf[:])

	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		hasher.Write(buf[:])
	}

	key := Key{Algorithm: algorithm}
	copy(key.Digest[:], hasher.Sum(nil))

	return key
}

func (k Key) String() string {
	return k.Algorithm + ":" + hex.EncodeToString(k.Digest[:8])
}
