package streamsketch

import (
	"encoding/binary"
	"math/bits"
	"unsafe"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Digest is a 128-bit hash value.
type Digest struct {
	Hi uint64
	Lo uint64
}

// Hasher produces deterministic, seeded 128-bit digests. Implementations must
// return the same digest for the same (data, seed) pair across calls and
// across process runs.
type Hasher interface {
	Sum128(data []byte, seed uint32) Digest
}

// hasherID identifies a built-in Hasher in serialized sketches.
type hasherID byte

const (
	hasherMurmur3 hasherID = 1
	hasherXXH3    hasherID = 2
)

type murmur3Hasher struct{}

func (murmur3Hasher) Sum128(data []byte, seed uint32) Digest {
	lo, hi := murmur3.Sum128WithSeed(data, seed)
	return Digest{Hi: hi, Lo: lo}
}

type xxh3Hasher struct{}

func (xxh3Hasher) Sum128(data []byte, seed uint32) Digest {
	h := xxh3.Hash128Seed(data, uint64(seed))
	return Digest{Hi: h.Hi, Lo: h.Lo}
}

var (
	// Murmur3 is the 128-bit x64 MurmurHash3. It is the default hasher.
	Murmur3 Hasher = murmur3Hasher{}

	// XXH3 is the 128-bit XXH3 hash.
	XXH3 Hasher = xxh3Hasher{}
)

func idOf(h Hasher) (hasherID, bool) {
	switch h.(type) {
	case murmur3Hasher:
		return hasherMurmur3, true
	case xxh3Hasher:
		return hasherXXH3, true
	}
	return 0, false
}

func hasherOf(id hasherID) (Hasher, bool) {
	switch id {
	case hasherMurmur3:
		return Murmur3, true
	case hasherXXH3:
		return XXH3, true
	}
	return nil, false
}

// Family derives any number of hash functions from two evaluations of a
// Hasher, using the double hashing construction of Kirsch and Mitzenmacher.
type Family struct {
	Hasher Hasher
	Seed   uint32
}

// Base returns the two base digests h1 and h2 of data, evaluated with seeds
// Seed and Seed+1.
func (f Family) Base(data []byte) (h1, h2 Digest) {
	return f.Hasher.Sum128(data, f.Seed), f.Hasher.Sum128(data, f.Seed+1)
}

// Derive returns the i-th derived hash (h1 + i*h2) mod modulus, computed over
// the full 128-bit digests without overflow. It panics if modulus is zero.
func Derive(h1, h2 Digest, i, modulus uint64) uint64 {
	a := rem128(h1, modulus)
	b := rem128(h2, modulus)

	// a, b < modulus, so i*b + a fits in 128 bits.
	hi, lo := bits.Mul64(i, b)
	lo, carry := bits.Add64(lo, a, 0)
	hi += carry
	return bits.Rem64(hi, lo, modulus)
}

// DeriveWide returns the i-th derived hash (h1 + i*h2) mod 2^64.
func DeriveWide(h1, h2, i uint64) uint64 {
	return h1 + i*h2
}

// rem128 returns d mod m.
func rem128(d Digest, m uint64) uint64 {
	return bits.Rem64(d.Hi, d.Lo, m)
}

// trailingZeros returns the number of trailing zero bits of v, with 64 for
// v == 0 (every bit of the observation window is zero).
func trailingZeros(v uint64) uint8 {
	return uint8(bits.TrailingZeros64(v))
}

// stringBytes returns the bytes of s without copying. The result must not be
// modified or retained.
func stringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// uint64Bytes is the canonical encoding of an integer element: 8 bytes,
// little-endian.
func uint64Bytes(buf *[8]byte, v uint64) []byte {
	binary.LittleEndian.PutUint64(buf[:], v)
	return buf[:]
}
