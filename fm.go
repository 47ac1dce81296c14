package streamsketch

import (
	"fmt"
	"math"
	"slices"
)

// FM1 is a single-hash Flajolet-Martin distinct counter. It keeps the largest
// number of trailing zero bits R seen in the low 64 bits of any element's
// hash and estimates the distinct count as 2^R.
//
// A single hash has high variance; estimates are often off by a constant
// factor. See [FMst] for the aggregated variant.
//
// FM1 is NOT thread-safe. Add needs exclusive access; Estimate may be called
// concurrently once no Add is in progress.
type FM1 struct {
	hasher Hasher
	seed   uint32
	r      uint8
}

// NewFM1 creates a single-hash distinct counter. The default seed is 0.
func NewFM1(opts ...Option) *FM1 {
	o := buildOptions(0, opts)
	return &FM1{hasher: o.hasher, seed: o.seed}
}

// Add feeds data into the counter.
func (c *FM1) Add(data []byte) {
	// A zero hash counts as 64 trailing zeros, the full observation window.
	z := trailingZeros(c.hasher.Sum128(data, c.seed).Lo)
	c.r = max(c.r, z)
}

// AddString feeds a string into the counter without allocating.
func (c *FM1) AddString(s string) {
	c.Add(stringBytes(s))
}

// AddUint64 feeds an integer, encoded as 8 little-endian bytes.
func (c *FM1) AddUint64(v uint64) {
	var buf [8]byte
	c.Add(uint64Bytes(&buf, v))
}

// AddInt64 feeds a signed integer, encoded like AddUint64(uint64(v)).
func (c *FM1) AddInt64(v int64) {
	c.AddUint64(uint64(v))
}

// Estimate returns the raw estimate 2^R. [BiasCorrection] is not applied.
func (c *FM1) Estimate() float64 {
	return math.Ldexp(1, int(c.r))
}

// R returns the largest trailing zero count observed so far.
func (c *FM1) R() uint8 {
	return c.r
}

// FMst is a multi-hash Flajolet-Martin distinct counter. It keeps m running
// maxima R_0..R_{m-1}, one per hash function, where the j-th hash is derived
// from two base hashes as h1 + j*h2 mod 2^64. The m per-hash estimates 2^R_j
// are combined over g groups (see [Partition]) either as a median of group
// means or as a mean of group medians.
//
// FMst is NOT thread-safe. Add needs exclusive access; the estimate methods
// may be called concurrently once no Add is in progress.
type FMst struct {
	family    Family
	g         int
	registers []uint8
}

// NewFMst creates a distinct counter with m hash functions aggregated over g
// groups. It returns an error wrapping [ErrInvalidParameter] if m or g is not
// positive. The default base seed is 0.
func NewFMst(m, g int, opts ...Option) (*FMst, error) {
	if m <= 0 {
		return nil, fmt.Errorf("%w: number of hash functions m must be positive (got %d)", ErrInvalidParameter, m)
	}
	if g <= 0 {
		return nil, fmt.Errorf("%w: number of groups g must be positive (got %d)", ErrInvalidParameter, g)
	}

	o := buildOptions(0, opts)
	return &FMst{
		family:    Family{Hasher: o.hasher, Seed: o.seed},
		g:         g,
		registers: make([]uint8, m),
	}, nil
}

// Add feeds data into every one of the m counters.
func (c *FMst) Add(data []byte) {
	h1, h2 := c.family.Base(data)
	for j := range c.registers {
		z := trailingZeros(DeriveWide(h1.Lo, h2.Lo, uint64(j)))
		if z > c.registers[j] {
			c.registers[j] = z
		}
	}
}

// AddString feeds a string into the counter without allocating.
func (c *FMst) AddString(s string) {
	c.Add(stringBytes(s))
}

// AddUint64 feeds an integer, encoded as 8 little-endian bytes.
func (c *FMst) AddUint64(v uint64) {
	var buf [8]byte
	c.Add(uint64Bytes(&buf, v))
}

// AddInt64 feeds a signed integer, encoded like AddUint64(uint64(v)).
func (c *FMst) AddInt64(v int64) {
	c.AddUint64(uint64(v))
}

// EstimateMedianOfMeans averages 2^R_j within each group and returns the
// median of the group averages.
func (c *FMst) EstimateMedianOfMeans() float64 {
	return MedianOfMeans(c.estimates(), c.g)
}

// EstimateMeanOfMedians takes the median of 2^R_j within each group and
// returns the mean of the group medians.
func (c *FMst) EstimateMeanOfMedians() float64 {
	return MeanOfMedians(c.estimates(), c.g)
}

// estimates returns the per-hash estimates 2^R_j.
func (c *FMst) estimates() []float64 {
	values := make([]float64, len(c.registers))
	for j, r := range c.registers {
		values[j] = math.Ldexp(1, int(r))
	}
	return values
}

// M returns the number of hash functions.
func (c *FMst) M() int {
	return len(c.registers)
}

// G returns the number of groups requested at construction. Fewer groups are
// used when G exceeds M.
func (c *FMst) G() int {
	return c.g
}

// Registers returns a copy of the running maxima R_0..R_{m-1}.
func (c *FMst) Registers() []uint8 {
	return slices.Clone(c.registers)
}
