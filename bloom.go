package streamsketch

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
)

// Filter is a Bloom filter: a fixed-size bit array sketch answering "definitely
// not added" or "possibly added".
//
// Each element is hashed twice and the k bit positions are derived with
// h_i = (h1 + i*h2) mod n. Bits are never cleared, so there are no false
// negatives.
//
// Filter is NOT thread-safe. Add needs exclusive access; Contains and the
// other read methods may run concurrently once no Add is in progress. Use
// [AtomicFilter] for concurrent writers.
type Filter struct {
	bits     *bitset.BitSet
	n        uint64  // Bit array length
	k        uint32  // Number of hash functions
	capacity uint64  // Expected insertions
	fpRate   float64 // Target false positive rate
	family   Family
	count    uint64 // Number of Add calls (approximate item count)
}

// New creates a Bloom filter sized for capacity insertions at the target
// false positive rate. It returns an error wrapping [ErrInvalidParameter] if
// capacity is zero or fpRate is not in (0, 1).
func New(capacity uint64, fpRate float64, opts ...Option) (*Filter, error) {
	if err := validateBloom(capacity, fpRate); err != nil {
		return nil, err
	}

	o := buildOptions(defaultBloomSeed, opts)
	n, k := OptimalParams(capacity, fpRate)

	return &Filter{
		bits:     bitset.New(uint(n)),
		n:        n,
		k:        k,
		capacity: capacity,
		fpRate:   fpRate,
		family:   Family{Hasher: o.hasher, Seed: o.seed},
	}, nil
}

// NewFromInt is New for callers holding a signed capacity. Negative
// capacities are rejected with [ErrInvalidParameter].
func NewFromInt(capacity int, fpRate float64, opts ...Option) (*Filter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive (got %d)", ErrInvalidParameter, capacity)
	}
	return New(uint64(capacity), fpRate, opts...)
}

// Add adds data to the filter.
func (f *Filter) Add(data []byte) {
	h1, h2 := f.family.Base(data)
	for i := uint32(0); i < f.k; i++ {
		f.bits.Set(uint(Derive(h1, h2, uint64(i), f.n)))
	}
	f.count++
}

// AddString adds a string to the filter without allocating. It is
// equivalent to Add([]byte(s)).
func (f *Filter) AddString(s string) {
	f.Add(stringBytes(s))
}

// AddUint64 adds an integer, encoded as 8 little-endian bytes.
func (f *Filter) AddUint64(v uint64) {
	var buf [8]byte
	f.Add(uint64Bytes(&buf, v))
}

// AddInt64 adds a signed integer, encoded like AddUint64(uint64(v)).
func (f *Filter) AddInt64(v int64) {
	f.AddUint64(uint64(v))
}

// Contains reports whether data might have been added. A false result is
// certain; a true result is wrong with roughly the configured false
// positive rate once the filter holds its capacity.
func (f *Filter) Contains(data []byte) bool {
	h1, h2 := f.family.Base(data)
	for i := uint32(0); i < f.k; i++ {
		if !f.bits.Test(uint(Derive(h1, h2, uint64(i), f.n))) {
			return false
		}
	}
	return true
}

// ContainsString is Contains for a string key.
func (f *Filter) ContainsString(s string) bool {
	return f.Contains(stringBytes(s))
}

// ContainsUint64 is Contains for an integer key.
func (f *Filter) ContainsUint64(v uint64) bool {
	var buf [8]byte
	return f.Contains(uint64Bytes(&buf, v))
}

// ContainsInt64 is Contains for a signed integer key.
func (f *Filter) ContainsInt64(v int64) bool {
	return f.ContainsUint64(uint64(v))
}

// Cap returns the length of the bit array.
func (f *Filter) Cap() uint64 {
	return f.n
}

// K returns the number of hash functions used.
func (f *Filter) K() uint32 {
	return f.k
}

// Capacity returns the expected number of insertions the filter was sized for.
func (f *Filter) Capacity() uint64 {
	return f.capacity
}

// FalsePositiveRate returns the target false positive rate the filter was
// sized for.
func (f *Filter) FalsePositiveRate() float64 {
	return f.fpRate
}

// Count returns the number of Add calls, counting repeated elements.
func (f *Filter) Count() uint64 {
	return f.count
}

// EstimatedFillRatio returns the proportion of bits that are set.
func (f *Filter) EstimatedFillRatio() float64 {
	return float64(f.bits.Count()) / float64(f.n)
}

// EstimatedFalsePositiveRate estimates the current false positive rate
// based on the number of items added.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return EstimateFalsePositiveRate(f.n, f.k, f.count)
}

// Equal reports whether f and other have identical parameters and bit arrays.
func (f *Filter) Equal(other *Filter) bool {
	if other == nil {
		return false
	}
	return f.n == other.n &&
		f.k == other.k &&
		f.family == other.family &&
		f.bits.Equal(other.bits)
}

// AtomicFilter is a thread-safe Bloom filter. It is sized and hashed exactly
// like [Filter] but stores its bits in atomic words, so Add and Contains may
// be called concurrently from any number of goroutines.
type AtomicFilter struct {
	words    []atomic.Uint64
	n        uint64
	k        uint32
	capacity uint64
	fpRate   float64
	family   Family
	count    atomic.Uint64
}

// NewAtomic creates a thread-safe Bloom filter. Parameters are validated as
// in [New].
func NewAtomic(capacity uint64, fpRate float64, opts ...Option) (*AtomicFilter, error) {
	if err := validateBloom(capacity, fpRate); err != nil {
		return nil, err
	}

	o := buildOptions(defaultBloomSeed, opts)
	n, k := OptimalParams(capacity, fpRate)

	return &AtomicFilter{
		words:    make([]atomic.Uint64, (n+63)/64),
		n:        n,
		k:        k,
		capacity: capacity,
		fpRate:   fpRate,
		family:   Family{Hasher: o.hasher, Seed: o.seed},
	}, nil
}

// Add adds data to the filter atomically.
func (f *AtomicFilter) Add(data []byte) {
	h1, h2 := f.family.Base(data)
	for i := uint32(0); i < f.k; i++ {
		bit := Derive(h1, h2, uint64(i), f.n)
		f.words[bit/64].Or(1 << (bit % 64))
	}
	f.count.Add(1)
}

// AddString adds a string to the filter atomically without allocating.
func (f *AtomicFilter) AddString(s string) {
	f.Add(stringBytes(s))
}

// AddUint64 adds an integer, encoded as 8 little-endian bytes.
func (f *AtomicFilter) AddUint64(v uint64) {
	var buf [8]byte
	f.Add(uint64Bytes(&buf, v))
}

// AddInt64 adds a signed integer, encoded like AddUint64(uint64(v)).
func (f *AtomicFilter) AddInt64(v int64) {
	f.AddUint64(uint64(v))
}

// Contains reports whether data might have been added.
// This operation is safe to call concurrently with Add.
func (f *AtomicFilter) Contains(data []byte) bool {
	h1, h2 := f.family.Base(data)
	for i := uint32(0); i < f.k; i++ {
		bit := Derive(h1, h2, uint64(i), f.n)
		if f.words[bit/64].Load()&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// ContainsString is Contains for a string key.
func (f *AtomicFilter) ContainsString(s string) bool {
	return f.Contains(stringBytes(s))
}

// ContainsUint64 is Contains for an integer key.
func (f *AtomicFilter) ContainsUint64(v uint64) bool {
	var buf [8]byte
	return f.Contains(uint64Bytes(&buf, v))
}

// ContainsInt64 is Contains for a signed integer key.
func (f *AtomicFilter) ContainsInt64(v int64) bool {
	return f.ContainsUint64(uint64(v))
}

// Cap returns the length of the bit array.
func (f *AtomicFilter) Cap() uint64 {
	return f.n
}

// K returns the number of hash functions used.
func (f *AtomicFilter) K() uint32 {
	return f.k
}

// Count returns the number of Add calls.
func (f *AtomicFilter) Count() uint64 {
	return f.count.Load()
}

// EstimatedFillRatio returns the proportion of bits that are set.
func (f *AtomicFilter) EstimatedFillRatio() float64 {
	var set uint64
	for i := range f.words {
		set += uint64(bits.OnesCount64(f.words[i].Load()))
	}
	return float64(set) / float64(f.n)
}

// EstimatedFalsePositiveRate estimates the current false positive rate.
func (f *AtomicFilter) EstimatedFalsePositiveRate() float64 {
	return EstimateFalsePositiveRate(f.n, f.k, f.count.Load())
}

// Snapshot copies the current bits into a non-atomic [Filter] with the same
// parameters. Concurrent Adds may or may not be reflected.
func (f *AtomicFilter) Snapshot() *Filter {
	words := make([]uint64, len(f.words))
	for i := range f.words {
		words[i] = f.words[i].Load()
	}
	bs := bitset.From(words)
	// From keeps the full word length; trim to n bits so Equal compares like
	// with like.
	bs.Shrink(uint(f.n - 1))

	return &Filter{
		bits:     bs,
		n:        f.n,
		k:        f.k,
		capacity: f.capacity,
		fpRate:   f.fpRate,
		family:   f.family,
		count:    f.count.Load(),
	}
}
