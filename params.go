package streamsketch

import (
	"errors"
	"fmt"
	"math"
)

const (
	// ln2 is the natural logarithm of 2.
	ln2 = 0.6931471805599453
	// ln2Squared is ln(2)^2.
	ln2Squared = 0.4804530139182014

	// BiasCorrection is the Flajolet-Martin correction factor phi. The
	// estimators in this package return the raw 2^R values and never divide by
	// it; callers wanting the corrected figure can apply it themselves.
	BiasCorrection = 0.77351

	// defaultBloomSeed is the seed of h1 for a Filter; h2 uses seed+1.
	defaultBloomSeed = 1
)

// ErrInvalidParameter is returned by constructors when a sizing parameter is
// out of range.
var ErrInvalidParameter = errors.New("streamsketch: invalid parameter")

// Option configures the hashing of a sketch.
type Option func(*options)

type options struct {
	hasher Hasher
	seed   uint32
}

// WithHasher sets the Hasher used by the sketch. The default is Murmur3.
func WithHasher(h Hasher) Option {
	return func(o *options) {
		if h != nil {
			o.hasher = h
		}
	}
}

// WithSeed sets the base seed of the sketch's hash family.
func WithSeed(seed uint32) Option {
	return func(o *options) {
		o.seed = seed
	}
}

func buildOptions(seed uint32, opts []Option) options {
	o := options{hasher: Murmur3, seed: seed}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// validateBloom checks the constructor parameters of a Bloom filter.
func validateBloom(capacity uint64, fpRate float64) error {
	if capacity == 0 {
		return fmt.Errorf("%w: capacity must be positive (got 0)", ErrInvalidParameter)
	}
	if !(fpRate > 0 && fpRate < 1) {
		return fmt.Errorf("%w: false positive rate must be in (0, 1) (got %v)", ErrInvalidParameter, fpRate)
	}
	if bits := optimalBits(capacity, fpRate); bits >= maxFilterBits {
		return fmt.Errorf("%w: filter would need %.3g bits (capacity %d, rate %v)", ErrInvalidParameter, bits, capacity, fpRate)
	}
	return nil
}

// OptimalParams calculates the bit array length n and the number of hash
// functions k for a Bloom filter holding capacity items at false positive
// rate fpRate:
//
//	n = ceil(-(capacity * ln(fpRate)) / ln(2)^2)
//	k = round((n / capacity) * ln(2)), at least 1
//
// Parameters are not validated; see [New].
func OptimalParams(capacity uint64, fpRate float64) (n uint64, k uint32) {
	n = uint64(optimalBits(capacity, fpRate))

	k = uint32(math.Round(float64(n) / float64(capacity) * ln2))
	k = max(k, 1)

	return n, k
}

// maxFilterBits bounds the bit array length to what a bitset can index.
const maxFilterBits = float64(math.MaxInt)

func optimalBits(capacity uint64, fpRate float64) float64 {
	return math.Ceil(-(float64(capacity) * math.Log(fpRate)) / ln2Squared)
}

// EstimateFalsePositiveRate estimates the false positive rate of a filter of
// n bits and k hash functions after itemsAdded insertions.
// Formula: (1 - e^(-k*items/n))^k
func EstimateFalsePositiveRate(n uint64, k uint32, itemsAdded uint64) float64 {
	m := float64(n)
	items := float64(itemsAdded)
	kf := float64(k)

	if m == 0 || items == 0 {
		return 0
	}

	return math.Pow(1-math.Exp(-kf*items/m), kf)
}
