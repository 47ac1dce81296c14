// Package streamsketch provides approximate streaming statistics: a Bloom
// filter for set membership and Flajolet-Martin counters for the number of
// distinct elements in a stream.
//
// Both sketches trade exactness for memory that does not grow with the
// stream. Neither stores elements; they keep statistics of element hashes.
//
// # Hashing
//
// Every element is hashed with a seeded 128-bit [Hasher] ([Murmur3] by
// default, or [XXH3]). Hashes are deterministic across calls and process
// runs: there is no random salt.
//
// When a sketch needs many hash functions it evaluates the hasher only twice,
// with seeds s and s+1, and derives the i-th function as
//
//	h_i(x) = (h1(x) + i*h2(x)) mod M
//
// This is the construction from "Less Hashing, Same Performance" by Kirsch
// and Mitzenmacher. See [Family], [Derive] and [DeriveWide].
//
// Elements are byte slices. Strings hash as their bytes, so AddString(s) and
// Add([]byte(s)) touch the same state. Integers hash as 8 little-endian bytes.
//
// # Bloom Filter
//
// [New] sizes a [Filter] for an expected number of insertions and a target
// false positive rate p:
//
//	n = ceil(-(capacity * ln(p)) / ln(2)²)   bits
//	k = round((n / capacity) * ln(2))        hash functions, at least 1
//
// Example: 1000 items at 1% gives n = 9586 and k = 7.
//
// Add sets k bits and is the only mutator; nothing is ever removed, so
// Contains never returns a false negative.
//
// # Distinct Counting
//
// [FM1] hashes each element once and tracks R, the longest run of trailing
// zero bits seen in the low 64 bits of any hash. The estimate is 2^R. A hash
// of zero counts as 64 trailing zeros.
//
// [FMst] tracks m such maxima, one per derived hash, and combines the m
// estimates 2^R_j over g groups:
//
//   - [FMst.EstimateMedianOfMeans]: mean within each group, median across groups.
//   - [FMst.EstimateMeanOfMedians]: median within each group, mean across groups.
//
// Groups are contiguous. Each of the min(g, m) groups holds floor(m/g)
// counters and the last group also takes the remainder, so m=10, g=3 gives
// groups of 3, 3 and 4. See [Partition].
//
// Estimates are the raw power-of-two values. The classical correction factor
// [BiasCorrection] is not applied, so estimates run high; expect the right
// order of magnitude rather than a tight figure.
//
// # Thread Safety
//
// [Filter], [FM1] and [FMst] are NOT thread-safe. Add mutates shared state and
// needs external synchronization; Contains and the estimate methods are
// read-only and safe for concurrent readers while no Add is running.
//
// [AtomicFilter] is safe for concurrent Add and Contains.
//
// # References
//
//   - Less Hashing, Same Performance: https://www.eecs.harvard.edu/~michaelm/postscripts/rsa2008.pdf
//   - Probabilistic Counting Algorithms for Data Base Applications (Flajolet, Martin, 1985)
package streamsketch
