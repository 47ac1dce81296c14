package streamsketch

import (
	"fmt"
	"sync"
	"testing"

	bab "github.com/bits-and-blooms/bloom/v3"
)

const (
	benchItems  = 1_000_000
	benchFPRate = 0.01
)

// benchKeys pre-generates test data to avoid measuring key generation. It is
// built on first use so plain test runs do not pay for it.
var benchKeys = sync.OnceValue(func() [][]byte {
	keys := make([][]byte, benchItems)
	for i := range benchItems {
		keys[i] = fmt.Appendf(nil, "key-%d", i)
	}
	return keys
})

func BenchmarkFilterAdd(b *testing.B) {
	testKeys := benchKeys()
	for _, h := range []struct {
		name   string
		hasher Hasher
	}{
		{"murmur3", Murmur3},
		{"xxh3", XXH3},
	} {
		b.Run(h.name, func(b *testing.B) {
			f := mustNew(b, benchItems, benchFPRate, WithHasher(h.hasher))
			b.ResetTimer()
			for i := range b.N {
				f.Add(testKeys[i%benchItems])
			}
		})
	}
}

func BenchmarkFilterContains(b *testing.B) {
	testKeys := benchKeys()
	f := mustNew(b, benchItems, benchFPRate)
	for _, k := range testKeys {
		f.Add(k)
	}
	b.ResetTimer()
	for i := range b.N {
		_ = f.Contains(testKeys[i%benchItems])
	}
}

func BenchmarkAtomicFilterAddParallel(b *testing.B) {
	testKeys := benchKeys()
	f, err := NewAtomic(benchItems, benchFPRate)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.Add(testKeys[i%benchItems])
			i++
		}
	})
}

func BenchmarkBitsAndBloomsAdd(b *testing.B) {
	testKeys := benchKeys()
	f := bab.NewWithEstimates(benchItems, benchFPRate)
	b.ResetTimer()
	for i := range b.N {
		f.Add(testKeys[i%benchItems])
	}
}

func BenchmarkBitsAndBloomsTest(b *testing.B) {
	testKeys := benchKeys()
	f := bab.NewWithEstimates(benchItems, benchFPRate)
	for _, k := range testKeys {
		f.Add(k)
	}
	b.ResetTimer()
	for i := range b.N {
		_ = f.Test(testKeys[i%benchItems])
	}
}

func BenchmarkFM1Add(b *testing.B) {
	testKeys := benchKeys()
	c := NewFM1()
	b.ResetTimer()
	for i := range b.N {
		c.Add(testKeys[i%benchItems])
	}
}

func BenchmarkFMstAdd(b *testing.B) {
	testKeys := benchKeys()
	for _, m := range []int{16, 64, 256} {
		b.Run(fmt.Sprintf("m=%d", m), func(b *testing.B) {
			c := mustFMst(b, m, 8)
			b.ResetTimer()
			for i := range b.N {
				c.Add(testKeys[i%benchItems])
			}
		})
	}
}

func BenchmarkFMstEstimate(b *testing.B) {
	testKeys := benchKeys()
	c := mustFMst(b, 64, 8)
	for _, k := range testKeys[:10000] {
		c.Add(k)
	}
	b.ResetTimer()
	for range b.N {
		_ = c.EstimateMedianOfMeans()
	}
}
