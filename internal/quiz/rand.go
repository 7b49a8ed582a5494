package quiz

import "math/rand/v2"

// newRand builds an independent generator for one engine call. Seeding from
// the shared top-level source is safe for concurrent use; the returned
// generator is not shared across calls.
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// sampleK picks k distinct indexes uniformly from [0, n) via a partial
// Fisher-Yates shuffle, so selection does not depend on any store-native
// random ordering.
func sampleK(r *rand.Rand, n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + r.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
