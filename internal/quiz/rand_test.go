package quiz

import (
	"sync"
	"testing"
)

func TestSampleKDistinct(t *testing.T) {
	r := newRand()
	for n := 0; n < 10; n++ {
		for k := 0; k <= n+2; k++ {
			got := sampleK(r, n, k)
			want := k
			if want > n {
				want = n
			}
			if len(got) != want {
				t.Fatalf("sampleK(%d, %d) returned %d indexes", n, k, len(got))
			}
			seen := map[int]bool{}
			for _, i := range got {
				if i < 0 || i >= n {
					t.Fatalf("index %d out of [0,%d)", i, n)
				}
				if seen[i] {
					t.Fatalf("duplicate index %d in sample", i)
				}
				seen[i] = true
			}
		}
	}
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := newKeyedMutex()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("arnold", "lec1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("lost updates under the same key: %d", counter)
	}
}
