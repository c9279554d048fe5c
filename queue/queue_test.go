package queue

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSPSC_FIFOOrder(t *testing.T) {
	q := NewSPSC[int](8)
	for i := 0; i < 8; i++ {
		require.NoError(t, q.TryPush(i))
	}
	require.ErrorIs(t, q.TryPush(99), ErrFull)

	for i := 0; i < 8; i++ {
		v, err := q.TryPop()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	_, err := q.TryPop()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestSPSC_CapacityRoundsUpToPowerOfTwo(t *testing.T) {
	q := NewSPSC[int](5)
	require.Equal(t, 8, q.Cap())
}

func TestSPSC_ConcurrentProducerConsumerPreservesOrder(t *testing.T) {
	const n = 100_000
	q := NewSPSC[int](256)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Push(i, BusySpin{})
		}
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			got = append(got, q.Pop(BusySpin{}))
		}
	}()

	wg.Wait()
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestMPSC_SingleProducerFIFO(t *testing.T) {
	q := NewMPSC[int](8)
	for i := 0; i < 8; i++ {
		require.NoError(t, q.TryPush(i))
	}
	require.ErrorIs(t, q.TryPush(1), ErrFull)
	for i := 0; i < 8; i++ {
		v, err := q.TryPop()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
}

func TestMPSC_MultiProducerPreservesPerProducerOrder(t *testing.T) {
	const producers = 8
	const perProducer = 5000
	q := NewMPSC[[2]int](1024) // [producerID, seq]

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push([2]int{p, i}, DefaultBackoff())
			}
		}(p)
	}

	lastSeen := make([]int, producers)
	for i := range lastSeen {
		lastSeen[i] = -1
	}
	received := 0
	total := producers * perProducer
	for received < total {
		v, err := q.TryPop()
		if err != nil {
			continue
		}
		require.Equal(t, lastSeen[v[0]]+1, v[1], "per-producer order must be preserved")
		lastSeen[v[0]] = v[1]
		received++
	}
	wg.Wait()
}

func TestMPMC_NeverExceedsCapacity(t *testing.T) {
	q := NewMPMC[int](4)
	for i := 0; i < 4; i++ {
		require.NoError(t, q.TryPush(i))
	}
	require.ErrorIs(t, q.TryPush(99), ErrFull)
}

func TestMPMC_MultiProducerMultiConsumerNoLossNoDup(t *testing.T) {
	const producers = 4
	const consumers = 4
	const perProducer = 2000
	total := producers * perProducer

	q := NewMPMC[int](64)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(p*perProducer+i, DefaultBackoff())
			}
		}(p)
	}

	var mu sync.Mutex
	results := make([]int, 0, total)
	var cwg sync.WaitGroup
	done := make(chan struct{})
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				select {
				case <-done:
					// Drain remaining without blocking once producers
					// have finished and the channel signals completion.
					for {
						v, err := q.TryPop()
						if err != nil {
							return
						}
						mu.Lock()
						results = append(results, v)
						mu.Unlock()
					}
				default:
					v, err := q.TryPop()
					if err != nil {
						continue
					}
					mu.Lock()
					results = append(results, v)
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()
	close(done)
	cwg.Wait()

	require.Len(t, results, total)
	sort.Ints(results)
	for i, v := range results {
		require.Equal(t, i, v)
	}
}

func TestBackoff_EscalatesThenResets(t *testing.T) {
	b := Backoff{SpinAttempts: 1, YieldAttempts: 2, SleepInterval: 0}
	// Should not panic across the spin -> yield -> sleep transitions.
	b.Wait(0)
	b.Wait(1)
	b.Wait(2)
	b.Reset()
}
