package deferred

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProcessor_DeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string

	p := New(Config{
		Capacity: 64,
		Policy:   Block,
		Callback: func(r Record) {
			mu.Lock()
			got = append(got, string(r.Bytes))
			mu.Unlock()
		},
	})
	defer p.Stop()

	for i := 0; i < 50; i++ {
		require.NoError(t, p.Offer(int64(i), []byte{byte(i)}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 50
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		require.Equal(t, []byte{byte(i)}, []byte(v))
	}
}

func TestProcessor_OfferCopiesInputBuffer(t *testing.T) {
	received := make(chan Record, 1)
	p := New(Config{
		Capacity: 8,
		Policy:   Block,
		Callback: func(r Record) { received <- r },
	})
	defer p.Stop()

	buf := []byte{1, 2, 3}
	require.NoError(t, p.Offer(0, buf))
	buf[0] = 99 // mutate after Offer; the delivered copy must be unaffected

	rec := <-received
	require.Equal(t, []byte{1, 2, 3}, rec.Bytes)
}

func TestProcessor_EscalatePolicyReturnsOverload(t *testing.T) {
	block := make(chan struct{})
	p := New(Config{
		Capacity: 2,
		Policy:   Escalate,
		Callback: func(r Record) { <-block },
	})
	defer func() {
		close(block)
		p.Stop()
	}()

	// Fill the queue plus the one the callback is blocked on.
	var lastErr error
	for i := 0; i < 10; i++ {
		if err := p.Offer(0, []byte{byte(i)}); err != nil {
			lastErr = err
			break
		}
	}
	require.ErrorIs(t, lastErr, ErrOverload)
}

func TestProcessor_StopDrainsRemaining(t *testing.T) {
	var mu sync.Mutex
	var count int
	p := New(Config{
		Capacity: 64,
		Policy:   Block,
		Callback: func(r Record) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})

	for i := 0; i < 20; i++ {
		require.NoError(t, p.Offer(0, []byte{byte(i)}))
	}
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 20, count)
}
