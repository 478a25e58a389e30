package stream

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_broadcast_order(t *testing.T) {
	r := NewRegistry[int](nil)

	var got []string
	r.Add("a", ObserverFuncs[int]{Next: func(v int) { got = append(got, fmt.Sprintf("a=%d", v)) }})
	r.Add("b", ObserverFuncs[int]{Next: func(v int) { got = append(got, fmt.Sprintf("b=%d", v)) }})
	r.Add("c", ObserverFuncs[int]{Next: func(v int) { got = append(got, fmt.Sprintf("c=%d", v)) }})

	r.Next(1)
	require.Equal(t, []string{"a=1", "b=1", "c=1"}, got)
}

func TestRegistry_duplicates_allowed(t *testing.T) {
	r := NewRegistry[int](nil)

	n := 0
	obs := ObserverFuncs[int]{Next: func(int) { n++ }}
	r.Add("first", obs)
	r.Add("second", obs)
	require.Equal(t, 2, r.Len())

	r.Next(7)
	require.Equal(t, 2, n)

	// removal severs exactly one registration
	r.Remove("first")
	require.Equal(t, 1, r.Len())

	r.Next(7)
	require.Equal(t, 3, n)
}

func TestRegistry_remove_absent_is_noop(t *testing.T) {
	r := NewRegistry[int](nil)
	r.Add("a", ObserverFuncs[int]{})
	r.Remove("nope")
	require.Equal(t, 1, r.Len())
}

func TestRegistry_panicking_observer_is_isolated(t *testing.T) {
	r := NewRegistry[int](nil)

	var after []int
	r.Add("boom", ObserverFuncs[int]{Next: func(int) { panic("boom") }})
	r.Add("ok", ObserverFuncs[int]{Next: func(v int) { after = append(after, v) }})

	require.NotPanics(t, func() { r.Next(42) })
	require.Equal(t, []int{42}, after)

	require.NotPanics(t, func() { r.Error(fmt.Errorf("x")) })
	require.NotPanics(t, func() { r.Completed() })
}

func TestRegistry_concurrent_broadcast(t *testing.T) {
	r := NewRegistry[int](nil)

	var mu sync.Mutex
	total := 0
	r.Add("sum", ObserverFuncs[int]{Next: func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Next(1)
		}()
	}
	wg.Wait()

	require.Equal(t, 50, total)
}

func TestRegistry_error_and_completed_callbacks(t *testing.T) {
	r := NewRegistry[string](nil)

	var errs []error
	completed := 0
	r.Add("obs", ObserverFuncs[string]{
		Error:     func(err error) { errs = append(errs, err) },
		Completed: func() { completed++ },
	})

	boom := fmt.Errorf("boom")
	r.Error(boom)
	r.Completed()

	require.Equal(t, []error{boom}, errs)
	require.Equal(t, 1, completed)
}

func TestSubscription_unsubscribe_once(t *testing.T) {
	calls := 0
	s := NewSubscription(func(token string) {
		calls++
		require.NotEmpty(t, token)
	})
	require.NotEmpty(t, s.Token())

	s.Unsubscribe()
	s.Unsubscribe()
	require.Equal(t, 1, calls)
}
