package proc

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLink_chains_processors(t *testing.T) {
	double := newTestProc(t, 1, func(_ context.Context, i int) (int, error) {
		return i * 2, nil
	})
	render := newTestProc(t, 1, func(_ context.Context, i int) (string, error) {
		return "n=" + strconv.Itoa(i), nil
	})

	Link(double, render)

	rec := newRecorder[string]()
	render.Subscribe(rec)

	require.NoError(t, double.Submit(testContext(t), 21))
	require.Equal(t, "n=42", recvTimeout(t, rec.next))
}

func TestLink_unsubscribe_severs_wiring(t *testing.T) {
	double := newTestProc(t, 1, func(_ context.Context, i int) (int, error) {
		return i * 2, nil
	})
	sink := newTestProc(t, 1, func(_ context.Context, i int) (int, error) {
		return i, nil
	})

	link := Link(double, sink)

	rec := newRecorder[int]()
	sink.Subscribe(rec)

	require.NoError(t, double.Submit(testContext(t), 1))
	require.Equal(t, 2, recvTimeout(t, rec.next))

	link.Unsubscribe()

	// give the unsubscribe time to be processed, then verify nothing flows
	_, err := double.Ask(testContext(t), 2)
	require.NoError(t, err)
	select {
	case v := <-rec.next:
		t.Fatalf("received %d after link severed", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLink_completion_propagates(t *testing.T) {
	up := newTestProc(t, 1, func(_ context.Context, i int) (int, error) {
		return i, nil
	})
	down := newTestProc(t, 1, func(_ context.Context, i int) (int, error) {
		return i, nil
	})

	Link(up, down)
	up.Stop()

	recvTimeout(t, down.Done())
}

func TestLink_stop_flushes_accepted_items(t *testing.T) {
	double := newTestProc(t, 1, func(_ context.Context, i int) (int, error) {
		return i * 2, nil
	})
	inc := newTestProc(t, 1, func(_ context.Context, i int) (int, error) {
		return i + 1, nil
	})

	Link(double, inc)

	rec := newRecorder[int]()
	inc.Subscribe(rec)

	for i := 1; i <= 3; i++ {
		require.NoError(t, double.Submit(testContext(t), i))
	}
	double.Stop()

	// everything accepted upstream flows through the whole pipeline before
	// the downstream stage terminates
	require.Equal(t, 3, recvTimeout(t, rec.next))
	require.Equal(t, 5, recvTimeout(t, rec.next))
	require.Equal(t, 7, recvTimeout(t, rec.next))
	recvTimeout(t, rec.completed)
	recvTimeout(t, inc.Done())
}

func TestPipeline_stop(t *testing.T) {
	a := newTestProc(t, 1, func(_ context.Context, i int) (int, error) {
		return i + 1, nil
	})
	b := newTestProc(t, 2, func(_ context.Context, i int) (int, error) {
		return i * 10, nil
	})

	Link(a, b)

	rec := newRecorder[int]()
	b.Subscribe(rec)

	require.NoError(t, a.Submit(testContext(t), 3))
	require.Equal(t, 40, recvTimeout(t, rec.next))

	pl := NewPipeline(a, b)
	require.NoError(t, pl.Stop(context.Background()))
	recvTimeout(t, a.Done())
	recvTimeout(t, b.Done())
	recvTimeout(t, rec.completed)
}

func TestPipeline_stop_deadline(t *testing.T) {
	release := make(chan struct{})
	slow := newTestProc(t, 1, func(_ context.Context, i int) (int, error) {
		<-release
		return i, nil
	})
	defer close(release)

	require.NoError(t, slow.Submit(testContext(t), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	pl := NewPipeline(slow)
	require.ErrorIs(t, pl.Stop(ctx), context.DeadlineExceeded)
}
