package proc

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/codewandler/strm-go/core/stream"
)

// a processor consumes its input type as an observer
var _ stream.Observer[int] = (*Processor[int, string])(nil)

// Link wires up's output stream into down's input: every result up
// broadcasts is submitted to down as fire-and-forget work, and up's
// termination requests down's stop. Link owns no state; the returned
// subscription is the only way to sever the wiring it created.
func Link[In, Mid, Out any](up *Processor[In, Mid], down *Processor[Mid, Out]) *stream.Subscription {
	return up.Subscribe(down)
}

// Stage is the lifecycle surface shared by every pipeline member.
type Stage interface {
	Stop()
	Done() <-chan struct{}
}

// Pipeline groups already-linked processors for collective shutdown.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline over the given stages. Wiring between the
// stages is the caller's job (see [Link]); the pipeline only manages
// lifecycle.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stop stops every stage concurrently and waits until all have drained or
// ctx expires. Work a stage already accepted still runs to completion,
// matching the single-processor stop contract. On ctx expiry the stages
// keep draining in the background; only the wait is abandoned.
func (pl *Pipeline) Stop(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range pl.stages {
		s := s
		go s.Stop()
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.Done():
				return nil
			}
		})
	}
	return g.Wait()
}
