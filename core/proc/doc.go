// Package proc provides a bounded-concurrency processing actor with
// publish/subscribe semantics.
//
// A [Processor] owns a work function and applies it to every submitted item
// with a configurable maximum number of concurrently in-flight executions.
// Each produced result is broadcast to a dynamic set of subscribers, and two
// processors can be wired together with [Link] to form a pipeline.
//
// # Creating a processor
//
//	p := proc.New(proc.Options{Limit: 4}, func(ctx context.Context, s string) (int, error) {
//	    return len(s), nil
//	})
//	defer p.Stop()
//
// # Submitting work
//
// Use [Processor.Submit] for fire-and-forget processing; the result is
// broadcast to subscribers and then discarded:
//
//	err := p.Submit(ctx, "ciao")
//
// Use [Processor.Ask] when the caller needs the result; the reply is
// delivered to the caller exactly once and also broadcast:
//
//	n, err := p.Ask(ctx, "hello") // n == 5
//
// # Subscribing
//
//	sub := p.Subscribe(stream.ObserverFuncs[int]{
//	    Next: func(n int) { fmt.Println("got", n) },
//	})
//	defer sub.Unsubscribe()
//
// Subscription and unsubscription take effect when the mailbox processes
// them, not synchronously at call time. Subscription management travels on a
// dedicated control channel, so it is serviced even while the processor is
// saturated with work.
//
// # Concurrency model
//
// One goroutine per processor (the mailbox loop) owns all mutable state.
// Work executions run on background goroutines, at most Options.Limit at a
// time; each reports back through a completion signal that posts on every
// exit path, panic included, so concurrency slots are always reclaimed.
// Results from different in-flight executions are broadcast in completion
// order: a limit above 1 deliberately trades strict output ordering for
// throughput. With the default limit of 1, processing is fully serialized
// and ordered.
//
// # Pipelines
//
//	a := proc.New(proc.Options{}, double)  // int -> int
//	b := proc.New(proc.Options{}, render)  // int -> string
//	proc.Link(a, b)
//	pl := proc.NewPipeline(a, b)
//	defer pl.Stop(context.Background())
//
// # Errors
//
// A work function error fails the Ask caller (if any) but is not broadcast;
// subscribers only see errors injected explicitly through
// [Processor.OnError]. A panicking work function is contained, reported via
// Options.OnPanic, and its slot reclaimed. A panicking subscriber callback
// is isolated and the broadcast continues with the remaining subscribers.
package proc
