// Package stream defines the push-based subscription contract used by the
// processor actor: [Observer] (the consumer side), [Observable] (the
// producer side), and the [Registry] that fans results out to a dynamic,
// ordered set of observers.
//
// # Observers
//
// An observer receives three kinds of callbacks: OnNext for each produced
// value, OnError for explicitly injected failures, and OnCompleted exactly
// once when the producer terminates. Use [ObserverFuncs] to build an
// observer from closures:
//
//	sub := p.Subscribe(stream.ObserverFuncs[int]{
//	    Next: func(v int) { fmt.Println(v) },
//	})
//	defer sub.Unsubscribe()
//
// # Registry
//
// [Registry] preserves registration order for broadcasts, permits duplicate
// observers, and removes by opaque token rather than by value equality.
// Mutations are expected from a single goroutine (the owning mailbox loop);
// broadcasts are safe from any number of goroutines concurrently. A panic in
// one observer callback is contained and the broadcast continues with the
// remaining observers.
package stream
