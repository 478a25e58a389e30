package stream

type (
	// Observer is the consumer side of the subscription contract.
	Observer[T any] interface {
		// OnNext delivers one produced value.
		OnNext(value T)
		// OnError delivers an explicitly injected failure. The producer
		// keeps running afterwards; OnError is not terminal.
		OnError(err error)
		// OnCompleted signals that the producer has terminated and no
		// further callbacks will follow.
		OnCompleted()
	}

	// Observable is the producer side of the subscription contract.
	// Subscribe registers the observer for all subsequent broadcasts and
	// returns the handle that severs exactly this registration.
	Observable[T any] interface {
		Subscribe(obs Observer[T]) *Subscription
	}
)

// ObserverFuncs adapts a set of optional closures to the [Observer]
// interface. Nil fields are no-ops.
type ObserverFuncs[T any] struct {
	Next      func(value T)
	Error     func(err error)
	Completed func()
}

var _ Observer[int] = ObserverFuncs[int]{}

func (o ObserverFuncs[T]) OnNext(value T) {
	if o.Next != nil {
		o.Next(value)
	}
}

func (o ObserverFuncs[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

func (o ObserverFuncs[T]) OnCompleted() {
	if o.Completed != nil {
		o.Completed()
	}
}
