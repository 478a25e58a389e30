package proc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/strm-go/core/stream"
)

// ErrStopped is returned when work is submitted to a processor that has
// stopped or whose cancellation context has been cancelled.
var ErrStopped = errors.New("processor stopped")

type (
	// Func is the work function a processor applies to each submitted item.
	// It runs on a background goroutine, up to the configured concurrency
	// limit at a time. The context is the processor's cancellation context.
	Func[In, Out any] func(ctx context.Context, item In) (Out, error)

	// OnPanic is called when a work function panics. The concurrency slot
	// is reclaimed regardless; the hook only decides how to report it.
	OnPanic func(recovered any, stack []byte, item any)
)

// Options configures a processor. The zero value is usable; unset fields
// get defaults in [New].
type Options struct {
	// ID identifies the processor in logs and metrics. Default: generated.
	ID string
	// Limit caps the number of concurrently running work executions.
	// Default 1 (fully serialized).
	Limit int
	// MailboxSize is the work queue capacity. Default 1024.
	MailboxSize int
	// ControlSize is the control queue capacity. Default 16.
	ControlSize int
	// Context is the cancellation signal. Cancelling it is equivalent to
	// calling Stop. Default context.Background().
	Context context.Context
	Logger  *slog.Logger
	Metrics ProcMetrics
	OnPanic OnPanic
}

// Processor is a bounded-concurrency processing actor. It accepts items
// through its mailbox, applies the work function to each with at most
// Options.Limit executions in flight, and broadcasts every produced result
// to its subscribers.
//
// All mutable state (subscriber set, in-flight count, stopped flag) is owned
// by a single mailbox goroutine. Control messages (subscribe, unsubscribe,
// error, stop) travel on a separate channel that the loop services ahead of
// queued work, so subscription management never blocks behind a saturated
// mailbox.
//
// A Processor is both an observer of its input type and an observable of
// its output type, which is what makes [Link] possible.
type Processor[In, Out any] struct {
	id    string
	ctx   context.Context
	log   *slog.Logger
	fn    Func[In, Out]
	limit int

	mailbox     chan workMsg[In, Out]
	control     chan ctrlMsg[Out]
	completions chan struct{}

	subs *stream.Registry[Out]

	stop chan struct{}
	done chan struct{}

	mu     sync.Mutex
	closed bool

	metrics ProcMetrics
	onPanic OnPanic
}

var _ stream.Observable[string] = (*Processor[int, string])(nil)

// New creates a processor and starts its mailbox loop.
func New[In, Out any](opt Options, fn Func[In, Out]) *Processor[In, Out] {
	if fn == nil {
		panic("proc: nil work function")
	}
	if opt.ID == "" {
		opt.ID = fmt.Sprintf("proc-%s", gonanoid.Must(6))
	}
	if opt.Limit <= 0 {
		opt.Limit = 1
	}
	if opt.MailboxSize == 0 {
		opt.MailboxSize = 1024
	}
	if opt.ControlSize == 0 {
		opt.ControlSize = 16
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopProcMetrics()
	}

	log := opt.Logger.With(slog.String("proc", opt.ID))

	if opt.OnPanic == nil {
		opt.OnPanic = func(recovered any, stack []byte, item any) {
			log.Error("work function panicked",
				slog.Any("recovered", recovered),
				slog.String("stack", string(stack)),
				slog.Any("item", item),
			)
		}
	}

	p := &Processor[In, Out]{
		id:          opt.ID,
		ctx:         opt.Context,
		log:         log,
		fn:          fn,
		limit:       opt.Limit,
		mailbox:     make(chan workMsg[In, Out], opt.MailboxSize),
		control:     make(chan ctrlMsg[Out], opt.ControlSize),
		completions: make(chan struct{}, opt.Limit),
		subs:        stream.NewRegistry[Out](log),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		metrics:     opt.Metrics,
		onPanic:     opt.OnPanic,
	}

	go p.loop()
	return p
}

// ID returns the processor identifier used in logs and metrics.
func (p *Processor[In, Out]) ID() string { return p.id }

// Done is closed when the processor has stopped and all in-flight
// executions have drained.
func (p *Processor[In, Out]) Done() <-chan struct{} { return p.done }

// Submit enqueues item as fire-and-forget work (blocking until enqueued,
// ctx cancelled, or processor stopped). The result is broadcast to
// subscribers and then discarded.
func (p *Processor[In, Out]) Submit(ctx context.Context, item In) error {
	return p.send(ctx, workMsg[In, Out]{item: item})
}

// Ask enqueues item and blocks until its result is available. The result is
// delivered to the caller exactly once and also broadcast to subscribers.
// If the work function fails or panics, Ask returns the error rather than
// leaving the caller waiting. Once accepted, the item runs even if the
// processor stops meanwhile; Ask returns [ErrStopped] only when the
// submission itself is rejected.
func (p *Processor[In, Out]) Ask(ctx context.Context, item In) (Out, error) {
	var zero Out

	reply := make(chan result[Out], 1)
	if err := p.send(ctx, workMsg[In, Out]{item: item, reply: reply}); err != nil {
		return zero, err
	}

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("await failed: %w", ctx.Err())
	case r := <-reply:
		return r.value, r.err
	case <-p.done:
		// The reply is always sent before the completion signal, so a
		// result produced just before shutdown is still observable here.
		select {
		case r := <-reply:
			return r.value, r.err
		default:
			return zero, ErrStopped
		}
	}
}

// Stop transitions the processor to its terminal state: new submissions are
// rejected, work already accepted keeps its place in arrival order and runs
// to completion, and Stop returns once everything has drained. Idempotent.
func (p *Processor[In, Out]) Stop() {
	p.requestStop()
	<-p.done
}

// Subscribe registers obs for all results broadcast after the subscription
// is processed by the mailbox loop. Registration and unsubscription are
// asynchronous relative to the caller.
func (p *Processor[In, Out]) Subscribe(obs stream.Observer[Out]) *stream.Subscription {
	sub := stream.NewSubscription(func(token string) {
		p.sendCtrl(ctrlMsg[Out]{kind: ctrlUnsubscribe, token: token})
	})
	p.sendCtrl(ctrlMsg[Out]{kind: ctrlSubscribe, token: sub.Token(), obs: obs})
	return sub
}

// OnNext makes the processor usable as a downstream observer: the item is
// submitted as fire-and-forget work. Items arriving after stop are dropped.
func (p *Processor[In, Out]) OnNext(item In) {
	if err := p.Submit(p.ctx, item); err != nil {
		p.log.Debug("dropped item", slog.Any("error", err))
	}
}

// OnError broadcasts err to this processor's subscribers. The processor
// keeps running; an explicit error is not terminal.
func (p *Processor[In, Out]) OnError(err error) {
	p.sendCtrl(ctrlMsg[Out]{kind: ctrlError, err: err})
}

// OnCompleted requests stop without waiting for the drain to finish. Used
// when an upstream producer terminates.
func (p *Processor[In, Out]) OnCompleted() {
	p.requestStop()
}

// ---- internals ----

func (p *Processor[In, Out]) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Processor[In, Out]) requestStop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	select {
	case p.control <- ctrlMsg[Out]{kind: ctrlStop}:
	default:
	}
	close(p.stop)
}

func (p *Processor[In, Out]) send(ctx context.Context, m workMsg[In, Out]) error {
	if p.isClosed() {
		return ErrStopped
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("submit failed: %w", ctx.Err())
	case <-p.stop:
		return ErrStopped
	case <-p.ctx.Done():
		return ErrStopped
	case p.mailbox <- m:
		return nil
	}
}

func (p *Processor[In, Out]) sendCtrl(c ctrlMsg[Out]) {
	select {
	case <-p.done:
		// loop is gone; nothing left to mutate
	case p.control <- c:
	}
}

func (p *Processor[In, Out]) loop() {
	defer close(p.done)

	// in-flight count and the subscriber set are mutated only here
	inflight := 0

	// applyCtrl returns false when the message is a stop.
	applyCtrl := func(c ctrlMsg[Out]) bool {
		switch c.kind {
		case ctrlSubscribe:
			p.subs.Add(c.token, c.obs)
			p.metrics.Subscribers(p.id, p.subs.Len())
		case ctrlUnsubscribe:
			p.subs.Remove(c.token)
			p.metrics.Subscribers(p.id, p.subs.Len())
		case ctrlError:
			p.subs.Error(c.err)
		case ctrlStop:
			return false
		}
		return true
	}

	// drainCtrl applies all pending control messages without blocking.
	drainCtrl := func() bool {
		for {
			select {
			case c := <-p.control:
				if !applyCtrl(c) {
					return false
				}
			default:
				return true
			}
		}
	}

	running := true
	for running {
		if !drainCtrl() {
			break
		}
		p.metrics.MailboxDepth(p.id, len(p.mailbox))

		if inflight < p.limit {
			select {
			case <-p.stop:
				running = false
			case <-p.ctx.Done():
				running = false
			case c := <-p.control:
				running = applyCtrl(c)
			case <-p.completions:
				inflight--
				p.metrics.InFlight(p.id, inflight)
			case m := <-p.mailbox:
				p.launch(m)
				inflight++
				p.metrics.InFlight(p.id, inflight)
			}
			continue
		}

		// Saturated: stop selecting on the mailbox so new work is retained
		// unprocessed, in arrival order, until a completion frees a slot.
		// Control messages keep flowing.
		select {
		case <-p.stop:
			running = false
		case <-p.ctx.Done():
			running = false
		case c := <-p.control:
			running = applyCtrl(c)
		case <-p.completions:
			inflight--
			p.metrics.InFlight(p.id, inflight)
		}
	}

	// Drain: work accepted before the stop keeps its place. The mailbox
	// backlog is admitted in arrival order, still honoring the limit, and
	// every completion signal is consumed here so nothing leaks. Only
	// submissions arriving after the stop are rejected, at the send site.
	// Subscription changes are still serviced so an unsubscribe during
	// shutdown takes effect before the final broadcast.
	for inflight > 0 || len(p.mailbox) > 0 {
		if inflight < p.limit && len(p.mailbox) > 0 {
			m := <-p.mailbox
			p.launch(m)
			inflight++
			p.metrics.InFlight(p.id, inflight)
			continue
		}
		select {
		case c := <-p.control:
			applyCtrl(c)
		case <-p.completions:
			inflight--
			p.metrics.InFlight(p.id, inflight)
		}
	}

	// apply control messages enqueued ahead of the stop
	for {
		select {
		case c := <-p.control:
			applyCtrl(c)
			continue
		default:
		}
		break
	}

	p.subs.Completed()
	p.log.Debug("processor stopped")
}

// launch starts one background execution. The completion signal posts on
// every exit path, panic included; the reply channel (when present) always
// receives either the result or the failure before the slot is reclaimed.
func (p *Processor[In, Out]) launch(m workMsg[In, Out]) {
	timer := p.metrics.WorkDuration()
	go func() {
		replied := false
		reply := func(r result[Out]) {
			if m.reply == nil || replied {
				return
			}
			replied = true
			m.reply <- r
		}

		defer func() {
			if rec := recover(); rec != nil {
				p.metrics.WorkPanic()
				p.onPanic(rec, debug.Stack(), m.item)
				reply(result[Out]{err: fmt.Errorf("work function panicked: %v", rec)})
			}
			timer.ObserveDuration()
			p.completions <- struct{}{}
		}()

		out, err := p.fn(p.ctx, m.item)
		reply(result[Out]{value: out, err: err})
		if err != nil {
			// not broadcast: the only broadcast error path is an explicit
			// OnError message
			p.metrics.WorkProcessed(false)
			p.log.Debug("work failed", slog.Any("error", err))
			return
		}
		p.metrics.WorkProcessed(true)
		p.subs.Next(out)
	}()
}
