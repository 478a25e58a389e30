package proc

import "github.com/codewandler/strm-go/core/stream"

type (
	// result carries the outcome of one work execution to an Ask caller.
	result[Out any] struct {
		value Out
		err   error
	}

	// workMsg asks the mailbox to run the work function on item. reply is
	// nil for fire-and-forget submissions; when set it has capacity 1 and
	// receives exactly one result.
	workMsg[In, Out any] struct {
		item  In
		reply chan result[Out]
	}
)

type ctrlKind int

const (
	ctrlSubscribe ctrlKind = iota
	ctrlUnsubscribe
	ctrlError
	ctrlStop
)

// ctrlMsg travels on the control channel, which the mailbox loop services
// ahead of queued work so subscription management never starves behind a
// saturated mailbox.
type ctrlMsg[Out any] struct {
	kind  ctrlKind
	token string               // subscribe, unsubscribe
	obs   stream.Observer[Out] // subscribe
	err   error                // error broadcast
}
