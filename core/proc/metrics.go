package proc

import "github.com/codewandler/strm-go/core/metrics"

// ProcMetrics defines the metrics interface for the processor.
// All methods are thread-safe.
type ProcMetrics interface {
	// Work execution
	WorkDuration() metrics.Timer
	WorkProcessed(success bool)
	WorkPanic()

	// Mailbox
	MailboxDepth(procID string, depth int)

	// Concurrency governor
	InFlight(procID string, count int)

	// Subscriptions
	Subscribers(procID string, count int)
}

// nopProcMetrics is a no-op implementation of ProcMetrics.
type nopProcMetrics struct{}

func (nopProcMetrics) WorkDuration() metrics.Timer { return metrics.NopTimer() }
func (nopProcMetrics) WorkProcessed(bool)          {}
func (nopProcMetrics) WorkPanic()                  {}

func (nopProcMetrics) MailboxDepth(string, int) {}

func (nopProcMetrics) InFlight(string, int) {}

func (nopProcMetrics) Subscribers(string, int) {}

// NopProcMetrics returns a no-op ProcMetrics implementation.
func NopProcMetrics() ProcMetrics { return nopProcMetrics{} }
