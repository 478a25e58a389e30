package stream

import (
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Subscription is the handle returned by a Subscribe call. Unsubscribing is
// asynchronous: it takes effect when the owning mailbox loop processes the
// corresponding control message, not at call time.
type Subscription struct {
	token  string
	once   sync.Once
	cancel func(token string)
}

// NewSubscription creates a subscription with a fresh token. cancel is
// invoked at most once, with the token, when Unsubscribe is called.
func NewSubscription(cancel func(token string)) *Subscription {
	return &Subscription{
		token:  gonanoid.Must(),
		cancel: cancel,
	}
}

// Token returns the opaque registration token.
func (s *Subscription) Token() string { return s.token }

// Unsubscribe severs this registration. Safe to call multiple times; only
// the first call has effect.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel(s.token)
		}
	})
}
