package store

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"whisper-service/internal/models"
)

// receipts simulates the remote acknowledgments a real transport would feed
// into AdvanceStatus: delivered first, read later, at strictly increasing
// delays per message. Transitions of different messages are independent.
// Every timer is cancellable so a closed session cannot mutate state after
// teardown.
type receipts struct {
	clk          clock.Clock
	deliverAfter time.Duration
	readAfter    time.Duration

	mu     sync.Mutex
	timers map[string][]*clock.Timer
	closed bool
}

func newReceipts(clk clock.Clock, deliverAfter, readAfter time.Duration) *receipts {
	return &receipts{
		clk:          clk,
		deliverAfter: deliverAfter,
		readAfter:    readAfter,
		timers:       make(map[string][]*clock.Timer),
	}
}

// schedule arms the delivered and read timers for a message. advance is called
// without any receipts lock held.
func (r *receipts) schedule(messageID string, advance func(models.MessageStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	delivered := r.clk.AfterFunc(r.deliverAfter, func() {
		advance(models.StatusDelivered)
	})
	read := r.clk.AfterFunc(r.readAfter, func() {
		advance(models.StatusRead)
		r.forget(messageID)
	})
	r.timers[messageID] = []*clock.Timer{delivered, read}
}

// cancel stops any pending timers for the message.
func (r *receipts) cancel(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.timers[messageID] {
		t.Stop()
	}
	delete(r.timers, messageID)
}

func (r *receipts) forget(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.timers, messageID)
}

// close stops every pending timer and rejects further scheduling.
func (r *receipts) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, timers := range r.timers {
		for _, t := range timers {
			t.Stop()
		}
		delete(r.timers, id)
	}
}
