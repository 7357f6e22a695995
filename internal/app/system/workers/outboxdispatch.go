// internal/app/system/workers/outboxdispatch.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	outboxstore "github.com/kdmlabs/kdmhub/internal/app/store/outbox"
	"github.com/kdmlabs/kdmhub/internal/app/system/mailer"
)

// dispatchBatch caps how many pending messages one tick attempts.
const dispatchBatch = 25

// OutboxDispatch is a background worker that delivers queued emails.
// Writers enqueue outbox documents next to the state change that caused
// them; this worker owns the actual delivery and its retries.
type OutboxDispatch struct {
	outbox   *outboxstore.Store
	sender   mailer.Sender
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewOutboxDispatch creates a new outbox dispatcher.
//
// Parameters:
//   - outbox: the outbox store
//   - sender: the mail sender (SendGrid in production, a log sender otherwise)
//   - logger: zap logger for logging
//   - interval: how often to drain the queue (e.g., 30 seconds)
func NewOutboxDispatch(outbox *outboxstore.Store, sender mailer.Sender, logger *zap.Logger, interval time.Duration) *OutboxDispatch {
	return &OutboxDispatch{
		outbox:   outbox,
		sender:   sender,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background delivery loop.
func (w *OutboxDispatch) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("outbox dispatcher started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *OutboxDispatch) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("outbox dispatcher stopped")
}

func (w *OutboxDispatch) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.drain()
		}
	}
}

// drain delivers one batch of pending messages. Each message's outcome
// is recorded independently so one bad address cannot wedge the queue.
func (w *OutboxDispatch) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pending, err := w.outbox.ListPending(ctx, dispatchBatch)
	if err != nil {
		w.log.Error("list pending outbox messages", zap.Error(err))
		return
	}

	sent := 0
	for _, m := range pending {
		err := w.sender.Send(ctx, mailer.Email{
			To:       m.To,
			Subject:  m.Subject,
			TextBody: m.TextBody,
			HTMLBody: m.HTMLBody,
		})
		if err != nil {
			w.log.Warn("outbox delivery failed",
				zap.Error(err),
				zap.String("message_id", m.ID.Hex()),
				zap.Int("attempts", m.Attempts+1))
			if markErr := w.outbox.MarkFailedAttempt(ctx, m.ID, err.Error()); markErr != nil {
				w.log.Error("record failed delivery attempt",
					zap.Error(markErr), zap.String("message_id", m.ID.Hex()))
			}
			continue
		}
		if err := w.outbox.MarkSent(ctx, m.ID); err != nil {
			w.log.Error("mark outbox message sent",
				zap.Error(err), zap.String("message_id", m.ID.Hex()))
			continue
		}
		sent++
	}

	if sent > 0 {
		w.log.Info("delivered outbox messages", zap.Int("count", sent))
	}
}
