package pubsub

import (
	"context"
	"time"

	"github.com/rzbill/pubsubd/internal/queue"
)

// Subscriber polls one subscriber's inbox.
type Subscriber struct {
	id    string
	queue *queue.Queue
}

// Receive polls the inbox up to retries times, sleeping timeout/retries
// between attempts, stopping early on the first hit. A hit pops the message
// before returning it. ok is false if no message arrived within the full
// timeout, or if ctx is cancelled first.
func (s *Subscriber) Receive(ctx context.Context, timeout time.Duration, retries int) (payload []byte, ok bool, err error) {
	if retries <= 0 {
		retries = 1
	}
	interval := timeout / time.Duration(retries)

	for attempt := 0; attempt < retries; attempt++ {
		payload, ok, err = s.queue.Front(ctx, s.id)
		if err != nil {
			return nil, false, err
		}
		if ok {
			if _, err := s.queue.Pop(ctx, s.id); err != nil {
				return nil, false, err
			}
			return payload, true, nil
		}

		if attempt == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, false, nil
}

// ReceiveToTop polls the inbox up to retries times, sleeping timeout/retries
// between attempts like Receive, but on a hit pops every pending message
// except the last one in msg_id order (the most recent, up to the
// one-second resolution of msg_id timestamps) and delivers that one —
// useful for a consumer that only cares about the latest state and wants
// to discard any backlog
// it fell behind on. ok is false if nothing arrived within the full
// timeout, or if ctx is cancelled first.
func (s *Subscriber) ReceiveToTop(ctx context.Context, timeout time.Duration, retries int) (payload []byte, ok bool, err error) {
	if retries <= 0 {
		retries = 1
	}
	interval := timeout / time.Duration(retries)

	for attempt := 0; attempt < retries; attempt++ {
		count, err := s.remainingCount(ctx)
		if err != nil {
			return nil, false, err
		}
		if count > 0 {
			return s.drainToTop(ctx)
		}

		if attempt == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, false, nil
}

// drainToTop pops every pending message for this subscriber except the most
// recent, then pops and returns that one.
func (s *Subscriber) drainToTop(ctx context.Context) (payload []byte, ok bool, err error) {
	for {
		count, err := s.remainingCount(ctx)
		if err != nil {
			return nil, false, err
		}
		if count <= 1 {
			payload, ok, err = s.queue.Front(ctx, s.id)
			if err != nil || !ok {
				return nil, false, err
			}
			if _, err := s.queue.Pop(ctx, s.id); err != nil {
				return nil, false, err
			}
			return payload, true, nil
		}

		if _, err := s.queue.Pop(ctx, s.id); err != nil {
			return nil, false, err
		}
	}
}

func (s *Subscriber) remainingCount(ctx context.Context) (int, error) {
	return s.queue.InboxCount(ctx, s.id)
}
