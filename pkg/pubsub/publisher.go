package pubsub

import (
	"context"

	"github.com/rzbill/pubsubd/internal/queue"
)

// Publisher sends payloads to every subscriber currently registered on its
// queue.
type Publisher struct {
	queue    *queue.Queue
	autosync bool
}

// Send delivers payload to every registered subscriber and returns its
// assigned message id.
func (p *Publisher) Send(ctx context.Context, payload []byte) (queue.MsgID, error) {
	return p.queue.PutSync(ctx, payload, p.queue.SubscriberIDs(), p.autosync)
}

// SendMany delivers a batch of payloads, sharing one commit (and, for
// autosync publishers, one forced WAL sync) across the whole batch.
func (p *Publisher) SendMany(ctx context.Context, payloads [][]byte) ([]queue.MsgID, error) {
	return p.queue.PutManySync(ctx, payloads, p.queue.SubscriberIDs(), p.autosync)
}
