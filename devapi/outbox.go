package devapi

import (
	"context"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
)

// MemoryOutbox records outbound messages in memory.
type MemoryOutbox struct {
	mu   sync.Mutex
	msgs []OutboundMessage
}

func (o *MemoryOutbox) Enqueue(_ context.Context, msg OutboundMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

// Messages returns a copy of everything enqueued so far.
func (o *MemoryOutbox) Messages() []OutboundMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]OutboundMessage, len(o.msgs))
	copy(out, o.msgs)
	return out
}

// QueueOutbox sends outbound messages to an Azure Storage queue for a
// delivery worker to pick up.
type QueueOutbox struct {
	queue *azqueue.QueueClient
}

func NewQueueOutbox(connStr, queueName string) (*QueueOutbox, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, err
	}
	return &QueueOutbox{queue: q}, nil
}

func (o *QueueOutbox) Enqueue(ctx context.Context, msg OutboundMessage) error {
	data, err := sonic.MarshalString(msg)
	if err != nil {
		return err
	}
	_, err = o.queue.EnqueueMessage(ctx, data, nil)
	return err
}
