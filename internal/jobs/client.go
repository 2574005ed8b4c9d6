package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/core/ports"
	"github.com/hibiken/asynq"
)

// refreshUniqueFor collapses bursts of posts into the same period into one refresh.
const refreshUniqueFor = 30 * time.Second

// Client submits ledger jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

var _ ports.LedgerJobPublisher = (*Client)(nil)

// EnqueueTrialBalanceRefresh enqueues a refresh for key. A refresh already pending for
// the same period is not duplicated.
func (c *Client) EnqueueTrialBalanceRefresh(ctx context.Context, key domain.PeriodKey) error {
	task, err := NewTrialBalanceRefreshTask(key)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.Unique(refreshUniqueFor), asynq.MaxRetry(3))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// EnqueueIntegrityCheck enqueues an on-demand integrity run.
func (c *Client) EnqueueIntegrityCheck(ctx context.Context, fiscalYear int) (*asynq.TaskInfo, error) {
	task, err := NewIntegrityCheckTask(fiscalYear)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
