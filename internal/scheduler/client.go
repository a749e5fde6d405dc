package scheduler

import (
	"context"

	"trialbridge/platform/config"
	"trialbridge/platform/redisconn"

	"github.com/hibiken/asynq"
)

const defaultMaxRetry = 5

type Client struct {
	client *asynq.Client
	queue  string
}

// Enqueuer schedules background work for the submission collaborators.
type Enqueuer interface {
	EnqueueIntakeSubmitted(ctx context.Context, payload IntakeSubmittedPayload) error
	EnqueueCoordinatorNotify(ctx context.Context, payload CoordinatorNotifyPayload) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueIntakeSubmitted(ctx context.Context, payload IntakeSubmittedPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewIntakeSubmittedTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(defaultMaxRetry))
	return err
}

func (c *Client) EnqueueCoordinatorNotify(ctx context.Context, payload CoordinatorNotifyPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewCoordinatorNotifyTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(defaultMaxRetry))
	return err
}

func redisClientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	opt, err := redisconn.Options(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

var _ Enqueuer = (*Client)(nil)
