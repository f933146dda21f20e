// Package scheduler queues background tasks on Redis via asynq and runs the
// worker that consumes them.
package scheduler

import (
	"context"
	"errors"
	"time"

	"itad_portal_backend/platform/cache"
	"itad_portal_backend/platform/config"

	"github.com/hibiken/asynq"
)

const notificationMaxRetry = 5

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.RedisConfig) (*Client, error) {
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

// EnqueueJobNotification queues an email for a job event. The event id
// doubles as the task id, so an event is queued at most once. Retries back
// off inside asynq; the task is dropped after notificationMaxRetry failures.
func (c *Client) EnqueueJobNotification(ctx context.Context, payload JobNotificationPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewJobNotificationTask(payload)
	if err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.Queue(c.queue),
		asynq.MaxRetry(notificationMaxRetry),
		asynq.Timeout(time.Minute),
	}
	if payload.EventID != "" {
		opts = append(opts, asynq.TaskID(payload.EventID))
	}

	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func redisClientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	opt, err := cache.ParseOptions(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
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

func queueName(cfg config.RedisConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}
