package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kbstack/ragkb/internal/config"
)

type Client struct {
	client     *asynq.Client
	maxRetry   int
	jobTimeout time.Duration
}

func NewClient(cfg config.RedisConfig, conv config.ConversionConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		maxRetry:   conv.MaxRetries,
		jobTimeout: conv.JobTimeout,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueConversion schedules a document:convert job. Per spec.md §4.5 one
// job converts exactly one document; retries are bounded and the job carries
// a hard time limit enforced by the asynq server's task timeout.
func (c *Client) EnqueueConversion(ctx context.Context, documentID int64) error {
	data, err := json.Marshal(DocumentConvertPayload{DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeDocumentConvert, data)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(c.maxRetry),
		asynq.Timeout(c.jobTimeout),
		asynq.Queue("conversion"),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeDocumentConvert, err)
	}
	return nil
}
