package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lifecode-app/lifecode-server/internal/ports/storage"
	"github.com/minio/minio-go/v7"
)

// Client обёртка над minio.Client: архив сырых ответов LLM
type Client struct {
	client *minio.Client
	bucket string
	log    *slog.Logger
}

func NewClient(client *minio.Client, bucket string, log *slog.Logger) storage.IObjectStore {
	return &Client{
		client: client,
		bucket: bucket,
		log:    log,
	}
}

// PutRawResponse сохраняет необработанный текст completion по job id
func (c *Client) PutRawResponse(ctx context.Context, jobID uuid.UUID, body []byte) error {
	key := fmt.Sprintf("raw-responses/%s.txt", jobID.String())

	_, err := c.client.PutObject(ctx, c.bucket, key,
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	c.log.Debug("raw llm response archived",
		"job_id", jobID,
		"key", key,
		"size", len(body),
	)

	return nil
}
