package syncqueue

import (
	"context"
	"time"
)

// Record is a raw sync_queue row. Payload is the encoded operation.
type Record struct {
	ID         string
	Type       string
	Payload    []byte
	Timestamp  time.Time
	RetryCount int
}

type Repository interface {
	Add(ctx context.Context, rec *Record) error
	GetAll(ctx context.Context) ([]*Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	Count(ctx context.Context) (int, error)
	UpdateRetryCount(ctx context.Context, id string, retryCount int) error
	UpdatePayload(ctx context.Context, id string, payload []byte) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}
