package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	derrors "github.com/docyard/docyard/pkg/errors"
)

// DefaultKey is the Redis list the build queue lives in.
const DefaultKey = "docyard:queue"

// Redis is a Queue backed by a Redis list, so multiple workers on
// different hosts can share one queue. Jobs are JSON-encoded list
// elements, pushed with RPUSH and taken with BLPOP.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects to Redis using a redis:// URL and verifies the
// connection. An empty key selects DefaultKey.
func NewRedis(ctx context.Context, url, key string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeInvalidInput, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, derrors.Wrap(derrors.ErrCodeDatabase, err, "connect to redis")
	}
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}, nil
}

// Push appends a job to the tail of the list.
func (q *Redis) Push(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return derrors.Wrap(derrors.ErrCodeEncoding, err, "encode job %s", job.ID)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return derrors.Wrap(derrors.ErrCodeDatabase, err, "push job %s", job.ID)
	}
	return nil
}

// Pop takes the oldest job from the head of the list, waiting up to
// timeout. BLPOP treats a zero timeout as "block forever", matching the
// Queue contract.
func (q *Redis) Pop(ctx context.Context, timeout time.Duration) (Job, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return Job{}, ErrEmpty
	}
	if err != nil {
		return Job{}, derrors.Wrap(derrors.ErrCodeDatabase, err, "pop job")
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return Job{}, derrors.Wrap(derrors.ErrCodeEncoding, err, "decode job")
	}
	return job, nil
}

// Len reports the list length.
func (q *Redis) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, derrors.Wrap(derrors.ErrCodeDatabase, err, "queue length")
	}
	return n, nil
}

// Close releases the underlying connection pool.
func (q *Redis) Close() error {
	return q.client.Close()
}
