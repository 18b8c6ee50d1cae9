package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memLists keeps Redis lists in memory. BLPop never blocks: an empty
// queue answers redis.Nil as a timed-out BLPOP would.
type memLists struct {
	data    map[string][]string
	pushErr error
}

func newMemLists() *memLists { return &memLists{data: map[string][]string{}} }

func (m *memLists) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "rpush", key)
	if m.pushErr != nil {
		cmd.SetErr(m.pushErr)
		return cmd
	}
	for _, v := range values {
		switch b := v.(type) {
		case []byte:
			m.data[key] = append(m.data[key], string(b))
		case string:
			m.data[key] = append(m.data[key], b)
		}
	}
	cmd.SetVal(int64(len(m.data[key])))
	return cmd
}

func (m *memLists) BLPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx, "blpop")
	for _, k := range keys {
		if len(m.data[k]) > 0 {
			head := m.data[k][0]
			m.data[k] = m.data[k][1:]
			cmd.SetVal([]string{k, head})
			return cmd
		}
	}
	cmd.SetErr(redis.Nil)
	return cmd
}

func newTestQueue() (*Queue, *memLists) {
	m := newMemLists()
	return &Queue{client: m, logger: zap.NewNop()}, m
}

func TestQueueForKnownTypes(t *testing.T) {
	key, err := queueFor(JobTypeEmail)
	require.NoError(t, err)
	assert.Equal(t, QueueEmails, key)

	key, err = queueFor(JobTypeFileCleanup)
	require.NoError(t, err)
	assert.Equal(t, QueueFileCleanup, key)

	_, err = queueFor("recording_upload")
	assert.Error(t, err)
}

func TestEnqueueWritesEnvelope(t *testing.T) {
	q, m := newTestQueue()
	ctx := context.Background()

	require.NoError(t, q.EnqueueEmail(ctx, EmailPayload{
		EmailType: "password_reset", RecipientEmail: "a@example.com", Subject: "Reset", BodyText: "hi",
	}))
	require.NoError(t, q.EnqueueFileCleanup(ctx, FileCleanupPayload{Key: "musicians/photos/a.png", Reason: "delete failed"}))

	require.Len(t, m.data[QueueEmails], 1)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(m.data[QueueEmails][0]), &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobTypeEmail, job.Type)
	assert.Zero(t, job.Attempt)
	assert.False(t, job.CreatedAt.IsZero())
	var email EmailPayload
	require.NoError(t, json.Unmarshal(job.Payload, &email))
	assert.Equal(t, "a@example.com", email.RecipientEmail)

	require.Len(t, m.data[QueueFileCleanup], 1)
	assert.Contains(t, m.data[QueueFileCleanup][0], `"key":"musicians/photos/a.png"`)
}

func TestEnqueuePushFailure(t *testing.T) {
	q, m := newTestQueue()
	m.pushErr = errors.New("connection refused")
	err := q.EnqueueEmail(context.Background(), EmailPayload{RecipientEmail: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDequeue(t *testing.T) {
	q, m := newTestQueue()
	ctx := context.Background()

	job, key, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Empty(t, key)

	require.NoError(t, q.EnqueueFileCleanup(ctx, FileCleanupPayload{Key: "k"}))
	job, key, err = q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, QueueFileCleanup, key)
	assert.Equal(t, JobTypeFileCleanup, job.Type)

	m.data[QueueEmails] = []string{"{not json"}
	job, _, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Empty(t, m.data[QueueEmails], "malformed entries are consumed")
}

func TestRetryRequeuesThenDeadLetters(t *testing.T) {
	q, m := newTestQueue()
	ctx := context.Background()
	require.NoError(t, q.EnqueueEmail(ctx, EmailPayload{RecipientEmail: "a@example.com"}))
	job, _, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)

	for attempt := 1; attempt < MaxRetries; attempt++ {
		require.NoError(t, q.Retry(ctx, job))
		assert.Equal(t, attempt, job.Attempt)
		require.Len(t, m.data[QueueEmails], 1)

		var again *Job
		again, _, err = q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, job.ID, again.ID)
		assert.Equal(t, attempt, again.Attempt)
		job = again
	}

	require.NoError(t, q.Retry(ctx, job))
	assert.Equal(t, MaxRetries, job.Attempt)
	assert.Empty(t, m.data[QueueEmails])
	require.Len(t, m.data[QueueDLQ], 1)

	var dead Job
	require.NoError(t, json.Unmarshal([]byte(m.data[QueueDLQ][0]), &dead))
	assert.Equal(t, job.ID, dead.ID)
	assert.Equal(t, MaxRetries, dead.Attempt)
}

func TestRetryUnknownTypeFails(t *testing.T) {
	q, _ := newTestQueue()
	err := q.Retry(context.Background(), &Job{ID: "x", Type: "recording_upload"})
	assert.Error(t, err)
}
