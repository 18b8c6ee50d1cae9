package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigstage/backend/config"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/queue"
	"github.com/gigstage/backend/pkg/storage"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

type fakeFiles struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeFiles) Save(context.Context, string, string, io.Reader, int64) error { return nil }
func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}
func (f *fakeFiles) URL(key string) string { return key }
func (f *fakeFiles) PathPrefix() string    { return "" }

type fakeSource struct {
	jobs    chan *queue.Job
	mu      sync.Mutex
	retried []*queue.Job
}

func (s *fakeSource) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case j := <-s.jobs:
		return j, "test", nil
	}
}

func (s *fakeSource) Retry(_ context.Context, job *queue.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retried = append(s.retried, job)
	return nil
}

func (s *fakeSource) retriedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retried)
}

func newJob(t *testing.T, typ queue.JobType, payload interface{}) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: "job-1", Type: typ, Payload: raw, CreatedAt: time.Now()}
}

func TestProcessEmail(t *testing.T) {
	mailer := &fakeMailer{}
	p := NewProcessor(&fakeSource{}, mailer, &fakeFiles{}, nil)

	job := newJob(t, queue.JobTypeEmail, queue.EmailPayload{EmailType: "password_reset", RecipientEmail: "a@x.com", Subject: "Reset"})
	require.NoError(t, p.Process(context.Background(), job))
	assert.Equal(t, []string{"a@x.com|Reset"}, mailer.sent)
}

type memEmailLog struct {
	mu   sync.Mutex
	logs []models.EmailLog
}

func (m *memEmailLog) Record(_ context.Context, l *models.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *l)
	return nil
}

func TestProcessEmailRecordsOutcome(t *testing.T) {
	mailer := &fakeMailer{}
	history := &memEmailLog{}
	p := NewProcessor(&fakeSource{}, mailer, &fakeFiles{}, nil)
	p.RecordEmails(history)

	job := newJob(t, queue.JobTypeEmail, queue.EmailPayload{EmailType: models.EmailTypePasswordReset, RecipientEmail: "a@x.com", Subject: "Reset"})
	require.NoError(t, p.Process(context.Background(), job))

	mailer.err = errors.New("relay down")
	job.Attempt = 1
	require.Error(t, p.Process(context.Background(), job))

	require.Len(t, history.logs, 2)
	assert.Equal(t, models.EmailLogStatusSent, history.logs[0].Status)
	assert.NotNil(t, history.logs[0].SentAt)
	assert.Equal(t, models.EmailLogStatusFailed, history.logs[1].Status)
	assert.Equal(t, "relay down", history.logs[1].ErrorMessage)
	assert.Equal(t, 1, history.logs[1].Attempt)
	assert.Nil(t, history.logs[1].SentAt)
}

func TestProcessFileCleanup(t *testing.T) {
	files := &fakeFiles{}
	p := NewProcessor(&fakeSource{}, &fakeMailer{}, files, nil)

	job := newJob(t, queue.JobTypeFileCleanup, queue.FileCleanupPayload{Key: "musicians/photos/a.jpg"})
	require.NoError(t, p.Process(context.Background(), job))
	assert.Equal(t, []string{"musicians/photos/a.jpg"}, files.deleted)

	files.err = errors.New("s3 unavailable")
	assert.Error(t, p.Process(context.Background(), job))

	files.err = storage.ErrInvalidKey
	assert.NoError(t, p.Process(context.Background(), job), "invalid keys are dropped, not retried")
}

func TestProcessRejectsUnknownJob(t *testing.T) {
	p := NewProcessor(&fakeSource{}, &fakeMailer{}, &fakeFiles{}, nil)
	err := p.Process(context.Background(), &queue.Job{ID: "x", Type: "recording_upload", Payload: json.RawMessage(`{}`)})
	assert.ErrorContains(t, err, "unknown job type")
}

func TestRunRetriesFailedJobs(t *testing.T) {
	src := &fakeSource{jobs: make(chan *queue.Job, 2)}
	mailer := &fakeMailer{err: errors.New("relay down")}
	p := NewProcessor(src, mailer, &fakeFiles{}, nil)
	p.backoff = time.Millisecond

	src.jobs <- newJob(t, queue.JobTypeEmail, queue.EmailPayload{RecipientEmail: "a@x.com"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return src.retriedCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m := NewSMTPMailer(config.EmailConfig{FromAddress: "noreply@example.com", FromName: "GigStage", SMTPHost: "smtp.example.com", SMTPPort: 587})
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.Send(context.Background(), "user@example.com", "Reset\r\nBcc: x@y.z", "line1\nline2"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"user@example.com"}, gotTo)
	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: ResetBcc: x@y.z\r\n")
	assert.Contains(t, msg, "line1\r\nline2")
	assert.True(t, strings.HasPrefix(msg, "From: \"GigStage\" <noreply@example.com>\r\n"))

	assert.Error(t, m.Send(context.Background(), "not-an-address", "s", "b"))
}
