// Package worker runs queued background jobs: outgoing email and deferred
// media file deletion.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/metrics"
	"github.com/gigstage/backend/pkg/queue"
	"github.com/gigstage/backend/pkg/storage"
)

// JobSource yields jobs and takes back the ones that failed.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// EmailRecorder keeps the delivery history.
type EmailRecorder interface {
	Record(ctx context.Context, l *models.EmailLog) error
}

// Processor dispatches jobs to their handlers.
type Processor struct {
	jobs    JobSource
	mailer  Mailer
	files   storage.FileStore
	emails  EmailRecorder
	logger  *zap.Logger
	backoff time.Duration
	now     func() time.Time
}

// NewProcessor creates a processor reading from jobs.
func NewProcessor(jobs JobSource, mailer Mailer, files storage.FileStore, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{jobs: jobs, mailer: mailer, files: files, logger: logger, backoff: queue.RetryBackoff, now: time.Now}
}

// RecordEmails makes the processor log every delivery attempt to r.
func (p *Processor) RecordEmails(r EmailRecorder) {
	p.emails = r
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeEmail:
		var payload queue.EmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal email payload: %w", err)
		}
		err := p.mailer.Send(ctx, payload.RecipientEmail, payload.Subject, payload.BodyText)
		p.recordEmail(ctx, job, payload, err)
		if err != nil {
			return err
		}
		p.logger.Info("email sent", zap.String("job_id", job.ID), zap.String("email_type", payload.EmailType))
		return nil
	case queue.JobTypeFileCleanup:
		var payload queue.FileCleanupPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal cleanup payload: %w", err)
		}
		if err := p.files.Delete(ctx, payload.Key); err != nil {
			if errors.Is(err, storage.ErrInvalidKey) {
				p.logger.Warn("dropping cleanup job with invalid key", zap.String("key", payload.Key))
				metrics.ObserveCleanup("worker", "dropped")
				return nil
			}
			metrics.ObserveCleanup("worker", "failed")
			return fmt.Errorf("delete %s: %w", payload.Key, err)
		}
		metrics.ObserveCleanup("worker", "ok")
		p.logger.Info("file removed", zap.String("job_id", job.ID), zap.String("key", payload.Key))
		return nil
	}
	return fmt.Errorf("unknown job type: %s", job.Type)
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("worker stopping")
			return
		}

		job, _, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}
		p.handle(ctx, job)
	}
}

func (p *Processor) handle(ctx context.Context, job *queue.Job) {
	p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	if err := p.Process(ctx, job); err != nil {
		metrics.ObserveJob(string(job.Type), "failed")
		p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		// Requeue on a fresh context so shutdown does not lose the job.
		if reErr := p.jobs.Retry(context.WithoutCancel(ctx), job); reErr != nil {
			p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(reErr))
		}
		p.sleep(ctx)
		return
	}
	metrics.ObserveJob(string(job.Type), "ok")
}

func (p *Processor) recordEmail(ctx context.Context, job *queue.Job, payload queue.EmailPayload, sendErr error) {
	if p.emails == nil {
		return
	}
	l := &models.EmailLog{
		JobID:          job.ID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
		Status:         models.EmailLogStatusSent,
		Attempt:        job.Attempt,
	}
	if sendErr != nil {
		l.Status = models.EmailLogStatusFailed
		l.ErrorMessage = sendErr.Error()
	} else {
		now := p.now()
		l.SentAt = &now
	}
	if err := p.emails.Record(context.WithoutCancel(ctx), l); err != nil {
		p.logger.Warn("record email log failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (p *Processor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
