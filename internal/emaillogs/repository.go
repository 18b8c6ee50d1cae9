// Package emaillogs stores and lists the worker's email delivery history.
package emaillogs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/database"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts one delivery outcome.
func (r *Repository) Record(ctx context.Context, l *models.EmailLog) error {
	const q = `INSERT INTO email_logs (job_id, email_type, recipient_email, subject, status, attempt, sent_at, error_message)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q,
		l.JobID, l.EmailType, l.RecipientEmail, l.Subject, l.Status, l.Attempt, l.SentAt, l.ErrorMessage,
	).Scan(&l.ID, &l.CreatedAt)
}

// List returns logs matching f, newest first, with the total match count.
func (r *Repository) List(ctx context.Context, f models.EmailLogFilter, offset, limit int) ([]models.EmailLog, int, error) {
	var conds database.Conds
	if f.Status != "" {
		conds.Add("status = %s", f.Status)
	}
	if f.Recipient != "" {
		conds.Add("lower(recipient_email) = lower(%s)", f.Recipient)
	}
	where := conds.Where()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM email_logs`+where, conds.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT id, job_id, email_type, recipient_email, subject, status, attempt, sent_at, error_message, created_at
		FROM email_logs` + where + ` ORDER BY created_at DESC LIMIT ` + conds.Arg(limit) + ` OFFSET ` + conds.Arg(offset)
	rows, err := r.pool.Query(ctx, q, conds.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := []models.EmailLog{}
	for rows.Next() {
		var el models.EmailLog
		var subject, errMsg *string
		if err := rows.Scan(&el.ID, &el.JobID, &el.EmailType, &el.RecipientEmail, &subject, &el.Status, &el.Attempt, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, 0, err
		}
		if subject != nil {
			el.Subject = *subject
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, el)
	}
	return list, total, rows.Err()
}
