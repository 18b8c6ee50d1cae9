package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailTypePasswordReset is the only automated email today.
const EmailTypePasswordReset = "password_reset"

// EmailLogStatus for delivery.
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// EmailLog records one delivery attempt made by the worker.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	JobID          string     `json:"jobId"`
	EmailType      string     `json:"emailType"`
	RecipientEmail string     `json:"recipientEmail"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	Attempt        int        `json:"attempt"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// EmailLogFilter narrows an email log listing. Empty fields match everything.
type EmailLogFilter struct {
	Status    string
	Recipient string
}
