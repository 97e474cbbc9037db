package model

import (
	"errors"
	"time"
)

// AttemptStatus is the lifecycle state of an OTP send attempt.
// Transitions are monotonic: pending -> sent -> delivered, or
// pending/sent -> failed. Terminal states are never left.
type AttemptStatus string

const (
	AttemptStatusPending AttemptStatus = "pending"
	AttemptStatusSent    AttemptStatus = "sent"
	// AttemptStatusDelivered is optimistic: none of the backends deliver an
	// asynchronous delivery receipt, so "delivered" means "accepted for
	// transmission by the backend", not a confirmed carrier receipt.
	AttemptStatusDelivered AttemptStatus = "delivered"
	AttemptStatusFailed    AttemptStatus = "failed"
)

// Terminal reports whether no further transition is permitted.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptStatusDelivered || s == AttemptStatusFailed
}

type OtpAttempt struct {
	ID          int64         `json:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	Provider    string        `json:"provider"     gorm:"column:provider;not null;index"`
	PhoneNumber string        `json:"phone_number" gorm:"column:phone_number;not null"`
	Payload     string        `json:"payload"      gorm:"column:payload;not null"`
	Status      AttemptStatus `json:"status"       gorm:"column:status;not null;default:pending"`
	CreatedAt   time.Time     `json:"created_at"   gorm:"column:created_at;autoCreateTime"`
}

func (OtpAttempt) TableName() string { return "otp_attempts" }

// OtpSendRequest is the input for one send attempt. Client and Sender are
// optional; when Client is set the sender must be on that client's
// allow-list before dispatch.
type OtpSendRequest struct {
	Provider    string
	PhoneNumber string
	Payload     string
	Client      string
	Sender      string
}

func (p OtpSendRequest) Validate() error {
	if p.Provider == "" {
		return errors.New("provider is required")
	}
	if p.PhoneNumber == "" {
		return errors.New("phone_number is required")
	}
	if p.Payload == "" {
		return errors.New("payload is required")
	}
	return nil
}

// AttemptFilter controls history queries. The audit endpoint defaults to
// the full dump in creation order; limit/offset are opt-in.
type AttemptFilter struct {
	Provider *string
	Statuses []AttemptStatus
	Limit    int
	Offset   int
}
