package events

import (
	"time"

	"github.com/nimasrn/otp-gateway/internal/model"
)

// DeliveryEvent is appended to the delivery stream whenever an attempt
// reaches a terminal state. Consumers (the auditor) read it through a
// consumer group so a crashed consumer never loses events.
type DeliveryEvent struct {
	AttemptID   int64               `json:"attempt_id"`
	Provider    string              `json:"provider"`
	PhoneNumber string              `json:"phone_number"`
	Status      model.AttemptStatus `json:"status"`
	Receipt     string              `json:"receipt,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	OccurredAt  time.Time           `json:"occurred_at"`
}
