package repository

import (
	"time"

	"github.com/nimasrn/otp-gateway/internal/model"
)

type AttemptEntity struct {
	ID          int64     `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	Provider    string    `db:"provider"     gorm:"column:provider;not null;index"`
	PhoneNumber string    `db:"phone_number" gorm:"column:phone_number;not null"`
	Payload     string    `db:"payload"      gorm:"column:payload;not null"`
	Status      string    `db:"status"       gorm:"column:status;not null;default:pending"`
	CreatedAt   time.Time `db:"created_at"   gorm:"column:created_at;autoCreateTime"`
}

func (AttemptEntity) TableName() string {
	return "otp_attempts"
}

func toAttemptEntity(m *model.OtpAttempt) *AttemptEntity {
	if m == nil {
		return nil
	}
	return &AttemptEntity{
		ID:          m.ID,
		Provider:    m.Provider,
		PhoneNumber: m.PhoneNumber,
		Payload:     m.Payload,
		Status:      string(m.Status),
		CreatedAt:   m.CreatedAt,
	}
}

func toAttemptModel(e *AttemptEntity) *model.OtpAttempt {
	if e == nil {
		return nil
	}
	return &model.OtpAttempt{
		ID:          e.ID,
		Provider:    e.Provider,
		PhoneNumber: e.PhoneNumber,
		Payload:     e.Payload,
		Status:      model.AttemptStatus(e.Status),
		CreatedAt:   e.CreatedAt,
	}
}

func toAttemptModels(entities []*AttemptEntity) []*model.OtpAttempt {
	if entities == nil {
		return nil
	}
	models := make([]*model.OtpAttempt, len(entities))
	for i, e := range entities {
		models[i] = toAttemptModel(e)
	}
	return models
}
