package repository

import (
	"time"

	"github.com/nimasrn/otp-gateway/internal/model"
)

type ClientEntity struct {
	ID        int64                  `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Name      string                 `db:"name"       gorm:"column:name;not null;unique"`
	Senders   []*AllowedSenderEntity `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time              `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (ClientEntity) TableName() string {
	return "clients"
}

type AllowedSenderEntity struct {
	ID       int64  `db:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	ClientID int64  `db:"client_id" gorm:"column:client_id;not null;index"`
	Sender   string `db:"sender"    gorm:"column:sender;not null"`
}

func (AllowedSenderEntity) TableName() string {
	return "allowed_senders"
}

func toClientEntity(m *model.Client) *ClientEntity {
	if m == nil {
		return nil
	}
	e := &ClientEntity{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
	for _, s := range m.AllowedSenders {
		e.Senders = append(e.Senders, &AllowedSenderEntity{
			ID:       s.ID,
			ClientID: s.ClientID,
			Sender:   s.Sender,
		})
	}
	return e
}

func toClientModel(e *ClientEntity) *model.Client {
	if e == nil {
		return nil
	}
	m := &model.Client{
		ID:        e.ID,
		Name:      e.Name,
		CreatedAt: e.CreatedAt,
	}
	for _, s := range e.Senders {
		m.AllowedSenders = append(m.AllowedSenders, &model.AllowedSender{
			ID:       s.ID,
			ClientID: s.ClientID,
			Sender:   s.Sender,
		})
	}
	return m
}

func toClientModels(entities []*ClientEntity) []*model.Client {
	if entities == nil {
		return nil
	}
	models := make([]*model.Client, len(entities))
	for i, e := range entities {
		models[i] = toClientModel(e)
	}
	return models
}
