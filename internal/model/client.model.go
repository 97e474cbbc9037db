package model

import (
	"errors"
	"time"
)

type Client struct {
	ID             int64            `json:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	Name           string           `json:"name"            gorm:"column:name;not null;unique"`
	AllowedSenders []*AllowedSender `json:"allowed_senders" gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `json:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (Client) TableName() string { return "clients" }

type AllowedSender struct {
	ID       int64  `json:"id"        gorm:"primaryKey;autoIncrement;column:id"`
	ClientID int64  `json:"client_id" gorm:"column:client_id;not null;index"`
	Sender   string `json:"sender"    gorm:"column:sender;not null"`
}

func (AllowedSender) TableName() string { return "allowed_senders" }

type ClientCreateRequest struct {
	Name           string
	AllowedSenders []string
}

func (p ClientCreateRequest) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	for _, s := range p.AllowedSenders {
		if s == "" {
			return errors.New("allowed sender must not be empty")
		}
	}
	return nil
}
