package model

import (
	"errors"
	"time"
)

// BackendKind selects the adapter used to reach a backend.
type BackendKind string

const (
	BackendKindSMPP BackendKind = "smpp"
	BackendKindHTTP BackendKind = "http"
)

type Backend struct {
	ID       int64       `json:"id"       gorm:"primaryKey;autoIncrement;column:id"`
	Name     string      `json:"name"     gorm:"column:name;not null;unique"`
	Kind     BackendKind `json:"kind"     gorm:"column:kind;not null"`
	Host     string      `json:"host"     gorm:"column:host;not null"`
	Port     int         `json:"port"     gorm:"column:port;not null"`
	Username string      `json:"username" gorm:"column:username;not null"`
	Password string      `json:"-"        gorm:"column:password;not null"`
	// Provisioned is false until the jcli connector setup has completed.
	// SMPP backends are not dispatchable while false.
	Provisioned bool      `json:"provisioned" gorm:"column:provisioned;not null;default:false"`
	CreatedAt   time.Time `json:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (Backend) TableName() string { return "backends" }

type BackendCreateRequest struct {
	Name     string
	Kind     BackendKind
	Host     string
	Port     int
	Username string
	Password string
}

func (p BackendCreateRequest) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Kind != BackendKindSMPP && p.Kind != BackendKindHTTP {
		return errors.New("kind must be smpp or http")
	}
	if p.Host == "" {
		return errors.New("host is required")
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.New("port is out of range")
	}
	return nil
}
