package repository

import (
	"time"

	"github.com/nimasrn/otp-gateway/internal/model"
)

type BackendEntity struct {
	ID          int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	Name        string    `db:"name"        gorm:"column:name;not null;unique"`
	Kind        string    `db:"kind"        gorm:"column:kind;not null"`
	Host        string    `db:"host"        gorm:"column:host;not null"`
	Port        int       `db:"port"        gorm:"column:port;not null"`
	Username    string    `db:"username"    gorm:"column:username;not null"`
	Password    string    `db:"password"    gorm:"column:password;not null"`
	Provisioned bool      `db:"provisioned" gorm:"column:provisioned;not null;default:false"`
	CreatedAt   time.Time `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (BackendEntity) TableName() string {
	return "backends"
}

func toBackendEntity(m *model.Backend) *BackendEntity {
	if m == nil {
		return nil
	}
	return &BackendEntity{
		ID:          m.ID,
		Name:        m.Name,
		Kind:        string(m.Kind),
		Host:        m.Host,
		Port:        m.Port,
		Username:    m.Username,
		Password:    m.Password,
		Provisioned: m.Provisioned,
		CreatedAt:   m.CreatedAt,
	}
}

func toBackendModel(e *BackendEntity) *model.Backend {
	if e == nil {
		return nil
	}
	return &model.Backend{
		ID:          e.ID,
		Name:        e.Name,
		Kind:        model.BackendKind(e.Kind),
		Host:        e.Host,
		Port:        e.Port,
		Username:    e.Username,
		Password:    e.Password,
		Provisioned: e.Provisioned,
		CreatedAt:   e.CreatedAt,
	}
}

func toBackendModels(entities []*BackendEntity) []*model.Backend {
	if entities == nil {
		return nil
	}
	models := make([]*model.Backend, len(entities))
	for i, e := range entities {
		models[i] = toBackendModel(e)
	}
	return models
}
