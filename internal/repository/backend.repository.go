package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrBackendNotFound = errors.New("backend not found")
	ErrBackendExists   = errors.New("backend already registered")
)

type BackendRepository struct {
	*pg.DB
}

func NewBackendRepository(db *pg.DB) *BackendRepository {
	return &BackendRepository{
		db,
	}
}

func (r *BackendRepository) Create(ctx context.Context, backend *model.Backend) (*model.Backend, error) {
	var existing BackendEntity
	err := r.Write(ctx).WithContext(ctx).
		Select("id").
		Where("name = ?", backend.Name).
		First(&existing).
		Error
	if err == nil {
		return nil, ErrBackendExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entity := toBackendEntity(backend)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toBackendModel(entity), nil
}

func (r *BackendRepository) GetByName(ctx context.Context, name string) (*model.Backend, error) {
	var entity BackendEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("name = ?", name).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBackendNotFound
		}
		return nil, err
	}
	return toBackendModel(&entity), nil
}

func (r *BackendRepository) List(ctx context.Context) ([]*model.Backend, error) {
	var entities []*BackendEntity
	if err := r.Read(ctx).WithContext(ctx).Order("name ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toBackendModels(entities), nil
}

// SetProvisioned flips the provisioning marker once the jcli command
// sequence has been applied (or re-applied) successfully.
func (r *BackendRepository) SetProvisioned(ctx context.Context, name string, provisioned bool) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&BackendEntity{}).
		Where("name = ?", name).
		Update("provisioned", provisioned)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBackendNotFound
	}
	return nil
}
