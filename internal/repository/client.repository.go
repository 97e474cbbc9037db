package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrClientExists   = errors.New("client already registered")
)

type ClientRepository struct {
	*pg.DB
}

func NewClientRepository(db *pg.DB) *ClientRepository {
	return &ClientRepository{
		db,
	}
}

func (r *ClientRepository) Create(ctx context.Context, client *model.Client) (*model.Client, error) {
	var existing ClientEntity
	err := r.Write(ctx).WithContext(ctx).
		Select("id").
		Where("name = ?", client.Name).
		First(&existing).
		Error
	if err == nil {
		return nil, ErrClientExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entity := toClientEntity(client)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toClientModel(entity), nil
}

func (r *ClientRepository) GetByName(ctx context.Context, name string) (*model.Client, error) {
	var entity ClientEntity
	err := r.Read(ctx).WithContext(ctx).
		Preload("Senders").
		Where("name = ?", name).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return toClientModel(&entity), nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*model.Client, error) {
	var entities []*ClientEntity
	if err := r.Read(ctx).WithContext(ctx).Preload("Senders").Order("name ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toClientModels(entities), nil
}

// DeleteByName removes the client and all its allowed senders inside one
// transaction: either both sets of rows go or neither does.
func (r *ClientRepository) DeleteByName(ctx context.Context, name string) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		var entity ClientEntity
		err := r.Write(ctx).WithContext(ctx).
			Where("name = ?", name).
			First(&entity).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClientNotFound
			}
			return err
		}

		if err := r.Write(ctx).WithContext(ctx).
			Where("client_id = ?", entity.ID).
			Delete(&AllowedSenderEntity{}).Error; err != nil {
			return err
		}

		return r.Write(ctx).WithContext(ctx).
			Where("id = ?", entity.ID).
			Delete(&ClientEntity{}).Error
	})
}

// IsSenderAllowed reports whether the named client may send as sender.
// An unknown client is reported as ErrClientNotFound so callers can
// distinguish "no such client" from "sender not on the list".
func (r *ClientRepository) IsSenderAllowed(ctx context.Context, clientName, sender string) (bool, error) {
	var entity ClientEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("id").
		Where("name = ?", clientName).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrClientNotFound
		}
		return false, err
	}

	var count int64
	err = r.Read(ctx).WithContext(ctx).
		Model(&AllowedSenderEntity{}).
		Where("client_id = ? AND sender = ?", entity.ID, sender).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
