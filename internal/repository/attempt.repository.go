package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrAttemptNotFound is returned when an attempt does not exist.
	ErrAttemptNotFound = errors.New("otp attempt not found")
	// ErrTerminalStatus is returned when a status update targets a record
	// already in a terminal state (delivered or failed).
	ErrTerminalStatus = errors.New("attempt already in terminal status")
)

type AttemptRepository struct {
	*pg.DB
}

func NewAttemptRepository(db *pg.DB) *AttemptRepository {
	return &AttemptRepository{
		db,
	}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *model.OtpAttempt) (*model.OtpAttempt, error) {
	entity := toAttemptEntity(attempt)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toAttemptModel(entity), nil
}

// UpdateStatus moves an attempt to a new status. The guard clause keeps
// terminal records immutable: the UPDATE only matches non-terminal rows,
// so a zero row count means either a missing id or a terminal record.
func (r *AttemptRepository) UpdateStatus(ctx context.Context, id int64, status model.AttemptStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&AttemptEntity{}).
		Where("id = ?", id).
		Where("status NOT IN ?", []string{string(model.AttemptStatusDelivered), string(model.AttemptStatusFailed)}).
		Update("status", string(status))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var entity AttemptEntity
		err := r.Read(ctx).WithContext(ctx).
			Select("id").
			Where("id = ?", id).
			First(&entity).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAttemptNotFound
			}
			return err
		}
		return ErrTerminalStatus
	}

	return nil
}

func (r *AttemptRepository) Get(ctx context.Context, id int64) (*model.OtpAttempt, error) {
	var entity AttemptEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return toAttemptModel(&entity), nil
}

// List returns attempts in creation order. With no filter it is the full
// audit dump the history endpoint serves.
func (r *AttemptRepository) List(ctx context.Context, f model.AttemptFilter) ([]*model.OtpAttempt, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&AttemptEntity{})

	if f.Provider != nil && *f.Provider != "" {
		q = q.Where("provider = ?", *f.Provider)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("created_at ASC, id ASC")

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var entities []*AttemptEntity
	if err := q.Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toAttemptModels(entities), total, nil
}
