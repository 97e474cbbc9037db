package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.OtpAttempt{
		Provider:    "acme",
		PhoneNumber: "+15550001111",
		Payload:     "123456",
		Status:      model.AttemptStatusPending,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.AttemptStatusPending, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestAttemptRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.OtpAttempt{
		Provider:    "acme",
		PhoneNumber: "+15550001111",
		Payload:     "123456",
		Status:      model.AttemptStatusPending,
	})
	require.NoError(t, err)

	t.Run("pending to sent to delivered", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, created.ID, model.AttemptStatusSent))
		require.NoError(t, repo.UpdateStatus(ctx, created.ID, model.AttemptStatusDelivered))

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptStatusDelivered, got.Status)
	})

	t.Run("terminal record rejects further updates", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, created.ID, model.AttemptStatusFailed)
		assert.ErrorIs(t, err, ErrTerminalStatus)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptStatusDelivered, got.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, 99999, model.AttemptStatusSent)
		assert.ErrorIs(t, err, ErrAttemptNotFound)
	})

	t.Run("failed is terminal too", func(t *testing.T) {
		failing, err := repo.Create(ctx, &model.OtpAttempt{
			Provider:    "acme",
			PhoneNumber: "+15550002222",
			Payload:     "654321",
			Status:      model.AttemptStatusPending,
		})
		require.NoError(t, err)

		require.NoError(t, repo.UpdateStatus(ctx, failing.ID, model.AttemptStatusFailed))
		err = repo.UpdateStatus(ctx, failing.ID, model.AttemptStatusDelivered)
		assert.ErrorIs(t, err, ErrTerminalStatus)
	})
}

func TestAttemptRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db.DB)
	ctx := context.Background()

	statuses := []model.AttemptStatus{
		model.AttemptStatusPending,
		model.AttemptStatusSent,
		model.AttemptStatusFailed,
		model.AttemptStatusDelivered,
	}

	base := time.Now().Add(-time.Hour)
	for i, s := range statuses {
		_, err := repo.Create(ctx, &model.OtpAttempt{
			Provider:    "acme",
			PhoneNumber: "+1555000111" + string(rune('0'+i)),
			Payload:     "code",
			Status:      s,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	t.Run("returns every status in creation order", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.AttemptFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, items, 4)
		for i, s := range statuses {
			assert.Equal(t, s, items[i].Status)
		}
		for i := 1; i < len(items); i++ {
			assert.False(t, items[i].CreatedAt.Before(items[i-1].CreatedAt))
		}
	})

	t.Run("filter by status", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.AttemptFilter{
			Statuses: []model.AttemptStatus{model.AttemptStatusFailed},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, model.AttemptStatusFailed, items[0].Status)
	})

	t.Run("limit and offset", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.AttemptFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, items, 2)
		assert.Equal(t, model.AttemptStatusSent, items[0].Status)
	})
}
