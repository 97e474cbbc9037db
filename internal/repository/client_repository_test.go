package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestClient(t *testing.T, repo *ClientRepository, name string, senders ...string) *model.Client {
	t.Helper()
	c := &model.Client{Name: name}
	for _, s := range senders {
		c.AllowedSenders = append(c.AllowedSenders, &model.AllowedSender{Sender: s})
	}
	created, err := repo.Create(context.Background(), c)
	require.NoError(t, err)
	return created
}

func TestClientRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClientRepository(db.DB)
	ctx := context.Background()

	created := createTestClient(t, repo, "c1", "A", "B")
	assert.NotZero(t, created.ID)

	got, err := repo.GetByName(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got.AllowedSenders, 2)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Client{Name: "c1"})
		assert.ErrorIs(t, err, ErrClientExists)
	})
}

func TestClientRepository_DeleteByName_Cascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClientRepository(db.DB)
	ctx := context.Background()

	created := createTestClient(t, repo, "c1", "A", "B")

	require.NoError(t, repo.DeleteByName(ctx, "c1"))

	_, err := repo.GetByName(ctx, "c1")
	assert.ErrorIs(t, err, ErrClientNotFound)

	var senderCount int64
	require.NoError(t, db.rawDB.Model(&AllowedSenderEntity{}).
		Where("client_id = ?", created.ID).
		Count(&senderCount).Error)
	assert.Equal(t, int64(0), senderCount)

	t.Run("missing client", func(t *testing.T) {
		assert.ErrorIs(t, repo.DeleteByName(ctx, "c1"), ErrClientNotFound)
	})
}

func TestClientRepository_IsSenderAllowed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClientRepository(db.DB)
	ctx := context.Background()

	createTestClient(t, repo, "c1", "A")

	ok, err := repo.IsSenderAllowed(ctx, "c1", "A")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsSenderAllowed(ctx, "c1", "B")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.IsSenderAllowed(ctx, "nope", "A")
	assert.ErrorIs(t, err, ErrClientNotFound)
}
