package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBackendRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Backend{
		Name:     "acme",
		Kind:     model.BackendKindSMPP,
		Host:     "10.0.0.5",
		Port:     2775,
		Username: "u",
		Password: "p",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.Provisioned)

	got, err := repo.GetByName(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, model.BackendKindSMPP, got.Kind)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Backend{
			Name: "acme",
			Kind: model.BackendKindHTTP,
			Host: "api.example.com",
			Port: 443,
		})
		assert.ErrorIs(t, err, ErrBackendExists)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := repo.GetByName(ctx, "nope")
		assert.ErrorIs(t, err, ErrBackendNotFound)
	})
}

func TestBackendRepository_SetProvisioned(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBackendRepository(db.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.Backend{
		Name:     "acme",
		Kind:     model.BackendKindSMPP,
		Host:     "10.0.0.5",
		Port:     2775,
		Username: "u",
		Password: "p",
	})
	require.NoError(t, err)

	require.NoError(t, repo.SetProvisioned(ctx, "acme", true))

	got, err := repo.GetByName(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, got.Provisioned)

	assert.ErrorIs(t, repo.SetProvisioned(ctx, "nope", true), ErrBackendNotFound)
}

func TestBackendRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBackendRepository(db.DB)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha"} {
		_, err := repo.Create(ctx, &model.Backend{
			Name:     name,
			Kind:     model.BackendKindHTTP,
			Host:     "api.example.com",
			Port:     443,
			Username: "k",
			Password: "s",
		})
		require.NoError(t, err)
	}

	backends, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, backends, 2)
	assert.Equal(t, "alpha", backends[0].Name)
	assert.Equal(t, "zeta", backends[1].Name)
}
