package services

import (
	"context"
	"testing"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/internal/provision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type registryFixture struct {
	backends    *mockBackendStore
	clients     *mockClientStore
	provisioner *mockProvisioner
	svc         *RegistryService
}

func newRegistryFixture() *registryFixture {
	f := &registryFixture{
		backends:    &mockBackendStore{},
		clients:     &mockClientStore{},
		provisioner: &mockProvisioner{},
	}
	f.svc = NewRegistryService(f.backends, f.clients, f.provisioner)
	return f
}

func smppCreateRequest() model.BackendCreateRequest {
	return model.BackendCreateRequest{
		Name:     "acme",
		Kind:     model.BackendKindSMPP,
		Host:     "10.0.0.5",
		Port:     2775,
		Username: "u",
		Password: "p",
	}
}

func TestRegistryService_RegisterBackend_SMPP(t *testing.T) {
	f := newRegistryFixture()

	stored := &model.Backend{ID: 1, Name: "acme", Kind: model.BackendKindSMPP, Host: "10.0.0.5", Port: 2775}
	f.backends.On("Create", mock.Anything, mock.Anything).Return(stored, nil)
	f.provisioner.On("ProvisionSMPP", mock.Anything, stored).Return(nil)
	f.backends.On("SetProvisioned", mock.Anything, "acme", true).Return(nil)

	backend, err := f.svc.RegisterBackend(context.Background(), smppCreateRequest())
	require.NoError(t, err)
	assert.True(t, backend.Provisioned)

	f.provisioner.AssertExpectations(t)
	f.backends.AssertExpectations(t)
}

func TestRegistryService_RegisterBackend_ProvisioningFailure(t *testing.T) {
	f := newRegistryFixture()

	stored := &model.Backend{ID: 1, Name: "acme", Kind: model.BackendKindSMPP}
	f.backends.On("Create", mock.Anything, mock.Anything).Return(stored, nil)
	f.provisioner.On("ProvisionSMPP", mock.Anything, stored).Return(provision.ErrProvisioning)

	backend, err := f.svc.RegisterBackend(context.Background(), smppCreateRequest())
	assert.ErrorIs(t, err, provision.ErrProvisioning)
	// the record stays visible for a later reprovision run
	require.NotNil(t, backend)
	assert.False(t, backend.Provisioned)
	f.backends.AssertNotCalled(t, "SetProvisioned", mock.Anything, "acme", true)
}

func TestRegistryService_RegisterBackend_HTTPSkipsProvisioning(t *testing.T) {
	f := newRegistryFixture()

	stored := &model.Backend{ID: 2, Name: "restco", Kind: model.BackendKindHTTP}
	f.backends.On("Create", mock.Anything, mock.Anything).Return(stored, nil)
	f.backends.On("SetProvisioned", mock.Anything, "restco", true).Return(nil)

	backend, err := f.svc.RegisterBackend(context.Background(), model.BackendCreateRequest{
		Name: "restco",
		Kind: model.BackendKindHTTP,
		Host: "api.restco.example.com",
		Port: 443,
	})
	require.NoError(t, err)
	assert.True(t, backend.Provisioned)
	f.provisioner.AssertNotCalled(t, "ProvisionSMPP")
}

func TestRegistryService_RegisterBackend_Validation(t *testing.T) {
	f := newRegistryFixture()

	_, err := f.svc.RegisterBackend(context.Background(), model.BackendCreateRequest{
		Name: "acme",
		Kind: "carrier-pigeon",
		Host: "h",
		Port: 1,
	})
	assert.Error(t, err)
	f.backends.AssertNotCalled(t, "Create")
}

func TestRegistryService_ReprovisionBackend(t *testing.T) {
	f := newRegistryFixture()

	stored := &model.Backend{ID: 1, Name: "acme", Kind: model.BackendKindSMPP}
	f.backends.On("GetByName", mock.Anything, "acme").Return(stored, nil)
	f.provisioner.On("ProvisionSMPP", mock.Anything, stored).Return(nil)
	f.backends.On("SetProvisioned", mock.Anything, "acme", true).Return(nil)

	backend, err := f.svc.ReprovisionBackend(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, backend.Provisioned)

	t.Run("http backend rejected", func(t *testing.T) {
		f.backends.On("GetByName", mock.Anything, "restco").
			Return(&model.Backend{Name: "restco", Kind: model.BackendKindHTTP}, nil)
		_, err := f.svc.ReprovisionBackend(context.Background(), "restco")
		assert.Error(t, err)
	})
}

func TestRegistryService_Clients(t *testing.T) {
	f := newRegistryFixture()

	f.clients.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Client) bool {
		return c.Name == "portal" && len(c.AllowedSenders) == 2
	})).Return(&model.Client{ID: 1, Name: "portal"}, nil)

	_, err := f.svc.AddClient(context.Background(), model.ClientCreateRequest{
		Name:           "portal",
		AllowedSenders: []string{"ACME", "OTP"},
	})
	require.NoError(t, err)

	f.clients.On("DeleteByName", mock.Anything, "portal").Return(nil)
	require.NoError(t, f.svc.RemoveClient(context.Background(), "portal"))

	f.clients.AssertExpectations(t)
}
