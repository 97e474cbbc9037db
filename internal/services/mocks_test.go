package services

import (
	"context"

	"github.com/nimasrn/otp-gateway/internal/events"
	"github.com/nimasrn/otp-gateway/internal/gateway"
	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/stretchr/testify/mock"
)

type mockAttemptStore struct{ mock.Mock }

func (m *mockAttemptStore) Create(ctx context.Context, a *model.OtpAttempt) (*model.OtpAttempt, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OtpAttempt), args.Error(1)
}

func (m *mockAttemptStore) UpdateStatus(ctx context.Context, id int64, status model.AttemptStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockAttemptStore) Get(ctx context.Context, id int64) (*model.OtpAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OtpAttempt), args.Error(1)
}

func (m *mockAttemptStore) List(ctx context.Context, f model.AttemptFilter) ([]*model.OtpAttempt, int64, error) {
	args := m.Called(ctx, f)
	var items []*model.OtpAttempt
	if args.Get(0) != nil {
		items = args.Get(0).([]*model.OtpAttempt)
	}
	return items, args.Get(1).(int64), args.Error(2)
}

type mockBackendStore struct{ mock.Mock }

func (m *mockBackendStore) Create(ctx context.Context, b *model.Backend) (*model.Backend, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Backend), args.Error(1)
}

func (m *mockBackendStore) GetByName(ctx context.Context, name string) (*model.Backend, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Backend), args.Error(1)
}

func (m *mockBackendStore) List(ctx context.Context) ([]*model.Backend, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Backend), args.Error(1)
}

func (m *mockBackendStore) SetProvisioned(ctx context.Context, name string, provisioned bool) error {
	return m.Called(ctx, name, provisioned).Error(0)
}

type mockClientStore struct{ mock.Mock }

func (m *mockClientStore) Create(ctx context.Context, c *model.Client) (*model.Client, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *mockClientStore) GetByName(ctx context.Context, name string) (*model.Client, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *mockClientStore) List(ctx context.Context) ([]*model.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Client), args.Error(1)
}

func (m *mockClientStore) DeleteByName(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockClientStore) IsSenderAllowed(ctx context.Context, clientName, sender string) (bool, error) {
	args := m.Called(ctx, clientName, sender)
	return args.Bool(0), args.Error(1)
}

type mockAdapter struct{ mock.Mock }

func (m *mockAdapter) Send(ctx context.Context, destination, body string) (string, error) {
	args := m.Called(ctx, destination, body)
	return args.String(0), args.Error(1)
}

type mockAdapterFactory struct{ mock.Mock }

func (m *mockAdapterFactory) ForBackend(b *model.Backend) (gateway.Adapter, error) {
	args := m.Called(b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gateway.Adapter), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ev events.DeliveryEvent) (string, error) {
	args := m.Called(ev)
	return args.String(0), args.Error(1)
}

type mockProvisioner struct{ mock.Mock }

func (m *mockProvisioner) ProvisionSMPP(ctx context.Context, b *model.Backend) error {
	return m.Called(ctx, b).Error(0)
}
