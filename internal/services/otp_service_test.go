package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nimasrn/otp-gateway/internal/events"
	"github.com/nimasrn/otp-gateway/internal/gateway"
	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type otpFixture struct {
	attempts  *mockAttemptStore
	backends  *mockBackendStore
	clients   *mockClientStore
	factory   *mockAdapterFactory
	adapter   *mockAdapter
	publisher *mockPublisher
	svc       *OtpService
}

func newOtpFixture() *otpFixture {
	f := &otpFixture{
		attempts:  &mockAttemptStore{},
		backends:  &mockBackendStore{},
		clients:   &mockClientStore{},
		factory:   &mockAdapterFactory{},
		adapter:   &mockAdapter{},
		publisher: &mockPublisher{},
	}
	f.svc = NewOtpService(f.attempts, f.backends, f.clients, f.factory, f.publisher, time.Second)
	return f
}

func (f *otpFixture) expectPendingAttempt(id int64, req model.OtpSendRequest) {
	f.attempts.On("Create", mock.Anything, mock.MatchedBy(func(a *model.OtpAttempt) bool {
		return a.Status == model.AttemptStatusPending && a.Provider == req.Provider
	})).Return(&model.OtpAttempt{
		ID:          id,
		Provider:    req.Provider,
		PhoneNumber: req.PhoneNumber,
		Payload:     req.Payload,
		Status:      model.AttemptStatusPending,
	}, nil)
}

func sendReq() model.OtpSendRequest {
	return model.OtpSendRequest{
		Provider:    "acme",
		PhoneNumber: "+15550001111",
		Payload:     "123456",
	}
}

func provisionedBackend() *model.Backend {
	return &model.Backend{
		ID:          1,
		Name:        "acme",
		Kind:        model.BackendKindSMPP,
		Host:        "10.0.0.5",
		Port:        2775,
		Provisioned: true,
	}
}

func TestOtpService_Send_Delivered(t *testing.T) {
	f := newOtpFixture()
	req := sendReq()

	f.expectPendingAttempt(7, req)
	f.backends.On("GetByName", mock.Anything, "acme").Return(provisionedBackend(), nil)
	f.factory.On("ForBackend", mock.Anything).Return(f.adapter, nil)
	f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusSent).Return(nil)
	f.adapter.On("Send", mock.Anything, "+15550001111", "123456").Return("r-1", nil)
	f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusDelivered).Return(nil)
	f.publisher.On("Publish", mock.MatchedBy(func(ev events.DeliveryEvent) bool {
		return ev.AttemptID == 7 &&
			ev.Status == model.AttemptStatusDelivered &&
			ev.Receipt == "r-1"
	})).Return("1-0", nil)

	attempt, err := f.svc.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusDelivered, attempt.Status)

	f.attempts.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestOtpService_Send_UnknownProviderLeavesFailedRecord(t *testing.T) {
	f := newOtpFixture()
	req := sendReq()

	f.expectPendingAttempt(7, req)
	f.backends.On("GetByName", mock.Anything, "acme").Return(nil, repository.ErrBackendNotFound)
	f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusFailed).Return(nil)
	f.publisher.On("Publish", mock.MatchedBy(func(ev events.DeliveryEvent) bool {
		return ev.Status == model.AttemptStatusFailed && ev.Reason != ""
	})).Return("1-0", nil)

	attempt, err := f.svc.Send(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnknownProvider)
	require.NotNil(t, attempt)
	assert.Equal(t, model.AttemptStatusFailed, attempt.Status)

	f.attempts.AssertExpectations(t)
	f.adapter.AssertNotCalled(t, "Send")
}

func TestOtpService_Send_UnprovisionedBackend(t *testing.T) {
	f := newOtpFixture()
	req := sendReq()

	backend := provisionedBackend()
	backend.Provisioned = false

	f.expectPendingAttempt(7, req)
	f.backends.On("GetByName", mock.Anything, "acme").Return(backend, nil)
	f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusFailed).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return("1-0", nil)

	_, err := f.svc.Send(context.Background(), req)
	assert.ErrorIs(t, err, ErrBackendNotProvisioned)
	f.adapter.AssertNotCalled(t, "Send")
}

func TestOtpService_Send_TransmissionFailure(t *testing.T) {
	f := newOtpFixture()
	req := sendReq()

	f.expectPendingAttempt(7, req)
	f.backends.On("GetByName", mock.Anything, "acme").Return(provisionedBackend(), nil)
	f.factory.On("ForBackend", mock.Anything).Return(f.adapter, nil)
	f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusSent).Return(nil)
	f.adapter.On("Send", mock.Anything, "+15550001111", "123456").
		Return("", gateway.ErrTransmissionFailed)
	f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusFailed).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return("1-0", nil)

	attempt, err := f.svc.Send(context.Background(), req)
	assert.ErrorIs(t, err, gateway.ErrTransmissionFailed)
	assert.Equal(t, model.AttemptStatusFailed, attempt.Status)
	f.attempts.AssertExpectations(t)
}

func TestOtpService_Send_SenderAllowList(t *testing.T) {
	t.Run("rejected sender fails before dispatch", func(t *testing.T) {
		f := newOtpFixture()
		req := sendReq()
		req.Client = "portal"
		req.Sender = "EVIL"

		f.expectPendingAttempt(7, req)
		f.clients.On("IsSenderAllowed", mock.Anything, "portal", "EVIL").Return(false, nil)
		f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusFailed).Return(nil)
		f.publisher.On("Publish", mock.Anything).Return("1-0", nil)

		_, err := f.svc.Send(context.Background(), req)
		assert.ErrorIs(t, err, ErrSenderNotAllowed)
		f.backends.AssertNotCalled(t, "GetByName")
		f.adapter.AssertNotCalled(t, "Send")
	})

	t.Run("allowed sender dispatches", func(t *testing.T) {
		f := newOtpFixture()
		req := sendReq()
		req.Client = "portal"
		req.Sender = "ACME"

		f.expectPendingAttempt(7, req)
		f.clients.On("IsSenderAllowed", mock.Anything, "portal", "ACME").Return(true, nil)
		f.backends.On("GetByName", mock.Anything, "acme").Return(provisionedBackend(), nil)
		f.factory.On("ForBackend", mock.Anything).Return(f.adapter, nil)
		f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusSent).Return(nil)
		f.adapter.On("Send", mock.Anything, "+15550001111", "123456").Return("r-1", nil)
		f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusDelivered).Return(nil)
		f.publisher.On("Publish", mock.Anything).Return("1-0", nil)

		_, err := f.svc.Send(context.Background(), req)
		require.NoError(t, err)
	})
}

func TestOtpService_Send_ValidationSkipsPersistence(t *testing.T) {
	f := newOtpFixture()

	_, err := f.svc.Send(context.Background(), model.OtpSendRequest{Provider: "acme"})
	assert.Error(t, err)
	f.attempts.AssertNotCalled(t, "Create")
}

func TestOtpService_Send_PublishFailureDoesNotFailSend(t *testing.T) {
	f := newOtpFixture()
	req := sendReq()

	f.expectPendingAttempt(7, req)
	f.backends.On("GetByName", mock.Anything, "acme").Return(provisionedBackend(), nil)
	f.factory.On("ForBackend", mock.Anything).Return(f.adapter, nil)
	f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusSent).Return(nil)
	f.adapter.On("Send", mock.Anything, "+15550001111", "123456").Return("r-1", nil)
	f.attempts.On("UpdateStatus", mock.Anything, int64(7), model.AttemptStatusDelivered).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return("", errors.New("stream down"))

	attempt, err := f.svc.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusDelivered, attempt.Status)
}

func TestOtpService_History(t *testing.T) {
	f := newOtpFixture()
	filter := model.AttemptFilter{Limit: 10}
	f.attempts.On("List", mock.Anything, filter).
		Return([]*model.OtpAttempt{{ID: 1}}, int64(1), nil)

	items, total, err := f.svc.History(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
}
