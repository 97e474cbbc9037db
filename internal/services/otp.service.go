package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/otp-gateway/internal/events"
	"github.com/nimasrn/otp-gateway/internal/gateway"
	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/internal/repository"
	"github.com/nimasrn/otp-gateway/pkg/logger"
	"github.com/nimasrn/otp-gateway/pkg/prom"
)

var (
	// ErrUnknownProvider means the requested provider has no registered backend.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrBackendNotProvisioned means the SMPP backend exists but its
	// connector was never applied to the routing engine.
	ErrBackendNotProvisioned = errors.New("backend not provisioned")
	// ErrSenderNotAllowed means the client's allow-list rejects the sender.
	ErrSenderNotAllowed = errors.New("sender not allowed for client")
)

type AttemptStore interface {
	Create(ctx context.Context, attempt *model.OtpAttempt) (*model.OtpAttempt, error)
	UpdateStatus(ctx context.Context, id int64, status model.AttemptStatus) error
	Get(ctx context.Context, id int64) (*model.OtpAttempt, error)
	List(ctx context.Context, f model.AttemptFilter) ([]*model.OtpAttempt, int64, error)
}

type BackendStore interface {
	Create(ctx context.Context, backend *model.Backend) (*model.Backend, error)
	GetByName(ctx context.Context, name string) (*model.Backend, error)
	List(ctx context.Context) ([]*model.Backend, error)
	SetProvisioned(ctx context.Context, name string, provisioned bool) error
}

type ClientStore interface {
	Create(ctx context.Context, client *model.Client) (*model.Client, error)
	GetByName(ctx context.Context, name string) (*model.Client, error)
	List(ctx context.Context) ([]*model.Client, error)
	DeleteByName(ctx context.Context, name string) error
	IsSenderAllowed(ctx context.Context, clientName, sender string) (bool, error)
}

type AdapterFactory interface {
	ForBackend(b *model.Backend) (gateway.Adapter, error)
}

type EventPublisher interface {
	Publish(ev events.DeliveryEvent) (string, error)
}

// OtpService runs the send lifecycle. Every request leaves an attempt row
// behind: the pending record is created before the backend is even
// resolved, so a request for an unknown provider is still auditable as a
// failed attempt.
type OtpService struct {
	attempts      AttemptStore
	backends      BackendStore
	clients       ClientStore
	adapters      AdapterFactory
	publisher     EventPublisher
	submitTimeout time.Duration
}

func NewOtpService(
	attempts AttemptStore,
	backends BackendStore,
	clients ClientStore,
	adapters AdapterFactory,
	publisher EventPublisher,
	submitTimeout time.Duration,
) *OtpService {
	if submitTimeout <= 0 {
		submitTimeout = 10 * time.Second
	}
	return &OtpService{
		attempts:      attempts,
		backends:      backends,
		clients:       clients,
		adapters:      adapters,
		publisher:     publisher,
		submitTimeout: submitTimeout,
	}
}

// Send dispatches one OTP and records its lifecycle:
// pending -> sent -> delivered, or -> failed at whichever step broke.
// The returned attempt always reflects the final recorded status.
func (s *OtpService) Send(ctx context.Context, req model.OtpSendRequest) (*model.OtpAttempt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	attempt, err := s.attempts.Create(ctx, &model.OtpAttempt{
		Provider:    req.Provider,
		PhoneNumber: req.PhoneNumber,
		Payload:     req.Payload,
		Status:      model.AttemptStatusPending,
	})
	if err != nil {
		return nil, err
	}

	if req.Client != "" {
		allowed, err := s.clients.IsSenderAllowed(ctx, req.Client, req.Sender)
		if err != nil {
			return s.fail(ctx, attempt, err)
		}
		if !allowed {
			return s.fail(ctx, attempt, fmt.Errorf("%w: client %s sender %q", ErrSenderNotAllowed, req.Client, req.Sender))
		}
	}

	backend, err := s.backends.GetByName(ctx, req.Provider)
	if err != nil {
		if errors.Is(err, repository.ErrBackendNotFound) {
			return s.fail(ctx, attempt, fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider))
		}
		return s.fail(ctx, attempt, err)
	}

	if backend.Kind == model.BackendKindSMPP && !backend.Provisioned {
		return s.fail(ctx, attempt, fmt.Errorf("%w: %s", ErrBackendNotProvisioned, backend.Name))
	}

	adapter, err := s.adapters.ForBackend(backend)
	if err != nil {
		return s.fail(ctx, attempt, err)
	}

	if err := s.attempts.UpdateStatus(ctx, attempt.ID, model.AttemptStatusSent); err != nil {
		return s.fail(ctx, attempt, err)
	}
	attempt.Status = model.AttemptStatusSent

	sendCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	start := time.Now()
	receipt, err := adapter.Send(sendCtx, req.PhoneNumber, req.Payload)
	prom.ObserveOtpSendDuration(req.Provider, time.Since(start).Seconds())
	if err != nil {
		return s.fail(ctx, attempt, err)
	}

	if err := s.attempts.UpdateStatus(ctx, attempt.ID, model.AttemptStatusDelivered); err != nil {
		logger.Error("attempt delivered but status update failed",
			"attempt_id", attempt.ID, "error", err)
		return attempt, err
	}
	attempt.Status = model.AttemptStatusDelivered

	s.publish(attempt, receipt, "")
	prom.IncOtpAttempt(req.Provider, string(model.AttemptStatusDelivered))
	logger.Info("otp delivered",
		"attempt_id", attempt.ID, "provider", req.Provider, "receipt", receipt)
	return attempt, nil
}

// History returns attempts in creation order, optionally filtered.
func (s *OtpService) History(ctx context.Context, f model.AttemptFilter) ([]*model.OtpAttempt, int64, error) {
	return s.attempts.List(ctx, f)
}

func (s *OtpService) Get(ctx context.Context, id int64) (*model.OtpAttempt, error) {
	return s.attempts.Get(ctx, id)
}

// fail marks the attempt failed and reports cause to the caller. The
// status write must not mask the original error, so a failing update is
// only logged.
func (s *OtpService) fail(ctx context.Context, attempt *model.OtpAttempt, cause error) (*model.OtpAttempt, error) {
	if err := s.attempts.UpdateStatus(ctx, attempt.ID, model.AttemptStatusFailed); err != nil {
		logger.Error("failed to mark attempt as failed",
			"attempt_id", attempt.ID, "error", err)
	} else {
		attempt.Status = model.AttemptStatusFailed
	}

	s.publish(attempt, "", cause.Error())
	prom.IncOtpAttempt(attempt.Provider, string(model.AttemptStatusFailed))
	logger.Warn("otp attempt failed",
		"attempt_id", attempt.ID, "provider", attempt.Provider, "error", cause)
	return attempt, cause
}

// publish is best effort: a broken stream never fails a send that the
// backend already accepted.
func (s *OtpService) publish(attempt *model.OtpAttempt, receipt, reason string) {
	if s.publisher == nil {
		return
	}
	_, err := s.publisher.Publish(events.DeliveryEvent{
		AttemptID:   attempt.ID,
		Provider:    attempt.Provider,
		PhoneNumber: attempt.PhoneNumber,
		Status:      attempt.Status,
		Receipt:     receipt,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("failed to publish delivery event",
			"attempt_id", attempt.ID, "error", err)
	}
}
