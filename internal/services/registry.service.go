package services

import (
	"context"
	"fmt"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/internal/provision"
	"github.com/nimasrn/otp-gateway/pkg/logger"
)

// RegistryService manages the provider and client catalogs. Registering
// an SMPP backend provisions its connector synchronously: the backend
// row is written first, so a failed provisioning run leaves a visible
// unprovisioned record that a retry can pick up.
type RegistryService struct {
	backends    BackendStore
	clients     ClientStore
	provisioner provision.Provisioner
}

func NewRegistryService(backends BackendStore, clients ClientStore, provisioner provision.Provisioner) *RegistryService {
	return &RegistryService{
		backends:    backends,
		clients:     clients,
		provisioner: provisioner,
	}
}

func (s *RegistryService) RegisterBackend(ctx context.Context, req model.BackendCreateRequest) (*model.Backend, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	backend, err := s.backends.Create(ctx, &model.Backend{
		Name:     req.Name,
		Kind:     req.Kind,
		Host:     req.Host,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	// HTTP backends need no connector; they are dispatchable immediately.
	if backend.Kind == model.BackendKindHTTP {
		if err := s.backends.SetProvisioned(ctx, backend.Name, true); err != nil {
			return backend, err
		}
		backend.Provisioned = true
		return backend, nil
	}

	if err := s.provisioner.ProvisionSMPP(ctx, backend); err != nil {
		logger.Warn("smpp connector provisioning failed, backend stays unprovisioned",
			"backend", backend.Name, "error", err)
		return backend, fmt.Errorf("backend %s registered but not provisioned: %w", backend.Name, err)
	}

	if err := s.backends.SetProvisioned(ctx, backend.Name, true); err != nil {
		return backend, err
	}
	backend.Provisioned = true
	logger.Info("backend registered", "backend", backend.Name, "kind", backend.Kind)
	return backend, nil
}

// ReprovisionBackend replays the connector setup for an already
// registered SMPP backend, typically after a failed registration run.
func (s *RegistryService) ReprovisionBackend(ctx context.Context, name string) (*model.Backend, error) {
	backend, err := s.backends.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if backend.Kind != model.BackendKindSMPP {
		return nil, fmt.Errorf("backend %s is not an smpp backend", name)
	}

	if err := s.provisioner.ProvisionSMPP(ctx, backend); err != nil {
		return backend, err
	}
	if err := s.backends.SetProvisioned(ctx, name, true); err != nil {
		return backend, err
	}
	backend.Provisioned = true
	return backend, nil
}

func (s *RegistryService) GetBackend(ctx context.Context, name string) (*model.Backend, error) {
	return s.backends.GetByName(ctx, name)
}

func (s *RegistryService) ListBackends(ctx context.Context) ([]*model.Backend, error) {
	return s.backends.List(ctx)
}

func (s *RegistryService) AddClient(ctx context.Context, req model.ClientCreateRequest) (*model.Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	client := &model.Client{Name: req.Name}
	for _, sender := range req.AllowedSenders {
		client.AllowedSenders = append(client.AllowedSenders, &model.AllowedSender{Sender: sender})
	}
	return s.clients.Create(ctx, client)
}

func (s *RegistryService) GetClient(ctx context.Context, name string) (*model.Client, error) {
	return s.clients.GetByName(ctx, name)
}

func (s *RegistryService) ListClients(ctx context.Context) ([]*model.Client, error) {
	return s.clients.List(ctx)
}

// RemoveClient deletes the client together with its allow-list rows.
func (s *RegistryService) RemoveClient(ctx context.Context, name string) error {
	if err := s.clients.DeleteByName(ctx, name); err != nil {
		return err
	}
	logger.Info("client removed", "client", name)
	return nil
}
