package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fasthttp/router"
	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/internal/provision"
	"github.com/nimasrn/otp-gateway/internal/repository"
	xhttp "github.com/nimasrn/otp-gateway/pkg/http"
)

type RegistryService interface {
	RegisterBackend(ctx context.Context, req model.BackendCreateRequest) (*model.Backend, error)
	ReprovisionBackend(ctx context.Context, name string) (*model.Backend, error)
	GetBackend(ctx context.Context, name string) (*model.Backend, error)
	ListBackends(ctx context.Context) ([]*model.Backend, error)
	AddClient(ctx context.Context, req model.ClientCreateRequest) (*model.Client, error)
	GetClient(ctx context.Context, name string) (*model.Client, error)
	ListClients(ctx context.Context) ([]*model.Client, error)
	RemoveClient(ctx context.Context, name string) error
}

type RegistryHandler struct {
	svc RegistryService
}

func RegisterRegistryRoutes(e *router.Group, h *RegistryHandler) {
	e.POST("/backends", h.CreateBackend)
	e.GET("/backends", h.ListBackends)
	e.GET("/backends/{name}", h.GetBackend)
	e.POST("/backends/{name}/provision", h.ReprovisionBackend)

	e.POST("/clients", h.CreateClient)
	e.GET("/clients", h.ListClients)
	e.GET("/clients/{name}", h.GetClient)
	e.DELETE("/clients/{name}", h.DeleteClient)
}

func NewRegistryHandler(registryService RegistryService) *RegistryHandler {
	return &RegistryHandler{
		svc: registryService,
	}
}

type createBackendRequest struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type createClientRequest struct {
	Name           string   `json:"name"`
	AllowedSenders []string `json:"allowed_senders"`
}

type backendListResponse struct {
	Items []*model.Backend `json:"items"`
}

type clientListResponse struct {
	Items []*model.Client `json:"items"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *RegistryHandler) CreateBackend(ctx *xhttp.RequestCtx) {
	var req createBackendRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	backend, err := h.svc.RegisterBackend(ctx, model.BackendCreateRequest{
		Name:     req.Name,
		Kind:     model.BackendKind(req.Kind),
		Host:     req.Host,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		// a provisioning failure still leaves the backend registered, so
		// the record rides along with the error
		if errors.Is(err, provision.ErrProvisioning) && backend != nil {
			b, _ := marshalWithError(backend, err.Error())
			ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
			ctx.Response.SetStatusCode(502)
			ctx.Response.SetBodyRaw(b)
			return
		}
		writeError(ctx, registryErrorStatus(err), err.Error())
		return
	}
	writeJSON(ctx, 201, backend)
}

func (h *RegistryHandler) GetBackend(ctx *xhttp.RequestCtx) {
	backend, err := h.svc.GetBackend(ctx, param(ctx, "name"))
	if err != nil {
		writeError(ctx, registryErrorStatus(err), err.Error())
		return
	}
	writeJSON(ctx, 200, backend)
}

func (h *RegistryHandler) ListBackends(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ListBackends(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, backendListResponse{Items: items})
}

func (h *RegistryHandler) ReprovisionBackend(ctx *xhttp.RequestCtx) {
	backend, err := h.svc.ReprovisionBackend(ctx, param(ctx, "name"))
	if err != nil {
		writeError(ctx, registryErrorStatus(err), err.Error())
		return
	}
	writeJSON(ctx, 200, backend)
}

func (h *RegistryHandler) CreateClient(ctx *xhttp.RequestCtx) {
	var req createClientRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	client, err := h.svc.AddClient(ctx, model.ClientCreateRequest{
		Name:           req.Name,
		AllowedSenders: req.AllowedSenders,
	})
	if err != nil {
		writeError(ctx, registryErrorStatus(err), err.Error())
		return
	}
	writeJSON(ctx, 201, client)
}

func (h *RegistryHandler) GetClient(ctx *xhttp.RequestCtx) {
	client, err := h.svc.GetClient(ctx, param(ctx, "name"))
	if err != nil {
		writeError(ctx, registryErrorStatus(err), err.Error())
		return
	}
	writeJSON(ctx, 200, client)
}

func (h *RegistryHandler) ListClients(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ListClients(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, clientListResponse{Items: items})
}

func (h *RegistryHandler) DeleteClient(ctx *xhttp.RequestCtx) {
	if err := h.svc.RemoveClient(ctx, param(ctx, "name")); err != nil {
		writeError(ctx, registryErrorStatus(err), err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}

func registryErrorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrBackendNotFound),
		errors.Is(err, repository.ErrClientNotFound):
		return 404
	case errors.Is(err, repository.ErrBackendExists),
		errors.Is(err, repository.ErrClientExists):
		return 409
	case errors.Is(err, provision.ErrProvisioning):
		return 502
	default:
		return 400
	}
}

func marshalWithError(backend *model.Backend, msg string) ([]byte, error) {
	return json.Marshal(struct {
		*model.Backend
		Error string `json:"error"`
	}{Backend: backend, Error: msg})
}
