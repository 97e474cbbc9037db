package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/otp-gateway/internal/gateway"
	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/internal/repository"
	"github.com/nimasrn/otp-gateway/internal/services"
	xhttp "github.com/nimasrn/otp-gateway/pkg/http"
)

type OtpService interface {
	Send(ctx context.Context, req model.OtpSendRequest) (*model.OtpAttempt, error)
	History(ctx context.Context, f model.AttemptFilter) ([]*model.OtpAttempt, int64, error)
}

type OtpHandler struct {
	svc OtpService
}

func RegisterOtpRoutes(e *router.Group, h *OtpHandler) {
	e.POST("/otp", h.SendOtp)
	e.GET("/otp/attempts", h.ListAttempts)
}

func NewOtpHandler(otpService OtpService) *OtpHandler {
	return &OtpHandler{
		svc: otpService,
	}
}

type sendOtpRequest struct {
	Provider    string `json:"provider"`
	PhoneNumber string `json:"phone_number"`
	Payload     string `json:"payload"`
	Client      string `json:"client"`
	Sender      string `json:"sender"`
}

type attemptListResponse struct {
	Items []*model.OtpAttempt `json:"items"`
	Total int64               `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *OtpHandler) SendOtp(ctx *xhttp.RequestCtx) {
	var req sendOtpRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	attempt, err := h.svc.Send(ctx, model.OtpSendRequest{
		Provider:    req.Provider,
		PhoneNumber: req.PhoneNumber,
		Payload:     req.Payload,
		Client:      req.Client,
		Sender:      req.Sender,
	})
	if err != nil {
		writeError(ctx, sendErrorStatus(err), err.Error())
		return
	}
	writeJSON(ctx, 201, attempt)
}

func (h *OtpHandler) ListAttempts(ctx *xhttp.RequestCtx) {
	var f model.AttemptFilter

	if v := query(ctx, "provider"); v != "" {
		f.Provider = &v
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.AttemptStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}

	items, total, err := h.svc.History(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, attemptListResponse{Items: items, Total: total})
}

// sendErrorStatus maps orchestration failures to response codes. The
// attempt row is already recorded as failed by the time these surface.
func sendErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownProvider):
		return 404
	case errors.Is(err, services.ErrSenderNotAllowed):
		return 403
	case errors.Is(err, services.ErrBackendNotProvisioned):
		return 409
	case errors.Is(err, gateway.ErrBackendUnavailable),
		errors.Is(err, gateway.ErrTransmissionFailed):
		return 502
	case errors.Is(err, repository.ErrClientNotFound):
		return 404
	default:
		return 400
	}
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func param(ctx *xhttp.RequestCtx, name string) string {
	if v, ok := ctx.UserValue(name).(string); ok {
		return v
	}
	return ""
}
