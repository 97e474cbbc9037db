package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/valyala/fasthttp"
)

const httpSendPath = "/api/v1/sms/send"

type httpSendRequest struct {
	To        string `json:"to"`
	Message   string `json:"message"`
	Sender    string `json:"sender"`
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

type httpSendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// HTTPGateway posts one message per call to a REST carrier endpoint. The
// backend's username/password double as the carrier api key and secret.
type HTTPGateway struct {
	backend *model.Backend
	opts    Options
	client  *fasthttp.Client
	baseURL string
}

func NewHTTPGateway(b *model.Backend, opts Options, client *fasthttp.Client) *HTTPGateway {
	scheme := "http"
	if b.Port == 443 {
		scheme = "https"
	}
	return &HTTPGateway{
		backend: b,
		opts:    opts.withDefaults(),
		client:  client,
		baseURL: fmt.Sprintf("%s://%s:%d", scheme, b.Host, b.Port),
	}
}

func (g *HTTPGateway) Send(ctx context.Context, destination, body string) (string, error) {
	payload, err := json.Marshal(httpSendRequest{
		To:        destination,
		Message:   body,
		Sender:    g.opts.SourceAddr,
		APIKey:    g.backend.Username,
		APISecret: g.backend.Password,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransmissionFailed, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(g.baseURL + httpSendPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	deadline := time.Now().Add(g.opts.SubmitTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := g.client.DoDeadline(req, resp, deadline); err != nil {
		return "", fmt.Errorf("%w: post to %s: %v", ErrBackendUnavailable, g.backend.Name, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return "", fmt.Errorf("%w: %s responded %d", ErrTransmissionFailed, g.backend.Name, resp.StatusCode())
	}

	var out httpSendResponse
	if err := json.Unmarshal(resp.Body(), &out); err == nil {
		if out.Error != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrTransmissionFailed, g.backend.Name, out.Error)
		}
		if out.MessageID != "" {
			return out.MessageID, nil
		}
	}
	return uuid.New().String(), nil
}
