package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/valyala/fasthttp"
)

var (
	// ErrBackendUnavailable means the backend could not be reached at all
	// (dial, bind or transport failure).
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrTransmissionFailed means the backend was reachable but rejected
	// or failed the submit itself.
	ErrTransmissionFailed = errors.New("transmission failed")
)

// Adapter performs exactly one send through one kind of backend. It never
// touches the status store; recording the outcome is the orchestrator's job.
type Adapter interface {
	Send(ctx context.Context, destination, body string) (string, error)
}

// Options carries the per-deployment settings shared by every adapter
// instance: the caller-independent source address and the network
// timeouts. Per-backend connection data comes from the Backend record.
type Options struct {
	SourceAddr     string
	ConnectTimeout time.Duration
	SubmitTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.SourceAddr == "" {
		o.SourceAddr = "OTPService"
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	if o.SubmitTimeout <= 0 {
		o.SubmitTimeout = 10 * time.Second
	}
	return o
}

// Factory builds the adapter matching a backend's kind. The fasthttp
// client is shared across HTTP adapters; SMPP adapters own nothing
// between calls because every send opens its own session.
type Factory struct {
	opts   Options
	client *fasthttp.Client
}

func NewFactory(opts Options) *Factory {
	opts = opts.withDefaults()
	return &Factory{
		opts: opts,
		client: &fasthttp.Client{
			ReadTimeout:         opts.SubmitTimeout,
			WriteTimeout:        opts.SubmitTimeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}
}

func (f *Factory) ForBackend(b *model.Backend) (Adapter, error) {
	switch b.Kind {
	case model.BackendKindSMPP:
		return NewSMPPGateway(b, f.opts), nil
	case model.BackendKindHTTP:
		return NewHTTPGateway(b, f.opts, f.client), nil
	default:
		return nil, errors.New("unsupported backend kind: " + string(b.Kind))
	}
}
