package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/linxGnu/gosmpp"
	"github.com/linxGnu/gosmpp/data"
	"github.com/linxGnu/gosmpp/pdu"
	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/pkg/logger"
)

// smppSession is the slice of a bound transmitter session the gateway
// needs. Narrow on purpose so tests can count teardowns with a fake.
type smppSession interface {
	Submit(p *pdu.SubmitSM) error
	Close() error
}

type smppDialFunc func(ctx context.Context, b *model.Backend, opts Options) (smppSession, error)

// SMPPGateway submits one short message per call over its own SMPP
// session: dial, bind transmitter, one submit_sm, then unconditional
// unbind + disconnect. Sessions are never pooled or shared, so concurrent
// sends against the same backend run over concurrent independent sessions.
type SMPPGateway struct {
	backend *model.Backend
	opts    Options
	dial    smppDialFunc
}

func NewSMPPGateway(b *model.Backend, opts Options) *SMPPGateway {
	return &SMPPGateway{
		backend: b,
		opts:    opts.withDefaults(),
		dial:    dialTransmitter,
	}
}

func (g *SMPPGateway) Send(ctx context.Context, destination, body string) (string, error) {
	sess, err := g.dial(ctx, g.backend, g.opts)
	if err != nil {
		return "", fmt.Errorf("%w: connect/bind %s: %v", ErrBackendUnavailable, g.backend.Name, err)
	}
	// teardown must run on every exit path, including submit failure
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("smpp session close failed", "backend", g.backend.Name, "error", cerr)
		}
	}()

	p, err := buildSubmitSM(g.opts.SourceAddr, destination, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransmissionFailed, err)
	}

	if err := sess.Submit(p); err != nil {
		return "", fmt.Errorf("%w: submit via %s: %v", ErrTransmissionFailed, g.backend.Name, err)
	}

	// No synchronous submit_sm_resp is awaited; the receipt is an opaque
	// id generated here, matching the bind-submit-unbind cycle where the
	// session is gone before any response would correlate.
	return uuid.New().String(), nil
}

func dialTransmitter(ctx context.Context, b *model.Backend, opts Options) (smppSession, error) {
	auth := gosmpp.Auth{
		SMSC:     fmt.Sprintf("%s:%d", b.Host, b.Port),
		SystemID: b.Username,
		Password: b.Password,
	}

	sess, err := gosmpp.NewSession(
		gosmpp.TXConnector(gosmpp.NonTLSDialer, auth),
		gosmpp.Settings{
			ReadTimeout:  opts.SubmitTimeout + 5*time.Second,
			WriteTimeout: opts.SubmitTimeout,
		},
		opts.ConnectTimeout,
	)
	if err != nil {
		return nil, err
	}
	return &transmitterSession{sess: sess}, nil
}

type transmitterSession struct {
	sess *gosmpp.Session
}

func (s *transmitterSession) Submit(p *pdu.SubmitSM) error {
	return s.sess.Transmitter().Submit(p)
}

func (s *transmitterSession) Close() error {
	return s.sess.Close()
}

func buildSubmitSM(source, destination, body string) (*pdu.SubmitSM, error) {
	p := pdu.NewSubmitSM().(*pdu.SubmitSM)

	srcAddr := pdu.NewAddress()
	srcAddr.SetTon(5) // alphanumeric sender
	srcAddr.SetNpi(0)
	if err := srcAddr.SetAddress(source); err != nil {
		return nil, fmt.Errorf("invalid source address %q: %w", source, err)
	}
	p.SourceAddr = srcAddr

	destAddr := pdu.NewAddress()
	destAddr.SetTon(1)
	destAddr.SetNpi(1)
	if err := destAddr.SetAddress(destination); err != nil {
		return nil, fmt.Errorf("invalid destination address %q: %w", destination, err)
	}
	p.DestAddr = destAddr

	if err := p.Message.SetMessageWithEncoding(body, data.GSM7BIT); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	p.RegisteredDelivery = 0
	p.EsmClass = 0

	return p, nil
}
