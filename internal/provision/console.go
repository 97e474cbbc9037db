package provision

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/nimasrn/otp-gateway/internal/model"
	"github.com/nimasrn/otp-gateway/pkg/logger"
	"github.com/pkg/errors"
)

// ErrProvisioning means the management console rejected or never finished
// a connector configuration sequence.
var ErrProvisioning = errors.New("provisioning failed")

const (
	consolePrompt  = "jcli : "
	usernamePrompt = "Username:"
	passwordPrompt = "Password:"
)

// Provisioner registers an SMPP backend with the routing engine so the
// engine will bind to it. HTTP backends need no provisioning.
type Provisioner interface {
	ProvisionSMPP(ctx context.Context, b *model.Backend) error
}

type Config struct {
	Addr     string
	Username string
	Password string
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Username == "" {
		c.Username = "jcliadmin"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

type dialFunc func(ctx context.Context, addr string) (net.Conn, error)

// Console drives the engine's telnet-style management console. Every
// provisioning run opens a fresh connection, authenticates, replays the
// connector command sequence and disconnects. The console echoes its
// prompt after each command, so completion is detected by reading until
// the prompt reappears instead of sleeping between writes.
type Console struct {
	cfg  Config
	dial dialFunc
}

func NewConsole(cfg Config) *Console {
	return &Console{
		cfg: cfg.withDefaults(),
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
	}
}

func (c *Console) ProvisionSMPP(ctx context.Context, b *model.Backend) error {
	conn, err := c.dial(ctx, c.cfg.Addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrProvisioning, c.cfg.Addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	s := &consoleSession{conn: conn}
	if err := s.authenticate(c.cfg.Username, c.cfg.Password); err != nil {
		return fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	for _, cmd := range provisionCommands(b) {
		out, err := s.exec(cmd)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrProvisioning, cmd, err)
		}
		if line := failureLine(out); line != "" {
			return fmt.Errorf("%w: %q: %s", ErrProvisioning, cmd, line)
		}
	}

	logger.Info("provisioned smpp connector", "backend", b.Name, "console", c.cfg.Addr)
	return nil
}

// provisionCommands is the fixed sequence that creates a connector,
// points it at the backend and persists the running configuration.
func provisionCommands(b *model.Backend) []string {
	return []string{
		fmt.Sprintf("smppccm -a %s", b.Name),
		fmt.Sprintf("smppccm -u %s -p host %s", b.Name, b.Host),
		fmt.Sprintf("smppccm -u %s -p port %d", b.Name, b.Port),
		fmt.Sprintf("smppccm -u %s -p username %s", b.Name, b.Username),
		fmt.Sprintf("smppccm -u %s -p password %s", b.Name, b.Password),
		"smppccm -1",
	}
}

func failureLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Error") ||
			strings.HasPrefix(line, "Failed") ||
			strings.HasPrefix(line, "Unknown") {
			return line
		}
	}
	return ""
}

type consoleSession struct {
	conn net.Conn
}

func (s *consoleSession) authenticate(username, password string) error {
	if _, err := s.readUntil(usernamePrompt); err != nil {
		return errors.Wrap(err, "waiting for username prompt")
	}
	if err := s.writeLine(username); err != nil {
		return errors.Wrap(err, "sending username")
	}
	if _, err := s.readUntil(passwordPrompt); err != nil {
		return errors.Wrap(err, "waiting for password prompt")
	}
	if err := s.writeLine(password); err != nil {
		return errors.Wrap(err, "sending password")
	}
	out, err := s.readUntil(consolePrompt)
	if err != nil {
		return errors.Wrap(err, "waiting for console prompt")
	}
	if strings.Contains(out, "Authentication failure") {
		return errors.New("authentication failure")
	}
	return nil
}

// exec sends one command and blocks until the console prompt comes back,
// returning everything printed in between.
func (s *consoleSession) exec(cmd string) (string, error) {
	if err := s.writeLine(cmd); err != nil {
		return "", err
	}
	return s.readUntil(consolePrompt)
}

func (s *consoleSession) writeLine(line string) error {
	_, err := s.conn.Write([]byte(line + "\n"))
	return err
}

func (s *consoleSession) readUntil(sentinel string) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 512)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
			if strings.Contains(sb.String(), sentinel) {
				out := sb.String()
				return strings.TrimSuffix(out, sentinel), nil
			}
		}
		if err != nil {
			return sb.String(), err
		}
	}
}
