package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State is the connection lifecycle position of the Manager.
type State string

const (
	StateInit         State = "INIT"
	StateAwaitingAuth State = "AWAITING_AUTH"
	StateConnected    State = "CONNECTED"
	StateReconnecting State = "RECONNECTING"
	StateFailed       State = "FAILED"
)

const (
	// MaxAuthAttempts bounds both auth challenges and reconnect attempts.
	// Exceeding it parks the manager in StateFailed until Run is called again.
	MaxAuthAttempts = 3

	// DefaultReconnectDelay is the fixed wait before a reconnect attempt.
	DefaultReconnectDelay = 5 * time.Second

	// ReasonLoggedOut is the gateway's explicit credential-revocation close
	// reason. It is terminal: reconnecting would loop on a dead login.
	ReasonLoggedOut = "logged out"
)

var (
	// ErrNotConnected is returned by Send while the link is down.
	ErrNotConnected = errors.New("gateway: not connected")
	// ErrLoggedOut is returned by Run after an explicit logout disconnect.
	ErrLoggedOut = errors.New("gateway: logged out by gateway")
	// ErrTooManyAttempts is returned by Run when the attempt budget is spent.
	ErrTooManyAttempts = errors.New("gateway: exceeded max connection attempts")
)

// Handler consumes inbound message events. A panic inside the handler is
// contained to that one message; the connection and other sessions continue.
type Handler func(MessageEvent)

// Manager owns exactly one live gateway link. Other components reach the link
// only through Send.
type Manager struct {
	dialer  Dialer
	handler Handler
	logger  *slog.Logger
	delay   time.Duration

	mu       sync.Mutex
	state    State
	conn     Conn
	attempts int
}

// Option adjusts Manager construction.
type Option func(*Manager)

// WithReconnectDelay overrides the fixed reconnect delay.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) { m.delay = d }
}

// NewManager creates a Manager in StateInit.
func NewManager(dialer Dialer, handler Handler, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if dialer == nil {
		return nil, errors.New("gateway: dialer must not be nil")
	}
	if handler == nil {
		return nil, errors.New("gateway: handler must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		dialer:  dialer,
		handler: handler,
		logger:  logger,
		delay:   DefaultReconnectDelay,
		state:   StateInit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Send delivers text to a subscriber over the live link. While not connected
// it reports ErrNotConnected; it never panics into the caller.
func (m *Manager) Send(recipient, text string) error {
	m.mu.Lock()
	conn := m.conn
	state := m.state
	m.mu.Unlock()

	if state != StateConnected || conn == nil {
		return ErrNotConnected
	}
	if err := conn.Send(recipient, text); err != nil {
		m.logger.Warn("gateway send failed", "recipient", recipient, "err", err)
		return err
	}
	return nil
}

// Run drives the connection until ctx is canceled or the manager fails
// terminally (explicit logout, or the attempt budget is spent). It is safe to
// call Run again after a failed run; the attempt counter starts fresh.
func (m *Manager) Run(ctx context.Context) error {
	m.setState(StateInit)
	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.setState(StateAwaitingAuth)
		conn, err := m.dialer.Dial(ctx)
		if err != nil {
			m.logger.Warn("gateway dial failed", "err", err)
			if retryErr := m.scheduleRetry(ctx); retryErr != nil {
				return retryErr
			}
			continue
		}

		reason := m.serve(ctx, conn)
		_ = conn.Close()
		m.clearConn()

		if err := ctx.Err(); err != nil {
			return err
		}
		if reason == ReasonLoggedOut {
			m.setState(StateFailed)
			m.logger.Error("gateway logged out, not reconnecting")
			return ErrLoggedOut
		}

		m.logger.Warn("gateway disconnected", "reason", reason)
		if retryErr := m.scheduleRetry(ctx); retryErr != nil {
			return retryErr
		}
	}
}

// serve pumps events off one connection until it drops, returning the close
// reason.
func (m *Manager) serve(ctx context.Context, conn Conn) string {
	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				return "canceled"
			}
			return err.Error()
		}

		switch ev.Type {
		case EventAuthChallenge:
			exceeded := m.recordAuthChallenge()
			if exceeded {
				return "auth attempts exhausted"
			}
			m.logger.Info("gateway auth challenge received, scan to authenticate")
		case EventOpen:
			m.setConnected(conn)
			m.logger.Info("gateway connected")
		case EventMessage:
			m.dispatch(ev.Message)
		case EventClose:
			return ev.Reason
		default:
			m.logger.Debug("ignoring unknown gateway event", "type", string(ev.Type))
		}
	}
}

// dispatch hands one message to the handler, containing any panic to that
// message so a single bad interaction cannot take down the shared link.
func (m *Manager) dispatch(ev MessageEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("dropping message after processing panic",
				"sender", ev.Sender, "panic", r)
		}
	}()
	m.handler(ev)
}

func (m *Manager) recordAuthChallenge() (exceeded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	return m.attempts > MaxAuthAttempts
}

// scheduleRetry consumes one attempt and waits out the fixed delay. It returns
// a terminal error when the budget is spent or ctx ends.
func (m *Manager) scheduleRetry(ctx context.Context) error {
	m.mu.Lock()
	m.attempts++
	attempts := m.attempts
	m.mu.Unlock()

	if attempts > MaxAuthAttempts {
		m.setState(StateFailed)
		return ErrTooManyAttempts
	}

	m.setState(StateReconnecting)
	m.logger.Info("gateway reconnect scheduled", "attempt", attempts, "delay", m.delay)

	timer := time.NewTimer(m.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *Manager) setConnected(conn Conn) {
	m.mu.Lock()
	m.conn = conn
	m.state = StateConnected
	m.attempts = 0
	m.mu.Unlock()
}

func (m *Manager) clearConn() {
	m.mu.Lock()
	m.conn = nil
	m.mu.Unlock()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()
	if prev != s {
		m.logger.Info("gateway state changed", "from", string(prev), "to", string(s))
	}
}
