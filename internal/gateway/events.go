package gateway

import "context"

// EventType discriminates the events a gateway connection can produce.
type EventType string

const (
	// EventAuthChallenge carries an out-of-band authentication challenge (a QR
	// payload to be scanned) raised while the link is awaiting auth.
	EventAuthChallenge EventType = "qr"
	// EventOpen signals the link is authenticated and ready to carry messages.
	EventOpen EventType = "open"
	// EventClose signals the gateway dropped the link, with a reason.
	EventClose EventType = "close"
	// EventMessage carries one inbound subscriber message.
	EventMessage EventType = "message"
)

// MessageEvent is the raw inbound message shape as delivered by the gateway.
type MessageEvent struct {
	Sender      string
	DisplayName string
	Body        string
}

// Event is one connection lifecycle or message event.
type Event struct {
	Type    EventType
	QR      string
	Reason  string
	Message MessageEvent
}

// Conn is a single live link to the messaging gateway.
type Conn interface {
	// ReadEvent blocks until the next event or a transport failure.
	ReadEvent() (Event, error)
	Send(recipient, text string) error
	Close() error
}

// Dialer establishes gateway connections. The Manager owns the resulting Conn
// exclusively.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}
