package usecase

import (
	"errors"
	"log/slog"

	"prepbot/internal/conversation"
	"prepbot/internal/domain"
	"prepbot/internal/session"
)

// Engine orchestrates the session store and the conversation machine for one
// inbound message at a time. Processing is synchronous; per-subscriber
// serialization comes from the store's entry locking.
type Engine struct {
	store   *session.Store
	machine *conversation.Machine
	logger  *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(store *session.Store, machine *conversation.Machine, logger *slog.Logger) (*Engine, error) {
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if machine == nil {
		return nil, errors.New("usecase: machine must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, machine: machine, logger: logger}, nil
}

// HandleMessage applies one normalized inbound message and returns the reply.
// A session is only created once the subscriber sends a greeting trigger;
// before that, commands and free text are answered statelessly.
func (e *Engine) HandleMessage(msg domain.InboundMessage) domain.OutboundMessage {
	var reply string

	_, exists := e.store.Get(msg.Sender)
	if !exists && !e.machine.StartsOnboarding(msg.Body) {
		scratch := domain.Session{
			Subscriber:  msg.Sender,
			DisplayName: msg.DisplayName,
			Step:        domain.StepGreeting,
		}
		reply = e.machine.Handle(&scratch, msg.Body)
	} else {
		e.store.With(msg.Sender, func(sess *domain.Session, created bool) {
			if created {
				e.logger.Info("session created", "subscriber", msg.Sender)
			}
			if msg.DisplayName != "" {
				sess.DisplayName = msg.DisplayName
			}
			before := sess.Step
			reply = e.machine.Handle(sess, msg.Body)
			if sess.Step != before {
				e.logger.Info("session step changed",
					"subscriber", msg.Sender,
					"from", string(before), "to", string(sess.Step))
			}
		})
	}

	return domain.OutboundMessage{Recipient: msg.Sender, Text: reply}
}
