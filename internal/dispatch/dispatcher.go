package dispatch

import (
	"errors"
	"net/url"
	"strings"

	"prepbot/internal/domain"
	"prepbot/internal/gateway"
)

// ErrMalformed marks a payload missing its sender or body. Callers must still
// acknowledge receipt (HTTP 200 / gateway ack) so the upstream does not retry;
// dropping the payload is the whole recovery.
var ErrMalformed = errors.New("dispatch: malformed inbound payload")

// Normalizer converts heterogeneous raw payloads into canonical inbound
// messages. It is stateless.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// FromGateway normalizes a gateway message event.
func (n *Normalizer) FromGateway(ev gateway.MessageEvent) (domain.InboundMessage, error) {
	sender := strings.TrimSpace(ev.Sender)
	body := strings.TrimSpace(ev.Body)
	if sender == "" || body == "" {
		return domain.InboundMessage{}, ErrMalformed
	}
	return domain.InboundMessage{
		Sender:      sender,
		DisplayName: strings.TrimSpace(ev.DisplayName),
		Body:        body,
		Channel:     domain.ChannelGateway,
	}, nil
}

// FromForm normalizes a webhook form body (fields From, Body, ProfileName).
func (n *Normalizer) FromForm(form url.Values) (domain.InboundMessage, error) {
	sender := strings.TrimSpace(form.Get("From"))
	body := strings.TrimSpace(form.Get("Body"))
	if sender == "" || body == "" {
		return domain.InboundMessage{}, ErrMalformed
	}
	return domain.InboundMessage{
		Sender:      sender,
		DisplayName: strings.TrimSpace(form.Get("ProfileName")),
		Body:        body,
		Channel:     domain.ChannelWebhook,
	}, nil
}
