package domain

// Channel identifies the ingress path an inbound message arrived on.
type Channel string

const (
	ChannelGateway Channel = "gateway"
	ChannelWebhook Channel = "webhook"
)

// InboundMessage is the canonical normalized form of a raw gateway event or
// webhook form body. Sender is the gateway-assigned address of the subscriber.
type InboundMessage struct {
	Sender      string
	DisplayName string
	Body        string
	Channel     Channel
}

// OutboundMessage is a reply addressed to a single subscriber.
type OutboundMessage struct {
	Recipient string
	Text      string
}
