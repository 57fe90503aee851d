package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/websocket"
)

// wsFrame is the JSON envelope exchanged with the gateway over the websocket.
type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsAuthChallengePayload struct {
	Code string `json:"code"`
}

type wsClosePayload struct {
	Reason string `json:"reason"`
}

type wsMessagePayload struct {
	Sender      string `json:"sender"`
	DisplayName string `json:"display_name"`
	Body        string `json:"body"`
}

type wsSendPayload struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// WSDialer connects to the messaging gateway's websocket endpoint.
type WSDialer struct {
	URL    string
	Origin string
	Token  string
}

// NewWSDialer creates a dialer for the given websocket URL. Origin defaults to
// the http scheme of the target host.
func NewWSDialer(url, origin, token string) (*WSDialer, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("gateway: websocket url must not be empty")
	}
	if origin == "" {
		origin = "http://localhost/"
	}
	return &WSDialer{URL: url, Origin: origin, Token: token}, nil
}

// Dial opens the websocket and wraps it as a Conn.
func (d *WSDialer) Dial(ctx context.Context) (Conn, error) {
	cfg, err := websocket.NewConfig(d.URL, d.Origin)
	if err != nil {
		return nil, fmt.Errorf("gateway: websocket config: %w", err)
	}
	if d.Token != "" {
		cfg.Header.Set("Authorization", "Bearer "+d.Token)
	}

	type dialResult struct {
		ws  *websocket.Conn
		err error
	}
	done := make(chan dialResult, 1)
	go func() {
		ws, err := websocket.DialConfig(cfg)
		done <- dialResult{ws: ws, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.ws != nil {
				_ = r.ws.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("gateway: websocket dial: %w", r.err)
		}
		return &wsConn{ws: r.ws, dec: json.NewDecoder(r.ws), enc: json.NewEncoder(r.ws)}, nil
	}
}

// wsConn adapts a websocket connection to the Conn interface.
type wsConn struct {
	ws  *websocket.Conn
	dec *json.Decoder
	enc *json.Encoder
}

// ReadEvent decodes frames until one maps to a known event. Frames with an
// unknown type are skipped rather than torn down as errors.
func (c *wsConn) ReadEvent() (Event, error) {
	for {
		var frame wsFrame
		if err := c.dec.Decode(&frame); err != nil {
			return Event{}, fmt.Errorf("gateway: read frame: %w", err)
		}

		switch frame.Type {
		case string(EventAuthChallenge):
			var p wsAuthChallengePayload
			_ = json.Unmarshal(frame.Payload, &p)
			return Event{Type: EventAuthChallenge, QR: p.Code}, nil
		case string(EventOpen):
			return Event{Type: EventOpen}, nil
		case string(EventClose):
			var p wsClosePayload
			_ = json.Unmarshal(frame.Payload, &p)
			return Event{Type: EventClose, Reason: p.Reason}, nil
		case string(EventMessage):
			var p wsMessagePayload
			if err := json.Unmarshal(frame.Payload, &p); err != nil {
				return Event{}, fmt.Errorf("gateway: decode message payload: %w", err)
			}
			return Event{Type: EventMessage, Message: MessageEvent{
				Sender:      p.Sender,
				DisplayName: p.DisplayName,
				Body:        p.Body,
			}}, nil
		default:
			continue
		}
	}
}

// Send writes one outbound message frame.
func (c *wsConn) Send(recipient, text string) error {
	payload, err := json.Marshal(wsSendPayload{Recipient: recipient, Text: text})
	if err != nil {
		return fmt.Errorf("gateway: encode send payload: %w", err)
	}
	if err := c.enc.Encode(wsFrame{Type: "send", Payload: payload}); err != nil {
		return fmt.Errorf("gateway: write frame: %w", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}
