package server

import (
	"encoding/xml"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"prepbot/internal/dispatch"
	"prepbot/internal/domain"
	"prepbot/internal/usecase"
)

// Engine handles one normalized inbound message.
type Engine interface {
	HandleMessage(msg domain.InboundMessage) domain.OutboundMessage
}

// twiml is the reply envelope for the onboarding message webhook. An empty
// Message elides the element entirely, which is the malformed-input ack.
type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// Server is the webhook HTTP ingress.
type Server struct {
	engine     Engine
	payments   *usecase.PaymentService
	normalizer *dispatch.Normalizer
	logger     *slog.Logger
	router     *gin.Engine
}

// New creates the ingress over the given collaborators.
func New(engine Engine, payments *usecase.PaymentService, normalizer *dispatch.Normalizer, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("server: engine must not be nil")
	}
	if payments == nil {
		return nil, errors.New("server: payment service must not be nil")
	}
	if normalizer == nil {
		return nil, errors.New("server: normalizer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:     engine,
		payments:   payments,
		normalizer: normalizer,
		logger:     logger,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/up", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.POST("/webhooks/message", s.handleMessageWebhook)
	r.POST("/webhooks/payment", s.handlePaymentWebhook)
	s.router = r

	return s, nil
}

// Handler exposes the ingress as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleMessageWebhook always acks with 200 and a reply envelope, even for
// malformed input, so the upstream never retries.
func (s *Server) handleMessageWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		s.logger.Warn("message webhook: unparsable form", "err", err)
		c.XML(http.StatusOK, twiml{})
		return
	}

	msg, err := s.normalizer.FromForm(c.Request.PostForm)
	if err != nil {
		s.logger.Warn("message webhook: dropping malformed payload")
		c.XML(http.StatusOK, twiml{})
		return
	}

	out := s.engine.HandleMessage(msg)
	c.XML(http.StatusOK, twiml{Message: out.Text})
}

func (s *Server) handlePaymentWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.logger.Warn("payment webhook: unreadable body", "err", err)
		body = nil
	}

	sig := c.GetHeader("x-signature")
	requestID := c.GetHeader("x-request-id")

	if err := s.payments.Process(c.Request.Context(), sig, requestID, body); err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) {
			switch ucErr.Code {
			case usecase.ErrorMisconfigured:
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "secret not configured"})
				return
			case usecase.ErrorUnauthenticated:
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid signature"})
				return
			}
		}
		s.logger.Error("payment webhook: processing failed", "request_id", requestID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
