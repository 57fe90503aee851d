package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"prepbot/internal/domain"
	"prepbot/internal/repository"
	"prepbot/internal/webhook"
)

// SignatureVerifier authenticates a payment callback.
type SignatureVerifier interface {
	Verify(signatureHeader, requestID, resourceID string) (bool, error)
}

// ActivationWriter persists verified plan activations.
type ActivationWriter interface {
	RecordActivation(ctx context.Context, act domain.PlanActivation) error
}

// PaymentService guards and applies payment-provider callbacks. Verification
// always runs before any side effect; an unverifiable callback writes nothing.
type PaymentService struct {
	verifier SignatureVerifier
	writer   ActivationWriter
	logger   *slog.Logger
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(v SignatureVerifier, w ActivationWriter, logger *slog.Logger) (*PaymentService, error) {
	if v == nil {
		return nil, errors.New("usecase: verifier must not be nil")
	}
	if w == nil {
		return nil, errors.New("usecase: activation writer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{verifier: v, writer: w, logger: logger}, nil
}

// paymentBody is the provider's JSON callback body. The resource id may be a
// string or a number; absent means empty string in the signed manifest.
type paymentBody struct {
	Data struct {
		ID any `json:"id"`
	} `json:"data"`
}

// resourceIDFromBody extracts data.id as the string the provider signed.
func resourceIDFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var parsed paymentBody
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		// An undecodable body verifies with an empty resource id, which can
		// only fail as unauthenticated.
		return ""
	}
	switch v := parsed.Data.ID.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Process verifies one callback and records the activation. Failures come back
// as *Error so the ingress can map them onto HTTP statuses; the secret is
// never part of any message or log line.
func (s *PaymentService) Process(ctx context.Context, signatureHeader, requestID string, body []byte) error {
	resourceID := resourceIDFromBody(body)

	verified, err := s.verifier.Verify(signatureHeader, requestID, resourceID)
	if err != nil {
		if errors.Is(err, webhook.ErrSecretNotConfigured) {
			s.logger.Error("payment webhook rejected: shared secret not configured", "request_id", requestID)
			return newError(ErrorMisconfigured, "secret_not_configured", err)
		}
		return newError(ErrorInternal, "verification_error", err)
	}
	if !verified {
		s.logger.Warn("payment webhook rejected: invalid signature", "request_id", requestID)
		return newError(ErrorUnauthenticated, "invalid_signature", nil)
	}

	act := domain.PlanActivation{
		ID:         uuid.NewString(),
		ResourceID: resourceID,
		RequestID:  requestID,
		ReceivedAt: time.Now().UTC(),
	}
	if err := s.writer.RecordActivation(ctx, act); err != nil {
		if errors.Is(err, repository.ErrDuplicateActivation) {
			s.logger.Info("payment webhook replayed, activation already recorded", "request_id", requestID)
			return nil
		}
		return newError(ErrorInternal, "activation_write_error", err)
	}

	s.logger.Info("plan activation recorded", "request_id", requestID, "resource_id", resourceID)
	return nil
}
