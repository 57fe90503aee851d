package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"prepbot/internal/domain"
	"prepbot/internal/repository"
	"prepbot/internal/webhook"
)

type mockVerifier struct {
	verified bool
	err      error

	gotSignature  string
	gotRequestID  string
	gotResourceID string
}

func (m *mockVerifier) Verify(signatureHeader, requestID, resourceID string) (bool, error) {
	m.gotSignature = signatureHeader
	m.gotRequestID = requestID
	m.gotResourceID = resourceID
	return m.verified, m.err
}

type mockWriter struct {
	err   error
	saved []domain.PlanActivation
}

func (m *mockWriter) RecordActivation(_ context.Context, act domain.PlanActivation) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, act)
	return nil
}

func TestProcessVerifiedCallback(t *testing.T) {
	verifier := &mockVerifier{verified: true}
	writer := &mockWriter{}
	svc, err := NewPaymentService(verifier, writer, slog.Default())
	require.NoError(t, err)

	err = svc.Process(context.Background(), "ts=1000,v1=abc", "req-1", []byte(`{"data":{"id":123}}`))

	require.NoError(t, err)
	require.Equal(t, "123", verifier.gotResourceID)
	require.Equal(t, "req-1", verifier.gotRequestID)
	require.Len(t, writer.saved, 1)
	require.Equal(t, "123", writer.saved[0].ResourceID)
	require.Equal(t, "req-1", writer.saved[0].RequestID)
	require.NotEmpty(t, writer.saved[0].ID)
}

func TestProcessStringResourceID(t *testing.T) {
	verifier := &mockVerifier{verified: true}
	writer := &mockWriter{}
	svc, err := NewPaymentService(verifier, writer, slog.Default())
	require.NoError(t, err)

	err = svc.Process(context.Background(), "sig", "req-1", []byte(`{"data":{"id":"pay_42"}}`))

	require.NoError(t, err)
	require.Equal(t, "pay_42", verifier.gotResourceID)
}

// An absent or unparsable body still goes through verification with an empty
// resource id; it never writes.
func TestProcessMissingResourceID(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "empty body", body: nil},
		{name: "no data", body: []byte(`{}`)},
		{name: "not json", body: []byte(`<xml/>`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &mockVerifier{verified: false}
			writer := &mockWriter{}
			svc, err := NewPaymentService(verifier, writer, slog.Default())
			require.NoError(t, err)

			err = svc.Process(context.Background(), "sig", "req-1", tt.body)

			var ucErr *Error
			require.ErrorAs(t, err, &ucErr)
			require.Equal(t, ErrorUnauthenticated, ucErr.Code)
			require.Equal(t, "", verifier.gotResourceID)
			require.Empty(t, writer.saved)
		})
	}
}

func TestProcessInvalidSignature(t *testing.T) {
	verifier := &mockVerifier{verified: false}
	writer := &mockWriter{}
	svc, err := NewPaymentService(verifier, writer, slog.Default())
	require.NoError(t, err)

	err = svc.Process(context.Background(), "ts=1,v1=bad", "req-1", []byte(`{"data":{"id":1}}`))

	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, ErrorUnauthenticated, ucErr.Code)
	require.Empty(t, writer.saved)
}

func TestProcessMisconfiguredSecret(t *testing.T) {
	verifier := &mockVerifier{err: webhook.ErrSecretNotConfigured}
	writer := &mockWriter{}
	svc, err := NewPaymentService(verifier, writer, slog.Default())
	require.NoError(t, err)

	err = svc.Process(context.Background(), "ts=1,v1=ok", "req-1", []byte(`{"data":{"id":1}}`))

	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, ErrorMisconfigured, ucErr.Code)
	require.Empty(t, writer.saved)
}

// A replayed request id is idempotent success, not an error.
func TestProcessDuplicateActivation(t *testing.T) {
	verifier := &mockVerifier{verified: true}
	writer := &mockWriter{err: repository.ErrDuplicateActivation}
	svc, err := NewPaymentService(verifier, writer, slog.Default())
	require.NoError(t, err)

	err = svc.Process(context.Background(), "sig", "req-1", []byte(`{"data":{"id":1}}`))

	require.NoError(t, err)
}

func TestProcessWriteFailure(t *testing.T) {
	verifier := &mockVerifier{verified: true}
	writer := &mockWriter{err: errors.New("dynamodb unavailable")}
	svc, err := NewPaymentService(verifier, writer, slog.Default())
	require.NoError(t, err)

	err = svc.Process(context.Background(), "sig", "req-1", []byte(`{"data":{"id":1}}`))

	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, ErrorInternal, ucErr.Code)
}
