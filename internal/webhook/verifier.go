package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrSecretNotConfigured distinguishes a missing shared secret (operator
// misconfiguration, surfaced as a server error) from an invalid signature.
// Verification must fail closed in this case, never be skipped.
var ErrSecretNotConfigured = errors.New("webhook: shared secret not configured")

// Verifier authenticates payment-provider callbacks by recomputing the
// HMAC-SHA256 of the canonical manifest.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier. An empty secret is allowed at construction
// so the misconfiguration surfaces per request as ErrSecretNotConfigured.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks a composite signature header of the form "ts=<unix>,v1=<hex>"
// against the manifest built from the resource id, request id and timestamp.
// A malformed header is simply not verified; it is never an error.
func (v *Verifier) Verify(signatureHeader, requestID, resourceID string) (bool, error) {
	if len(v.secret) == 0 {
		return false, ErrSecretNotConfigured
	}

	ts, digest, ok := parseSignatureHeader(signatureHeader)
	if !ok {
		return false, nil
	}

	manifest := Manifest(resourceID, requestID, ts)
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(manifest))
	expected := mac.Sum(nil)

	received, err := hex.DecodeString(digest)
	if err != nil {
		return false, nil
	}
	return hmac.Equal(expected, received), nil
}

// Manifest builds the canonical signed string for a callback.
func Manifest(resourceID, requestID, ts string) string {
	return fmt.Sprintf("id:%s;request-id:%s;ts:%s;", resourceID, requestID, ts)
}

// parseSignatureHeader extracts the ts and v1 components. Both must be present.
func parseSignatureHeader(header string) (ts, digest string, ok bool) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			digest = value
		}
	}
	if ts == "" || digest == "" {
		return "", "", false
	}
	return ts, digest, true
}
