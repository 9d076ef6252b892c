// Package identity adapts the external identity provider: it verifies the
// signed lifecycle webhooks and applies them to the usuarios table.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signature header names used by the identity provider
const (
	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

var (
	// ErrMissingHeaders reports that one of the three signature headers is absent
	ErrMissingHeaders = errors.New("missing webhook signature headers")
	// ErrInvalidSignature reports that no candidate signature matched
	ErrInvalidSignature = errors.New("webhook signature mismatch")
	// ErrTimestampSkew reports a timestamp outside the tolerated window
	ErrTimestampSkew = errors.New("webhook timestamp outside tolerance")
)

// Verifier checks webhook payload signatures. The provider signs
// "<id>.<timestamp>.<body>" with HMAC-SHA256 and sends one or more
// base64 signatures prefixed "v1," in the signature header.
type Verifier struct {
	secret  []byte
	maxSkew time.Duration
	now     func() time.Time
}

// NewVerifier creates a verifier from the shared secret. A "whsec_" prefix
// on the secret marks a base64-encoded key and is decoded; anything else is
// used as raw bytes.
func NewVerifier(secret string, maxSkew time.Duration) *Verifier {
	key := []byte(secret)
	if enc, ok := strings.CutPrefix(secret, "whsec_"); ok {
		if decoded, err := base64.StdEncoding.DecodeString(enc); err == nil {
			key = decoded
		}
	}
	return &Verifier{secret: key, maxSkew: maxSkew, now: time.Now}
}

// Verify checks the three signature headers against the raw body. All three
// headers are required; a missing one rejects the payload outright.
func (v *Verifier) Verify(id, timestamp, signatureHeader string, body []byte) error {
	if id == "" || timestamp == "" || signatureHeader == "" {
		return ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid webhook timestamp: %w", err)
	}
	sent := time.Unix(ts, 0)
	if d := v.now().Sub(sent); d > v.maxSkew || d < -v.maxSkew {
		return ErrTimestampSkew
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	// The header may carry several versioned signatures; any v1 match passes.
	for _, candidate := range strings.Fields(signatureHeader) {
		sig, ok := strings.CutPrefix(candidate, "v1,")
		if !ok {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}

	return ErrInvalidSignature
}
