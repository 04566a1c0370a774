// Package attestation verifies signed worker quotes. A quote is a JSON
// document naming the measured build, signed with ed25519 by the enclave
// quoting key whose public half is the trust anchor.
package attestation

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orris-inc/autopay/internal/domain/worker"
)

// DefaultMaxQuoteAge bounds how old a quote may be when it is presented.
const DefaultMaxQuoteAge = 24 * time.Hour

// clockSkew tolerates quotes issued slightly ahead of the verifier clock.
const clockSkew = 5 * time.Minute

var (
	ErrInvalidTrustAnchor = errors.New("invalid trust anchor")
	ErrMalformedQuote     = errors.New("malformed quote")
	ErrBadSignature       = errors.New("quote signature does not verify")
	ErrQuoteExpired       = errors.New("quote is outside its validity window")
)

// Quote is the signed attestation document.
type Quote struct {
	Checksum  string `json:"checksum"`
	Codehash  string `json:"codehash"`
	IssuedAt  int64  `json:"issued_at"`
	Signature string `json:"signature"`
}

// payload is the byte string covered by the signature.
func (q *Quote) payload() []byte {
	return []byte(fmt.Sprintf("autopay-quote\n%s\n%s\n%d", q.Checksum, q.Codehash, q.IssuedAt))
}

var _ worker.AttestationVerifier = (*Ed25519Verifier)(nil)

// Ed25519Verifier checks quote signatures against a hex ed25519 trust anchor.
type Ed25519Verifier struct {
	maxAge time.Duration
}

func NewEd25519Verifier(maxAge time.Duration) *Ed25519Verifier {
	if maxAge <= 0 {
		maxAge = DefaultMaxQuoteAge
	}
	return &Ed25519Verifier{maxAge: maxAge}
}

func (v *Ed25519Verifier) Verify(_ context.Context, raw []byte, trustAnchor string, now time.Time) error {
	pub, err := ParsePublicKey(trustAnchor)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTrustAnchor, err)
	}

	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedQuote, err)
	}
	if q.Codehash == "" || q.Signature == "" {
		return fmt.Errorf("%w: codehash and signature are required", ErrMalformedQuote)
	}

	sig, err := hex.DecodeString(q.Signature)
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", ErrMalformedQuote)
	}
	if !ed25519.Verify(pub, q.payload(), sig) {
		return ErrBadSignature
	}

	issued := time.Unix(q.IssuedAt, 0)
	if issued.After(now.Add(clockSkew)) || now.Sub(issued) > v.maxAge {
		return fmt.Errorf("%w: issued at %s", ErrQuoteExpired, issued.UTC().Format(time.RFC3339))
	}
	return nil
}

// SignQuote produces a quote for checksum and codehash, used by agents
// running outside an enclave and by tests.
func SignQuote(priv ed25519.PrivateKey, checksum, codehash string, issuedAt time.Time) ([]byte, error) {
	q := Quote{
		Checksum: checksum,
		Codehash: codehash,
		IssuedAt: issuedAt.Unix(),
	}
	q.Signature = hex.EncodeToString(ed25519.Sign(priv, q.payload()))
	return json.Marshal(q)
}

// ParsePublicKey decodes a hex ed25519 public key with an optional
// "ed25519:" prefix.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "ed25519:")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("public key is not hex: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key size: %d", len(b))
	}
	return ed25519.PublicKey(b), nil
}

// FormatPublicKey is the inverse of ParsePublicKey.
func FormatPublicKey(pub ed25519.PublicKey) string {
	return "ed25519:" + hex.EncodeToString(pub)
}
