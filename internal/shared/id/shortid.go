package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

const (
	PrefixEvent    = "evt"
	PrefixTransfer = "trf"
)

// Generate creates a random short ID with the specified length using Base62 encoding.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// MustGenerateWithPrefix creates a "prefix_randomstring" ID and panics on error.
func MustGenerateWithPrefix(prefix string) string {
	id, err := Generate(DefaultLength)
	if err != nil {
		panic(err)
	}
	return prefix + "_" + id
}

// NewEventID returns an identifier for a published domain event.
func NewEventID() string {
	return MustGenerateWithPrefix(PrefixEvent)
}

// NewTransferID returns an identifier for a dispatched transfer instruction.
func NewTransferID() string {
	return MustGenerateWithPrefix(PrefixTransfer)
}

// FormatSubscriptionID builds "sub-<payer>-<unix seconds>-<sequence>".
// The sequence is a store-wide counter, so two subscriptions created by the
// same payer within one second still get distinct ids.
func FormatSubscriptionID(payer string, createdAt int64, sequence uint64) string {
	return fmt.Sprintf("sub-%s-%d-%d", payer, createdAt, sequence)
}

// SubscriptionPayer extracts the payer segment from a subscription id. Payers
// may themselves contain dashes, so the two numeric tail segments are cut off.
func SubscriptionPayer(subscriptionID string) (string, error) {
	rest, ok := strings.CutPrefix(subscriptionID, "sub-")
	if !ok {
		return "", fmt.Errorf("invalid subscription ID format: %s", subscriptionID)
	}
	for i := 0; i < 2; i++ {
		idx := strings.LastIndexByte(rest, '-')
		if idx <= 0 {
			return "", fmt.Errorf("invalid subscription ID format: %s", subscriptionID)
		}
		rest = rest[:idx]
	}
	return rest, nil
}
