package agent

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Keyring holds the delegated private keys a worker was handed, one per
// subscription.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string]ed25519.PrivateKey
}

func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string]ed25519.PrivateKey)}
}

// LoadKeyring reads a JSON object mapping subscription ids to hex keys. A
// key is either a 32-byte seed or a 64-byte private key, optionally
// prefixed with "ed25519:".
func LoadKeyring(path string) (*Keyring, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyring: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keyring: %w", err)
	}

	kr := NewKeyring()
	for subscriptionID, encoded := range raw {
		key, err := ParsePrivateKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("keyring entry %s: %w", subscriptionID, err)
		}
		kr.Add(subscriptionID, key)
	}
	return kr, nil
}

// ParsePrivateKey decodes a hex ed25519 seed or private key.
func ParsePrivateKey(encoded string) (ed25519.PrivateKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(encoded), "ed25519:"))
	if err != nil {
		return nil, fmt.Errorf("key is not hex: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

func (k *Keyring) Add(subscriptionID string, key ed25519.PrivateKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[subscriptionID] = key
}

// Key returns the delegated key for subscriptionID, if the worker holds one.
func (k *Keyring) Key(subscriptionID string) (ed25519.PrivateKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[subscriptionID]
	return key, ok
}

// Subscriptions lists the subscription ids in the keyring, sorted.
func (k *Keyring) Subscriptions() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	ids := make([]string, 0, len(k.keys))
	for id := range k.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
