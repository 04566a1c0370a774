package valueobjects

import (
	"encoding/json"
	"fmt"
	"strings"
)

type PaymentMethodKind string

const (
	PaymentMethodNative        PaymentMethodKind = "native"
	PaymentMethodFungibleToken PaymentMethodKind = "fungible_token"
)

// PaymentMethod is either the native currency or a fungible token contract.
type PaymentMethod struct {
	kind    PaymentMethodKind
	tokenID string
}

func NativePayment() PaymentMethod {
	return PaymentMethod{kind: PaymentMethodNative}
}

func TokenPayment(tokenID string) (PaymentMethod, error) {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return PaymentMethod{}, fmt.Errorf("token id is required for fungible token payments")
	}
	return PaymentMethod{kind: PaymentMethodFungibleToken, tokenID: tokenID}, nil
}

// NewPaymentMethod builds a method from its persisted parts.
func NewPaymentMethod(kind, tokenID string) (PaymentMethod, error) {
	switch PaymentMethodKind(kind) {
	case PaymentMethodNative:
		return NativePayment(), nil
	case PaymentMethodFungibleToken:
		return TokenPayment(tokenID)
	default:
		return PaymentMethod{}, fmt.Errorf("invalid payment method: %s", kind)
	}
}

func (p PaymentMethod) Kind() PaymentMethodKind {
	return p.kind
}

// TokenID is empty for native payments.
func (p PaymentMethod) TokenID() string {
	return p.tokenID
}

// IsZero reports an unset method.
func (p PaymentMethod) IsZero() bool {
	return p.kind == ""
}

func (p PaymentMethod) IsToken() bool {
	return p.kind == PaymentMethodFungibleToken
}

func (p PaymentMethod) String() string {
	if p.IsToken() {
		return fmt.Sprintf("%s(%s)", p.kind, p.tokenID)
	}
	return string(p.kind)
}

type paymentMethodJSON struct {
	Type    PaymentMethodKind `json:"type"`
	TokenID string            `json:"token_id,omitempty"`
}

// MarshalJSON encodes an unset method as null.
func (p PaymentMethod) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(paymentMethodJSON{Type: p.kind, TokenID: p.tokenID})
}

func (p *PaymentMethod) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw paymentMethodJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewPaymentMethod(string(raw.Type), raw.TokenID)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
