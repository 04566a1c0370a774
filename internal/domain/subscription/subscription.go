package subscription

import (
	"fmt"
	"strings"

	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
)

// Subscription is the aggregate root of the ledger: the payment terms agreed
// between a payer and a merchant plus the billing lifecycle state.
type Subscription struct {
	id              string
	userID          string
	merchantID      string
	amount          vo.Amount
	frequency       vo.Frequency
	paymentMethod   vo.PaymentMethod
	maxPayments     *uint32
	endDate         *int64
	status          vo.SubscriptionStatus
	nextPaymentDate int64
	paymentsMade    uint32
	createdAt       int64
	updatedAt       int64
}

// NewSubscriptionParams are the terms supplied when a payer subscribes.
type NewSubscriptionParams struct {
	ID            string
	UserID        string
	MerchantID    string
	Amount        vo.Amount
	Frequency     vo.Frequency
	PaymentMethod vo.PaymentMethod
	MaxPayments   *uint32
	EndDate       *int64
	Now           int64
}

// NewSubscription creates an active subscription whose first payment falls
// due one interval after creation.
func NewSubscription(p NewSubscriptionParams) (*Subscription, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if strings.TrimSpace(p.MerchantID) == "" {
		return nil, fmt.Errorf("merchant ID is required")
	}
	if p.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidTerms)
	}
	if !p.Frequency.IsValid() {
		return nil, fmt.Errorf("%w: invalid frequency %q", ErrInvalidTerms, p.Frequency)
	}
	if p.PaymentMethod.Kind() == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidTerms)
	}
	if p.MaxPayments != nil && *p.MaxPayments == 0 {
		return nil, fmt.Errorf("%w: max payments must be greater than zero", ErrInvalidTerms)
	}
	if p.EndDate != nil && *p.EndDate <= p.Now {
		return nil, fmt.Errorf("%w: end date must be in the future", ErrInvalidTerms)
	}

	return &Subscription{
		id:              p.ID,
		userID:          p.UserID,
		merchantID:      p.MerchantID,
		amount:          p.Amount,
		frequency:       p.Frequency,
		paymentMethod:   p.PaymentMethod,
		maxPayments:     p.MaxPayments,
		endDate:         p.EndDate,
		status:          vo.StatusActive,
		nextPaymentDate: p.Now + p.Frequency.IntervalSeconds(),
		paymentsMade:    0,
		createdAt:       p.Now,
		updatedAt:       p.Now,
	}, nil
}

// ReconstructParams carries every persisted field.
type ReconstructParams struct {
	ID              string
	UserID          string
	MerchantID      string
	Amount          vo.Amount
	Frequency       vo.Frequency
	PaymentMethod   vo.PaymentMethod
	MaxPayments     *uint32
	EndDate         *int64
	Status          vo.SubscriptionStatus
	NextPaymentDate int64
	PaymentsMade    uint32
	CreatedAt       int64
	UpdatedAt       int64
}

// ReconstructSubscription reconstructs a subscription from persistence
func ReconstructSubscription(p ReconstructParams) (*Subscription, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !vo.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}
	if !p.Frequency.IsValid() {
		return nil, fmt.Errorf("invalid frequency: %s", p.Frequency)
	}

	return &Subscription{
		id:              p.ID,
		userID:          p.UserID,
		merchantID:      p.MerchantID,
		amount:          p.Amount,
		frequency:       p.Frequency,
		paymentMethod:   p.PaymentMethod,
		maxPayments:     p.MaxPayments,
		endDate:         p.EndDate,
		status:          p.Status,
		nextPaymentDate: p.NextPaymentDate,
		paymentsMade:    p.PaymentsMade,
		createdAt:       p.CreatedAt,
		updatedAt:       p.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() string {
	return s.id
}

// UserID is the payer.
func (s *Subscription) UserID() string {
	return s.userID
}

// MerchantID is the payee.
func (s *Subscription) MerchantID() string {
	return s.merchantID
}

func (s *Subscription) Amount() vo.Amount {
	return s.amount
}

func (s *Subscription) Frequency() vo.Frequency {
	return s.frequency
}

func (s *Subscription) PaymentMethod() vo.PaymentMethod {
	return s.paymentMethod
}

// MaxPayments is nil when the subscription has no payment cap.
func (s *Subscription) MaxPayments() *uint32 {
	return s.maxPayments
}

// EndDate is nil when the subscription has no cutoff.
func (s *Subscription) EndDate() *int64 {
	return s.endDate
}

func (s *Subscription) Status() vo.SubscriptionStatus {
	return s.status
}

func (s *Subscription) NextPaymentDate() int64 {
	return s.nextPaymentDate
}

func (s *Subscription) PaymentsMade() uint32 {
	return s.paymentsMade
}

func (s *Subscription) CreatedAt() int64 {
	return s.createdAt
}

func (s *Subscription) UpdatedAt() int64 {
	return s.updatedAt
}

// IsOwnedBy reports whether principal is the payer.
func (s *Subscription) IsOwnedBy(principal string) bool {
	return s.userID == principal
}

func (s *Subscription) IsActive() bool {
	return s.status == vo.StatusActive
}

// IsDue reports whether an active subscription has reached its payment date.
func (s *Subscription) IsDue(now int64) bool {
	return s.IsActive() && s.nextPaymentDate <= now
}

// LimitReached reports whether the payment cap has been used up.
func (s *Subscription) LimitReached() bool {
	return s.maxPayments != nil && s.paymentsMade >= *s.maxPayments
}

// EndDateReached reports whether the cutoff has passed at now.
func (s *Subscription) EndDateReached(now int64) bool {
	return s.endDate != nil && now >= *s.endDate
}

// Pause suspends billing. Only an active subscription can be paused.
func (s *Subscription) Pause(now int64) error {
	if !s.status.CanTransitionTo(vo.StatusPaused) {
		return ErrInvalidTransition(s.status, vo.StatusPaused)
	}
	s.status = vo.StatusPaused
	s.updatedAt = now
	return nil
}

// Resume reactivates a paused subscription. The due date is left untouched,
// so a subscription paused past its due date is due immediately.
func (s *Subscription) Resume(now int64) error {
	if s.status != vo.StatusPaused {
		return ErrNotPaused
	}
	s.status = vo.StatusActive
	s.updatedAt = now
	return nil
}

// Cancel ends the subscription permanently.
func (s *Subscription) Cancel(now int64) error {
	if !s.status.CanTransitionTo(vo.StatusCanceled) {
		return ErrInvalidTransition(s.status, vo.StatusCanceled)
	}
	s.status = vo.StatusCanceled
	s.updatedAt = now
	return nil
}

// Exhaust cancels a subscription whose cap or end date was observed during
// payment processing.
func (s *Subscription) Exhaust(now int64) {
	s.status = vo.StatusCanceled
	s.updatedAt = now
}

// RecordPayment advances the schedule after a transfer was dispatched. When
// the cap is reached by this payment the subscription is canceled in the
// same step.
func (s *Subscription) RecordPayment(now int64, anchor vo.ScheduleAnchor) error {
	if !s.IsDue(now) {
		return fmt.Errorf("%w: cannot record payment for %s", ErrNotDue, s.id)
	}

	base := now
	if anchor == vo.AnchorPreviousDueDate {
		base = s.nextPaymentDate
	}

	s.paymentsMade++
	s.nextPaymentDate = base + s.frequency.IntervalSeconds()
	s.updatedAt = now

	if s.LimitReached() {
		s.status = vo.StatusCanceled
	}
	return nil
}
