package valueobjects

import "fmt"

type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusPaused   SubscriptionStatus = "paused"
	StatusCanceled SubscriptionStatus = "canceled"
	// StatusFailed is reserved; no operation transitions into it.
	StatusFailed SubscriptionStatus = "failed"
)

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusActive:   true,
	StatusPaused:   true,
	StatusCanceled: true,
	StatusFailed:   true,
}

var statusTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	StatusActive:   {StatusPaused, StatusCanceled},
	StatusPaused:   {StatusActive, StatusCanceled},
	StatusCanceled: {},
	StatusFailed:   {},
}

func ParseStatus(value string) (SubscriptionStatus, error) {
	s := SubscriptionStatus(value)
	if !ValidStatuses[s] {
		return "", fmt.Errorf("invalid subscription status: %s", value)
	}
	return s, nil
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

// Display renders the status the way payment rejections report it.
func (s SubscriptionStatus) Display() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusPaused:
		return "Paused"
	case StatusCanceled:
		return "Canceled"
	case StatusFailed:
		return "Failed"
	default:
		return string(s)
	}
}

func (s SubscriptionStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
