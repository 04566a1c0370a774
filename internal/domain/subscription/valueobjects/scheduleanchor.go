package valueobjects

import "fmt"

// ScheduleAnchor selects the timestamp the next due date is computed from
// after a successful payment.
type ScheduleAnchor string

const (
	// AnchorProcessingTime adds the interval to the moment the payment was
	// processed. Late processing shifts every later due date.
	AnchorProcessingTime ScheduleAnchor = "processing_time"
	// AnchorPreviousDueDate adds the interval to the due date that was just
	// paid, keeping the schedule fixed to the creation time.
	AnchorPreviousDueDate ScheduleAnchor = "previous_due_date"
)

func ParseScheduleAnchor(value string) (ScheduleAnchor, error) {
	switch ScheduleAnchor(value) {
	case "", AnchorProcessingTime:
		return AnchorProcessingTime, nil
	case AnchorPreviousDueDate:
		return AnchorPreviousDueDate, nil
	default:
		return "", fmt.Errorf("invalid schedule anchor: %s", value)
	}
}
