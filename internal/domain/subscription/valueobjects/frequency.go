package valueobjects

import (
	"fmt"
	"strings"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// FrequencyIntervals are fixed lengths in seconds; months and years are not calendar aware.
var FrequencyIntervals = map[Frequency]int64{
	FrequencyDaily:     86_400,
	FrequencyWeekly:    604_800,
	FrequencyMonthly:   2_592_000,
	FrequencyQuarterly: 7_776_000,
	FrequencyYearly:    31_536_000,
}

func ParseFrequency(value string) (Frequency, error) {
	normalized := Frequency(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", fmt.Errorf("frequency cannot be empty")
	}
	if _, ok := FrequencyIntervals[normalized]; !ok {
		return "", fmt.Errorf("invalid frequency: %s", value)
	}
	return normalized, nil
}

func (f Frequency) String() string {
	return string(f)
}

func (f Frequency) IsValid() bool {
	_, ok := FrequencyIntervals[f]
	return ok
}

// IntervalSeconds returns the billing interval, or 0 for an unknown frequency.
func (f Frequency) IntervalSeconds() int64 {
	return FrequencyIntervals[f]
}
