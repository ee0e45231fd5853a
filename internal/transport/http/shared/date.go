package shared

import "time"

const dayFormat = "2006-01-02"

// ParseDate reads an API date: a bare calendar day, or an RFC3339 timestamp
// reduced to its UTC day. Week arithmetic downstream assumes midnight-aligned
// dates, so the time-of-day component is always dropped.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if day, err := time.Parse(dayFormat, value); err == nil {
		return day, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	year, month, day := ts.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}
