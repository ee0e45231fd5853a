package recurring

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FrequencyWeekly   = "WEEKLY"
	FrequencyBiweekly = "BIWEEKLY"
)

// Deduction is a fixed periodic fee independent of load activity, e.g. an
// ELD tracking fee or trailer rental.
type Deduction struct {
	ID        string          `json:"id"`
	DriverID  string          `json:"driverId"`
	Type      string          `json:"recurringType"`
	Amount    decimal.Decimal `json:"amount"`
	WeekStart time.Time       `json:"weekStart"`
	Frequency string          `json:"frequency"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
}
