package driver

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type PayMethod string

const (
	MethodPercentage PayMethod = "PERCENTAGE"
	MethodPayPerMile PayMethod = "PAY_PER_MILE"
	MethodFlatRate   PayMethod = "FLAT_RATE"
)

func (m PayMethod) Valid() bool {
	switch m {
	case MethodPercentage, MethodPayPerMile, MethodFlatRate:
		return true
	}
	return false
}

// PaymentConfig is versioned: each row carries an effective interval and at
// most one row per employee is open (EndDate nil). The row whose interval
// contains a period's reference date is authoritative for that period.
type PaymentConfig struct {
	ID                string          `json:"id"`
	EmployeeID        string          `json:"employeeId"`
	Method            PayMethod       `json:"method"`
	DriverPercent     decimal.Decimal `json:"driverPercent"`
	CompanyPercent    decimal.Decimal `json:"companyPercent"`
	ServiceFeePercent decimal.Decimal `json:"serviceFeePercent"`
	PayPerMileRate    decimal.Decimal `json:"payPerMileRate"`
	EffectiveDate     time.Time       `json:"effectiveDate"`
	EndDate           *time.Time      `json:"endDate,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// Covers reports whether the config's interval contains the reference date.
// The interval is [EffectiveDate, EndDate); an open config covers everything
// from its effective date onward.
func (c PaymentConfig) Covers(ref time.Time) bool {
	if ref.Before(c.EffectiveDate) {
		return false
	}
	if c.EndDate == nil {
		return true
	}
	return ref.Before(*c.EndDate)
}
