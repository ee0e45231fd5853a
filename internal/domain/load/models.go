package load

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusDelivered = "DELIVERED"
	StatusPaid      = "PAID"
)

// Load is read-only to the payroll engine; dispatch owns its lifecycle.
type Load struct {
	ID           string           `json:"id"`
	LoadNumber   string           `json:"loadNumber"`
	DriverID     string           `json:"driverId"`
	GrossAmount  decimal.Decimal  `json:"grossAmount"`
	FinalMiles   decimal.Decimal  `json:"finalMiles"`
	DriverRate   *decimal.Decimal `json:"driverRate,omitempty"`
	Status       string           `json:"status"`
	DeliveryDate time.Time        `json:"deliveryDate"`
}

type FuelTransaction struct {
	ID              string          `json:"id"`
	DriverID        string          `json:"driverId"`
	Amount          decimal.Decimal `json:"amount"`
	Fees            decimal.Decimal `json:"fees"`
	TransactionDate time.Time       `json:"transactionDate"`
}
