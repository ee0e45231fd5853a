// Package payroll turns a driver's weekly activity into a single auditable
// net-pay record and owns that record's lifecycle through payment.
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusDraft      = "DRAFT"
	StatusCalculated = "CALCULATED"
	StatusReviewed   = "REVIEWED"
	StatusProcessed  = "PROCESSED"
	StatusPaid       = "PAID"
)

// Record is the computed unit of work for one employee and pay week. At most
// one record exists per (EmployeeID, WeekStart); that pair is a uniqueness
// constraint in the store. Monetary fields are rounded to 2 decimals when the
// record is persisted, never during calculation.
type Record struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	WeekStart  time.Time `json:"weekStartDate"`
	WeekEnd    time.Time `json:"weekEndDate"`
	Status     string    `json:"status"`
	IsLocked   bool      `json:"isLocked"`

	TotalLoads   int             `json:"totalLoads"`
	TotalMiles   decimal.Decimal `json:"totalMiles"`
	GrossRevenue decimal.Decimal `json:"grossRevenue"`
	ServiceFee   decimal.Decimal `json:"serviceFee"`

	BasePay        decimal.Decimal `json:"basePay"`
	BonusAmount    decimal.Decimal `json:"bonusAmount"`
	Overtime       decimal.Decimal `json:"overtime"`
	Reimbursements decimal.Decimal `json:"reimbursements"`
	OtherEarnings  decimal.Decimal `json:"otherEarnings"`

	FuelDeductions    decimal.Decimal `json:"fuelDeductions"`
	AdvanceRepayments decimal.Decimal `json:"advanceRepayments"`
	RecurringFees     decimal.Decimal `json:"recurringFees"`
	EscrowDeposits    decimal.Decimal `json:"escrowDeposits"`
	OtherDeductions   decimal.Decimal `json:"otherDeductions"`

	GrossPay        decimal.Decimal `json:"grossPay"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	// NetPay may be negative; overdrawn drivers must be visible to reviewers.
	// Flooring at zero is a disbursement concern, not a calculation one.
	NetPay decimal.Decimal `json:"netPay"`

	// EscrowSuggestion is advisory only. It never reduces NetPay; deposits
	// count only once a transaction is posted or a manual override exists.
	EscrowSuggestion decimal.Decimal `json:"escrowSuggestion"`

	LoadIDs []string `json:"loadIds,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rounded returns a copy with every monetary field rounded to 2 decimals.
// Called once, at the persistence boundary.
func (r Record) Rounded() Record {
	r.TotalMiles = r.TotalMiles.Round(2)
	r.GrossRevenue = r.GrossRevenue.Round(2)
	r.ServiceFee = r.ServiceFee.Round(2)
	r.BasePay = r.BasePay.Round(2)
	r.BonusAmount = r.BonusAmount.Round(2)
	r.Overtime = r.Overtime.Round(2)
	r.Reimbursements = r.Reimbursements.Round(2)
	r.OtherEarnings = r.OtherEarnings.Round(2)
	r.FuelDeductions = r.FuelDeductions.Round(2)
	r.AdvanceRepayments = r.AdvanceRepayments.Round(2)
	r.RecurringFees = r.RecurringFees.Round(2)
	r.EscrowDeposits = r.EscrowDeposits.Round(2)
	r.OtherDeductions = r.OtherDeductions.Round(2)
	r.GrossPay = r.GrossPay.Round(2)
	r.TotalDeductions = r.TotalDeductions.Round(2)
	r.NetPay = r.NetPay.Round(2)
	r.EscrowSuggestion = r.EscrowSuggestion.Round(2)
	return r
}

// Mutable reports whether the record may still be recalculated or deleted.
func (r Record) Mutable() bool {
	return !r.IsLocked && (r.Status == StatusDraft || r.Status == StatusCalculated)
}

// Paystub is the snapshot taken when a record is processed. Later
// recalculation never rewrites an issued paystub; regeneration is explicit.
type Paystub struct {
	ID              string          `json:"id"`
	RecordID        string          `json:"payrollRecordId"`
	EmployeeID      string          `json:"employeeId"`
	EmployeeName    string          `json:"employeeName"`
	WeekStart       time.Time       `json:"weekStartDate"`
	WeekEnd         time.Time       `json:"weekEndDate"`
	GrossPay        decimal.Decimal `json:"grossPay"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetPay          decimal.Decimal `json:"netPay"`
	PDFPath         string          `json:"pdfPath,omitempty"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}
