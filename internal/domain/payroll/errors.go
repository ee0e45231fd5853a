package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound  = errors.New("payroll record not found")
	ErrPaystubNotFound = errors.New("paystub not found")
	ErrRecordLocked    = errors.New("payroll record is locked")
	ErrRecordConflict  = errors.New("payroll record already exists for employee and week")
	ErrNotCalculated   = errors.New("payroll record has not been calculated")
	ErrNotProcessed    = errors.New("payroll record has not been processed")
	ErrNotDeletable    = errors.New("only draft or calculated payroll records can be deleted")
	ErrNotLocked       = errors.New("payroll record is not locked")
)

// CalculationError marks a data-quality problem that makes one employee's pay
// uncomputable, such as a flat-rate load missing its stored driver rate. The
// batch orchestrator reports these per employee instead of aborting.
type CalculationError struct {
	EmployeeID string
	LoadNumber string
	Reason     string
}

func (e *CalculationError) Error() string {
	if e.LoadNumber != "" {
		return fmt.Sprintf("payroll calculation failed for employee %s on load %s: %s", e.EmployeeID, e.LoadNumber, e.Reason)
	}
	return fmt.Sprintf("payroll calculation failed for employee %s: %s", e.EmployeeID, e.Reason)
}
