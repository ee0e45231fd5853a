package load

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// DeliveredInRange returns loads that count toward a pay period: delivered or
// paid, with a delivery date inside [start, end].
func (s *Store) DeliveredInRange(ctx context.Context, driverID string, start, end time.Time) ([]Load, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, load_number, driver_id, gross_amount, final_miles, driver_rate, status, delivery_date
    FROM loads
    WHERE driver_id = $1
      AND status IN ($2, $3)
      AND delivery_date >= $4 AND delivery_date <= $5
    ORDER BY delivery_date
  `, driverID, StatusDelivered, StatusPaid, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loads []Load
	for rows.Next() {
		var l Load
		if err := rows.Scan(&l.ID, &l.LoadNumber, &l.DriverID, &l.GrossAmount, &l.FinalMiles, &l.DriverRate, &l.Status, &l.DeliveryDate); err != nil {
			return nil, err
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}

func (s *Store) FuelInRange(ctx context.Context, driverID string, start, end time.Time) ([]FuelTransaction, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, driver_id, amount, fees, transaction_date
    FROM fuel_transactions
    WHERE driver_id = $1
      AND transaction_date >= $2 AND transaction_date <= $3
    ORDER BY transaction_date
  `, driverID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fuel []FuelTransaction
	for rows.Next() {
		var f FuelTransaction
		if err := rows.Scan(&f.ID, &f.DriverID, &f.Amount, &f.Fees, &f.TransactionDate); err != nil {
			return nil, err
		}
		fuel = append(fuel, f)
	}
	return fuel, rows.Err()
}
