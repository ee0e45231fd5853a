package escrow

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) AccountForEmployee(ctx context.Context, employeeID string) (Account, error) {
	var acct Account
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, current_balance, target_amount, weekly_amount, is_active, created_at
    FROM escrow_accounts
    WHERE employee_id = $1
  `, employeeID).Scan(&acct.ID, &acct.EmployeeID, &acct.CurrentBalance, &acct.TargetAmount,
		&acct.WeeklyAmount, &acct.IsActive, &acct.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return acct, nil
}

func (s *Store) CreateAccount(ctx context.Context, acct Account) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO escrow_accounts (employee_id, current_balance, target_amount, weekly_amount, is_active)
    VALUES ($1, 0, $2, $3, true)
    RETURNING id
  `, acct.EmployeeID, acct.TargetAmount, acct.WeeklyAmount).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetWeeklyOverride(ctx context.Context, accountID string, weekly decimal.Decimal) error {
	_, err := s.DB.Exec(ctx, "UPDATE escrow_accounts SET weekly_amount = $1 WHERE id = $2", weekly, accountID)
	return err
}

// Post appends a transaction and moves the balance inside one transaction.
// The account row is locked FOR UPDATE so concurrent movements serialize and
// BalanceAfter can never diverge from the transaction history.
func (s *Store) Post(ctx context.Context, employeeID string, txType TransactionType, amount decimal.Decimal, weekStart time.Time, note string) (Transaction, Account, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Transaction{}, Account{}, err
	}
	defer tx.Rollback(ctx)

	var acct Account
	err = tx.QueryRow(ctx, `
    SELECT id, employee_id, current_balance, target_amount, weekly_amount, is_active, created_at
    FROM escrow_accounts
    WHERE employee_id = $1
    FOR UPDATE
  `, employeeID).Scan(&acct.ID, &acct.EmployeeID, &acct.CurrentBalance, &acct.TargetAmount,
		&acct.WeeklyAmount, &acct.IsActive, &acct.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Transaction{}, Account{}, err
	}
	if !acct.IsActive {
		return Transaction{}, Account{}, ErrAccountInactive
	}

	signed := SignedAmount(txType, amount)
	after := acct.CurrentBalance.Add(signed)
	if after.IsNegative() {
		return Transaction{}, Account{}, &InsufficientBalanceError{
			AccountID: acct.ID,
			Balance:   acct.CurrentBalance,
			Requested: amount,
		}
	}

	movement := Transaction{
		AccountID:     acct.ID,
		Type:          txType,
		Amount:        amount.Round(2),
		BalanceBefore: acct.CurrentBalance,
		BalanceAfter:  after.Round(2),
		WeekStart:     weekStart,
		Note:          note,
	}
	err = tx.QueryRow(ctx, `
    INSERT INTO escrow_transactions (account_id, transaction_type, amount, balance_before, balance_after, week_start, note)
    VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''))
    RETURNING id, created_at
  `, movement.AccountID, movement.Type, movement.Amount, movement.BalanceBefore, movement.BalanceAfter,
		movement.WeekStart, movement.Note).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return Transaction{}, Account{}, err
	}

	if _, err := tx.Exec(ctx, "UPDATE escrow_accounts SET current_balance = $1 WHERE id = $2",
		movement.BalanceAfter, acct.ID); err != nil {
		return Transaction{}, Account{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, Account{}, err
	}
	acct.CurrentBalance = movement.BalanceAfter
	return movement, acct, nil
}

func (s *Store) Transactions(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, account_id, transaction_type, amount, balance_before, balance_after, week_start, COALESCE(note, ''), created_at
    FROM escrow_transactions
    WHERE account_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var movement Transaction
		if err := rows.Scan(&movement.ID, &movement.AccountID, &movement.Type, &movement.Amount,
			&movement.BalanceBefore, &movement.BalanceAfter, &movement.WeekStart, &movement.Note, &movement.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, movement)
	}
	return out, rows.Err()
}

// DepositsForWeek sums explicit deposits posted against a pay week. This is
// what the aggregator counts; suggestions alone never reduce pay.
func (s *Store) DepositsForWeek(ctx context.Context, employeeID string, weekStart time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(t.amount), 0)
    FROM escrow_transactions t
    JOIN escrow_accounts a ON t.account_id = a.id
    WHERE a.employee_id = $1 AND t.transaction_type = $2 AND t.week_start = $3
  `, employeeID, TypeDeposit, weekStart).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
