package payroll

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpay/internal/domain/driver"
	"fleetpay/internal/domain/escrow"
	"fleetpay/internal/domain/load"
)

// fakeStore is an in-memory RecordStore. It mirrors the Postgres store's
// behavior: one record per (employee, week), updates refused while locked.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]Record
	stubs   map[string]Paystub
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]Record{}, stubs: map[string]Paystub{}}
}

func (s *fakeStore) Save(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		for _, existing := range s.records {
			if existing.EmployeeID == rec.EmployeeID && existing.WeekStart.Equal(rec.WeekStart) {
				return Record{}, ErrRecordConflict
			}
		}
		s.nextID++
		rec.ID = fmt.Sprintf("rec-%d", s.nextID)
	} else {
		existing, ok := s.records[rec.ID]
		if !ok {
			return Record{}, ErrRecordNotFound
		}
		if existing.IsLocked {
			return Record{}, ErrRecordLocked
		}
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *fakeStore) Get(_ context.Context, recordID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *fakeStore) ForWeek(_ context.Context, employeeID string, weekStart time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.EmployeeID == employeeID && rec.WeekStart.Equal(weekStart) {
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (s *fakeStore) ListForEmployee(_ context.Context, employeeID string, _, _ int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.EmployeeID == employeeID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) PeriodRecords(_ context.Context, weekStart time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.WeekStart.Equal(weekStart) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) SetStatus(_ context.Context, recordID, status string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return ErrRecordNotFound
	}
	rec.Status = status
	rec.IsLocked = locked
	s.records[recordID] = rec
	return nil
}

func (s *fakeStore) Process(_ context.Context, rec Record, stub Paystub) (Paystub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.records[rec.ID]
	if !ok {
		return Paystub{}, ErrRecordNotFound
	}
	if stored.IsLocked {
		return Paystub{}, ErrRecordLocked
	}
	stored.Status = StatusProcessed
	stored.IsLocked = true
	s.records[rec.ID] = stored

	s.nextID++
	stub.ID = fmt.Sprintf("stub-%d", s.nextID)
	stub.GeneratedAt = time.Now()
	s.stubs[rec.ID] = stub
	return stub, nil
}

func (s *fakeStore) PaystubFor(_ context.Context, recordID string) (Paystub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stub, ok := s.stubs[recordID]
	if !ok {
		return Paystub{}, ErrPaystubNotFound
	}
	return stub, nil
}

func (s *fakeStore) SetPaystubPath(_ context.Context, paystubID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for recordID, stub := range s.stubs {
		if stub.ID == paystubID {
			stub.PDFPath = path
			s.stubs[recordID] = stub
		}
	}
	return nil
}

func (s *fakeStore) Delete(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return ErrRecordNotFound
	}
	if rec.IsLocked {
		return ErrRecordLocked
	}
	delete(s.records, recordID)
	delete(s.stubs, recordID)
	return nil
}

type fakeEmployees struct{}

func (fakeEmployees) Employee(_ context.Context, employeeID string) (driver.Employee, error) {
	return driver.Employee{ID: employeeID, FirstName: "Pat", LastName: "Hauler"}, nil
}

type fakePoster struct {
	mu     sync.Mutex
	posted map[string]decimal.Decimal
	posts  []decimal.Decimal
}

func newFakePoster() *fakePoster {
	return &fakePoster{posted: map[string]decimal.Decimal{}}
}

func (p *fakePoster) DepositsForWeek(_ context.Context, employeeID string, _ time.Time) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.posted[employeeID], nil
}

func (p *fakePoster) Post(_ context.Context, employeeID string, _ escrow.TransactionType, amount decimal.Decimal, _ time.Time, _ string) (escrow.Transaction, escrow.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posted[employeeID] = p.posted[employeeID].Add(amount)
	p.posts = append(p.posts, amount)
	return escrow.Transaction{Amount: amount}, escrow.Account{}, nil
}

func newTestService(f *fakeSources) (*Service, *fakeStore, *fakePoster) {
	store := newFakeStore()
	poster := newFakePoster()
	svc := NewService(store, aggregatorOver(f), fakeEmployees{}, poster, nil)
	return svc, store, poster
}

func TestCalculateCreatesRecord(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)

	rec, err := svc.Calculate(context.Background(), "emp-1", week, false)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, StatusCalculated, rec.Status)
	assert.True(t, rec.NetPay.Equal(amt(1874.5)), "net %s", rec.NetPay)
}

func TestCalculateDuplicateIsConflict(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)

	_, err := svc.Calculate(context.Background(), "emp-1", week, false)
	require.NoError(t, err)
	_, err = svc.Calculate(context.Background(), "emp-1", week, false)
	require.ErrorIs(t, err, ErrRecordConflict)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)

	first, err := svc.Calculate(context.Background(), "emp-1", week, false)
	require.NoError(t, err)
	second, err := svc.Calculate(context.Background(), "emp-1", week, true)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRecalculatePicksUpChangedInputs(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)

	first, err := svc.Calculate(context.Background(), "emp-1", week, false)
	require.NoError(t, err)

	f.fuel["emp-1"] = append(f.fuel["emp-1"], load.FuelTransaction{Amount: amt(100)})
	second, err := svc.Calculate(context.Background(), "emp-1", week, true)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.NetPay.Equal(first.NetPay.Sub(amt(100))))
}

func TestRecalculateLockedFails(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, store, _ := newTestService(f)

	rec, err := svc.Calculate(context.Background(), "emp-1", week, false)
	require.NoError(t, err)
	_, err = svc.Process(context.Background(), rec.ID)
	require.NoError(t, err)

	_, err = svc.Calculate(context.Background(), "emp-1", week, true)
	require.ErrorIs(t, err, ErrRecordLocked)

	// The locked record is untouched.
	after, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, after.Status)
	assert.True(t, after.NetPay.Equal(rec.NetPay))
}

func TestLifecycleHappyPath(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, "emp-1", week, false)
	require.NoError(t, err)

	reviewed, err := svc.Review(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReviewed, reviewed.Status)

	stub, err := svc.Process(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pat Hauler", stub.EmployeeName)
	assert.True(t, stub.NetPay.Equal(rec.NetPay))

	processed, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, processed.Status)
	assert.True(t, processed.IsLocked)

	paid, err := svc.Pay(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
}

func TestProcessRequiresCalculatedOrReviewed(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, "emp-1", week, false)
	require.NoError(t, err)
	_, err = svc.Process(ctx, rec.ID)
	require.NoError(t, err)

	// Second process: the record is locked now.
	_, err = svc.Process(ctx, rec.ID)
	require.ErrorIs(t, err, ErrRecordLocked)

	_, err = svc.Pay(ctx, "missing")
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPayRequiresProcessed(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, "emp-1", week, false)
	require.NoError(t, err)
	_, err = svc.Pay(ctx, rec.ID)
	require.ErrorIs(t, err, ErrNotProcessed)
}

func TestUnlockAllowsRecalculation(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, "emp-1", week, false)
	require.NoError(t, err)
	_, err = svc.Process(ctx, rec.ID)
	require.NoError(t, err)

	unlocked, err := svc.Unlock(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.IsLocked)
	assert.Equal(t, StatusCalculated, unlocked.Status)

	_, err = svc.Calculate(ctx, "emp-1", week, true)
	require.NoError(t, err)
}

func TestPaystubSurvivesUnlockAndRecalc(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, "emp-1", week, false)
	require.NoError(t, err)
	stub, err := svc.Process(ctx, rec.ID)
	require.NoError(t, err)

	_, err = svc.Unlock(ctx, rec.ID)
	require.NoError(t, err)
	f.recurring["emp-1"] = amt(500)
	_, err = svc.Calculate(ctx, "emp-1", week, true)
	require.NoError(t, err)

	kept, err := svc.Paystub(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, kept.NetPay.Equal(stub.NetPay), "issued paystub must not drift")
}

func TestDeleteOnlyDraftOrCalculated(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	svc, _, _ := newTestService(f)
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, "emp-1", week, false)
	require.NoError(t, err)
	_, err = svc.Process(ctx, rec.ID)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Delete(ctx, rec.ID), ErrNotDeletable)

	other, err := svc.Calculate(ctx, "emp-2", week, false)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, other.ID))
	_, err = svc.Get(ctx, other.ID)
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestProcessPostsManualEscrowShortfall(t *testing.T) {
	f := newFakeSources()
	f.configs["emp-1"] = percentageConfig(70, 30, 5)
	f.loads["emp-1"] = []load.Load{{ID: "l1", GrossAmount: amt(2000)}}
	f.accounts["emp-1"] = escrow.Account{
		IsActive:     true,
		TargetAmount: amt(1000),
		WeeklyAmount: amt(75),
	}
	svc, _, poster := newTestService(f)
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, "emp-1", week, false)
	require.NoError(t, err)
	require.True(t, rec.EscrowDeposits.Equal(amt(75)))

	_, err = svc.Process(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, poster.posts, 1)
	assert.True(t, poster.posts[0].Equal(amt(75)))
}

func TestProcessDoesNotDoublePostEscrow(t *testing.T) {
	f := newFakeSources()
	f.configs["emp-1"] = percentageConfig(70, 30, 5)
	f.loads["emp-1"] = []load.Load{{ID: "l1", GrossAmount: amt(2000)}}
	f.accounts["emp-1"] = escrow.Account{
		IsActive:     true,
		TargetAmount: amt(1000),
		WeeklyAmount: amt(75),
	}
	f.posted["emp-1"] = amt(75)
	svc, _, poster := newTestService(f)
	poster.posted["emp-1"] = amt(75)
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, "emp-1", week, false)
	require.NoError(t, err)
	_, err = svc.Process(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, poster.posts)
}

func TestPeriodSummaryTotals(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	f.configs["emp-2"] = percentageConfig(70, 30, 5)
	f.loads["emp-2"] = []load.Load{{ID: "l9", GrossAmount: amt(1000)}}
	svc, _, _ := newTestService(f)
	ctx := context.Background()

	_, err := svc.Calculate(ctx, "emp-1", week, false)
	require.NoError(t, err)
	_, err = svc.Calculate(ctx, "emp-2", week, false)
	require.NoError(t, err)

	totals, err := svc.PeriodSummary(ctx, week)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Employees)
	assert.Equal(t, 2, totals.Succeeded)
	assert.Equal(t, 4, totals.TotalLoads)
	assert.True(t, totals.GrossPay.Equal(amt(2294.5).Add(amt(665))), "gross %s", totals.GrossPay)
}
