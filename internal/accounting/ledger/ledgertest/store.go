// Package ledgertest provides an in-memory posting store for service
// tests across the accounting packages.
package ledgertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

type periodRec struct {
	BusinessID int64
	YearStart  time.Time
	YearEnd    time.Time
	ledger.PostingPeriod
}

// Store is a map-backed implementation of ledger.TxRepository and
// accounts.Ensurer. WithTx emulates rollback by snapshotting state, so
// tests can assert that failed units of work leave nothing behind.
type Store struct {
	mu sync.Mutex

	Accounts     map[int64]accounts.Account
	Transactions map[int64]ledger.Transaction

	periods     []periodRec
	systemRoles map[string]int64
	links       map[string]int64

	nextAccountID int64
	nextTxID      int64
	nextEntryID   int64
}

func NewStore() *Store {
	return &Store{
		Accounts:     make(map[int64]accounts.Account),
		Transactions: make(map[int64]ledger.Transaction),
		systemRoles:  make(map[string]int64),
		links:        make(map[string]int64),
	}
}

// AddAccount registers an account and returns it with an assigned id.
func (s *Store) AddAccount(businessID int64, code, name string, t accounts.AccountType) accounts.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAccountID++
	a := accounts.Account{
		ID:         s.nextAccountID,
		BusinessID: businessID,
		Code:       code,
		Name:       name,
		Type:       t,
		NormalSide: accounts.NormalSideFor(t),
		IsActive:   true,
	}
	s.Accounts[a.ID] = a
	return a
}

// AddPeriod registers a fiscal period. yearStart and yearEnd bound the
// owning fiscal year so adjustment lookups can match by year coverage.
func (s *Store) AddPeriod(businessID, yearID int64, start, end, yearStart, yearEnd time.Time, status acctshared.PeriodStatus, adjustment bool) ledger.PostingPeriod {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := ledger.PostingPeriod{
		ID:           int64(len(s.periods) + 1),
		FiscalYearID: yearID,
		StartDate:    start,
		EndDate:      end,
		Status:       status,
		IsAdjustment: adjustment,
	}
	s.periods = append(s.periods, periodRec{BusinessID: businessID, YearStart: yearStart, YearEnd: yearEnd, PostingPeriod: p})
	return p
}

// AddCalendarYear registers twelve open monthly periods plus an
// adjustment period for the given calendar year.
func (s *Store) AddCalendarYear(businessID, yearID int64, year int) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	for m := time.January; m <= time.December; m++ {
		ms := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		me := ms.AddDate(0, 1, -1)
		s.AddPeriod(businessID, yearID, ms, me, start, end, acctshared.PeriodOpen, false)
	}
	s.AddPeriod(businessID, yearID, end, end, start, end, acctshared.PeriodOpen, true)
}

// SetPeriodStatus flips one period's status.
func (s *Store) SetPeriodStatus(periodID int64, status acctshared.PeriodStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.periods {
		if s.periods[i].ID == periodID {
			s.periods[i].Status = status
		}
	}
}

// LockYearPeriods moves every open period of a year to locked.
func (s *Store) LockYearPeriods(yearID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.periods {
		if s.periods[i].FiscalYearID == yearID && s.periods[i].Status == acctshared.PeriodOpen {
			s.periods[i].Status = acctshared.PeriodLocked
		}
	}
}

func (s *Store) AccountsByID(_ context.Context, ids []int64) (map[int64]accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]accounts.Account, len(ids))
	for _, id := range ids {
		if a, ok := s.Accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (s *Store) PostingPeriod(_ context.Context, businessID int64, date time.Time, adjustment bool) (ledger.PostingPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.periods {
		if p.BusinessID != businessID || p.IsAdjustment != adjustment {
			continue
		}
		if adjustment {
			if !date.Before(p.YearStart) && !date.After(p.YearEnd) {
				return p.PostingPeriod, nil
			}
			continue
		}
		if !date.Before(p.StartDate) && !date.After(p.EndDate) {
			return p.PostingPeriod, nil
		}
	}
	return ledger.PostingPeriod{}, acctshared.ErrNoPeriodForDate
}

func (s *Store) InsertTransaction(_ context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTxID++
	t.ID = s.nextTxID
	prefix := "JV"
	if t.SourceType == ledger.SourceClosing {
		prefix = "CE"
	}
	t.Number = fmt.Sprintf("%s-%05d", prefix, t.ID)
	t.CreatedAt = time.Now()
	s.Transactions[t.ID] = t
	return t, nil
}

func (s *Store) InsertEntries(_ context.Context, transactionID int64, entries []ledger.Entry) ([]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Transactions[transactionID]
	if !ok {
		return nil, acctshared.ErrTransactionNotFound
	}
	out := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		s.nextEntryID++
		e.ID = s.nextEntryID
		e.TransactionID = transactionID
		out = append(out, e)
	}
	t.Entries = append(t.Entries, out...)
	s.Transactions[transactionID] = t
	return out, nil
}

func (s *Store) LinkSource(_ context.Context, businessID int64, sourceType ledger.SourceType, sourceID string, transactionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d/%s/%s", businessID, sourceType, sourceID)
	if _, ok := s.links[key]; ok {
		return acctshared.ErrSourceAlreadyLinked
	}
	s.links[key] = transactionID
	return nil
}

func (s *Store) GetWithEntries(_ context.Context, businessID, id int64) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Transactions[id]
	if !ok || t.BusinessID != businessID {
		return ledger.Transaction{}, acctshared.ErrTransactionNotFound
	}
	return t, nil
}

func (s *Store) EnsureSystemAccount(_ context.Context, businessID int64, role accounts.SystemRole) (accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d/%s", businessID, role)
	if id, ok := s.systemRoles[key]; ok {
		return s.Accounts[id], nil
	}
	spec, ok := accounts.SystemAccountDefaults[role]
	if !ok {
		return accounts.Account{}, acctshared.ErrAccountNotFound
	}
	s.nextAccountID++
	a := accounts.Account{
		ID:         s.nextAccountID,
		BusinessID: businessID,
		Code:       spec.Code,
		Name:       spec.Name,
		Type:       spec.Type,
		NormalSide: accounts.NormalSideFor(spec.Type),
		IsSystem:   true,
		IsActive:   true,
	}
	s.Accounts[a.ID] = a
	s.systemRoles[key] = a.ID
	return a, nil
}

// snapshot captures the mutable state for rollback emulation.
type snapshot struct {
	accounts     map[int64]accounts.Account
	transactions map[int64]ledger.Transaction
	periods      []periodRec
	systemRoles  map[string]int64
	links        map[string]int64
	ids          [3]int64
}

// Snapshot copies the store state; Restore puts it back. Wrappers that
// layer their own state on top take their own copies alongside.
func (s *Store) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		accounts:     make(map[int64]accounts.Account, len(s.Accounts)),
		transactions: make(map[int64]ledger.Transaction, len(s.Transactions)),
		periods:      append([]periodRec(nil), s.periods...),
		systemRoles:  make(map[string]int64, len(s.systemRoles)),
		links:        make(map[string]int64, len(s.links)),
		ids:          [3]int64{s.nextAccountID, s.nextTxID, s.nextEntryID},
	}
	for k, v := range s.Accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.Transactions {
		v.Entries = append([]ledger.Entry(nil), v.Entries...)
		snap.transactions[k] = v
	}
	for k, v := range s.systemRoles {
		snap.systemRoles[k] = v
	}
	for k, v := range s.links {
		snap.links[k] = v
	}
	return snap
}

func (s *Store) Restore(v any) {
	snap := v.(snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Accounts = snap.accounts
	s.Transactions = snap.transactions
	s.periods = snap.periods
	s.systemRoles = snap.systemRoles
	s.links = snap.links
	s.nextAccountID, s.nextTxID, s.nextEntryID = snap.ids[0], snap.ids[1], snap.ids[2]
}

// AccountActivity sums debits and credits posted to an account, for
// assertions and derived balances in tests.
func (s *Store) AccountActivity(_ context.Context, businessID, accountID int64, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var debit, credit decimal.Decimal
	for _, t := range s.Transactions {
		if t.BusinessID != businessID || t.Date.After(asOf) {
			continue
		}
		for _, e := range t.Entries {
			if e.AccountID != accountID {
				continue
			}
			debit = debit.Add(e.Debit)
			credit = credit.Add(e.Credit)
		}
	}
	return debit, credit, nil
}
