package periods

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	"github.com/atlas-erp/atlas-erp/internal/observability"
	"github.com/atlas-erp/atlas-erp/internal/shared"
)

// Service drives the fiscal period state machine. Year-end close runs
// under a redis lease plus a row lock, so concurrent closers collapse
// into one closing entry.
type Service struct {
	repo   Repository
	locker *shared.Locker
	audit  *shared.AuditLogger
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, locker *shared.Locker, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// OpenYear creates a fiscal year with its posting periods and trailing
// adjustment period.
func (s *Service) OpenYear(ctx context.Context, in OpenYearInput) (FiscalYear, []FiscalPeriod, error) {
	if in.EndDate.Before(in.StartDate) {
		return FiscalYear{}, nil, fmt.Errorf("%w: end before start", acctshared.ErrYearOverlap)
	}
	partition := in.Partition
	if partition == "" {
		partition = PartitionMonthly
	}
	var (
		year    FiscalYear
		periods []FiscalPeriod
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		overlaps, err := tx.YearOverlaps(ctx, in.BusinessID, in.StartDate, in.EndDate)
		if err != nil {
			return err
		}
		if overlaps {
			return acctshared.ErrYearOverlap
		}
		year, err = tx.InsertYear(ctx, FiscalYear{
			BusinessID: in.BusinessID,
			Name:       in.Name,
			StartDate:  in.StartDate,
			EndDate:    in.EndDate,
			Status:     acctshared.YearOpen,
		})
		if err != nil {
			return err
		}
		periods, err = tx.InsertPeriods(ctx, year.ID, buildPeriods(in.StartDate, in.EndDate, partition))
		return err
	})
	if err != nil {
		return FiscalYear{}, nil, err
	}
	s.recordAudit(ctx, in.ActorID, "periods.open_year", "fiscal_year", year.ID, map[string]any{"name": year.Name})
	return year, periods, nil
}

// LockPeriod moves an open period to locked.
func (s *Service) LockPeriod(ctx context.Context, in TransitionInput) (FiscalPeriod, error) {
	return s.transition(ctx, in, acctshared.PeriodOpen, acctshared.PeriodLocked, "periods.lock")
}

// ClosePeriod moves an open or locked period to closed. Closed is final.
func (s *Service) ClosePeriod(ctx context.Context, in TransitionInput) (FiscalPeriod, error) {
	return s.transition(ctx, in, "", acctshared.PeriodClosed, "periods.close")
}

func (s *Service) transition(ctx context.Context, in TransitionInput, from, to acctshared.PeriodStatus, action string) (FiscalPeriod, error) {
	var period FiscalPeriod
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		period, err = tx.GetPeriodForUpdate(ctx, in.BusinessID, in.PeriodID)
		if err != nil {
			return err
		}
		if period.Status == acctshared.PeriodClosed {
			return fmt.Errorf("%w: period %d", acctshared.ErrPeriodClosed, period.ID)
		}
		if from != "" && period.Status != from {
			return fmt.Errorf("%w: period %d", acctshared.ErrPeriodClosed, period.ID)
		}
		if err := tx.UpdatePeriodStatus(ctx, period.ID, to); err != nil {
			return err
		}
		period.Status = to
		return nil
	})
	if err != nil {
		return FiscalPeriod{}, err
	}
	s.recordAudit(ctx, in.ActorID, action, "fiscal_period", period.ID, map[string]any{"status": period.Status})
	return period, nil
}

// CloseYear locks the year's periods, posts one aggregate closing
// transaction moving revenue and expense balances into Retained
// Earnings, and marks the year closed. Re-running on a closed year is
// a no-op reporting the earlier result.
func (s *Service) CloseYear(ctx context.Context, in CloseYearInput) (CloseYearResult, error) {
	var result CloseYearResult
	run := func(ctx context.Context) error {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			year, err := tx.GetYearForUpdate(ctx, in.BusinessID, in.FiscalYearID)
			if err != nil {
				return err
			}
			if year.Status == acctshared.YearClosed {
				result = CloseYearResult{Year: year, ClosingTransactionID: year.ClosingTransactionID, AlreadyClosed: true}
				return nil
			}
			if err := tx.LockOpenPeriods(ctx, year.ID); err != nil {
				return err
			}
			lines, retained, err := s.closingLines(ctx, tx, year)
			if err != nil {
				return err
			}
			var closingID *int64
			if len(lines) > 0 {
				posted, err := ledger.PostTx(ctx, tx, ledger.PostingInput{
					BusinessID: year.BusinessID,
					Date:       year.EndDate,
					Memo:       fmt.Sprintf("Year-end closing %s", year.Name),
					SourceType: ledger.SourceClosing,
					SourceID:   fmt.Sprintf("fiscal-year-%d", year.ID),
					ActorID:    in.ActorID,
					Lines:      lines,
					Closing:    true,
				})
				if err != nil {
					return err
				}
				closingID = &posted.ID
			}
			if err := tx.MarkYearClosed(ctx, year.ID, closingID, in.ActorID, s.now()); err != nil {
				return err
			}
			year.Status = acctshared.YearClosed
			year.ClosingTransactionID = closingID
			result = CloseYearResult{Year: year, ClosingTransactionID: closingID, RetainedEarnings: retained.StringFixed(2)}
			return nil
		})
		observability.ObservePosting(string(ledger.SourceClosing), err)
		return err
	}
	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, shared.YearCloseLockKey(in.BusinessID, in.FiscalYearID), run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return CloseYearResult{}, err
	}
	if !result.AlreadyClosed {
		s.recordAudit(ctx, in.ActorID, "periods.close_year", "fiscal_year", result.Year.ID, map[string]any{"retained_earnings": result.RetainedEarnings})
	}
	return result, nil
}

// closingLines builds zeroing lines for every revenue and expense
// account with activity, plus the balancing Retained Earnings leg.
func (s *Service) closingLines(ctx context.Context, tx TxRepository, year FiscalYear) ([]ledger.LineInput, decimal.Decimal, error) {
	nets, err := tx.ProfitAndLossByAccount(ctx, year.BusinessID, year.StartDate, year.EndDate)
	if err != nil {
		return nil, decimal.Zero, err
	}
	var lines []ledger.LineInput
	var retained decimal.Decimal
	for _, n := range nets {
		var net decimal.Decimal
		if n.Type == accounts.AccountTypeRevenue {
			net = n.Credit.Sub(n.Debit)
			retained = retained.Add(net)
		} else {
			net = n.Debit.Sub(n.Credit)
			retained = retained.Sub(net)
		}
		switch {
		case net.IsZero():
			continue
		case n.Type == accounts.AccountTypeRevenue && net.IsPositive():
			lines = append(lines, ledger.LineInput{AccountID: n.AccountID, Debit: net})
		case n.Type == accounts.AccountTypeRevenue:
			lines = append(lines, ledger.LineInput{AccountID: n.AccountID, Credit: net.Neg()})
		case net.IsPositive():
			lines = append(lines, ledger.LineInput{AccountID: n.AccountID, Credit: net})
		default:
			lines = append(lines, ledger.LineInput{AccountID: n.AccountID, Debit: net.Neg()})
		}
	}
	if len(lines) == 0 {
		return nil, decimal.Zero, nil
	}
	re, err := tx.EnsureSystemAccount(ctx, year.BusinessID, accounts.RoleRetainedEarnings)
	if err != nil {
		return nil, decimal.Zero, err
	}
	switch {
	case retained.IsPositive():
		lines = append(lines, ledger.LineInput{AccountID: re.ID, Credit: retained})
	case retained.IsNegative():
		lines = append(lines, ledger.LineInput{AccountID: re.ID, Debit: retained.Neg()})
	}
	return lines, retained, nil
}

func (s *Service) GetYear(ctx context.Context, businessID, yearID int64) (FiscalYear, error) {
	return s.repo.GetYear(ctx, businessID, yearID)
}

func (s *Service) ListYears(ctx context.Context, businessID int64) ([]FiscalYear, error) {
	return s.repo.ListYears(ctx, businessID)
}

func (s *Service) ListPeriods(ctx context.Context, businessID, yearID int64) ([]FiscalPeriod, error) {
	return s.repo.ListPeriods(ctx, businessID, yearID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("record audit", slog.Any("error", err))
	}
}
