package adjustments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	"github.com/atlas-erp/atlas-erp/internal/observability"
	"github.com/atlas-erp/atlas-erp/internal/shared"
)

// Service hosts the adjustment producers: opening balance imports and
// bank reconciliation adjustments.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// ImportOpeningBalances posts one transaction carrying a business's
// opening balances at the start of a fiscal year. The batch must net to
// zero; an unbalanced batch is rejected whole.
func (s *Service) ImportOpeningBalances(ctx context.Context, in OpeningBalancesInput) (OpeningResult, error) {
	if err := in.Validate(); err != nil {
		return OpeningResult{}, err
	}
	var result OpeningResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		year, err := tx.GetFiscalYear(ctx, in.BusinessID, in.FiscalYearID)
		if err != nil {
			return err
		}
		if year.Status == acctshared.YearClosed {
			return fmt.Errorf("%w: %s", acctshared.ErrYearClosed, year.Name)
		}
		lines := make([]ledger.LineInput, 0, len(in.Lines))
		for _, l := range in.Lines {
			lines = append(lines, ledger.LineInput{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit})
		}
		memo := in.Memo
		if memo == "" {
			memo = fmt.Sprintf("Opening balances %s", year.Name)
		}
		posted, err := ledger.PostTx(ctx, tx, ledger.PostingInput{
			BusinessID: in.BusinessID,
			Date:       year.StartDate,
			Memo:       memo,
			SourceType: ledger.SourceOpening,
			SourceID:   fmt.Sprintf("fiscal-year-%d", year.ID),
			ActorID:    in.ActorID,
			Lines:      lines,
		})
		if err != nil {
			return err
		}
		batch, err := tx.InsertOpeningBatch(ctx, OpeningBatch{
			BusinessID:    in.BusinessID,
			FiscalYearID:  year.ID,
			TransactionID: posted.ID,
			ImportedBy:    in.ActorID,
			ImportedAt:    s.now(),
		})
		if err != nil {
			return err
		}
		batch.TransactionID = posted.ID
		result = OpeningResult{Batch: batch, Transaction: posted}
		return nil
	})
	observability.ObservePosting(string(ledger.SourceOpening), err)
	if err != nil {
		return OpeningResult{}, err
	}
	s.recordAudit(ctx, in.ActorID, "adjustments.import_opening", "opening_batch", result.Batch.ID)
	return result, nil
}

// PostBankAdjustment books one reconciliation discrepancy against a
// bank account with the matching contra account.
func (s *Service) PostBankAdjustment(ctx context.Context, in BankAdjustmentInput) (BankAdjustmentResult, error) {
	if !in.Amount.IsPositive() {
		return BankAdjustmentResult{}, acctshared.ErrAmountNotPositive
	}
	var result BankAdjustmentResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		found, err := tx.AccountsByID(ctx, []int64{in.BankAccountID})
		if err != nil {
			return err
		}
		bank, ok := found[in.BankAccountID]
		if !ok {
			return fmt.Errorf("%w: account %d", acctshared.ErrUnknownAccount, in.BankAccountID)
		}
		if bank.BusinessID != in.BusinessID {
			return fmt.Errorf("%w: account %d", acctshared.ErrCrossBusiness, in.BankAccountID)
		}
		lines, err := s.adjustmentLines(ctx, tx, in, bank.ID)
		if err != nil {
			return err
		}
		sourceID := ""
		if in.Reference != "" {
			sourceID = fmt.Sprintf("bank-%d-%s", bank.ID, in.Reference)
		}
		posted, err := ledger.PostTx(ctx, tx, ledger.PostingInput{
			BusinessID: in.BusinessID,
			Date:       in.Date,
			Memo:       in.Memo,
			SourceType: ledger.SourceAdjustment,
			SourceID:   sourceID,
			ActorID:    in.ActorID,
			Lines:      lines,
		})
		if err != nil {
			return err
		}
		adjustment, err := tx.InsertBankAdjustment(ctx, BankAdjustment{
			BusinessID:    in.BusinessID,
			BankAccountID: bank.ID,
			Kind:          in.Kind,
			Amount:        in.Amount.Round(2),
			Date:          in.Date,
			Reference:     in.Reference,
			Memo:          in.Memo,
			TransactionID: posted.ID,
			CreatedBy:     in.ActorID,
		})
		if err != nil {
			return err
		}
		adjustment.TransactionID = posted.ID
		result = BankAdjustmentResult{Adjustment: adjustment, Transaction: posted}
		return nil
	})
	observability.ObservePosting(string(ledger.SourceAdjustment), err)
	if err != nil {
		return BankAdjustmentResult{}, err
	}
	s.recordAudit(ctx, in.ActorID, "adjustments.bank", "bank_adjustment", result.Adjustment.ID)
	return result, nil
}

func (s *Service) adjustmentLines(ctx context.Context, tx TxRepository, in BankAdjustmentInput, bankAccountID int64) ([]ledger.LineInput, error) {
	amount := in.Amount
	switch in.Kind {
	case BankCharge:
		contra, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleBankCharges)
		if err != nil {
			return nil, err
		}
		return []ledger.LineInput{
			{AccountID: contra.ID, Debit: amount},
			{AccountID: bankAccountID, Credit: amount},
		}, nil
	case BankInterest:
		contra, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleInterestIncome)
		if err != nil {
			return nil, err
		}
		return []ledger.LineInput{
			{AccountID: bankAccountID, Debit: amount},
			{AccountID: contra.ID, Credit: amount},
		}, nil
	case BankCorrection:
		contra, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleSuspense)
		if err != nil {
			return nil, err
		}
		if in.Direction == DirectionCredit {
			return []ledger.LineInput{
				{AccountID: contra.ID, Debit: amount},
				{AccountID: bankAccountID, Credit: amount},
			}, nil
		}
		return []ledger.LineInput{
			{AccountID: bankAccountID, Debit: amount},
			{AccountID: contra.ID, Credit: amount},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown adjustment kind %q", acctshared.ErrInvalidLine, in.Kind)
	}
}

func (s *Service) ListBankAdjustments(ctx context.Context, businessID, bankAccountID int64) ([]BankAdjustment, error) {
	return s.repo.ListBankAdjustments(ctx, businessID, bankAccountID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity string, id int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("record audit", slog.Any("error", err))
	}
}
