package ar

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

// Service runs the bad debt lifecycle. Write-off and recovery each pair
// a receivable state change with a ledger posting in one unit of work.
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

// WriteOff removes an invoice's outstanding balance from Accounts
// Receivable and expenses it as bad debt.
func (s *Service) WriteOff(ctx context.Context, in WriteOffInput) (WriteOffResult, error) {
	var result WriteOffResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoice, err := tx.GetInvoiceForUpdate(ctx, in.BusinessID, in.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == InvoiceWrittenOff {
			return fmt.Errorf("%w: invoice %s", acctshared.ErrAlreadyWrittenOff, invoice.Number)
		}
		outstanding := invoice.Outstanding()
		if !outstanding.IsPositive() {
			return fmt.Errorf("%w: invoice %s", acctshared.ErrInvoiceSettled, invoice.Number)
		}
		expense, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleBadDebtExpense)
		if err != nil {
			return err
		}
		receivable, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleAccountsReceivable)
		if err != nil {
			return err
		}
		memo := in.Memo
		if memo == "" {
			memo = fmt.Sprintf("Write-off of invoice %s", invoice.Number)
		}
		posted, err := ledger.PostTx(ctx, tx, ledger.PostingInput{
			BusinessID: in.BusinessID,
			Date:       in.Date,
			Memo:       memo,
			SourceType: ledger.SourceWriteOff,
			SourceID:   fmt.Sprintf("invoice-%d", invoice.ID),
			ActorID:    in.ActorID,
			Lines: []ledger.LineInput{
				{AccountID: expense.ID, Debit: outstanding},
				{AccountID: receivable.ID, Credit: outstanding},
			},
		})
		if err != nil {
			return err
		}
		bd, err := tx.InsertBadDebt(ctx, BadDebt{
			BusinessID:    in.BusinessID,
			InvoiceID:     invoice.ID,
			Amount:        outstanding,
			Status:        BadDebtWrittenOff,
			TransactionID: posted.ID,
			WrittenOffAt:  in.Date,
			CreatedBy:     in.ActorID,
		})
		if err != nil {
			return err
		}
		if err := tx.SetInvoiceStatus(ctx, invoice.ID, InvoiceWrittenOff); err != nil {
			return err
		}
		result = WriteOffResult{BadDebt: bd, Transaction: posted}
		return nil
	})
	observability.ObservePosting(string(ledger.SourceWriteOff), err)
	if err != nil {
		return WriteOffResult{}, err
	}
	s.recordAudit(ctx, in.ActorID, "ar.write_off", result.BadDebt)
	return result, nil
}

// RecordRecovery books a cash recovery against a written-off invoice.
// The original write-off posting stays untouched; recoveries are income.
func (s *Service) RecordRecovery(ctx context.Context, in RecoveryInput) (RecoveryResult, error) {
	if !in.Amount.IsPositive() {
		return RecoveryResult{}, acctshared.ErrAmountNotPositive
	}
	var result RecoveryResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		bd, err := tx.GetBadDebtForUpdate(ctx, in.BusinessID, in.BadDebtID)
		if err != nil {
			return err
		}
		remaining := bd.Amount.Sub(bd.Recovered)
		if in.Amount.GreaterThan(remaining) {
			return fmt.Errorf("%w: %s remaining on %s", acctshared.ErrRecoveryExceedsWriteOff, remaining.StringFixed(2), bd.Number)
		}
		cash, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleCash)
		if err != nil {
			return err
		}
		income, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleBadDebtRecovery)
		if err != nil {
			return err
		}
		recovered := bd.Recovered.Add(in.Amount)
		memo := in.Memo
		if memo == "" {
			memo = fmt.Sprintf("Recovery on %s", bd.Number)
		}
		posted, err := ledger.PostTx(ctx, tx, ledger.PostingInput{
			BusinessID: in.BusinessID,
			Date:       in.Date,
			Memo:       memo,
			SourceType: ledger.SourceRecovery,
			SourceID:   fmt.Sprintf("bad-debt-%d-%s", bd.ID, recovered.StringFixed(2)),
			ActorID:    in.ActorID,
			Lines: []ledger.LineInput{
				{AccountID: cash.ID, Debit: in.Amount},
				{AccountID: income.ID, Credit: in.Amount},
			},
		})
		if err != nil {
			return err
		}
		status := BadDebtPartialRecovery
		if recovered.Equal(bd.Amount) {
			status = BadDebtRecovered
		}
		if err := tx.UpdateBadDebtRecovery(ctx, bd.ID, recovered, status); err != nil {
			return err
		}
		bd.Recovered = recovered
		bd.Status = status
		result = RecoveryResult{BadDebt: bd, Transaction: posted}
		return nil
	})
	observability.ObservePosting(string(ledger.SourceRecovery), err)
	if err != nil {
		return RecoveryResult{}, err
	}
	s.recordAudit(ctx, in.ActorID, "ar.record_recovery", result.BadDebt)
	return result, nil
}

func (s *Service) GetBadDebt(ctx context.Context, businessID, badDebtID int64) (BadDebt, error) {
	return s.repo.GetBadDebt(ctx, businessID, badDebtID)
}

func (s *Service) ListBadDebts(ctx context.Context, businessID int64) ([]BadDebt, error) {
	return s.repo.ListBadDebts(ctx, businessID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, bd BadDebt) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "bad_debt",
		EntityID: strconv.FormatInt(bd.ID, 10),
		Meta:     map[string]any{"number": bd.Number, "status": bd.Status},
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("record audit", slog.Any("error", err))
	}
}
