package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/observability"
	"github.com/atlas-erp/atlas-erp/internal/shared"
)

// Service exposes the ledger operations. The ledger is append-only:
// Post and Reverse add transactions, nothing ever mutates one.
type Service struct {
	repo     Repository
	accounts accounts.Repository
	audit    *shared.AuditLogger
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, accountsRepo accounts.Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accountsRepo,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Post appends one balanced transaction.
func (s *Service) Post(ctx context.Context, in PostingInput) (Transaction, error) {
	var posted Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		posted, err = PostTx(ctx, tx, in)
		return err
	})
	observability.ObservePosting(string(in.SourceType), err)
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, in.ActorID, "ledger.post", posted)
	return posted, nil
}

// Reverse posts a mirror-image transaction for a posted one. The
// original stays untouched.
func (s *Service) Reverse(ctx context.Context, in ReverseInput) (Transaction, error) {
	var posted Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetWithEntries(ctx, in.BusinessID, in.TransactionID)
		if err != nil {
			return err
		}
		lines := make([]LineInput, 0, len(original.Entries))
		for _, e := range original.Entries {
			lines = append(lines, LineInput{
				AccountID: e.AccountID,
				Debit:     e.Credit,
				Credit:    e.Debit,
				Memo:      e.Memo,
			})
		}
		memo := in.Memo
		if memo == "" {
			memo = fmt.Sprintf("Reversal of %s", original.Number)
		}
		posted, err = PostTx(ctx, tx, PostingInput{
			BusinessID: in.BusinessID,
			BranchID:   original.BranchID,
			Date:       in.Date,
			Memo:       memo,
			SourceType: SourceReversal,
			SourceID:   strconv.FormatInt(original.ID, 10),
			ActorID:    in.ActorID,
			Lines:      lines,
			reversesID: &original.ID,
		})
		return err
	})
	observability.ObservePosting(string(SourceReversal), err)
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, in.ActorID, "ledger.reverse", posted)
	return posted, nil
}

func (s *Service) Get(ctx context.Context, businessID, id int64) (Transaction, error) {
	return s.repo.GetWithEntries(ctx, businessID, id)
}

func (s *Service) List(ctx context.Context, businessID int64, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, businessID, limit, offset)
}

// Balance derives an account balance as of a date. Balances are never
// stored; this sums posted entries and sign-adjusts by normal side.
func (s *Service) Balance(ctx context.Context, q BalanceQuery) (Balance, error) {
	account, err := s.accounts.GetByID(ctx, q.BusinessID, q.AccountID)
	if err != nil {
		return Balance{}, err
	}
	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}
	debit, credit, err := s.repo.AccountActivity(ctx, q.BusinessID, q.AccountID, asOf)
	if err != nil {
		return Balance{}, err
	}
	b := Balance{AccountID: q.AccountID, Debit: debit, Credit: credit}
	if account.NormalSide == accounts.NormalSideDebit {
		b.Net = debit.Sub(credit)
	} else {
		b.Net = credit.Sub(debit)
	}
	return b, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, t Transaction) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "ledger_transaction",
		EntityID: strconv.FormatInt(t.ID, 10),
		Meta:     map[string]any{"number": t.Number, "source_type": t.SourceType},
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("record audit", slog.Any("error", err))
	}
}
