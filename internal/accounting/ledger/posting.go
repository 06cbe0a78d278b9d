package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// TxPoster is the minimal storage surface a posting needs. Producer
// transaction stores embed it so an inventory movement or a write-off
// commits in the same unit of work as its ledger transaction.
type TxPoster interface {
	// AccountsByID loads accounts by primary key regardless of owner;
	// PostTx checks ownership itself to tell unknown from cross-business.
	AccountsByID(ctx context.Context, ids []int64) (map[int64]accounts.Account, error)
	// PostingPeriod resolves and row-locks the period a posting lands in.
	// With adjustment set it returns the adjustment period of the fiscal
	// year covering date. Missing coverage is ErrNoPeriodForDate.
	PostingPeriod(ctx context.Context, businessID int64, date time.Time, adjustment bool) (PostingPeriod, error)
	InsertTransaction(ctx context.Context, t Transaction) (Transaction, error)
	InsertEntries(ctx context.Context, transactionID int64, entries []Entry) ([]Entry, error)
	// LinkSource records the producer document behind a transaction.
	// A duplicate link is ErrSourceAlreadyLinked.
	LinkSource(ctx context.Context, businessID int64, sourceType SourceType, sourceID string, transactionID int64) error
}

// PostTx validates and appends one transaction inside the caller's unit
// of work. Every producer in the engine funnels through here.
func PostTx(ctx context.Context, tx TxPoster, in PostingInput) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}

	ids := make([]int64, 0, len(in.Lines))
	seen := make(map[int64]struct{}, len(in.Lines))
	for _, line := range in.Lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}
	accts, err := tx.AccountsByID(ctx, ids)
	if err != nil {
		return Transaction{}, err
	}
	for _, id := range ids {
		a, ok := accts[id]
		if !ok {
			return Transaction{}, fmt.Errorf("%w: account %d", acctshared.ErrUnknownAccount, id)
		}
		if a.BusinessID != in.BusinessID {
			return Transaction{}, fmt.Errorf("%w: account %d", acctshared.ErrCrossBusiness, id)
		}
	}

	period, err := tx.PostingPeriod(ctx, in.BusinessID, in.Date, in.Adjustment || in.Closing)
	if err != nil {
		return Transaction{}, err
	}
	switch {
	case in.Closing:
		// The closing entry is the one posting allowed into a locked year.
	case in.Adjustment:
		if period.Status == acctshared.PeriodClosed {
			return Transaction{}, fmt.Errorf("%w: period %d", acctshared.ErrPeriodClosed, period.ID)
		}
	default:
		if period.Status != acctshared.PeriodOpen {
			return Transaction{}, fmt.Errorf("%w: period %d", acctshared.ErrPeriodClosed, period.ID)
		}
	}

	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = SourceManual
	}
	t, err := tx.InsertTransaction(ctx, Transaction{
		BusinessID: in.BusinessID,
		BranchID:   in.BranchID,
		PeriodID:   period.ID,
		Date:       in.Date,
		Memo:       in.Memo,
		SourceType: sourceType,
		SourceID:   in.SourceID,
		ReversesID: in.reversesID,
		CreatedBy:  in.ActorID,
	})
	if err != nil {
		return Transaction{}, err
	}

	entries := make([]Entry, 0, len(in.Lines))
	for _, line := range in.Lines {
		entries = append(entries, Entry{
			TransactionID: t.ID,
			AccountID:     line.AccountID,
			Debit:         line.Debit.Round(2),
			Credit:        line.Credit.Round(2),
			Memo:          line.Memo,
		})
	}
	if entries, err = tx.InsertEntries(ctx, t.ID, entries); err != nil {
		return Transaction{}, err
	}
	t.Entries = entries

	if in.SourceID != "" {
		if err := tx.LinkSource(ctx, in.BusinessID, sourceType, in.SourceID, t.ID); err != nil {
			return Transaction{}, err
		}
	}
	return t, nil
}
