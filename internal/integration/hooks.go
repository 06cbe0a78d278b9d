// Package integration bridges stock movements into the ledger. Each
// hook runs the costing engine and the matching posting inside one
// database transaction, so a failed posting rolls the stock change back
// with it.
package integration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/inventory"
	"github.com/atlas-erp/atlas-erp/internal/observability"
	"github.com/atlas-erp/atlas-erp/internal/shared"
)

// TxRepository is the combined unit-of-work surface: posting, system
// account resolution and costing over the same transaction.
type TxRepository interface {
	ledger.TxRepository
	accounts.Ensurer
	inventory.TxRepository
}

type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// AuditRecorder captures audit events.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Hooks exposes the goods-movement entry points called by upstream
// sales and procurement flows.
type Hooks struct {
	repo   Repository
	audit  AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

func NewHooks(repo Repository, audit AuditRecorder, logger *slog.Logger) *Hooks {
	return &Hooks{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (h *Hooks) WithNow(now func() time.Time) *Hooks {
	h.now = now
	return h
}

// GoodsSoldInput consumes stock for a sale and books cost of goods
// sold at the costing engine's valuation.
type GoodsSoldInput struct {
	BusinessID int64
	ProductID  int64
	Quantity   decimal.Decimal
	OccurredAt time.Time
	Reference  string
	Memo       string
	ActorID    int64
}

// GoodsReceivedInput receives stock from a supplier and books the
// inventory asset against accounts payable.
type GoodsReceivedInput struct {
	BusinessID int64
	ProductID  int64
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	OccurredAt time.Time
	Reference  string
	Memo       string
	ActorID    int64
}

// MovementResult pairs the stock movement with its posting.
type MovementResult struct {
	Movement    inventory.Movement `json:"movement"`
	Transaction ledger.Transaction `json:"transaction"`
}

// RecordGoodsSold relieves stock under the product's cost method and
// posts Dr COGS / Cr Inventory for the computed cost. Stock and ledger
// commit or fail together.
func (h *Hooks) RecordGoodsSold(ctx context.Context, in GoodsSoldInput) (MovementResult, error) {
	var result MovementResult
	err := h.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		movement, err := inventory.ConsumeTx(ctx, tx, inventory.ConsumeInput{
			BusinessID: in.BusinessID,
			ProductID:  in.ProductID,
			Quantity:   in.Quantity,
			OccurredAt: in.OccurredAt,
			Reference:  in.Reference,
			ActorID:    in.ActorID,
		})
		if err != nil {
			return err
		}
		// Stock received at zero cost relieves at zero; there is nothing
		// to post, only the movement itself.
		if movement.TotalCost.IsZero() {
			result = MovementResult{Movement: movement}
			return nil
		}
		cogs, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleCostOfGoodsSold)
		if err != nil {
			return err
		}
		stock, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleInventory)
		if err != nil {
			return err
		}
		memo := in.Memo
		if memo == "" {
			memo = fmt.Sprintf("Cost of goods sold, product %d", in.ProductID)
		}
		posted, err := ledger.PostTx(ctx, tx, ledger.PostingInput{
			BusinessID: in.BusinessID,
			Date:       in.OccurredAt,
			Memo:       memo,
			SourceType: ledger.SourceInventory,
			SourceID:   fmt.Sprintf("movement-%d", movement.ID),
			ActorID:    in.ActorID,
			Lines: []ledger.LineInput{
				{AccountID: cogs.ID, Debit: movement.TotalCost},
				{AccountID: stock.ID, Credit: movement.TotalCost},
			},
		})
		if err != nil {
			return err
		}
		result = MovementResult{Movement: movement, Transaction: posted}
		return nil
	})
	observability.ObservePosting(string(ledger.SourceInventory), err)
	if err != nil {
		return MovementResult{}, err
	}
	h.recordAudit(ctx, in.ActorID, "integration.goods_sold", result.Movement.ID)
	return result, nil
}

// RecordGoodsReceived books incoming stock into a new lot and posts
// Dr Inventory / Cr Accounts Payable for the landed cost.
func (h *Hooks) RecordGoodsReceived(ctx context.Context, in GoodsReceivedInput) (MovementResult, error) {
	var result MovementResult
	err := h.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		movement, err := inventory.ReceiveTx(ctx, tx, inventory.ReceiveInput{
			BusinessID: in.BusinessID,
			ProductID:  in.ProductID,
			Quantity:   in.Quantity,
			UnitCost:   in.UnitCost,
			OccurredAt: in.OccurredAt,
			Reference:  in.Reference,
			ActorID:    in.ActorID,
		})
		if err != nil {
			return err
		}
		if movement.TotalCost.IsZero() {
			result = MovementResult{Movement: movement}
			return nil
		}
		stock, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleInventory)
		if err != nil {
			return err
		}
		payable, err := tx.EnsureSystemAccount(ctx, in.BusinessID, accounts.RoleAccountsPayable)
		if err != nil {
			return err
		}
		memo := in.Memo
		if memo == "" {
			memo = fmt.Sprintf("Goods received, product %d", in.ProductID)
		}
		posted, err := ledger.PostTx(ctx, tx, ledger.PostingInput{
			BusinessID: in.BusinessID,
			Date:       in.OccurredAt,
			Memo:       memo,
			SourceType: ledger.SourceInventory,
			SourceID:   fmt.Sprintf("movement-%d", movement.ID),
			ActorID:    in.ActorID,
			Lines: []ledger.LineInput{
				{AccountID: stock.ID, Debit: movement.TotalCost},
				{AccountID: payable.ID, Credit: movement.TotalCost},
			},
		})
		if err != nil {
			return err
		}
		result = MovementResult{Movement: movement, Transaction: posted}
		return nil
	})
	observability.ObservePosting(string(ledger.SourceInventory), err)
	if err != nil {
		return MovementResult{}, err
	}
	h.recordAudit(ctx, in.ActorID, "integration.goods_received", result.Movement.ID)
	return result, nil
}

func (h *Hooks) recordAudit(ctx context.Context, actorID int64, action string, movementID int64) {
	if h.audit == nil {
		return
	}
	err := h.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "stock_movement",
		EntityID: strconv.FormatInt(movementID, 10),
		At:       h.now(),
	})
	if err != nil {
		h.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
