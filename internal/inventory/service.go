package inventory

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/atlas-erp/atlas-erp/internal/shared"
)

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

// Receive books inbound stock at the supplied cost.
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (Movement, error) {
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		movement, err = ReceiveTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, in.ActorID, "inventory.receive", movement)
	return movement, nil
}

// Consume books outbound stock priced by the product's cost method.
func (s *Service) Consume(ctx context.Context, in ConsumeInput) (Movement, error) {
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		movement, err = ConsumeTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, in.ActorID, "inventory.consume", movement)
	return movement, nil
}

// Valuation derives on-hand quantity and value under the product's method.
func (s *Service) Valuation(ctx context.Context, businessID, productID int64) (Valuation, error) {
	product, err := s.repo.GetProduct(ctx, businessID, productID)
	if err != nil {
		return Valuation{}, err
	}
	v := Valuation{ProductID: product.ID, Method: product.CostMethod}
	if product.CostMethod == CostWeightedAverage {
		pool, err := s.repo.Pool(ctx, product.ID)
		if err != nil {
			return Valuation{}, err
		}
		v.OnHand = pool.TotalQty
		v.Value = pool.TotalCost.Round(2)
		return v, nil
	}
	lots, err := s.repo.Lots(ctx, product.ID)
	if err != nil {
		return Valuation{}, err
	}
	for _, lot := range lots {
		v.OnHand = v.OnHand.Add(lot.Remaining)
		v.Value = v.Value.Add(lot.Remaining.Mul(lot.UnitCost))
	}
	v.Value = v.Value.Round(2)
	return v, nil
}

func (s *Service) Movements(ctx context.Context, businessID, productID int64, limit int) ([]Movement, error) {
	return s.repo.ListMovements(ctx, businessID, productID, limit)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, m Movement) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "inventory_movement",
		EntityID: strconv.FormatInt(m.ID, 10),
		Meta:     map[string]any{"product_id": m.ProductID, "quantity": m.Quantity.String(), "total_cost": m.TotalCost.String()},
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("record audit", slog.Any("error", err))
	}
}
