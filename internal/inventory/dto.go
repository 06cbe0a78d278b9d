package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

type ReceiveInput struct {
	BusinessID int64           `json:"business_id" validate:"required"`
	ProductID  int64           `json:"product_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	OccurredAt time.Time       `json:"occurred_at" validate:"required"`
	Reference  string          `json:"reference"`
	ActorID    int64           `json:"-"`
}

func (in ReceiveInput) Validate() error {
	if !in.Quantity.IsPositive() {
		return acctshared.ErrQuantityNotPositive
	}
	if in.UnitCost.IsNegative() {
		return acctshared.ErrNegativeCost
	}
	return nil
}

type ConsumeInput struct {
	BusinessID int64           `json:"business_id" validate:"required"`
	ProductID  int64           `json:"product_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	OccurredAt time.Time       `json:"occurred_at" validate:"required"`
	Reference  string          `json:"reference"`
	ActorID    int64           `json:"-"`
}

func (in ConsumeInput) Validate() error {
	if !in.Quantity.IsPositive() {
		return acctshared.ErrQuantityNotPositive
	}
	return nil
}
