package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostMethod selects the valuation strategy for a product. The method
// is stored per product and dispatched at consumption time.
type CostMethod string

const (
	CostFIFO            CostMethod = "fifo"
	CostWeightedAverage CostMethod = "weighted_average"
)

// Product is the costing view of an item. Catalog concerns live elsewhere.
type Product struct {
	ID         int64
	BusinessID int64
	SKU        string
	Name       string
	CostMethod CostMethod
}

// Lot is one receipt layer consumed in FIFO order.
type Lot struct {
	ID         int64
	ProductID  int64
	ReceivedAt time.Time
	Quantity   decimal.Decimal
	Remaining  decimal.Decimal
	UnitCost   decimal.Decimal
}

// Pool is the running weighted-average quantity and cost of a product.
// It is maintained on every receipt so a product's history stays usable
// under either method.
type Pool struct {
	ProductID int64
	TotalQty  decimal.Decimal
	TotalCost decimal.Decimal
}

type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// Movement is the immutable audit trail row for one stock change. For
// outbound movements UnitCost and TotalCost are computed by the costing
// strategy, never supplied by the caller.
type Movement struct {
	ID         int64
	BusinessID int64
	ProductID  int64
	Type       MovementType
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	TotalCost  decimal.Decimal
	OccurredAt time.Time
	Reference  string
	CreatedBy  int64
	CreatedAt  time.Time
}

// Valuation reports on-hand quantity and value under the product's method.
type Valuation struct {
	ProductID int64           `json:"product_id"`
	Method    CostMethod      `json:"method"`
	OnHand    decimal.Decimal `json:"on_hand"`
	Value     decimal.Decimal `json:"value"`
}
