// Package inventorytest provides a map-backed costing store for tests.
package inventorytest

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	"github.com/atlas-erp/atlas-erp/internal/inventory"
)

// Store implements inventory.TxRepository in memory. Snapshot and
// Restore emulate transactional rollback for failure-path assertions.
type Store struct {
	mu sync.Mutex

	Products  map[int64]inventory.Product
	Lots      map[int64]inventory.Lot
	Pools     map[int64]inventory.Pool
	Movements []inventory.Movement

	nextProductID  int64
	nextLotID      int64
	nextMovementID int64
}

func NewStore() *Store {
	return &Store{
		Products: make(map[int64]inventory.Product),
		Lots:     make(map[int64]inventory.Lot),
		Pools:    make(map[int64]inventory.Pool),
	}
}

// AddProduct registers a product with the given cost method.
func (s *Store) AddProduct(businessID int64, sku string, method inventory.CostMethod) inventory.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProductID++
	p := inventory.Product{ID: s.nextProductID, BusinessID: businessID, SKU: sku, Name: sku, CostMethod: method}
	s.Products[p.ID] = p
	return p
}

func (s *Store) GetProductForUpdate(_ context.Context, businessID, productID int64) (inventory.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[productID]
	if !ok || p.BusinessID != businessID {
		return inventory.Product{}, acctshared.ErrProductNotFound
	}
	return p, nil
}

func (s *Store) LotsForUpdate(_ context.Context, productID int64) ([]inventory.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLots(productID), nil
}

func (s *Store) sortedLots(productID int64) []inventory.Lot {
	var out []inventory.Lot
	for id := int64(1); id <= s.nextLotID; id++ {
		lot, ok := s.Lots[id]
		if ok && lot.ProductID == productID {
			out = append(out, lot)
		}
	}
	sortLots(out)
	return out
}

func sortLots(lots []inventory.Lot) {
	for i := 1; i < len(lots); i++ {
		for j := i; j > 0; j-- {
			a, b := lots[j-1], lots[j]
			if a.ReceivedAt.Before(b.ReceivedAt) || (a.ReceivedAt.Equal(b.ReceivedAt) && a.ID < b.ID) {
				break
			}
			lots[j-1], lots[j] = b, a
		}
	}
}

func (s *Store) InsertLot(_ context.Context, lot inventory.Lot) (inventory.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLotID++
	lot.ID = s.nextLotID
	s.Lots[lot.ID] = lot
	return lot, nil
}

func (s *Store) SetLotRemaining(_ context.Context, lotID int64, remaining decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot := s.Lots[lotID]
	lot.Remaining = remaining
	s.Lots[lotID] = lot
	return nil
}

func (s *Store) GetPool(_ context.Context, productID int64) (inventory.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.Pools[productID]
	if !ok {
		return inventory.Pool{ProductID: productID}, nil
	}
	return pool, nil
}

func (s *Store) SavePool(_ context.Context, pool inventory.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pools[pool.ProductID] = pool
	return nil
}

func (s *Store) InsertMovement(_ context.Context, m inventory.Movement) (inventory.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMovementID++
	m.ID = s.nextMovementID
	m.CreatedAt = time.Now()
	s.Movements = append(s.Movements, m)
	return m, nil
}

type snapshot struct {
	products  map[int64]inventory.Product
	lots      map[int64]inventory.Lot
	pools     map[int64]inventory.Pool
	movements []inventory.Movement
	ids       [3]int64
}

func (s *Store) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		products:  make(map[int64]inventory.Product, len(s.Products)),
		lots:      make(map[int64]inventory.Lot, len(s.Lots)),
		pools:     make(map[int64]inventory.Pool, len(s.Pools)),
		movements: append([]inventory.Movement(nil), s.Movements...),
		ids:       [3]int64{s.nextProductID, s.nextLotID, s.nextMovementID},
	}
	for k, v := range s.Products {
		snap.products[k] = v
	}
	for k, v := range s.Lots {
		snap.lots[k] = v
	}
	for k, v := range s.Pools {
		snap.pools[k] = v
	}
	return snap
}

func (s *Store) Restore(v any) {
	snap := v.(snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Products = snap.products
	s.Lots = snap.lots
	s.Pools = snap.pools
	s.Movements = snap.movements
	s.nextProductID, s.nextLotID, s.nextMovementID = snap.ids[0], snap.ids[1], snap.ids[2]
}

// ProductLots returns the product's lots oldest first.
func (s *Store) ProductLots(productID int64) []inventory.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLots(productID)
}
