// internal/service/subscription/memory_store.go
package subscription

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"dukani-service/internal/domain/seller"
	"dukani-service/internal/domain/subscription"
	xerrors "dukani-service/internal/pkg/errors"
)

// MemoryStore is an in-memory implementation of PlanStore, OrderStore and
// SellerStore for development mode and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	plans   map[int64]*subscription.Plan
	orders  map[int64]*subscription.PlanOrder
	sellers map[int64]*seller.Seller
	nextID  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:   make(map[int64]*subscription.Plan),
		orders:  make(map[int64]*subscription.PlanOrder),
		sellers: make(map[int64]*seller.Seller),
		nextID:  1,
	}
}

// PutPlan registers a catalog entry, assigning an ID when absent.
func (m *MemoryStore) PutPlan(p *subscription.Plan) *subscription.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	}
	cp := *p
	m.plans[p.ID] = &cp
	return p
}

// PutSeller registers a seller, assigning an ID when absent.
func (m *MemoryStore) PutSeller(s *seller.Seller) *seller.Seller {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.nextID
		m.nextID++
	}
	cp := *s
	m.sellers[s.ID] = &cp
	return s
}

func (m *MemoryStore) FindPlanByID(ctx context.Context, id int64) (*subscription.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) FindSellerByID(ctx context.Context, id int64) (*seller.Seller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sellers[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, o *subscription.PlanOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.nextID
	m.nextID++
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *MemoryStore) FindOrderByID(ctx context.Context, id int64) (*subscription.PlanOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) FindOrdersBySeller(ctx context.Context, sellerID int64) ([]*subscription.PlanOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*subscription.PlanOrder
	for _, o := range m.orders {
		if o.SellerID == sellerID {
			cp := *o
			result = append(result, &cp)
		}
	}
	// Newest first, matching the SQL store.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (m *MemoryStore) FindOpenOrderByPlan(ctx context.Context, sellerID, planID int64) (*subscription.PlanOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *subscription.PlanOrder
	for _, o := range m.orders {
		if o.SellerID != sellerID || o.PlanID != planID || o.Status == subscription.OrderStatusExpired {
			continue
		}
		if best == nil || o.CreatedAt.After(best.CreatedAt) {
			best = o
		}
	}
	if best == nil {
		return nil, xerrors.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *MemoryStore) UpdateOrder(ctx context.Context, o *subscription.PlanOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return xerrors.ErrNotFound
	}
	o.UpdatedAt = time.Now()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateOrderExpiry(ctx context.Context, orderID int64, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return xerrors.ErrNotFound
	}
	o.ExpiryDate = sql.NullTime{Time: expiry, Valid: true}
	o.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) SaveActivation(ctx context.Context, sellerID int64, currentOrderID sql.NullInt64, orders []*subscription.PlanOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range orders {
		if _, ok := m.orders[o.ID]; !ok {
			return xerrors.ErrNotFound
		}
	}
	sel, ok := m.sellers[sellerID]
	if !ok {
		return xerrors.ErrNotFound
	}

	now := time.Now()
	for _, o := range orders {
		o.UpdatedAt = now
		cp := *o
		m.orders[o.ID] = &cp
	}
	if currentOrderID.Valid {
		sel.CurrentPlanOrderID = currentOrderID
		sel.UpdatedAt = now
	}
	return nil
}

func (m *MemoryStore) IncrementCustomerCount(ctx context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return xerrors.ErrNotFound
	}
	if o.CustomerLimit.Valid && o.CustomerCount >= int(o.CustomerLimit.Int32) {
		return xerrors.ErrQuotaExceeded
	}
	o.CustomerCount++
	o.UpdatedAt = time.Now()
	return nil
}
