package storage

import (
	"context"
	"sync"
	"time"
)

// Order is the subset of an order row the backend touches.
type Order struct {
	ID            string
	PaymentID     string
	PaymentStatus string
	UpdatedAt     time.Time
}

var _ OrderStore = (*MemoryOrderStore)(nil)

type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

func NewMemoryOrderStore(orders ...Order) *MemoryOrderStore {
	s := &MemoryOrderStore{orders: make(map[string]*Order, len(orders))}
	for _, o := range orders {
		s.orders[o.ID] = &o
	}
	return s
}

func (s *MemoryOrderStore) Put(o Order) {
	s.mu.Lock()
	s.orders[o.ID] = &o
	s.mu.Unlock()
}

func (s *MemoryOrderStore) Get(id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return *o, nil
}

func (s *MemoryOrderStore) UpdatePaymentStatus(_ context.Context, u OrderStatusUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, o := range s.orders {
		if o.PaymentID != u.PaymentID {
			continue
		}
		o.PaymentStatus = u.PaymentStatus
		o.UpdatedAt = u.UpdatedAt
		n++
	}
	return n, nil
}
