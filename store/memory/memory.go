// Package memory provides an in-memory catalog.WriteStore for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/atolye/costing-engine/catalog"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store keeps every collection in a map. Scans return copies sorted by id so
// tests see deterministic order; callers still must not rely on it.
type Store struct {
	mu        sync.RWMutex
	materials map[catalog.MaterialID]catalog.Material
	purchases map[catalog.PurchaseID]catalog.Purchase
	products  map[catalog.ProductID]catalog.Product
	bomLines  map[catalog.BOMLineID]catalog.BOMLine
}

func New() *Store {
	return &Store{
		materials: make(map[catalog.MaterialID]catalog.Material),
		purchases: make(map[catalog.PurchaseID]catalog.Purchase),
		products:  make(map[catalog.ProductID]catalog.Product),
		bomLines:  make(map[catalog.BOMLineID]catalog.BOMLine),
	}
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) Material(_ context.Context, id catalog.MaterialID) (*catalog.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &m, nil
}

func (s *Store) Purchase(_ context.Context, id catalog.PurchaseID) (*catalog.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.purchases[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (s *Store) Product(_ context.Context, id catalog.ProductID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (s *Store) Materials(_ context.Context) ([]catalog.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Material, 0, len(s.materials))
	for _, m := range s.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Purchases(_ context.Context) ([]catalog.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Purchase, 0, len(s.purchases))
	for _, p := range s.purchases {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Products(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// BOMForProduct is the one-field equality scan of the bom_lines collection.
func (s *Store) BOMForProduct(_ context.Context, productID catalog.ProductID) ([]catalog.BOMLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []catalog.BOMLine
	for _, l := range s.bomLines {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// WRITES
// =============================================================================

func (s *Store) PutMaterial(_ context.Context, m catalog.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[m.ID] = m
	return nil
}

func (s *Store) PutPurchase(_ context.Context, p catalog.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases[p.ID] = p
	return nil
}

func (s *Store) PutProduct(_ context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *Store) PutBOMLine(_ context.Context, l catalog.BOMLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bomLines[l.ID] = l
	return nil
}

func (s *Store) DeleteMaterial(_ context.Context, id catalog.MaterialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.materials[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.materials, id)
	return nil
}

func (s *Store) DeletePurchase(_ context.Context, id catalog.PurchaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.purchases[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.purchases, id)
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id catalog.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) DeleteBOMLine(_ context.Context, id catalog.BOMLineID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bomLines[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.bomLines, id)
	return nil
}
