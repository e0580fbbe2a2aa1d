/*
store.go - Document-store facade for catalog entities

PURPOSE:
  Defines the interface between the costing engine and the document store.
  The engine only ever reads; the write surface exists for the routine CRUD
  endpoints and for tests.

READ CONTRACT:
  - Fetch-by-id returns (nil, ErrNotFound) for a missing document, never a
    zero-value record.
  - Collection scans return eventually-consistent snapshots with NO ordering
    guarantee. Callers must not assume stability across calls.
  - BOMForProduct is a one-field equality filter over the bom_lines
    collection; that is the only filter shape the store promises.

IMPLEMENTATIONS:
  - store/memory: in-memory, for tests and dev
  - store/sqlite: JSON documents in SQLite, for production

SEE ALSO:
  - types.go: The entity records
  - errors.go: ErrNotFound and friends
*/
package catalog

import "context"

// =============================================================================
// STORE - Read facade consumed by the costing engine
// =============================================================================

// Store is the document-store facade. All methods take a context because
// every call may cross a process boundary; implementations must honor
// cancellation.
type Store interface {
	// Fetch-by-id. Missing documents yield (nil, ErrNotFound).
	Material(ctx context.Context, id MaterialID) (*Material, error)
	Purchase(ctx context.Context, id PurchaseID) (*Purchase, error)
	Product(ctx context.Context, id ProductID) (*Product, error)

	// Full collection scans. Unordered.
	Materials(ctx context.Context) ([]Material, error)
	Purchases(ctx context.Context) ([]Purchase, error)
	Products(ctx context.Context) ([]Product, error)

	// BOMForProduct returns all BOM lines whose product reference equals
	// productID. Equality scan, unordered. A product with no lines yields
	// an empty slice, not an error.
	BOMForProduct(ctx context.Context, productID ProductID) ([]BOMLine, error)
}

// =============================================================================
// WRITE SURFACE - CRUD endpoints only, never used by the engine
// =============================================================================

// WriteStore extends Store with the mutations the back-office CRUD needs.
// Put is an upsert keyed on the record's ID. Delete of a missing document
// returns ErrNotFound.
type WriteStore interface {
	Store

	PutMaterial(ctx context.Context, m Material) error
	PutPurchase(ctx context.Context, p Purchase) error
	PutProduct(ctx context.Context, p Product) error
	PutBOMLine(ctx context.Context, l BOMLine) error

	DeleteMaterial(ctx context.Context, id MaterialID) error
	DeletePurchase(ctx context.Context, id PurchaseID) error
	DeleteProduct(ctx context.Context, id ProductID) error
	DeleteBOMLine(ctx context.Context, id BOMLineID) error
}
