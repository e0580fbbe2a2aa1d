/*
Package sqlite provides a SQLite-backed implementation of catalog.WriteStore.

PURPOSE:
  Persists catalog entities as schemaless JSON documents, one row per
  document. The engine only ever needs fetch-by-id, full collection scans,
  and a one-field equality filter, so a single documents table covers every
  collection without per-entity schema.

KEY TABLE:
  documents(collection, id, body)
    collection: "materials" | "purchases" | "products" | "bom_lines"
    body:       the entity serialized as JSON

FILTERING:
  Scans are ordered by id for stable output; the BOM equality filter is
  applied in Go after the collection scan. Document volume is small (see the
  dashboard's scaling note), so no JSON indexes are needed yet.

WAL MODE:
  Opened with WAL for better concurrency: readers don't block, single
  writer, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/atolye.db")   // or ":memory:"
  if err != nil { ... }
  defer store.Close()

SEE ALSO:
  - catalog/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/atolye/costing-engine/catalog"
)

const (
	colMaterials = "materials"
	colPurchases = "purchases"
	colProducts  = "products"
	colBOMLines  = "bom_lines"
)

// Store implements catalog.WriteStore over a documents table.
type Store struct {
	db *sql.DB
}

// New opens (and if needed creates) the database at dbPath. Use ":memory:"
// for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		body       TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DOCUMENT PRIMITIVES
// =============================================================================

func (s *Store) get(ctx context.Context, collection, id string, out any) error {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return catalog.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), out)
}

// scan loads a whole collection. each receives every document body; decode
// failures are returned, not skipped, because they indicate a corrupt row
// rather than an absent field.
func (s *Store) scan(ctx context.Context, collection string, each func([]byte) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return err
		}
		if err := each([]byte(body)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) put(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body`,
		collection, id, string(body))
	return err
}

func (s *Store) delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) Material(ctx context.Context, id catalog.MaterialID) (*catalog.Material, error) {
	var m catalog.Material
	if err := s.get(ctx, colMaterials, string(id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) Purchase(ctx context.Context, id catalog.PurchaseID) (*catalog.Purchase, error) {
	var p catalog.Purchase
	if err := s.get(ctx, colPurchases, string(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Product(ctx context.Context, id catalog.ProductID) (*catalog.Product, error) {
	var p catalog.Product
	if err := s.get(ctx, colProducts, string(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Materials(ctx context.Context) ([]catalog.Material, error) {
	var out []catalog.Material
	err := s.scan(ctx, colMaterials, func(body []byte) error {
		var m catalog.Material
		if err := json.Unmarshal(body, &m); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

func (s *Store) Purchases(ctx context.Context) ([]catalog.Purchase, error) {
	var out []catalog.Purchase
	err := s.scan(ctx, colPurchases, func(body []byte) error {
		var p catalog.Purchase
		if err := json.Unmarshal(body, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (s *Store) Products(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	err := s.scan(ctx, colProducts, func(body []byte) error {
		var p catalog.Product
		if err := json.Unmarshal(body, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (s *Store) BOMForProduct(ctx context.Context, productID catalog.ProductID) ([]catalog.BOMLine, error) {
	var out []catalog.BOMLine
	err := s.scan(ctx, colBOMLines, func(body []byte) error {
		var l catalog.BOMLine
		if err := json.Unmarshal(body, &l); err != nil {
			return err
		}
		if l.ProductID == productID {
			out = append(out, l)
		}
		return nil
	})
	return out, err
}

// =============================================================================
// WRITES
// =============================================================================

func (s *Store) PutMaterial(ctx context.Context, m catalog.Material) error {
	return s.put(ctx, colMaterials, string(m.ID), m)
}

func (s *Store) PutPurchase(ctx context.Context, p catalog.Purchase) error {
	return s.put(ctx, colPurchases, string(p.ID), p)
}

func (s *Store) PutProduct(ctx context.Context, p catalog.Product) error {
	return s.put(ctx, colProducts, string(p.ID), p)
}

func (s *Store) PutBOMLine(ctx context.Context, l catalog.BOMLine) error {
	return s.put(ctx, colBOMLines, string(l.ID), l)
}

func (s *Store) DeleteMaterial(ctx context.Context, id catalog.MaterialID) error {
	return s.delete(ctx, colMaterials, string(id))
}

func (s *Store) DeletePurchase(ctx context.Context, id catalog.PurchaseID) error {
	return s.delete(ctx, colPurchases, string(id))
}

func (s *Store) DeleteProduct(ctx context.Context, id catalog.ProductID) error {
	return s.delete(ctx, colProducts, string(id))
}

func (s *Store) DeleteBOMLine(ctx context.Context, id catalog.BOMLineID) error {
	return s.delete(ctx, colBOMLines, string(id))
}
