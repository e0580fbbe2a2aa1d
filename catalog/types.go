/*
Package catalog defines the entities of the jewelry back office.

PURPOSE:
  This package contains the entity records the costing engine reads and the
  facade through which it reads them. Materials, purchase lots, products, and
  BOM lines live in a schemaless document store; every record here is a
  projection of a document and must tolerate absent fields.

KEY CONCEPTS IN THIS FILE (types.go):
  - Material: a raw material (gemstone, metal, ...) with a unit of measure
  - Purchase: one acquisition lot of a material at a fixed unit cost,
    currency, and date
  - Product: a finished item identified by SKU
  - BOMLine: one bill-of-materials entry, pinned to a specific purchase lot
  - Typed IDs: prevent mixing material/purchase/product identifiers

DESIGN PRINCIPLES:
  1. Explicit optionality: fields that may be absent in the source document
     are pointers; consumers must handle nil, never assume presence
  2. Precision: decimal.Decimal for money and quantities, never float64
  3. Read-only: the costing engine never mutates these records

SEE ALSO:
  - store.go: The document-store facade
  - errors.go: Sentinel errors for missing documents
*/
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MaterialID string
type PurchaseID string
type ProductID string
type BOMLineID string

// =============================================================================
// MATERIAL
// =============================================================================

type MaterialType string

const (
	MaterialGemstone MaterialType = "GEMSTONE"
	MaterialMetal    MaterialType = "METAL"
	MaterialOther    MaterialType = "OTHER"
)

// Material is a raw material. Immutable for costing purposes within a single
// aggregation pass.
type Material struct {
	ID        MaterialID   `json:"id"`
	Type      MaterialType `json:"type"`
	Name      string       `json:"name"`
	Unit      string       `json:"unit"`
	Notes     *string      `json:"notes,omitempty"`
	CreatedAt *time.Time   `json:"created_at,omitempty"`
}

// =============================================================================
// PURCHASE - One acquisition lot
// =============================================================================

// Purchase records one lot of a material bought at a fixed unit cost in a
// specific currency on a specific date. Invariant assumed (not enforced
// here): QtyRemaining <= QtyPurchased.
type Purchase struct {
	ID           PurchaseID      `json:"id"`
	MaterialID   MaterialID      `json:"material_id"`
	Supplier     string          `json:"supplier_name"`
	PurchaseDate *time.Time      `json:"purchase_date,omitempty"`
	QtyPurchased decimal.Decimal `json:"qty_purchased"`
	QtyRemaining decimal.Decimal `json:"qty_remaining"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Currency     string          `json:"currency"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
}

// Amount is the full lot cost: quantity purchased times unit cost, in the
// lot's own currency.
func (p Purchase) Amount() decimal.Decimal {
	return p.QtyPurchased.Mul(p.UnitCost)
}

// RemainingValue is the value of what is left of the lot, in the lot's own
// currency.
func (p Purchase) RemainingValue() decimal.Decimal {
	return p.QtyRemaining.Mul(p.UnitCost)
}

// =============================================================================
// PRODUCT
// =============================================================================

type Product struct {
	ID          ProductID  `json:"id"`
	SKU         string     `json:"sku"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Count       int        `json:"count"`
	Collection  *string    `json:"collection_name,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// =============================================================================
// BOM LINE - One bill-of-materials entry
// =============================================================================

// BOMLine ties a quantity of a material to a product, pinned to one specific
// purchase lot. The lot pin is what makes per-line historical pricing
// possible: two lines for the same material may point at lots bought on
// different dates in different currencies.
//
// Invariant relied on but not enforced: the pinned purchase belongs to the
// same material as the line. Violations degrade gracefully downstream.
type BOMLine struct {
	ID          BOMLineID       `json:"id"`
	ProductID   ProductID       `json:"product_id"`
	MaterialID  MaterialID      `json:"material_id"`
	PurchaseID  PurchaseID      `json:"purchase_id"`
	QtyRequired decimal.Decimal `json:"qty_required"`
	Unit        string          `json:"unit"`
	Note        *string         `json:"note,omitempty"`
}
