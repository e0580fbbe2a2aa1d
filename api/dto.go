/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model (decimal amounts, typed ids, pointers for
  optionality) from the external contract (plain floats, nullable fields).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - costing/estimate.go, dashboard/snapshot.go: The domain shapes
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atolye/costing-engine/catalog"
	"github.com/atolye/costing-engine/costing"
	"github.com/atolye/costing-engine/dashboard"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CATALOG DTOS
// =============================================================================

type MaterialDTO struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Notes     *string `json:"notes,omitempty"`
	CreatedAt *string `json:"created_at,omitempty"`
}

type CreateMaterialRequest struct {
	Type  string  `json:"type"`
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Notes *string `json:"notes,omitempty"`
}

type PurchaseDTO struct {
	ID           string  `json:"id"`
	MaterialID   string  `json:"material_id"`
	Supplier     string  `json:"supplier_name"`
	PurchaseDate *string `json:"purchase_date,omitempty"`
	QtyPurchased float64 `json:"qty_purchased"`
	QtyRemaining float64 `json:"qty_remaining"`
	UnitCost     float64 `json:"unit_cost"`
	Currency     string  `json:"currency"`
	Notes        *string `json:"notes,omitempty"`
}

type CreatePurchaseRequest struct {
	MaterialID   string   `json:"material_id"`
	Supplier     string   `json:"supplier_name"`
	PurchaseDate string   `json:"purchase_date"` // YYYY-MM-DD
	QtyPurchased float64  `json:"qty_purchased"`
	QtyRemaining *float64 `json:"qty_remaining,omitempty"` // defaults to qty_purchased
	UnitCost     float64  `json:"unit_cost"`
	Currency     string   `json:"currency"`
	Notes        *string  `json:"notes,omitempty"`
}

type ProductDTO struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Count       int     `json:"count"`
	Collection  *string `json:"collection_name,omitempty"`
	CreatedAt   *string `json:"created_at,omitempty"`
}

type CreateProductRequest struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Count       int     `json:"count"`
	Collection  *string `json:"collection_name,omitempty"`
}

type BOMLineDTO struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	MaterialID  string  `json:"material_id"`
	PurchaseID  string  `json:"purchase_id"`
	QtyRequired float64 `json:"qty_required"`
	Unit        string  `json:"unit"`
	Note        *string `json:"note,omitempty"`
}

type CreateBOMLineRequest struct {
	MaterialID  string  `json:"material_id"`
	PurchaseID  string  `json:"purchase_id"`
	QtyRequired float64 `json:"qty_required"`
	Unit        string  `json:"unit"`
	Note        *string `json:"note,omitempty"`
}

// =============================================================================
// COST ESTIMATE DTOS
// =============================================================================

type BreakdownRowDTO struct {
	MaterialID   string   `json:"material_id"`
	MaterialName string   `json:"material_name"`
	QtyRequired  float64  `json:"qty_required"`
	Unit         string   `json:"unit"`
	UnitCost     *float64 `json:"unit_cost"`
	Currency     *string  `json:"currency"`
	TotalCost    *float64 `json:"total_cost"`
	TotalCostRef *float64 `json:"total_cost_reference"`
	HasCost      bool     `json:"has_cost"`
	Warning      *string  `json:"warning,omitempty"`
}

type CurrencyTotalDTO struct {
	Currency string  `json:"currency"`
	Total    float64 `json:"total"`
}

type RateNoteDTO struct {
	FromCurrency string  `json:"from_currency"`
	ToCurrency   string  `json:"to_currency"`
	Rate         float64 `json:"rate"`
	Date         string  `json:"date"`
	IsLive       bool    `json:"is_from_api"`
}

type CostEstimateDTO struct {
	ProductID       string             `json:"product_id"`
	ProductName     string             `json:"product_name"`
	Breakdown       []BreakdownRowDTO  `json:"material_breakdown"`
	CurrencyTotals  []CurrencyTotalDTO `json:"currency_totals"`
	TotalReference  *float64           `json:"total_reference"`
	ExchangeRates   []RateNoteDTO      `json:"exchange_rates"`
	HasMissingCosts bool               `json:"has_missing_costs"`
}

// =============================================================================
// DASHBOARD DTOS
// =============================================================================

type SeriesDTO struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

type DashboardRateDTO struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

type DashboardDTO struct {
	ProductsOverTime  SeriesDTO `json:"products_over_time"`
	PurchasesOverTime SeriesDTO `json:"purchases_over_time"`
	SpendingOverTime  SeriesDTO `json:"spending_over_time"`
	MaterialsByType   SeriesDTO `json:"materials_by_type"`
	InventoryValue    SeriesDTO `json:"inventory_value"`
	TopMaterials      SeriesDTO `json:"top_materials"`
	TopProducts       SeriesDTO `json:"products_by_count"`

	TotalProducts  int `json:"total_products"`
	TotalMaterials int `json:"total_materials"`
	TotalPurchases int `json:"total_purchases"`
	TotalUnitCount int `json:"total_products_count"`

	SpendByCurrency     map[string]float64 `json:"spending_by_currency"`
	TotalSpendReference float64            `json:"total_spending_reference"`
	ExchangeRates       []DashboardRateDTO `json:"exchange_rate_info"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toMaterialDTO(m catalog.Material) MaterialDTO {
	return MaterialDTO{
		ID:        string(m.ID),
		Type:      string(m.Type),
		Name:      m.Name,
		Unit:      m.Unit,
		Notes:     m.Notes,
		CreatedAt: fmtTimePtr(m.CreatedAt),
	}
}

func toPurchaseDTO(p catalog.Purchase) PurchaseDTO {
	return PurchaseDTO{
		ID:           string(p.ID),
		MaterialID:   string(p.MaterialID),
		Supplier:     p.Supplier,
		PurchaseDate: fmtDatePtr(p.PurchaseDate),
		QtyPurchased: p.QtyPurchased.InexactFloat64(),
		QtyRemaining: p.QtyRemaining.InexactFloat64(),
		UnitCost:     p.UnitCost.InexactFloat64(),
		Currency:     p.Currency,
		Notes:        p.Notes,
	}
}

func toProductDTO(p catalog.Product) ProductDTO {
	return ProductDTO{
		ID:          string(p.ID),
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Count:       p.Count,
		Collection:  p.Collection,
		CreatedAt:   fmtTimePtr(p.CreatedAt),
	}
}

func toBOMLineDTO(l catalog.BOMLine) BOMLineDTO {
	return BOMLineDTO{
		ID:          string(l.ID),
		ProductID:   string(l.ProductID),
		MaterialID:  string(l.MaterialID),
		PurchaseID:  string(l.PurchaseID),
		QtyRequired: l.QtyRequired.InexactFloat64(),
		Unit:        l.Unit,
		Note:        l.Note,
	}
}

func toCostEstimateDTO(est *costing.Estimate) CostEstimateDTO {
	dto := CostEstimateDTO{
		ProductID:       string(est.ProductID),
		ProductName:     est.ProductName,
		Breakdown:       make([]BreakdownRowDTO, 0, len(est.Breakdown)),
		CurrencyTotals:  make([]CurrencyTotalDTO, 0, len(est.Subtotals)),
		ExchangeRates:   make([]RateNoteDTO, 0, len(est.Rates)),
		TotalReference:  decimalPtrToFloat(est.TotalReference),
		HasMissingCosts: est.HasMissingCosts,
	}

	for _, row := range est.Breakdown {
		r := BreakdownRowDTO{
			MaterialID:   string(row.MaterialID),
			MaterialName: row.MaterialName,
			QtyRequired:  row.QtyRequired.InexactFloat64(),
			Unit:         row.Unit,
			UnitCost:     decimalPtrToFloat(row.UnitCost),
			Currency:     row.Currency,
			TotalCost:    decimalPtrToFloat(row.LineTotal),
			TotalCostRef: decimalPtrToFloat(row.LineTotalRef),
			HasCost:      row.HasCost,
		}
		if row.Warning != "" {
			warning := row.Warning
			r.Warning = &warning
		}
		dto.Breakdown = append(dto.Breakdown, r)
	}

	for _, st := range est.Subtotals {
		dto.CurrencyTotals = append(dto.CurrencyTotals, CurrencyTotalDTO{
			Currency: st.Currency,
			Total:    st.Total.InexactFloat64(),
		})
	}

	for _, note := range est.Rates {
		dto.ExchangeRates = append(dto.ExchangeRates, RateNoteDTO{
			FromCurrency: note.From,
			ToCurrency:   note.To,
			Rate:         note.Rate.InexactFloat64(),
			Date:         note.Date,
			IsLive:       note.Live,
		})
	}

	return dto
}

func toDashboardDTO(snap *dashboard.Snapshot) DashboardDTO {
	dto := DashboardDTO{
		ProductsOverTime:  toSeriesDTO(snap.ProductsOverTime),
		PurchasesOverTime: toSeriesDTO(snap.PurchasesOverTime),
		SpendingOverTime:  toSeriesDTO(snap.SpendingOverTime),
		MaterialsByType:   toSeriesDTO(snap.MaterialsByType),
		InventoryValue:    toSeriesDTO(snap.InventoryValue),
		TopMaterials:      toSeriesDTO(snap.TopMaterials),
		TopProducts:       toSeriesDTO(snap.TopProducts),

		TotalProducts:  snap.TotalProducts,
		TotalMaterials: snap.TotalMaterials,
		TotalPurchases: snap.TotalPurchases,
		TotalUnitCount: snap.TotalUnitCount,

		SpendByCurrency:     make(map[string]float64, len(snap.SpendByCurrency)),
		TotalSpendReference: snap.TotalSpendReference.InexactFloat64(),
		ExchangeRates:       make([]DashboardRateDTO, 0, len(snap.Rates)),
	}

	for currency, total := range snap.SpendByCurrency {
		dto.SpendByCurrency[currency] = total.InexactFloat64()
	}
	for _, note := range snap.Rates {
		dto.ExchangeRates = append(dto.ExchangeRates, DashboardRateDTO{
			Currency: note.Currency,
			Rate:     note.Rate.InexactFloat64(),
		})
	}
	return dto
}

func toSeriesDTO(s dashboard.Series) SeriesDTO {
	dto := SeriesDTO{Labels: s.Labels, Data: s.Data}
	if dto.Labels == nil {
		dto.Labels = []string{}
	}
	if dto.Data == nil {
		dto.Data = []float64{}
	}
	return dto
}

func decimalPtrToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
