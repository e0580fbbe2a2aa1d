package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atolye/costing-engine/api"
	"github.com/atolye/costing-engine/catalog"
	"github.com/atolye/costing-engine/costing"
	"github.com/atolye/costing-engine/dashboard"
	"github.com/atolye/costing-engine/fx"
	"github.com/atolye/costing-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	store  *memory.Store
	router *chi.Mux
}

// fixedProvider quotes every currency at the same rate into TRY.
type fixedProvider struct{ rate float64 }

func (p fixedProvider) Name() string { return "fixed" }

func (p fixedProvider) Historical(context.Context, string, time.Time) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{"TRY": decimal.NewFromFloat(p.rate)}, nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	resolver := fx.NewResolver([]fx.Provider{fixedProvider{rate: 35}}, fx.DefaultTRYTable(), log)
	h := api.NewHandler(store,
		costing.NewEstimator(store, resolver, "TRY", log),
		dashboard.NewBuilder(store, resolver, "TRY"),
		log)
	return &fixture{store: store, router: api.NewRouter(h, false)}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// =============================================================================
// CORE ENDPOINT TESTS
// =============================================================================

func TestGetCostEstimate_UnknownProduct_Returns404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products/nope/cost-estimate", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, "Product not found", resp.Error)
}

func TestGetCostEstimate_ReturnsBreakdownAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	on := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.store.PutProduct(ctx, catalog.Product{ID: "p1", SKU: "R1", Name: "Ring", Count: 1}))
	require.NoError(t, f.store.PutMaterial(ctx, catalog.Material{ID: "m1", Type: catalog.MaterialGemstone, Name: "Diamond", Unit: "ct"}))
	require.NoError(t, f.store.PutPurchase(ctx, catalog.Purchase{
		ID: "l1", MaterialID: "m1", Supplier: "acme", PurchaseDate: &on,
		QtyPurchased: decimal.NewFromInt(10), QtyRemaining: decimal.NewFromInt(10),
		UnitCost: decimal.NewFromInt(100), Currency: "USD",
	}))
	require.NoError(t, f.store.PutBOMLine(ctx, catalog.BOMLine{
		ID: "b1", ProductID: "p1", MaterialID: "m1", PurchaseID: "l1",
		QtyRequired: decimal.NewFromInt(2), Unit: "ct",
	}))

	rec := f.do(t, http.MethodGet, "/api/products/p1/cost-estimate", "")

	require.Equal(t, http.StatusOK, rec.Code)
	est := decode[api.CostEstimateDTO](t, rec)
	assert.Equal(t, "Ring", est.ProductName)
	require.Len(t, est.Breakdown, 1)
	assert.Equal(t, "Diamond", est.Breakdown[0].MaterialName)
	assert.InDelta(t, 200, *est.Breakdown[0].TotalCost, 1e-9)
	require.NotNil(t, est.TotalReference)
	assert.InDelta(t, 7000, *est.TotalReference, 1e-9)
	require.Len(t, est.ExchangeRates, 1)
	assert.Equal(t, "USD", est.ExchangeRates[0].FromCurrency)
	assert.True(t, est.ExchangeRates[0].IsLive)
	assert.False(t, est.HasMissingCosts)
}

func TestGetDashboard_EmptyStore_EmptyArraysNotNull(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/dashboard", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, `"labels":null`)
	assert.NotContains(t, body, `"data":null`)

	dash := decode[api.DashboardDTO](t, rec)
	assert.Zero(t, dash.TotalProducts)
	assert.Empty(t, dash.ProductsOverTime.Labels)
}

// =============================================================================
// CRUD TESTS
// =============================================================================

func TestCreateMaterial_AssignsIDAndTimestamps(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/materials",
		`{"type": "GEMSTONE", "name": "Sapphire", "unit": "ct"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	m := decode[api.MaterialDTO](t, rec)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "GEMSTONE", m.Type)
	assert.Equal(t, "Sapphire", m.Name)
	require.NotNil(t, m.CreatedAt)

	list := decode[[]api.MaterialDTO](t, f.do(t, http.MethodGet, "/api/materials", ""))
	assert.Len(t, list, 1)
}

func TestCreateMaterial_UnknownType_DegradesToOther(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/materials",
		`{"type": "PLASTIC", "name": "Resin", "unit": "g"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	m := decode[api.MaterialDTO](t, rec)
	assert.Equal(t, "OTHER", m.Type)
}

func TestCreateMaterial_MissingName_Returns400(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/materials", `{"type": "METAL", "unit": "g"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePurchase_DefaultsCurrencyAndRemaining(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/purchases",
		`{"material_id": "m1", "supplier_name": "acme", "purchase_date": "2024-03-01", "qty_purchased": 10, "unit_cost": 5}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	p := decode[api.PurchaseDTO](t, rec)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, float64(10), p.QtyRemaining)
	require.NotNil(t, p.PurchaseDate)
	assert.Equal(t, "2024-03-01", *p.PurchaseDate)
}

func TestCreatePurchase_BadDate_Returns400(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/purchases",
		`{"material_id": "m1", "purchase_date": "03/01/2024", "qty_purchased": 1, "unit_cost": 1}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProduct_PreservesCreatedAt(t *testing.T) {
	f := newFixture(t)

	created := decode[api.ProductDTO](t, f.do(t, http.MethodPost, "/api/products",
		`{"sku": "R1", "name": "Ring", "count": 2}`))

	rec := f.do(t, http.MethodPut, "/api/products/"+created.ID,
		`{"sku": "R1", "name": "Ring v2", "count": 3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[api.ProductDTO](t, rec)
	assert.Equal(t, "Ring v2", updated.Name)
	assert.Equal(t, 3, updated.Count)
	require.NotNil(t, updated.CreatedAt)
	assert.Equal(t, *created.CreatedAt, *updated.CreatedAt)
}

func TestDeleteProduct_ThenGet_Returns404(t *testing.T) {
	f := newFixture(t)

	created := decode[api.ProductDTO](t, f.do(t, http.MethodPost, "/api/products",
		`{"sku": "R1", "name": "Ring", "count": 1}`))

	rec := f.do(t, http.MethodDelete, "/api/products/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/products/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// BOM TESTS
// =============================================================================

func TestCreateBOMLine_UnknownProduct_Returns404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/products/nope/bom",
		`{"material_id": "m1", "purchase_id": "l1", "qty_required": 1, "unit": "ct"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBOMLine_RequiresMaterialAndPurchase(t *testing.T) {
	f := newFixture(t)

	created := decode[api.ProductDTO](t, f.do(t, http.MethodPost, "/api/products",
		`{"sku": "R1", "name": "Ring", "count": 1}`))

	rec := f.do(t, http.MethodPost, "/api/products/"+created.ID+"/bom",
		`{"qty_required": 1, "unit": "ct"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBOMLifecycle_CreateListDelete(t *testing.T) {
	f := newFixture(t)

	product := decode[api.ProductDTO](t, f.do(t, http.MethodPost, "/api/products",
		`{"sku": "R1", "name": "Ring", "count": 1}`))

	rec := f.do(t, http.MethodPost, "/api/products/"+product.ID+"/bom",
		`{"material_id": "m1", "purchase_id": "l1", "qty_required": 2.5, "unit": "ct"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	line := decode[api.BOMLineDTO](t, rec)
	assert.Equal(t, product.ID, line.ProductID)
	assert.Equal(t, 2.5, line.QtyRequired)

	list := decode[[]api.BOMLineDTO](t, f.do(t, http.MethodGet, "/api/products/"+product.ID+"/bom", ""))
	require.Len(t, list, 1)

	rec = f.do(t, http.MethodDelete, "/api/bom/"+line.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	list = decode[[]api.BOMLineDTO](t, f.do(t, http.MethodGet, "/api/products/"+product.ID+"/bom", ""))
	assert.Empty(t, list)
}

// =============================================================================
// INFRA TESTS
// =============================================================================

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
