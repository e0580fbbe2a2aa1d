/*
handlers.go - HTTP API handlers for the back office

PURPOSE:
  Exposes the costing engine and the routine catalog CRUD via REST. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Core:
    GET    /api/products/{id}/cost-estimate  Per-product cost estimate
    GET    /api/dashboard                    Dashboard snapshot

  Catalog CRUD:
    GET/POST        /api/materials           GET/PUT/DELETE /api/materials/{id}
    GET/POST        /api/purchases           GET/PUT/DELETE /api/purchases/{id}
    GET/POST        /api/products            GET/PUT/DELETE /api/products/{id}
    GET/POST        /api/products/{id}/bom   DELETE /api/bom/{id}

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input
  - 404: Document not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atolye/costing-engine/catalog"
	"github.com/atolye/costing-engine/costing"
	"github.com/atolye/costing-engine/dashboard"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     catalog.WriteStore
	Estimator *costing.Estimator
	Dashboard *dashboard.Builder
	Log       *slog.Logger
}

// NewHandler wires a handler. A nil logger defaults to slog.Default().
func NewHandler(store catalog.WriteStore, estimator *costing.Estimator, builder *dashboard.Builder, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Store: store, Estimator: estimator, Dashboard: builder, Log: log}
}

// =============================================================================
// CORE ENDPOINTS
// =============================================================================

// GetCostEstimate returns the cost estimate for one product.
// GET /api/products/{id}/cost-estimate
func (h *Handler) GetCostEstimate(w http.ResponseWriter, r *http.Request) {
	id := catalog.ProductID(chi.URLParam(r, "id"))

	est, err := h.Estimator.Estimate(r.Context(), id)
	if err != nil {
		if catalog.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Product not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to build estimate", err)
		return
	}

	writeJSON(w, http.StatusOK, toCostEstimateDTO(est))
}

// GetDashboard returns the dashboard snapshot.
// GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Dashboard.Build(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(snap))
}

// =============================================================================
// MATERIAL CRUD
// =============================================================================

func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.Store.Materials(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list materials", err)
		return
	}
	dtos := make([]MaterialDTO, 0, len(materials))
	for _, m := range materials {
		dtos = append(dtos, toMaterialDTO(m))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.Material(r.Context(), catalog.MaterialID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOr(w, err, "Material not found", "Failed to get material")
		return
	}
	writeJSON(w, http.StatusOK, toMaterialDTO(*m))
}

func (h *Handler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req CreateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	now := time.Now().UTC()
	m := catalog.Material{
		ID:        catalog.MaterialID(uuid.NewString()),
		Type:      materialType(req.Type),
		Name:      req.Name,
		Unit:      req.Unit,
		Notes:     req.Notes,
		CreatedAt: &now,
	}
	if err := h.Store.PutMaterial(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create material", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMaterialDTO(m))
}

func (h *Handler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id := catalog.MaterialID(chi.URLParam(r, "id"))
	existing, err := h.Store.Material(r.Context(), id)
	if err != nil {
		writeNotFoundOr(w, err, "Material not found", "Failed to get material")
		return
	}

	var req CreateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	m := catalog.Material{
		ID:        id,
		Type:      materialType(req.Type),
		Name:      req.Name,
		Unit:      req.Unit,
		Notes:     req.Notes,
		CreatedAt: existing.CreatedAt,
	}
	if err := h.Store.PutMaterial(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update material", err)
		return
	}
	writeJSON(w, http.StatusOK, toMaterialDTO(m))
}

func (h *Handler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteMaterial(r.Context(), catalog.MaterialID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOr(w, err, "Material not found", "Failed to delete material")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PURCHASE CRUD
// =============================================================================

func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.Store.Purchases(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list purchases", err)
		return
	}
	dtos := make([]PurchaseDTO, 0, len(purchases))
	for _, p := range purchases {
		dtos = append(dtos, toPurchaseDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.Purchase(r.Context(), catalog.PurchaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOr(w, err, "Purchase not found", "Failed to get purchase")
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseDTO(*p))
}

func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.MaterialID == "" {
		writeError(w, http.StatusBadRequest, "material_id is required", nil)
		return
	}

	p, err := purchaseFromRequest(catalog.PurchaseID(uuid.NewString()), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid purchase_date format (use YYYY-MM-DD)", err)
		return
	}
	now := time.Now().UTC()
	p.CreatedAt = &now

	if err := h.Store.PutPurchase(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create purchase", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPurchaseDTO(p))
}

func (h *Handler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id := catalog.PurchaseID(chi.URLParam(r, "id"))
	existing, err := h.Store.Purchase(r.Context(), id)
	if err != nil {
		writeNotFoundOr(w, err, "Purchase not found", "Failed to get purchase")
		return
	}

	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := purchaseFromRequest(id, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid purchase_date format (use YYYY-MM-DD)", err)
		return
	}
	p.CreatedAt = existing.CreatedAt

	if err := h.Store.PutPurchase(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update purchase", err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseDTO(p))
}

func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeletePurchase(r.Context(), catalog.PurchaseID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOr(w, err, "Purchase not found", "Failed to delete purchase")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PRODUCT CRUD
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.Products(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}
	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.Product(r.Context(), catalog.ProductID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOr(w, err, "Product not found", "Failed to get product")
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.SKU == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "sku and name are required", nil)
		return
	}

	count := req.Count
	if count <= 0 {
		count = 1
	}
	now := time.Now().UTC()
	p := catalog.Product{
		ID:          catalog.ProductID(uuid.NewString()),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Count:       count,
		Collection:  req.Collection,
		CreatedAt:   &now,
	}
	if err := h.Store.PutProduct(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := catalog.ProductID(chi.URLParam(r, "id"))
	existing, err := h.Store.Product(r.Context(), id)
	if err != nil {
		writeNotFoundOr(w, err, "Product not found", "Failed to get product")
		return
	}

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	count := req.Count
	if count <= 0 {
		count = existing.Count
	}
	p := catalog.Product{
		ID:          id,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Count:       count,
		Collection:  req.Collection,
		CreatedAt:   existing.CreatedAt,
	}
	if err := h.Store.PutProduct(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteProduct(r.Context(), catalog.ProductID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOr(w, err, "Product not found", "Failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BOM ENDPOINTS
// =============================================================================

// ListBOM returns all BOM lines of a product.
// GET /api/products/{id}/bom
func (h *Handler) ListBOM(w http.ResponseWriter, r *http.Request) {
	productID := catalog.ProductID(chi.URLParam(r, "id"))
	lines, err := h.Store.BOMForProduct(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list BOM lines", err)
		return
	}
	dtos := make([]BOMLineDTO, 0, len(lines))
	for _, l := range lines {
		dtos = append(dtos, toBOMLineDTO(l))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBOMLine pins a material quantity to a purchase lot.
// POST /api/products/{id}/bom
func (h *Handler) CreateBOMLine(w http.ResponseWriter, r *http.Request) {
	productID := catalog.ProductID(chi.URLParam(r, "id"))
	if _, err := h.Store.Product(r.Context(), productID); err != nil {
		writeNotFoundOr(w, err, "Product not found", "Failed to get product")
		return
	}

	var req CreateBOMLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.MaterialID == "" || req.PurchaseID == "" {
		writeError(w, http.StatusBadRequest, "material_id and purchase_id are required", nil)
		return
	}

	l := catalog.BOMLine{
		ID:          catalog.BOMLineID(uuid.NewString()),
		ProductID:   productID,
		MaterialID:  catalog.MaterialID(req.MaterialID),
		PurchaseID:  catalog.PurchaseID(req.PurchaseID),
		QtyRequired: decimal.NewFromFloat(req.QtyRequired),
		Unit:        req.Unit,
		Note:        req.Note,
	}
	if err := h.Store.PutBOMLine(r.Context(), l); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create BOM line", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBOMLineDTO(l))
}

// DeleteBOMLine removes one BOM line.
// DELETE /api/bom/{id}
func (h *Handler) DeleteBOMLine(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteBOMLine(r.Context(), catalog.BOMLineID(chi.URLParam(r, "id")))
	if err != nil {
		writeNotFoundOr(w, err, "BOM line not found", "Failed to delete BOM line")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func purchaseFromRequest(id catalog.PurchaseID, req CreatePurchaseRequest) (catalog.Purchase, error) {
	p := catalog.Purchase{
		ID:           id,
		MaterialID:   catalog.MaterialID(req.MaterialID),
		Supplier:     req.Supplier,
		QtyPurchased: decimal.NewFromFloat(req.QtyPurchased),
		UnitCost:     decimal.NewFromFloat(req.UnitCost),
		Currency:     req.Currency,
		Notes:        req.Notes,
	}
	if req.Currency == "" {
		p.Currency = "USD"
	}
	if req.QtyRemaining != nil {
		p.QtyRemaining = decimal.NewFromFloat(*req.QtyRemaining)
	} else {
		p.QtyRemaining = p.QtyPurchased
	}
	if req.PurchaseDate != "" {
		at, err := time.Parse("2006-01-02", req.PurchaseDate)
		if err != nil {
			return catalog.Purchase{}, err
		}
		p.PurchaseDate = &at
	}
	return p, nil
}

func materialType(s string) catalog.MaterialType {
	switch catalog.MaterialType(s) {
	case catalog.MaterialGemstone, catalog.MaterialMetal:
		return catalog.MaterialType(s)
	default:
		return catalog.MaterialOther
	}
}

func writeNotFoundOr(w http.ResponseWriter, err error, notFoundMsg, failMsg string) {
	if catalog.IsNotFound(err) {
		writeError(w, http.StatusNotFound, notFoundMsg, nil)
		return
	}
	writeError(w, http.StatusInternalServerError, failMsg, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
