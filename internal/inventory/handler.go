package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/posflow/internal/domain"
)

type Handler struct {
	repo   *ProductRepository
	logger *slog.Logger
}

func NewHandler(repo *ProductRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("products listed", "count", len(records))
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	rec, err := h.repo.Get(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if rec == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

type createProductRequest struct {
	ProductID      string `json:"product_id"`
	QuantityOnHand int    `json:"quantity_on_hand"`
	ReorderLevel   int    `json:"reorder_level"`
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}
	if req.QuantityOnHand < 0 || req.ReorderLevel < 0 {
		h.writeError(w, http.StatusBadRequest, "quantities must not be negative")
		return
	}

	rec := domain.StockRecord{
		ProductID:      req.ProductID,
		QuantityOnHand: req.QuantityOnHand,
		ReorderLevel:   req.ReorderLevel,
	}
	rec.RefreshStatus()

	if err := h.repo.Create(r.Context(), rec); err != nil {
		h.logger.Error("failed to create product", "error", err, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", rec.ProductID, "quantity_on_hand", rec.QuantityOnHand)
	h.writeJSON(w, http.StatusCreated, rec)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleReserve(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.repo.Get(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if rec == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.repo.Reserve(r.Context(), productID, req.Quantity); err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.Is(err, domain.ErrInsufficientStock):
			h.writeError(w, http.StatusConflict, "insufficient stock")
		case errors.As(err, &verr):
			h.writeError(w, http.StatusBadRequest, verr.Error())
		default:
			h.logger.Error("failed to reserve stock", "error", err, "product_id", productID, "quantity", req.Quantity)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("stock reserved", "product_id", productID, "quantity", req.Quantity)
	h.respondWithProduct(w, r, productID)
}

func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	h.handleIncrease(w, r, "released")
}

// HandleRestock shares the release path: a supplier delivery and a returned
// item both add quantity back on hand.
func (h *Handler) HandleRestock(w http.ResponseWriter, r *http.Request) {
	h.handleIncrease(w, r, "restocked")
}

func (h *Handler) handleIncrease(w http.ResponseWriter, r *http.Request, action string) {
	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.repo.Release(r.Context(), productID, req.Quantity); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.logger.Error("failed to release stock", "error", err, "product_id", productID, "quantity", req.Quantity)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("stock "+action, "product_id", productID, "quantity", req.Quantity)
	h.respondWithProduct(w, r, productID)
}

func (h *Handler) HandleDiscontinue(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	if err := h.repo.Discontinue(r.Context(), productID); err != nil {
		h.logger.Error("failed to discontinue product", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product discontinued", "product_id", productID)
	h.respondWithProduct(w, r, productID)
}

func (h *Handler) respondWithProduct(w http.ResponseWriter, r *http.Request, productID string) {
	rec, err := h.repo.Get(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to get updated product", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
