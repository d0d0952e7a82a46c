package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/posflow/internal/domain"
	"github.com/joao-fontenele/posflow/internal/messaging"
	"github.com/joao-fontenele/posflow/internal/money"
)

var meter = otel.Meter("orders")

type Handler struct {
	repo              *OrderRepository
	ledger            domain.StockLedger
	completedProducer *messaging.Producer
	returnedProducer  *messaging.Producer
	policy            domain.ReturnPolicy
	logger            *slog.Logger
	completedCounter  metric.Int64Counter
	returnedCounter   metric.Int64Counter
}

func NewHandler(repo *OrderRepository, ledger domain.StockLedger, completedProducer, returnedProducer *messaging.Producer, logger *slog.Logger) *Handler {
	completedCounter, err := meter.Int64Counter("orders.completed",
		metric.WithDescription("Orders moved to COMPLETED."))
	if err != nil {
		otel.Handle(err)
	}
	returnedCounter, err := meter.Int64Counter("orders.returned",
		metric.WithDescription("Return orders created."))
	if err != nil {
		otel.Handle(err)
	}

	return &Handler{
		repo:              repo,
		ledger:            ledger,
		completedProducer: completedProducer,
		returnedProducer:  returnedProducer,
		policy:            domain.DefaultReturnPolicy(),
		logger:            logger,
		completedCounter:  completedCounter,
		returnedCounter:   returnedCounter,
	}
}

type createItemRequest struct {
	ProductID          string       `json:"product_id"`
	Quantity           int          `json:"quantity"`
	UnitPrice          money.Money  `json:"unit_price"`
	DiscountAmount     *money.Money `json:"discount_amount,omitempty"`
	DiscountPercentage *money.Money `json:"discount_percentage,omitempty"`
	Notes              string       `json:"notes,omitempty"`
}

type createOrderRequest struct {
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	CustomerPhone string               `json:"customer_phone,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Notes         string               `json:"notes,omitempty"`
	Items         []createItemRequest  `json:"items"`
}

func buildItem(req createItemRequest) (*domain.LineItem, error) {
	item, err := domain.NewLineItem(req.ProductID, req.Quantity, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	item.Notes = req.Notes

	if req.DiscountPercentage != nil {
		if err := item.ApplyPercentageDiscount(*req.DiscountPercentage); err != nil {
			return nil, err
		}
	} else if req.DiscountAmount != nil {
		if err := item.ApplyFixedDiscount(*req.DiscountAmount); err != nil {
			return nil, err
		}
	}

	return item, nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := domain.NewOrder(req.CustomerName, req.CustomerEmail, req.PaymentMethod, time.Now().UTC())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	order.CustomerPhone = req.CustomerPhone
	order.Notes = req.Notes

	for _, itemReq := range req.Items {
		item, err := buildItem(itemReq)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		if err := order.AddItem(item); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}

	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("order created", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.TotalAmount)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := buildItem(req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := order.AddItem(item); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if !h.save(w, r, order) {
		return
	}
	h.logger.Info("item added", "order_id", order.ID, "product_id", item.ProductID, "total", order.TotalAmount)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("itemId")
	if err := order.RemoveItem(itemID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if !h.save(w, r, order) {
		return
	}
	h.logger.Info("item removed", "order_id", order.ID, "item_id", itemID, "total", order.TotalAmount)
	h.writeJSON(w, http.StatusOK, order)
}

type discountRequest struct {
	Amount money.Money `json:"amount"`
}

func (h *Handler) HandleDiscount(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := order.SetDiscount(req.Amount); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if !h.save(w, r, order) {
		return
	}
	h.logger.Info("discount applied", "order_id", order.ID, "discount", req.Amount, "total", order.TotalAmount)
	h.writeJSON(w, http.StatusOK, order)
}

type paymentRequest struct {
	Amount money.Money `json:"amount"`
}

func (h *Handler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := order.RecordPayment(req.Amount); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if !h.save(w, r, order) {
		return
	}
	h.logger.Info("payment recorded", "order_id", order.ID, "amount_paid", order.AmountPaid,
		"change", order.ChangeAmount, "fully_paid", order.IsFullyPaid())
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	if err := order.Complete(r.Context(), h.ledger); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.repo.Save(r.Context(), order); err != nil {
		// The completion reserved stock; hand it back so the order stays
		// consistent with the ledger.
		for _, item := range order.Items {
			if rerr := h.ledger.Release(r.Context(), item.ProductID, item.Quantity); rerr != nil {
				h.logger.Error("failed to release stock after save failure", "error", rerr,
					"order_id", order.ID, "product_id", item.ProductID)
			}
		}
		h.logger.Error("failed to save completed order", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.completedProducer != nil {
		items := make([]domain.EventItem, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, domain.EventItem{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		event := domain.OrderCompletedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerEmail: order.CustomerEmail,
			TotalAmount:   order.TotalAmount,
			Items:         items,
			Timestamp:     time.Now().UTC(),
		}
		if err := h.completedProducer.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order completed event", "error", err, "order_id", order.ID)
		}
	}

	h.completedCounter.Add(r.Context(), 1)
	h.logger.Info("order completed", "order_id", order.ID, "total", order.TotalAmount)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	if err := order.Cancel(); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if !h.save(w, r, order) {
		return
	}
	h.logger.Info("order cancelled", "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, order)
}

type returnRequest struct {
	Lines []domain.ReturnLine `json:"lines,omitempty"`
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	var req returnRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ret, err := order.InitiateReturn(r.Context(), h.ledger, req.Lines, h.policy, time.Now().UTC())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.repo.CreateReturn(r.Context(), order, ret); err != nil {
		h.logger.Error("failed to save return", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.returnedProducer != nil {
		event := domain.OrderReturnedEvent{
			OrderID:         ret.ID,
			OriginalOrderID: order.ID,
			CustomerEmail:   ret.CustomerEmail,
			RefundAmount:    ret.TotalAmount,
			Partial:         order.Status == domain.OrderStatusPartiallyRefunded,
			Timestamp:       time.Now().UTC(),
		}
		if err := h.returnedProducer.Publish(r.Context(), ret.ID, event); err != nil {
			h.logger.Error("failed to publish order returned event", "error", err, "order_id", ret.ID)
		}
	}

	h.returnedCounter.Add(r.Context(), 1)
	h.logger.Info("order returned", "order_id", order.ID, "return_order_id", ret.ID,
		"refund", ret.TotalAmount, "status", order.Status)
	h.writeJSON(w, http.StatusCreated, ret)
}

func (h *Handler) HandleMarkReceiptSent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.MarkReceiptSent(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to mark receipt sent", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("receipt marked sent", "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return nil, false
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return nil, false
	}

	return order, true
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, order *domain.Order) bool {
	if err := h.repo.Save(r.Context(), order); err != nil {
		h.logger.Error("failed to save order", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return false
	}
	return true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	var serr *domain.StateTransitionError
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		h.writeError(w, http.StatusConflict, "insufficient stock")
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &serr):
		h.writeError(w, http.StatusUnprocessableEntity, serr.Error())
	default:
		h.logger.Error("unexpected error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
