package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/posflow/internal/domain"
)

// ReceiptHandler reacts to order lifecycle events: it sends the customer a
// receipt or refund notice through the email service and flips the order's
// receipt flag in the orders service.
type ReceiptHandler struct {
	emailServiceURL  string
	ordersServiceURL string
	httpClient       *http.Client
	logger           *slog.Logger
}

func NewReceiptHandler(emailServiceURL, ordersServiceURL string, client *http.Client, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		emailServiceURL:  emailServiceURL,
		ordersServiceURL: ordersServiceURL,
		httpClient:       client,
		logger:           logger,
	}
}

func (h *ReceiptHandler) HandleCompleted(ctx context.Context, payload []byte) error {
	var event domain.OrderCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order completed event: %w", err)
	}

	h.logger.Info("processing order completed event", "order_id", event.OrderID, "order_number", event.OrderNumber)

	body := map[string]string{
		"to":      event.CustomerEmail,
		"subject": "Receipt for order " + event.OrderNumber,
		"body": fmt.Sprintf("Thank you for your purchase. Order %s (%d items) came to %s.",
			event.OrderNumber, len(event.Items), event.TotalAmount),
	}
	if err := h.sendEmail(ctx, body); err != nil {
		h.logger.Error("failed to send receipt email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send receipt email: %w", err)
	}

	if err := h.markReceiptSent(ctx, event.OrderID); err != nil {
		h.logger.Error("failed to mark receipt sent", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("mark receipt sent: %w", err)
	}

	h.logger.Info("receipt sent", "order_id", event.OrderID)
	return nil
}

func (h *ReceiptHandler) HandleReturned(ctx context.Context, payload []byte) error {
	var event domain.OrderReturnedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order returned event: %w", err)
	}

	h.logger.Info("processing order returned event", "order_id", event.OrderID, "original_order_id", event.OriginalOrderID)

	kind := "full"
	if event.Partial {
		kind = "partial"
	}
	body := map[string]string{
		"to":      event.CustomerEmail,
		"subject": "Refund issued",
		"body": fmt.Sprintf("Your %s return for order %s has been processed. %s will be refunded.",
			kind, event.OriginalOrderID, event.RefundAmount),
	}
	if err := h.sendEmail(ctx, body); err != nil {
		h.logger.Error("failed to send refund email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send refund email: %w", err)
	}

	h.logger.Info("refund notice sent", "order_id", event.OrderID)
	return nil
}

func (h *ReceiptHandler) sendEmail(ctx context.Context, body map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}

func (h *ReceiptHandler) markReceiptSent(ctx context.Context, orderID string) error {
	url := fmt.Sprintf("%s/orders/%s/receipt", h.ordersServiceURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, nil)
	if err != nil {
		return err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("orders service returned status %d", resp.StatusCode)
	}

	return nil
}
