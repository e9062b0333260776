package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jivorix/checkout-service/internal/orders"
	"github.com/jivorix/checkout-service/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type OrdersRepo interface {
	ListOrders(ctx context.Context, userID string, limit, offset int, status orders.Status) (*orders.History, error)
	GetOrder(ctx context.Context, transactionID, userID string) (*orders.Order, error)
	GetStatus(ctx context.Context, transactionID, userID string) (orders.Status, error)
	SetStatus(ctx context.Context, transactionID, userID string, status orders.Status) error
	Cancel(ctx context.Context, transactionID, userID string) error
}

type OrdersHandler struct {
	Repo     OrdersRepo
	Producer Publisher // checkout.order.status
	Redis    *redis.Client
	Service  string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/details", h.orderDetails)
	r.Get("/orders/status", h.orderStatus)
	r.Put("/orders/status", h.updateStatus)
	r.Delete("/orders/cancel", h.cancelOrder)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("userId"))
	if userID == "" {
		respond(w, http.StatusBadRequest, false, "User ID is required", nil)
		return
	}
	limit := atoiDefault(q.Get("limit"), 50)
	offset := atoiDefault(q.Get("offset"), 0)
	status := orders.Status(strings.TrimSpace(q.Get("status")))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	hist, err := h.Repo.ListOrders(ctx, userID, limit, offset, status)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, true, "Order history retrieved successfully", hist)
}

func (h *OrdersHandler) orderDetails(w http.ResponseWriter, r *http.Request) {
	transactionID, userID, ok := orderKeyParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, transactionID, userID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, true, "Order details retrieved successfully", map[string]any{
		"order": o,
	})
}

func (h *OrdersHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	transactionID, userID, ok := orderKeyParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, userID, transactionID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			respond(w, http.StatusOK, true, "Order status retrieved successfully", map[string]any{
				"transactionId": transactionID,
				"status":        s,
			})
			return
		}
	}

	status, err := h.Repo.GetStatus(ctx, transactionID, userID)
	if err != nil {
		respondErr(w, err)
		return
	}
	h.cacheStatus(ctx, key, status)
	respond(w, http.StatusOK, true, "Order status retrieved successfully", map[string]any{
		"transactionId": transactionID,
		"status":        status,
	})
}

type updateStatusReq struct {
	TransactionID string `json:"transactionId"`
	UserID        string `json:"userId"`
	Status        string `json:"status"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, false, "invalid json", nil)
		return
	}
	transactionID := strings.TrimSpace(req.TransactionID)
	userID := strings.TrimSpace(req.UserID)
	status := orders.Status(strings.TrimSpace(req.Status))
	if transactionID == "" || userID == "" || status == "" {
		respond(w, http.StatusBadRequest, false, "Transaction ID, User ID, and status are required", nil)
		return
	}
	if !orders.ValidStatus(status) {
		respond(w, http.StatusBadRequest, false, invalidStatusMessage(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.SetStatus(ctx, transactionID, userID, status); err != nil {
		respondErr(w, err)
		return
	}

	h.afterStatusWrite(ctx, r, transactionID, userID, status)
	respond(w, http.StatusOK, true, "Order status updated successfully", map[string]any{
		"transactionId": transactionID,
		"newStatus":     status,
	})
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	transactionID, userID, ok := orderKeyParams(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Cancel(ctx, transactionID, userID); err != nil {
		respondErr(w, err)
		return
	}

	h.afterStatusWrite(ctx, r, transactionID, userID, orders.StatusCancelled)
	respond(w, http.StatusOK, true, "Order cancelled successfully", map[string]any{
		"transactionId": transactionID,
		"status":        orders.StatusCancelled,
	})
}

// afterStatusWrite refreshes the status cache and publishes the change event.
func (h *OrdersHandler) afterStatusWrite(ctx context.Context, r *http.Request, transactionID, userID string, status orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, userID, transactionID)
	h.cacheStatus(ctx, key, status)
	publishEvent(h.Producer, h.Service, orders.EventOrderStatusChanged, transactionID, r.Header.Get("X-Request-Id"),
		orders.OrderStatusChangedPayload{
			TransactionID: transactionID,
			UserID:        userID,
			Status:        status,
		})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, key string, status orders.Status) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Set(ctx, key, string(status), redisx.TTLStatusCache).Err()
}

func orderKeyParams(w http.ResponseWriter, r *http.Request) (transactionID, userID string, ok bool) {
	q := r.URL.Query()
	transactionID = strings.TrimSpace(q.Get("transactionId"))
	userID = strings.TrimSpace(q.Get("userId"))
	if transactionID == "" || userID == "" {
		respond(w, http.StatusBadRequest, false, "Transaction ID and User ID are required", nil)
		return "", "", false
	}
	return transactionID, userID, true
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
