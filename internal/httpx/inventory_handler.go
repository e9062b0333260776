package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jivorix/checkout-service/internal/inventory"
	"github.com/jivorix/checkout-service/internal/orders"
)

type InventoryStore interface {
	Initialize(ctx context.Context, items []inventory.SeedItem) (*inventory.InitResult, error)
	Get(ctx context.Context, itemID string) (int, error)
	GetAll(ctx context.Context) (map[string]int, []string, error)
	Set(ctx context.Context, itemID string, quantity int) (bool, error)
	Reserve(ctx context.Context, lines []inventory.Line) ([]inventory.Reservation, error)
}

type InventoryHandler struct {
	Store            InventoryStore
	ProducerReserved Publisher // checkout.stock.reserved
	ProducerDepleted Publisher // checkout.stock.depleted
	Service          string
}

func (h *InventoryHandler) Register(r *chi.Mux) {
	r.Get("/inventory", h.getInventory)
	r.Post("/inventory", h.setInventory)
	r.Put("/inventory", h.reserveInventory)
	r.Post("/inventory/init", h.initInventory)
}

func (h *InventoryHandler) getInventory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	itemID := strings.TrimSpace(r.URL.Query().Get("itemId"))
	if itemID != "" {
		qty, err := h.Store.Get(ctx, itemID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respond(w, http.StatusOK, true, "Inventory retrieved successfully", map[string]any{
			"itemId":   itemID,
			"quantity": qty,
		})
		return
	}

	all, _, err := h.Store.GetAll(ctx)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, true, "All inventory retrieved successfully", map[string]any{
		"inventory": all,
	})
}

type setInventoryReq struct {
	ItemID   *string `json:"itemId"`
	Quantity *int    `json:"quantity"`
}

func (h *InventoryHandler) setInventory(w http.ResponseWriter, r *http.Request) {
	var req setInventoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, false, "invalid json", nil)
		return
	}
	if req.ItemID == nil || req.Quantity == nil {
		respond(w, http.StatusBadRequest, false, "itemId and quantity are required", nil)
		return
	}
	itemID := strings.TrimSpace(*req.ItemID)
	if *req.Quantity < 0 {
		respond(w, http.StatusBadRequest, false, "Quantity cannot be negative", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	created, err := h.Store.Set(ctx, itemID, *req.Quantity)
	if err != nil {
		respondErr(w, err)
		return
	}
	msg := "Inventory updated successfully"
	if created {
		msg = "Inventory created successfully"
	}
	respond(w, http.StatusOK, true, msg, map[string]any{
		"itemId":   itemID,
		"quantity": *req.Quantity,
	})
}

type reserveLineReq struct {
	ProductID *string `json:"product_id"`
	Quantity  *int    `json:"quantity"`
}

type reserveReq struct {
	Items []reserveLineReq `json:"items"`
}

func (h *InventoryHandler) reserveInventory(w http.ResponseWriter, r *http.Request) {
	var req reserveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, false, "invalid json", nil)
		return
	}
	if req.Items == nil {
		respond(w, http.StatusBadRequest, false, "items array is required", nil)
		return
	}

	lines := make([]inventory.Line, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == nil || it.Quantity == nil {
			respond(w, http.StatusBadRequest, false, "Each item must have product_id and quantity", nil)
			return
		}
		lines = append(lines, inventory.Line{
			ItemID:   strings.TrimSpace(*it.ProductID),
			Quantity: *it.Quantity,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Store.Reserve(ctx, lines)
	if err != nil {
		respondErr(w, err)
		return
	}

	h.publishStockEvents(r, updated)

	respond(w, http.StatusOK, true, "Inventory reduced successfully", map[string]any{
		"updatedItems": updated,
	})
}

func (h *InventoryHandler) publishStockEvents(r *http.Request, updated []inventory.Reservation) {
	if len(updated) == 0 {
		return
	}
	trace := r.Header.Get("X-Request-Id")

	reserved := make([]orders.ReservedLine, 0, len(updated))
	var depleted []string
	for _, u := range updated {
		reserved = append(reserved, orders.ReservedLine{
			ItemID:           u.ItemID,
			PreviousQuantity: u.PreviousQuantity,
			ReducedBy:        u.ReducedBy,
			NewQuantity:      u.NewQuantity,
		})
		if u.NewQuantity == 0 {
			depleted = append(depleted, u.ItemID)
		}
	}

	key := reserved[0].ItemID
	publishEvent(h.ProducerReserved, h.Service, orders.EventStockReserved, key, trace,
		orders.StockReservedPayload{Items: reserved})
	if len(depleted) > 0 {
		publishEvent(h.ProducerDepleted, h.Service, orders.EventStockDepleted, key, trace,
			orders.StockDepletedPayload{ItemIDs: depleted})
	}
}

type initReq struct {
	Items []inventory.SeedItem `json:"items"`
}

func (h *InventoryHandler) initInventory(w http.ResponseWriter, r *http.Request) {
	var req initReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, false, "invalid json", nil)
		return
	}
	if req.Items == nil {
		respond(w, http.StatusBadRequest, false, "items array is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Store.Initialize(ctx, req.Items)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, true, "Inventory initialized successfully", res)
}
