package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jivorix/checkout-service/internal/inventory"
	"github.com/jivorix/checkout-service/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published []orders.Envelope
}

func (p *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	var env orders.Envelope
	_ = json.Unmarshal(value, &env)
	p.published = append(p.published, env)
}

type fakeRepo struct {
	history   *orders.History
	order     *orders.Order
	status    orders.Status
	err       error
	setCalls  int
	lastSet   orders.Status
	cancelErr error
}

func (f *fakeRepo) ListOrders(ctx context.Context, userID string, limit, offset int, status orders.Status) (*orders.History, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func (f *fakeRepo) GetOrder(ctx context.Context, transactionID, userID string) (*orders.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func (f *fakeRepo) GetStatus(ctx context.Context, transactionID, userID string) (orders.Status, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.status, nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, transactionID, userID string, status orders.Status) error {
	if f.err != nil {
		return f.err
	}
	f.setCalls++
	f.lastSet = status
	return nil
}

func (f *fakeRepo) Cancel(ctx context.Context, transactionID, userID string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.setCalls++
	f.lastSet = orders.StatusCancelled
	return nil
}

type fakeStore struct {
	initRes      *inventory.InitResult
	qty          int
	all          map[string]int
	created      bool
	reservations []inventory.Reservation
	err          error
	gotLines     []inventory.Line
}

func (f *fakeStore) Initialize(ctx context.Context, items []inventory.SeedItem) (*inventory.InitResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.initRes, nil
}

func (f *fakeStore) Get(ctx context.Context, itemID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.qty, nil
}

func (f *fakeStore) GetAll(ctx context.Context) (map[string]int, []string, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.all, nil, nil
}

func (f *fakeStore) Set(ctx context.Context, itemID string, quantity int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.created, nil
}

func (f *fakeStore) Reserve(ctx context.Context, lines []inventory.Line) ([]inventory.Reservation, error) {
	f.gotLines = lines
	if f.err != nil {
		return nil, f.err
	}
	return f.reservations, nil
}

func newOrdersRouter(repo OrdersRepo, pub Publisher) *chi.Mux {
	r := chi.NewRouter()
	h := &OrdersHandler{Repo: repo, Producer: pub, Service: "test-api"}
	h.Register(r)
	return r
}

func newInventoryRouter(store InventoryStore, reserved, depleted Publisher) *chi.Mux {
	r := chi.NewRouter()
	h := &InventoryHandler{Store: store, ProducerReserved: reserved, ProducerDepleted: depleted, Service: "test-api"}
	h.Register(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestListOrdersRequiresUserID(t *testing.T) {
	r := newOrdersRouter(&fakeRepo{}, &fakePublisher{})
	w, env := doJSON(t, r, http.MethodGet, "/orders", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "User ID is required", env.Message)
}

func TestListOrdersUnknownUser(t *testing.T) {
	r := newOrdersRouter(&fakeRepo{err: orders.ErrUserNotFound}, &fakePublisher{})
	w, env := doJSON(t, r, http.MethodGet, "/orders?userId=ghost", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "User not found", env.Message)
}

func TestListOrdersEnvelope(t *testing.T) {
	hist := &orders.History{
		Orders:      []orders.Order{{TransactionID: "tx1", UserID: "u1", Status: orders.StatusPending, OrderDate: time.Now()}},
		TotalOrders: 1,
		TotalCount:  1,
		Pagination:  orders.Pagination{Limit: 50, Offset: 0},
	}
	r := newOrdersRouter(&fakeRepo{history: hist}, &fakePublisher{})
	w, env := doJSON(t, r, http.MethodGet, "/orders?userId=u1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "orders")
	assert.Contains(t, data, "totalOrders")
	assert.Contains(t, data, "totalCount")
	assert.Contains(t, data, "pagination")
}

func TestOrderDetailsRequiresParams(t *testing.T) {
	r := newOrdersRouter(&fakeRepo{}, &fakePublisher{})
	w, env := doJSON(t, r, http.MethodGet, "/orders/details?transactionId=tx1", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Transaction ID and User ID are required", env.Message)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := &fakeRepo{}
	r := newOrdersRouter(repo, &fakePublisher{})
	w, env := doJSON(t, r, http.MethodPut, "/orders/status",
		`{"transactionId":"tx1","userId":"u1","status":"refunded"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "Invalid status")
	assert.Equal(t, 0, repo.setCalls)
}

func TestUpdateStatusPublishesEvent(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	r := newOrdersRouter(repo, pub)
	w, env := doJSON(t, r, http.MethodPut, "/orders/status",
		`{"transactionId":"tx1","userId":"u1","status":"shipped"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, orders.StatusShipped, repo.lastSet)

	require.Len(t, pub.published, 1)
	assert.Equal(t, orders.EventOrderStatusChanged, pub.published[0].EventType)
	assert.Equal(t, "tx1", pub.published[0].CorrelationID)
}

func TestCancelIneligibleOrder(t *testing.T) {
	r := newOrdersRouter(&fakeRepo{cancelErr: orders.ErrNotCancellable}, &fakePublisher{})
	w, env := doJSON(t, r, http.MethodDelete, "/orders/cancel?transactionId=tx1&userId=u1", "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "cannot be cancelled")
}

func TestCancelRequiresTransactionID(t *testing.T) {
	r := newOrdersRouter(&fakeRepo{}, &fakePublisher{})
	w, env := doJSON(t, r, http.MethodDelete, "/orders/cancel?userId=u1", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Transaction ID and User ID are required", env.Message)
}

func TestGetInventoryItemNotFound(t *testing.T) {
	r := newInventoryRouter(&fakeStore{err: inventory.ErrItemNotFound}, &fakePublisher{}, &fakePublisher{})
	w, env := doJSON(t, r, http.MethodGet, "/inventory?itemId=ghost", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestSetInventoryValidation(t *testing.T) {
	r := newInventoryRouter(&fakeStore{}, &fakePublisher{}, &fakePublisher{})

	w, env := doJSON(t, r, http.MethodPost, "/inventory", `{"itemId":"A"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "itemId and quantity are required", env.Message)

	w, env = doJSON(t, r, http.MethodPost, "/inventory", `{"itemId":"A","quantity":-2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Quantity cannot be negative", env.Message)
}

func TestReserveValidatesLines(t *testing.T) {
	r := newInventoryRouter(&fakeStore{}, &fakePublisher{}, &fakePublisher{})

	w, env := doJSON(t, r, http.MethodPut, "/inventory", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "items array is required", env.Message)

	w, env = doJSON(t, r, http.MethodPut, "/inventory", `{"items":[{"quantity":2}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Each item must have product_id and quantity", env.Message)
}

func TestReserveReportsReductionsAndDepletion(t *testing.T) {
	store := &fakeStore{reservations: []inventory.Reservation{
		{ItemID: "A", PreviousQuantity: 3, ReducedBy: 5, NewQuantity: 0},
		{ItemID: "B", PreviousQuantity: 9, ReducedBy: 2, NewQuantity: 7},
	}}
	reserved := &fakePublisher{}
	depleted := &fakePublisher{}
	r := newInventoryRouter(store, reserved, depleted)

	w, env := doJSON(t, r, http.MethodPut, "/inventory",
		`{"items":[{"product_id":"A","quantity":5},{"product_id":"B","quantity":2}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	data := env.Data.(map[string]any)
	items := data["updatedItems"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, float64(3), first["previousQuantity"])
	assert.Equal(t, float64(5), first["reducedBy"])
	assert.Equal(t, float64(0), first["newQuantity"])

	require.Len(t, reserved.published, 1)
	assert.Equal(t, orders.EventStockReserved, reserved.published[0].EventType)
	require.Len(t, depleted.published, 1)
	assert.Equal(t, orders.EventStockDepleted, depleted.published[0].EventType)
}

func TestInitInventoryEnvelope(t *testing.T) {
	store := &fakeStore{initRes: &inventory.InitResult{
		Initialized:    []inventory.SeededItem{{ItemID: "A", Quantity: 10}},
		Restocked:      []inventory.RestockedItem{{ItemID: "B", PreviousQuantity: 0, NewQuantity: 5}},
		TotalProcessed: 2,
	}}
	r := newInventoryRouter(store, &fakePublisher{}, &fakePublisher{})

	w, env := doJSON(t, r, http.MethodPost, "/inventory/init",
		`{"items":[{"_id":"A","available":10},{"_id":"B","available":5}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	data := env.Data.(map[string]any)
	assert.Contains(t, data, "initializedItems")
	assert.Contains(t, data, "updatedItems")
	assert.Equal(t, float64(2), data["totalProcessed"])
}
