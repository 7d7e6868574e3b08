package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/samber/lo"
)

const (
	defaultPageSize      = 20
	defaultLowStockLimit = 5
)

type Catalog interface {
	GetBook(ctx context.Context, bookID uuid.UUID) (domain.Book, error)
	ListBooks(ctx context.Context, page domain.Page) ([]domain.Book, error)
	CountBooks(ctx context.Context) (int, error)
	LowStockBooks(ctx context.Context, threshold int) ([]domain.Book, error)
}

type Checkout interface {
	CreateOrder(ctx context.Context, buyerID string, cart []domain.CartLine) (domain.Order, error)
	CheckAvailability(ctx context.Context, bookID uuid.UUID, qty int) (bool, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actorID string) (domain.Order, error)
}

type Orders interface {
	Transition(ctx context.Context, orderID uuid.UUID, event domain.OrderEvent) (domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	GetOrderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error)
	ListOrdersFor(ctx context.Context, buyerID string, statuses ...domain.OrderStatus) ([]domain.Order, error)
	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	Statistics(ctx context.Context, buyerID string) (map[domain.OrderStatus]int, error)
	Purge(ctx context.Context, orderID uuid.UUID) error
}

type Handler struct {
	Catalog  Catalog
	Checkout Checkout
	Orders   Orders
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/books", h.listBooks)
	r.Get("/books/low-stock", h.lowStockBooks)
	r.Get("/books/{id}", h.getBook)
	r.Get("/books/{id}/availability", h.availability)

	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/stats", h.statistics)
	r.Get("/orders/number/{number}", h.getOrderByNumber)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/lines", h.getOrderLines)
	r.Post("/orders/{id}/events/{event}", h.applyEvent)
	r.Delete("/orders/{id}", h.purgeOrder)
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page", 1)
	if !ok {
		return
	}
	size, ok := queryInt(w, r, "size", defaultPageSize)
	if !ok {
		return
	}

	books, err := h.Catalog.ListBooks(r.Context(), domain.Page{Number: page, Size: size})
	if err != nil {
		writeError(w, r, err)
		return
	}

	total, err := h.Catalog.CountBooks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bookPageResp{
		Books: lo.Map(books, func(b domain.Book, _ int) bookResp { return toBookResp(b) }),
		Page:  page,
		Size:  size,
		Total: total,
	})
}

func (h *Handler) lowStockBooks(w http.ResponseWriter, r *http.Request) {
	threshold, ok := queryInt(w, r, "threshold", defaultLowStockLimit)
	if !ok {
		return
	}

	books, err := h.Catalog.LowStockBooks(r.Context(), threshold)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(books, func(b domain.Book, _ int) bookResp { return toBookResp(b) }))
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	book, err := h.Catalog.GetBook(r.Context(), bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResp(book))
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	qty, ok := queryInt(w, r, "qty", 1)
	if !ok {
		return
	}

	available, err := h.Checkout.CheckAvailability(r.Context(), bookID, qty)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResp{BookID: bookID, Quantity: qty, Available: available})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json")
		return
	}

	order, err := h.Checkout.CreateOrder(r.Context(), req.BuyerID, req.cart())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResp(order))
}

// listOrders lists one buyer's orders when buyer_id is set, otherwise pages over all orders.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	statuses := make([]domain.OrderStatus, 0, len(q["status"]))
	for _, s := range q["status"] {
		status, err := domain.ToOrderStatus(s)
		if err != nil {
			writeBadRequest(w, "invalid status "+strconv.Quote(s))
			return
		}
		statuses = append(statuses, status)
	}

	var (
		orders []domain.Order
		err    error
	)

	if buyerID := q.Get("buyer_id"); buyerID != "" {
		orders, err = h.Orders.ListOrdersFor(r.Context(), buyerID, statuses...)
	} else {
		limit, ok := queryInt(w, r, "limit", 0)
		if !ok {
			return
		}
		offset, ok := queryInt(w, r, "offset", 0)
		if !ok {
			return
		}

		orders, err = h.Orders.SearchOrders(r.Context(), domain.OrderFilter{
			Statuses: statuses,
			Limit:    limit,
			Offset:   offset,
		})
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(orders, func(o domain.Order, _ int) orderResp { return toOrderResp(o) }))
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Orders.Statistics(r.Context(), r.URL.Query().Get("buyer_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.MapKeys(stats, func(_ int, s domain.OrderStatus) string { return string(s) }))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.Orders.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResp(order))
}

func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.GetOrderByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResp(order))
}

func (h *Handler) getOrderLines(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	lines, err := h.Orders.GetOrderLines(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(lines, func(l domain.OrderLine, _ int) orderLineResp { return toOrderLineResp(l) }))
}

// applyEvent drives the lifecycle; cancel takes an optional actor_id query parameter.
func (h *Handler) applyEvent(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	event, err := domain.ToOrderEvent(chi.URLParam(r, "event"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var order domain.Order
	if event == domain.OrderEventCancel {
		order, err = h.Checkout.Cancel(r.Context(), orderID, r.URL.Query().Get("actor_id"))
	} else {
		order, err = h.Orders.Transition(r.Context(), orderID, event)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResp(order))
}

func (h *Handler) purgeOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Orders.Purge(r.Context(), orderID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeBadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		writeBadRequest(w, "invalid "+name)
		return 0, false
	}
	return n, true
}
