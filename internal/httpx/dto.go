package httpx

import (
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/samber/lo"
)

type cartLineReq struct {
	BookID   uuid.UUID `json:"book_id"`
	Quantity int       `json:"quantity"`
}

type createOrderReq struct {
	BuyerID string        `json:"buyer_id"`
	Lines   []cartLineReq `json:"lines"`
}

func (r createOrderReq) cart() []domain.CartLine {
	return lo.Map(r.Lines, func(l cartLineReq, _ int) domain.CartLine {
		return domain.CartLine{BookID: l.BookID, Quantity: l.Quantity}
	})
}

type bookResp struct {
	ID          uuid.UUID    `json:"id"`
	ISBN        string       `json:"isbn"`
	Title       string       `json:"title"`
	Author      string       `json:"author,omitempty"`
	Publisher   string       `json:"publisher,omitempty"`
	Price       domain.Money `json:"price"`
	Stock       int          `json:"stock"`
	Description string       `json:"description,omitempty"`
}

func toBookResp(b domain.Book) bookResp {
	return bookResp{
		ID:          b.ID,
		ISBN:        b.ISBN,
		Title:       b.Title,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Price:       b.Price,
		Stock:       b.Stock,
		Description: b.Description,
	}
}

type bookPageResp struct {
	Books []bookResp `json:"books"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Total int        `json:"total"`
}

type availabilityResp struct {
	BookID    uuid.UUID `json:"book_id"`
	Quantity  int       `json:"quantity"`
	Available bool      `json:"available"`
}

type orderLineResp struct {
	ID        uuid.UUID    `json:"id"`
	BookID    uuid.UUID    `json:"book_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice domain.Money `json:"unit_price"`
	Subtotal  domain.Money `json:"subtotal"`
}

func toOrderLineResp(l domain.OrderLine) orderLineResp {
	return orderLineResp{
		ID:        l.ID,
		BookID:    l.BookID,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		Subtotal:  l.Subtotal(),
	}
}

type orderResp struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	BuyerID       string          `json:"buyer_id"`
	Total         domain.Money    `json:"total"`
	Status        string          `json:"status"`
	StockRestored bool            `json:"stock_restored"`
	CancelledBy   *string         `json:"cancelled_by,omitempty"`
	Lines         []orderLineResp `json:"lines,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toOrderResp(o domain.Order) orderResp {
	return orderResp{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		BuyerID:       o.BuyerID,
		Total:         o.Total,
		Status:        string(o.Status),
		StockRestored: o.StockRestored,
		CancelledBy:   o.CancelledBy,
		Lines:         lo.Map(o.Lines, func(l domain.OrderLine, _ int) orderLineResp { return toOrderLineResp(l) }),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

type errorResp struct {
	Error       string `json:"error"`
	OrderNumber string `json:"order_number,omitempty"`
}
