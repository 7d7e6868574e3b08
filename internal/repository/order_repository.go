package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/bookstore/internal/db"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var ErrNotFound = domain.ErrNotFound

const (
	uniqueViolationCode   = "23505"
	orderNumberConstraint = "orders_order_number_key"
)

type orderRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{
		q:    db.New(pool),
		dbtx: pool,
	}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{
		q:    db.New(tx),
		dbtx: tx, // use provided transaction instead of the pool
	}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	order, err := withTx(ctx, r.dbtx, func(q *db.Queries) (domain.Order, error) {
		dbOrder, err := q.GetOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("q.GetOrder: %w", ErrNotFound)
			}
			return o, fmt.Errorf("q.GetOrder: %w", err)
		}

		return r.withLines(ctx, q, dbOrder)
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	var o domain.Order

	if orderNumber == "" {
		return o, fmt.Errorf("orderNumber is empty")
	}

	order, err := withTx(ctx, r.dbtx, func(q *db.Queries) (domain.Order, error) {
		dbOrder, err := q.GetOrderByNumber(ctx, orderNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("q.GetOrderByNumber: %w", ErrNotFound)
			}
			return o, fmt.Errorf("q.GetOrderByNumber: %w", err)
		}

		return r.withLines(ctx, q, dbOrder)
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) withLines(ctx context.Context, q *db.Queries, dbOrder db.Order) (domain.Order, error) {
	var o domain.Order

	dbLines, err := q.GetOrderLines(ctx, dbOrder.ID)
	if err != nil {
		return o, fmt.Errorf("q.GetOrderLines: %w", err)
	}

	order, err := mapDBOrderToDomain(dbOrder)
	if err != nil {
		return o, fmt.Errorf("mapDBOrderToDomain: %w", err)
	}

	order.Lines, err = mapDBOrderLinesToDomain(dbLines)
	if err != nil {
		return o, fmt.Errorf("mapDBOrderLinesToDomain: %w", err)
	}

	return order, nil
}

func (r *orderRepository) GetOrderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	dbLines, err := r.q.GetOrderLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("q.GetOrderLines: %w", err)
	}

	lines, err := mapDBOrderLinesToDomain(dbLines)
	if err != nil {
		return nil, fmt.Errorf("mapDBOrderLinesToDomain: %w", err)
	}

	return lines, nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	dbFilter, err := mapDomainOrderFilterToDBFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("mapDomainOrderFilterToDBFilter: %w", err)
	}

	dbOrders, err := r.q.SearchOrders(ctx, dbFilter)
	if err != nil {
		return nil, fmt.Errorf("q.SearchOrders: %w", err)
	}

	orders := make([]domain.Order, 0, len(dbOrders))
	for _, row := range dbOrders {
		order, err := mapDBOrderToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapDBOrderToDomain: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (r *orderRepository) CountOrdersByStatus(ctx context.Context, buyerID *string) (map[domain.OrderStatus]int, error) {
	rows, err := r.q.CountOrdersByStatus(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("q.CountOrdersByStatus: %w", err)
	}

	result := make(map[domain.OrderStatus]int, len(rows))
	for _, row := range rows {
		status, err := domain.ToOrderStatus(row.Status)
		if err != nil {
			return nil, fmt.Errorf("domain.ToOrderStatus[%s]: %w", row.Status, err)
		}
		result[status] = int(row.Total)
	}

	return result, nil
}

func (r *orderRepository) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	exists, err := r.q.OrderNumberExists(ctx, orderNumber)
	if err != nil {
		return false, fmt.Errorf("q.OrderNumberExists: %w", err)
	}

	return exists, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	var o domain.Order

	if order.OrderNumber == "" {
		return o, errors.New("order number is empty")
	}

	if order.BuyerID == "" {
		return o, errors.New("buyer id is empty")
	}

	if len(order.Lines) == 0 {
		return o, errors.New("no lines in order")
	}

	inserted, err := withTx(ctx, r.dbtx, func(q *db.Queries) (domain.Order, error) {
		row, err := q.InsertOrder(ctx, db.InsertOrderParams{
			OrderNumber:   order.OrderNumber,
			BuyerID:       order.BuyerID,
			TotalAmount:   order.Total.Amount,
			TotalCurrency: order.Total.Currency.String(),
		})
		if err != nil {
			if isUniqueViolation(err, orderNumberConstraint) {
				return o, fmt.Errorf("q.InsertOrder: %w: %w", port.ErrDuplicateOrderNumber, err)
			}
			return o, fmt.Errorf("q.InsertOrder: %w", err)
		}

		status, err := domain.ToOrderStatus(row.Status)
		if err != nil {
			return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", row.Status, err)
		}

		result := order
		result.ID = row.ID
		result.Status = status
		result.StockRestored = false
		result.CancelledBy = nil
		result.CreatedAt = row.CreatedAt
		result.UpdatedAt = row.UpdatedAt
		result.Lines = make([]domain.OrderLine, 0, len(order.Lines))

		// TODO: batch with pgx.Batch once lines grow beyond a handful per order
		for _, line := range order.Lines {
			quantity, err := toPositiveInt32(line.Quantity)
			if err != nil {
				return o, fmt.Errorf("line[%s] quantity: %w", line.BookID, err)
			}

			lineID, err := q.InsertOrderLine(ctx, db.InsertOrderLineParams{
				OrderID:           row.ID,
				BookID:            line.BookID,
				Quantity:          quantity,
				UnitPriceAmount:   line.UnitPrice.Amount,
				UnitPriceCurrency: line.UnitPrice.Currency.String(),
			})
			if err != nil {
				return o, fmt.Errorf("q.InsertOrderLine: %w", err)
			}

			line.ID = lineID
			line.OrderID = row.ID
			result.Lines = append(result.Lines, line)
		}

		return result, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return inserted, nil
}

func (r *orderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, from []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("orderID is empty")
	}

	if len(from) == 0 {
		return false, fmt.Errorf("from statuses are empty")
	}

	if to == "" {
		return false, fmt.Errorf("status is empty")
	}

	rowsAffected, err := r.q.TransitionOrderStatus(ctx, db.TransitionOrderStatusParams{
		ToStatus:     string(to),
		ID:           orderID,
		FromStatuses: statusesToStrings(from),
	})
	if err != nil {
		return false, fmt.Errorf("q.TransitionOrderStatus: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *orderRepository) MarkCancelled(ctx context.Context, orderID uuid.UUID, from []domain.OrderStatus, actorID string) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("orderID is empty")
	}

	if len(from) == 0 {
		return false, fmt.Errorf("from statuses are empty")
	}

	rowsAffected, err := r.q.CancelOrder(ctx, db.CancelOrderParams{
		CancelledBy:  lo.EmptyableToPtr(actorID),
		ID:           orderID,
		FromStatuses: statusesToStrings(from),
	})
	if err != nil {
		return false, fmt.Errorf("q.CancelOrder: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *orderRepository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	_, err := withTx(ctx, r.dbtx, func(q *db.Queries) (struct{}, error) {
		if _, err := q.DeleteOrderLines(ctx, orderID); err != nil {
			return struct{}{}, fmt.Errorf("q.DeleteOrderLines: %w", err)
		}

		rowsAffected, err := q.DeleteTerminalOrder(ctx, orderID)
		if err != nil {
			return struct{}{}, fmt.Errorf("q.DeleteTerminalOrder: %w", err)
		}

		// lines of a non-terminal order are restored by the rollback
		if rowsAffected == 0 {
			return struct{}{}, fmt.Errorf("q.DeleteTerminalOrder: %w", ErrNotFound)
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func mapDomainOrderFilterToDBFilter(filter domain.OrderFilter) (db.SearchOrdersParams, error) {
	limit, err := toInt32(filter.EffectiveLimit())
	if err != nil {
		return db.SearchOrdersParams{}, fmt.Errorf("limit: %w", err)
	}

	offset, err := toInt32(filter.Offset)
	if err != nil {
		return db.SearchOrdersParams{}, fmt.Errorf("offset: %w", err)
	}

	params := db.SearchOrdersParams{
		BuyerIds:  nilSliceIfEmpty(filter.BuyerIDs),
		Statuses:  nilSliceIfEmpty(statusesToStrings(filter.Statuses)),
		RowLimit:  limit,
		RowOffset: offset,
	}

	if filter.CreatedAt != nil {
		params.CreatedAfter = filter.CreatedAt.After
		params.CreatedBefore = filter.CreatedAt.Before
	}

	return params, nil
}

func mapDBOrderToDomain(row db.Order) (domain.Order, error) {
	var o domain.Order

	total, err := toMoney(row.TotalAmount, row.TotalCurrency)
	if err != nil {
		return o, fmt.Errorf("toMoney: %w", err)
	}

	status, err := domain.ToOrderStatus(row.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", row.Status, err)
	}

	return domain.Order{
		ID:            row.ID,
		OrderNumber:   row.OrderNumber,
		BuyerID:       row.BuyerID,
		Total:         total,
		Status:        status,
		StockRestored: row.StockRestored,
		CancelledBy:   row.CancelledBy,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func mapDBOrderLineToDomain(row db.GetOrderLinesRow) (domain.OrderLine, error) {
	unitPrice, err := toMoney(row.UnitPriceAmount, row.UnitPriceCurrency)
	if err != nil {
		return domain.OrderLine{}, fmt.Errorf("toMoney: %w", err)
	}

	return domain.OrderLine{
		ID:        row.ID,
		OrderID:   row.OrderID,
		BookID:    row.BookID,
		Quantity:  int(row.Quantity),
		UnitPrice: unitPrice,
	}, nil
}

func mapDBOrderLinesToDomain(rows []db.GetOrderLinesRow) ([]domain.OrderLine, error) {
	var lines []domain.OrderLine

	for _, row := range rows {
		line, err := mapDBOrderLineToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapDBOrderLineToDomain: %w", err)
		}

		lines = append(lines, line)
	}

	return lines, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == constraint
}

func toMoney(amount decimal.Decimal, code string) (domain.Money, error) {
	cur, err := parseCurrency(code)
	if err != nil {
		return domain.Money{}, err
	}

	return domain.Money{Amount: amount, Currency: cur}, nil
}
