package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abhi5hek001/Buykart/app/models"
	"github.com/abhi5hek001/Buykart/app/repositories"
	"github.com/abhi5hek001/Buykart/config"
	"github.com/abhi5hek001/Buykart/pkg/logger"
	"github.com/abhi5hek001/Buykart/pkg/metrics"
	"gorm.io/gorm"
)

// OrderLine is one (product, quantity) pair of a placement request.
type OrderLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,integer,gte=1"`
}

// PlaceOrderInput is the full placement request after binding.
type PlaceOrderInput struct {
	UserID          string
	ShippingAddress string
	Lines           []OrderLine
}

// Dispatcher receives the committed order for post-commit side effects.
// Implementations must never propagate failures back to the caller.
type Dispatcher interface {
	OrderPlaced(order *models.Order)
}

// OrderService owns order placement and the status lifecycle.
//
// PlaceOrder is the only write path for stock: it locks every product row,
// validates the whole request against locked state, and commits the order
// rows and stock decrements as one transaction. Any failure rolls the whole
// thing back, so a committed order always has every line satisfied and no
// product ever goes below zero.
type OrderService struct {
	db       *gorm.DB
	products *repositories.ProductRepository
	orders   *repositories.OrderRepository
	users    *repositories.UserRepository
	effects  Dispatcher
}

func NewOrderService(
	db *gorm.DB,
	products *repositories.ProductRepository,
	orders *repositories.OrderRepository,
	users *repositories.UserRepository,
	effects Dispatcher,
) *OrderService {
	return &OrderService{
		db:       db,
		products: products,
		orders:   orders,
		users:    users,
		effects:  effects,
	}
}

// PlaceOrder runs the placement transaction and, on commit, hands the order
// to the effects dispatcher. Returned errors are one of *ValidationError,
// *NotFoundError, *InsufficientStockError, *TimeoutError, or an internal
// database error.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if err := validateInput(in); err != nil {
		metrics.OrdersFailed.WithLabelValues("validation").Inc()
		return nil, err
	}

	// Locks are always acquired in product-ID order, so two concurrent
	// placements over overlapping products can never deadlock each other.
	lines := make([]OrderLine, len(in.Lines))
	copy(lines, in.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	exists, err := s.users.Exists(ctx, in.UserID)
	if err != nil {
		metrics.OrdersFailed.WithLabelValues("internal").Inc()
		return nil, fmt.Errorf("order: check user: %w", err)
	}
	if !exists {
		metrics.OrdersFailed.WithLabelValues("not_found").Inc()
		return nil, &NotFoundError{Resource: "user", ID: in.UserID}
	}

	txCtx, cancel := context.WithTimeout(ctx, config.OrderTxTimeout())
	defer cancel()

	start := time.Now()
	order := &models.Order{
		UserID:          in.UserID,
		Status:          models.StatusPending,
		ShippingAddress: in.ShippingAddress,
	}

	err = s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		if err := s.applyLockWait(txCtx, tx); err != nil {
			return fmt.Errorf("order: set lock wait: %w", err)
		}

		var total int64
		items := make([]models.OrderItem, 0, len(lines))

		for _, line := range lines {
			product, err := s.products.LockForUpdate(txCtx, tx, line.ProductID)
			if err != nil {
				return fmt.Errorf("order: lock product %s: %w", line.ProductID, err)
			}
			if product == nil {
				return &NotFoundError{Resource: "product", ID: line.ProductID}
			}
			if product.Stock < line.Quantity {
				return &InsufficientStockError{
					ProductID: product.ID,
					Name:      product.Name,
					Requested: line.Quantity,
					Available: product.Stock,
				}
			}

			id := product.ID
			items = append(items, models.OrderItem{
				ProductID:       &id,
				ProductName:     product.Name,
				Quantity:        line.Quantity,
				PriceAtPurchase: product.Price,
			})
			total += int64(line.Quantity) * product.Price
		}

		order.TotalAmount = total
		order.Items = items

		if err := s.orders.Create(txCtx, tx, order); err != nil {
			return fmt.Errorf("order: insert: %w", err)
		}

		for _, line := range lines {
			if err := s.products.DecrementStock(txCtx, tx, line.ProductID, line.Quantity); err != nil {
				return fmt.Errorf("order: decrement %s: %w", line.ProductID, err)
			}
		}

		return nil
	})

	metrics.OrderTxDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		err = classifyTxError(err)
		metrics.OrdersFailed.WithLabelValues(failReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	logger.WithCtx(ctx).Info("order placed",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total", order.TotalAmount,
		"items", len(order.Items),
	)

	if s.effects != nil {
		s.effects.OrderPlaced(order)
	}

	return order, nil
}

// applyLockWait bounds how long the transaction blocks on a contended row
// lock. Only postgres and mysql expose a per-session knob; the other drivers
// rely on the overall context deadline.
func (s *OrderService) applyLockWait(ctx context.Context, tx *gorm.DB) error {
	wait := config.OrderLockWait()

	switch tx.Dialector.Name() {
	case "postgres":
		return tx.WithContext(ctx).
			Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", wait.Milliseconds())).Error
	case "mysql":
		secs := int(wait.Seconds())
		if secs < 1 {
			secs = 1
		}
		return tx.WithContext(ctx).
			Exec(fmt.Sprintf("SET innodb_lock_wait_timeout = %d", secs)).Error
	}
	return nil
}

// GetOrder returns the order with items and user, or a NotFoundError.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "order", ID: id}
	}
	return order, nil
}

// ListByUser returns the user's orders, newest first.
func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.FindByUser(ctx, userID)
}

// ListAll returns all orders. Admin only.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.orders.FindAll(ctx)
}

// UpdateStatus applies a lifecycle transition. Illegal transitions (skipping
// a stage, leaving a terminal state, unknown status) are a ValidationError.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, next models.OrderStatus) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !next.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", next))
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, NewValidationError("status",
			fmt.Sprintf("cannot transition from %s to %s", order.Status, next))
	}

	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("order: update status: %w", err)
	}

	order.Status = next
	logger.WithCtx(ctx).Info("order status updated", "order_id", id, "status", next)
	return order, nil
}

func validateInput(in PlaceOrderInput) error {
	if in.UserID == "" {
		return NewValidationError("user_id", "user id is required")
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return NewValidationError("shipping_address", "shipping address is required")
	}
	if len(in.Lines) == 0 {
		return NewValidationError("items", "order must contain at least one item")
	}

	seen := make(map[string]struct{}, len(in.Lines))
	for i, line := range in.Lines {
		field := fmt.Sprintf("items.%d", i)
		if line.ProductID == "" {
			return NewValidationError(field+".product_id", "product id is required")
		}
		if line.Quantity < 1 {
			return NewValidationError(field+".quantity", "quantity must be at least 1")
		}
		if _, dup := seen[line.ProductID]; dup {
			return NewValidationError(field+".product_id",
				fmt.Sprintf("duplicate product %s", line.ProductID))
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}

// classifyTxError maps deadline errors to TimeoutError and passes the typed
// domain errors through unchanged.
func classifyTxError(err error) error {
	var (
		ve *ValidationError
		nf *NotFoundError
		is *InsufficientStockError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &is) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Stage: "transaction"}
	}
	// Lock wait timeouts surface as driver errors mentioning the timeout.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "lock timeout") || strings.Contains(msg, "lock wait timeout") {
		return &TimeoutError{Stage: "lock wait"}
	}
	return err
}

func failReason(err error) string {
	var (
		ve *ValidationError
		nf *NotFoundError
		is *InsufficientStockError
		to *TimeoutError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &is):
		return "insufficient_stock"
	case errors.As(err, &to):
		return "timeout"
	default:
		return "internal"
	}
}
