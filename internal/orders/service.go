package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldbreeze/storefront/internal/logging"
	"github.com/coldbreeze/storefront/internal/models"
	"github.com/coldbreeze/storefront/internal/payment"
	"github.com/coldbreeze/storefront/internal/util"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrForbidden     = errors.New("order belongs to another user")
	ErrNotCancelable = errors.New("order can no longer be canceled")
	ErrNotDeletable  = errors.New("only canceled or delivered orders can be deleted")
	ErrNotPayable    = errors.New("order is not awaiting payment")
	ErrInvalidStatus = errors.New("unknown order status")
)

// Service drives the post-creation order lifecycle:
//
//	pending -> in_production -> on_the_way -> delivered
//
// with canceled reachable only from pending and deletion only from a
// terminal status. The pending -> in_production step is reserved for the
// payment confirmation callback; admin overrides skip the graph entirely.
type Service struct {
	DB       *gorm.DB
	Payments payment.Provider
	AppURL   string
}

func NewService(db *gorm.DB, payments payment.Provider, appURL string) *Service {
	return &Service{DB: db, Payments: payments, AppURL: appURL}
}

func (s *Service) loadOwned(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return &order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, error) {
	offset, limit := util.Page(page, size)
	var list []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

// Cancel is the user-initiated transition, permitted only while pending.
// Any other status is a policy rejection, not a fault.
func (s *Service) Cancel(ctx context.Context, orderID, userID uuid.UUID) error {
	order, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusPending {
		return ErrNotCancelable
	}
	return s.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", models.OrderStatusCanceled).Error
}

// Delete hard-deletes an order and its items, only from a terminal status.
func (s *Service) Delete(ctx context.Context, orderID, userID uuid.UUID) error {
	order, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusCanceled && order.Status != models.OrderStatusDelivered {
		return ErrNotDeletable
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if err := tx.Delete(&models.Order{}, "id = ?", orderID).Error; err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
}

// AdminSetStatus applies any known status unconditionally. This is the
// manual-correction escape hatch: no adjacency check on purpose.
func (s *Service) AdminSetStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	res := s.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid moves pending -> in_production. It is driven exclusively by the
// payment confirmation webhook and is idempotent: an order already past
// pending is left untouched.
func (s *Service) MarkPaid(ctx context.Context, orderID uuid.UUID) error {
	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load order: %w", err)
	}
	if order.Status != models.OrderStatusPending {
		return nil
	}
	err := s.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Update("status", models.OrderStatusInProduction).Error
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("order paid", "order_id", orderID)
	return nil
}

// CreatePaymentSession hands a pending order off to the payment processor.
// The processor is always told to charge exactly the stored total; calling
// this again while still pending retries payment against the same order.
func (s *Service) CreatePaymentSession(ctx context.Context, orderID, userID uuid.UUID) (payment.Session, error) {
	order, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return payment.Session{}, err
	}
	if order.Status != models.OrderStatusPending {
		return payment.Session{}, ErrNotPayable
	}

	sess, err := s.Payments.CreateCheckoutSession(ctx, payment.SessionRequest{
		OrderID:       order.ID.String(),
		AmountInCents: order.TotalInCents,
		Currency:      "brl",
		Description:   fmt.Sprintf("Order %s", order.ID),
		SuccessURL:    s.AppURL + "/checkout/success",
		CancelURL:     s.AppURL + "/checkout/cancel",
	})
	if err != nil {
		return payment.Session{}, fmt.Errorf("payment handoff: %w", err)
	}
	return sess, nil
}
