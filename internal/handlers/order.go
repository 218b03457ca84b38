package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/models"
	"github.com/Skotchmaster/handmade_market/internal/mykafka"
	"github.com/Skotchmaster/handmade_market/internal/service"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

// ownedOrder loads an order scoped to the requesting user. Orders owned by
// someone else are indistinguishable from missing ones.
func (h *OrderHandler) ownedOrder(c echo.Context, orderID, userID uint, withItems bool) (*models.Order, error) {
	query := h.DB.Where("id = ? AND user_id = ?", orderID, userID)
	if withItems {
		query = query.Preload("Items")
	}
	var order models.Order
	if err := query.First(&order).Error; err != nil {
		if isNotFound(err) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, errorResponse(c, http.StatusInternalServerError, err)
	}
	return &order, nil
}

// History lists the user's orders, newest first.
func (h *OrderHandler) History(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	var orders []models.Order
	if err := h.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Detail returns one order with its items, owner only.
func (h *OrderHandler) Detail(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	orderID, err := paramID(c)
	if err != nil {
		return err
	}
	order, err := h.ownedOrder(c, orderID, userID, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Success is the post-checkout landing payload, owner only.
func (h *OrderHandler) Success(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	orderID, err := paramID(c)
	if err != nil {
		return err
	}
	order, err := h.ownedOrder(c, orderID, userID, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Your order has been placed",
		"order":   order,
	})
}

// Cancel transitions an order to cancelled. Only pending or confirmed
// orders may be cancelled, and only by their owner; anything else leaves
// the order untouched.
func (h *OrderHandler) Cancel(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	orderID, err := paramID(c)
	if err != nil {
		return err
	}
	order, err := h.ownedOrder(c, orderID, userID, false)
	if err != nil {
		return err
	}

	if !order.Cancellable() {
		return echo.NewHTTPError(http.StatusConflict, "this order cannot be cancelled")
	}

	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	if err := h.DB.Save(order).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	publish(c, h.Producer, "order_events", map[string]any{
		"type":    "order_cancelled",
		"userID":  userID,
		"orderID": order.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Your order has been cancelled",
		"order":   order,
	})
}
