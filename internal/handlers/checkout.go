package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/checkout"
	"github.com/Skotchmaster/handmade_market/internal/models"
	"github.com/Skotchmaster/handmade_market/internal/mykafka"
	"github.com/Skotchmaster/handmade_market/internal/service"
	"github.com/Skotchmaster/handmade_market/internal/session"
)

// CheckoutHandler drives the forward-only wizard
// Review -> Shipping -> Payment -> Confirmation -> Completed.
// Intermediate state lives in the session; nothing touches the order
// tables until the final confirmation commit.
type CheckoutHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

// Review is step 1: the priced cart summary. An empty cart bounces back to
// the catalog.
func (h *CheckoutHandler) Review(c echo.Context) error {
	sess := session.FromContext(c)
	if sess.CartEmpty() {
		return stepRedirect(c, "/products", "Your cart is empty")
	}
	quote, err := quoteFromSession(h.DB, sess)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, quote)
}

// GetShipping is step 2 (GET): prefills the form from the user's profile.
func (h *CheckoutHandler) GetShipping(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	sess := session.FromContext(c)
	if sess.CartEmpty() {
		return stepRedirect(c, "/products", "Your cart is empty")
	}

	if sess.Data.Shipping != nil {
		return c.JSON(http.StatusOK, sess.Data.Shipping)
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, checkout.ShippingInfo{
		FullName: user.FullName(),
		Phone:    user.Phone,
		Country:  "US",
	})
}

// PostShipping validates and stores the shipping step. Missing required
// fields are reported individually with the submitted input echoed back.
func (h *CheckoutHandler) PostShipping(c echo.Context) error {
	if _, err := service.UserID(c); err != nil {
		return err
	}
	sess := session.FromContext(c)
	if sess.CartEmpty() {
		return stepRedirect(c, "/products", "Your cart is empty")
	}

	var info checkout.ShippingInfo
	if err := c.Bind(&info); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	info.Trim()
	if missing := info.Missing(); len(missing) > 0 {
		return validationFailed(c, missing, info)
	}

	sess.SetShipping(info)
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "success",
		"message":  "Shipping information saved",
		"redirect": "/checkout/payment",
	})
}

// GetPayment is step 3 (GET). It requires the shipping step to be done and
// reports the amount due.
func (h *CheckoutHandler) GetPayment(c echo.Context) error {
	if _, err := service.UserID(c); err != nil {
		return err
	}
	sess := session.FromContext(c)
	if sess.CartEmpty() {
		return stepRedirect(c, "/products", "Your cart is empty")
	}
	if sess.Data.Shipping == nil {
		return stepRedirect(c, "/checkout/shipping", "Please provide shipping information first")
	}

	quote, err := quoteFromSession(h.DB, sess)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": quote.Total})
}

// PostPayment validates the method selection. Credit cards get a
// presence-only field check; only the method tag, cardholder name and the
// last four digits are kept in the session.
func (h *CheckoutHandler) PostPayment(c echo.Context) error {
	if _, err := service.UserID(c); err != nil {
		return err
	}
	sess := session.FromContext(c)
	if sess.CartEmpty() {
		return stepRedirect(c, "/products", "Your cart is empty")
	}
	if sess.Data.Shipping == nil {
		return stepRedirect(c, "/checkout/shipping", "Please provide shipping information first")
	}

	var req struct {
		PaymentMethod string `json:"payment_method" form:"payment_method"`
		checkout.CardDetails
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.PaymentMethod == "" {
		return validationFailed(c, []string{"Payment Method"}, nil)
	}

	info := checkout.PaymentInfo{Method: req.PaymentMethod}
	if req.PaymentMethod == checkout.PaymentMethodCreditCard {
		if missing := req.CardDetails.Missing(); len(missing) > 0 {
			return validationFailed(c, missing, echo.Map{"payment_method": req.PaymentMethod, "card_name": req.CardName})
		}
		info.CardName = req.CardName
		info.Last4 = req.CardDetails.Last4()
	}

	sess.SetPayment(info)
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "success",
		"message":  "Payment information saved",
		"redirect": "/checkout/confirmation",
	})
}

// GetConfirmation is step 4 (GET): the complete order summary for final
// review. Any missing wizard state restarts the flow.
func (h *CheckoutHandler) GetConfirmation(c echo.Context) error {
	if _, err := service.UserID(c); err != nil {
		return err
	}
	sess := session.FromContext(c)
	if sess.CartEmpty() || sess.Data.Shipping == nil || sess.Data.Payment == nil {
		return stepRedirect(c, "/checkout", "Your session has expired. Please start checkout again.")
	}

	quote, err := quoteFromSession(h.DB, sess)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":         quote.Lines,
		"subtotal":      quote.Subtotal,
		"tax":           quote.Tax,
		"total":         quote.Total,
		"shipping_info": sess.Data.Shipping,
		"payment_info":  sess.Data.Payment,
	})
}

// PostConfirmation commits the order: one Order row plus one OrderItem per
// cart line with the price copied at commit time, in a single transaction.
// An empty cart at this point is rejected, not papered over. On success
// the cart and all wizard keys are purged.
func (h *CheckoutHandler) PostConfirmation(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	sess := session.FromContext(c)
	if sess.CartEmpty() || sess.Data.Shipping == nil || sess.Data.Payment == nil {
		return stepRedirect(c, "/checkout", "Your session has expired. Please start checkout again.")
	}

	quote, err := quoteFromSession(h.DB, sess)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	// Every cart line may have pointed at a product deleted since review.
	if len(quote.Lines) == 0 {
		return stepRedirect(c, "/checkout", "Your cart is empty")
	}

	var order models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			UserID:          userID,
			TotalAmount:     quote.Total,
			Status:          models.OrderStatusConfirmed,
			ShippingAddress: sess.Data.Shipping.Address(),
			PaymentMethod:   sess.Data.Payment.Method,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for _, line := range quote.Lines {
			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.Product.ID,
				Quantity:  line.Quantity,
				Price:     line.Product.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if txErr != nil {
		c.Logger().Errorf("order commit failed: %v", txErr)
		return stepRedirect(c, "/checkout", "We could not place your order. Please try again.")
	}

	sess.Reset()

	publish(c, h.Producer, "order_events", map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"total":   order.TotalAmount,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"status":   "success",
		"order_id": order.ID,
		"redirect": fmt.Sprintf("/order/success/%d", order.ID),
	})
}
