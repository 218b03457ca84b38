package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/checkout"
	"github.com/Skotchmaster/handmade_market/internal/models"
	"github.com/Skotchmaster/handmade_market/internal/mykafka"
	"github.com/Skotchmaster/handmade_market/internal/session"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func formQuantityKey(productID uint) string {
	return "quantity_" + strconv.FormatUint(uint64(productID), 10)
}

// quoteFromSession prices the current cart. Products that disappeared from
// the catalog since they were added are skipped, matching the view contract.
func quoteFromSession(db *gorm.DB, sess *session.Session) (checkout.Quote, error) {
	var lines []checkout.Line
	for _, entry := range sess.CartEntries() {
		var product models.Product
		if err := db.First(&product, entry.ProductID).Error; err != nil {
			if isNotFound(err) {
				continue
			}
			return checkout.Quote{}, err
		}
		lines = append(lines, checkout.Line{Product: product, Quantity: entry.Quantity})
	}
	return checkout.NewQuote(lines), nil
}

// GetCart renders the cart page payload: lines with subtotals plus the
// running subtotal, tax and total.
func (h *CartHandler) GetCart(c echo.Context) error {
	sess := session.FromContext(c)
	quote, err := quoteFromSession(h.DB, sess)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, quote)
}

// GetCartState is the raw cart mapping, product-id string -> quantity.
func (h *CartHandler) GetCartState(c echo.Context) error {
	sess := session.FromContext(c)
	if sess.Data.Cart == nil {
		return c.JSON(http.StatusOK, map[string]int{})
	}
	return c.JSON(http.StatusOK, sess.Data.Cart)
}

// AddToCart merges a quantity into the session cart after checking the
// product exists.
func (h *CartHandler) AddToCart(c echo.Context) error {
	var req struct {
		ProductID uint `json:"product_id" form:"product_id"`
		Quantity  int  `json:"quantity" form:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	sess := session.FromContext(c)
	sess.AddToCart(req.ProductID, req.Quantity)

	publish(c, h.Producer, "cart_events", map[string]any{
		"type":      "cart_item_added",
		"sessionID": sess.ID,
		"productID": req.ProductID,
		"quantity":  sess.CartQuantity(req.ProductID),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"status":   "success",
		"message":  product.Name + " added to cart",
		"cart":     sess.Data.Cart,
		"quantity": sess.CartQuantity(req.ProductID),
	})
}

// UpdateCart applies per-line quantity fields named quantity_{productID}.
// Zero removes the line, positive values replace it, other lines are left
// alone.
func (h *CartHandler) UpdateCart(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	sess := session.FromContext(c)
	for _, entry := range sess.CartEntries() {
		key := formQuantityKey(entry.ProductID)
		if !form.Has(key) {
			continue
		}
		qty := parseIntDefault(form.Get(key), -1)
		if qty < 0 {
			continue
		}
		sess.SetCartQuantity(entry.ProductID, qty)
	}

	publish(c, h.Producer, "cart_events", map[string]any{
		"type":      "cart_updated",
		"sessionID": sess.ID,
		"cart":      sess.Data.Cart,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "cart updated",
		"cart":    sess.Data.Cart,
	})
}

// RemoveFromCart deletes one line; removing an absent line is a no-op.
func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	sess := session.FromContext(c)
	sess.RemoveFromCart(id)

	publish(c, h.Producer, "cart_events", map[string]any{
		"type":      "cart_item_removed",
		"sessionID": sess.ID,
		"productID": id,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"cart":   sess.Data.Cart,
	})
}
