package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/models"
	"github.com/Skotchmaster/handmade_market/internal/mykafka"
	"github.com/Skotchmaster/handmade_market/internal/service"
)

type WishlistHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

// List returns the user's wishlist entries with their products.
func (h *WishlistHandler) List(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}

	var entries []models.Wishlist
	if err := h.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&entries).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	items := make([]echo.Map, 0, len(entries))
	for _, entry := range entries {
		var product models.Product
		if err := h.DB.First(&product, entry.ProductID).Error; err != nil {
			continue
		}
		items = append(items, echo.Map{"entry": entry, "product": product})
	}
	return c.JSON(http.StatusOK, items)
}

// Toggle flips the (user, product) favorite mark. The unique pair index
// guards concurrent inserts; losing the race means the mark already exists
// and is reported as added rather than failing.
func (h *WishlistHandler) Toggle(c echo.Context) error {
	userID, err := service.UserID(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c)
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, productID).Error; err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	action := "added"
	var existing models.Wishlist
	err = h.DB.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error
	switch {
	case err == nil:
		if err := h.DB.Delete(&existing).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		action = "removed"
	case isNotFound(err):
		entry := models.Wishlist{UserID: userID, ProductID: productID}
		if err := h.DB.Create(&entry).Error; err != nil {
			if !isDuplicateKey(err) {
				return errorResponse(c, http.StatusInternalServerError, err)
			}
		}
	default:
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	publish(c, h.Producer, "user_events", map[string]any{
		"type":      "wishlist_toggled",
		"userID":    userID,
		"productID": productID,
		"action":    action,
	})

	return c.JSON(http.StatusOK, echo.Map{"status": "success", "action": action})
}

// isDuplicateKey matches unique-constraint violations across the postgres
// and sqlite drivers.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}
