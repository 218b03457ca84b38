package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/models"
	"github.com/Skotchmaster/handmade_market/internal/util"
)

type CatalogHandler struct {
	DB *gorm.DB
}

// GetProducts lists the catalog, optionally filtered by category and by a
// substring match over name and description, paginated.
func (h *CatalogHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	query := h.DB.Model(&models.Product{})
	if categoryID := parseIntDefault(c.QueryParam("category"), 0); categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var items []models.Product
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var categories []models.Category
	if err := h.DB.Order("id ASC").Find(&categories).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":       items,
		"categories": categories,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

// GetFeatured returns the featured products shown on the landing page.
func (h *CatalogHandler) GetFeatured(c echo.Context) error {
	var items []models.Product
	if err := h.DB.Where("featured = ?", true).Order("id ASC").Limit(4).Find(&items).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GetProduct returns one product plus up to three related products from
// the same category.
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var related []models.Product
	if err := h.DB.
		Where("category_id = ? AND id <> ?", product.CategoryID, product.ID).
		Limit(3).Find(&related).Error; err != nil {
		c.Logger().Errorf("related products query error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"product":           product,
		"additional_images": product.AdditionalImageURLs(),
		"related":           related,
	})
}
