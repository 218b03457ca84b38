// Package seed loads the fixture catalog into an empty store.
package seed

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/models"
)

type categoryFixture struct {
	name, description string
}

type productFixture struct {
	name, description string
	price             string
	imageURL          string
	additionalImages  []string
	category          string
	stock             int
	featured          bool
}

var categoryFixtures = []categoryFixture{
	{"Jewelry", "Handcrafted jewelry pieces"},
	{"Pottery", "Ceramic and pottery items"},
	{"Textiles", "Handwoven fabrics and clothing"},
	{"Woodwork", "Carved wood items and furniture"},
}

var productFixtures = []productFixture{
	{
		name:             "Handcrafted Silver Pendant",
		description:      "Beautiful silver pendant necklace with intricate Celtic knotwork design. Each piece is hand-forged by skilled artisans using traditional techniques.",
		price:            "89.99",
		imageURL:         "/static/images/products/jewelry1.jpg",
		additionalImages: []string{"/static/images/products/jewelry2.jpg"},
		category:         "Jewelry",
		stock:            5,
		featured:         true,
	},
	{
		name:             "Artisan Ceramic Bowl Set",
		description:      "Set of three handmade ceramic bowls in earth tones. Each bowl is wheel-thrown and glazed with a unique reactive glaze.",
		price:            "124.99",
		imageURL:         "/static/images/products/pottery1.jpg",
		additionalImages: []string{"/static/images/products/pottery2.jpg"},
		category:         "Pottery",
		stock:            3,
		featured:         true,
	},
	{
		name:             "Hand-woven Wool Scarf",
		description:      "Luxurious hand-woven wool scarf made from locally sourced wool and dyed with natural plant-based dyes.",
		price:            "78.50",
		imageURL:         "/static/images/products/textiles1.jpg",
		additionalImages: []string{"/static/images/products/textiles2.jpg"},
		category:         "Textiles",
		stock:            8,
		featured:         false,
	},
	{
		name:             "Carved Wooden Jewelry Box",
		description:      "Elegant jewelry box hand-carved from sustainable hardwood with multiple compartments and a soft velvet lining.",
		price:            "156.00",
		imageURL:         "/static/images/products/woodwork1.jpg",
		additionalImages: []string{"/static/images/products/woodwork2.jpg"},
		category:         "Woodwork",
		stock:            2,
		featured:         true,
	},
}

// Run seeds categories and products when the product table is empty.
// Safe to call on every startup.
func Run(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		categoryIDs, err := seedCategories(tx)
		if err != nil {
			return err
		}
		return seedProducts(tx, categoryIDs)
	})
}

func seedCategories(tx *gorm.DB) (map[string]uint, error) {
	ids := make(map[string]uint, len(categoryFixtures))
	for _, f := range categoryFixtures {
		cat := models.Category{Name: f.name, Description: f.description}
		if err := tx.Create(&cat).Error; err != nil {
			return nil, fmt.Errorf("seed: create category %q: %w", f.name, err)
		}
		ids[f.name] = cat.ID
	}
	return ids, nil
}

// seedProducts resolves categories through the mapping built by
// seedCategories rather than any package-level state.
func seedProducts(tx *gorm.DB, categoryIDs map[string]uint) error {
	for _, f := range productFixtures {
		catID, ok := categoryIDs[f.category]
		if !ok {
			return fmt.Errorf("seed: unknown category %q for product %q", f.category, f.name)
		}
		price, err := decimal.NewFromString(f.price)
		if err != nil {
			return fmt.Errorf("seed: bad price for %q: %w", f.name, err)
		}
		extra, err := json.Marshal(f.additionalImages)
		if err != nil {
			return fmt.Errorf("seed: marshal images for %q: %w", f.name, err)
		}
		p := models.Product{
			Name:             f.name,
			Description:      f.description,
			Price:            price,
			ImageURL:         f.imageURL,
			AdditionalImages: string(extra),
			CategoryID:       catID,
			StockQuantity:    f.stock,
			Featured:         f.featured,
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("seed: create product %q: %w", f.name, err)
		}
	}
	return nil
}
