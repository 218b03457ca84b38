package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/handmade_market/internal/checkout"
	"github.com/Skotchmaster/handmade_market/internal/models"
	"github.com/Skotchmaster/handmade_market/internal/session"
)

func validShipping() checkout.ShippingInfo {
	return checkout.ShippingInfo{
		FullName:     "Jamie Carver",
		AddressLine1: "12 Kiln Lane",
		City:         "Portland",
		State:        "OR",
		PostalCode:   "97201",
		Country:      "US",
	}
}

func TestReviewEmptyCartRedirects(t *testing.T) {
	env := newTestEnv(t)
	sess := &session.Session{ID: "s1"}

	rec, c := env.doJSONRequest(http.MethodGet, "/checkout", nil, sess, 0)
	require.NoError(t, env.Checkout.Review(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "/products", resp["redirect"])
}

func TestShippingValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jamie", "jamie@example.com", "secret123")
	cat := env.createCategory("Pottery")
	p := env.createProduct("Bowl", "10.00", cat.ID)

	sess := &session.Session{ID: "s1"}
	sess.AddToCart(p.ID, 1)

	rec, c := env.doJSONRequest(http.MethodPost, "/checkout/shipping", map[string]string{
		"full_name": "  Jamie Carver ",
		"city":      "Portland",
	}, sess, user.ID)
	require.NoError(t, env.Checkout.PostShipping(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors []string `json:"errors"`
		Form   struct {
			FullName string `json:"full_name"`
		} `json:"form"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.ElementsMatch(t, []string{"Address Line1", "State", "Postal Code", "Country"}, resp.Errors)
	// Submitted input comes back trimmed for re-rendering.
	require.Equal(t, "Jamie Carver", resp.Form.FullName)
	require.Nil(t, sess.Data.Shipping)

	rec, c = env.doJSONRequest(http.MethodPost, "/checkout/shipping", validShipping(), sess, user.ID)
	require.NoError(t, env.Checkout.PostShipping(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sess.Data.Shipping)
	require.Equal(t, "Jamie Carver", sess.Data.Shipping.FullName)
}

func TestPaymentRequiresShipping(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jamie", "jamie@example.com", "secret123")
	cat := env.createCategory("Pottery")
	p := env.createProduct("Bowl", "10.00", cat.ID)

	sess := &session.Session{ID: "s1"}
	sess.AddToCart(p.ID, 1)

	rec, c := env.doJSONRequest(http.MethodPost, "/checkout/payment", map[string]string{
		"payment_method": "cash_on_delivery",
	}, sess, user.ID)
	require.NoError(t, env.Checkout.PostPayment(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "/checkout/shipping", resp["redirect"])
	require.Nil(t, sess.Data.Payment)
}

func TestPaymentCreditCardFieldPresence(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jamie", "jamie@example.com", "secret123")
	cat := env.createCategory("Pottery")
	p := env.createProduct("Bowl", "10.00", cat.ID)

	sess := &session.Session{ID: "s1"}
	sess.AddToCart(p.ID, 1)
	sess.SetShipping(validShipping())

	rec, c := env.doJSONRequest(http.MethodPost, "/checkout/payment", map[string]string{
		"payment_method": "credit_card",
		"card_name":      "Jamie Carver",
	}, sess, user.ID)
	require.NoError(t, env.Checkout.PostPayment(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.ElementsMatch(t, []string{"Card Number", "Expiry Month", "Expiry Year", "Cvv"}, resp.Errors)

	rec, c = env.doJSONRequest(http.MethodPost, "/checkout/payment", map[string]string{
		"payment_method": "credit_card",
		"card_name":      "Jamie Carver",
		"card_number":    "4111111111111111",
		"expiry_month":   "11",
		"expiry_year":    "2030",
		"cvv":            "123",
	}, sess, user.ID)
	require.NoError(t, env.Checkout.PostPayment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Only the method tag and display fields survive into the session.
	require.NotNil(t, sess.Data.Payment)
	require.Equal(t, "credit_card", sess.Data.Payment.Method)
	require.Equal(t, "1111", sess.Data.Payment.Last4)
}

func TestPaymentMethodRequired(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jamie", "jamie@example.com", "secret123")
	cat := env.createCategory("Pottery")
	p := env.createProduct("Bowl", "10.00", cat.ID)

	sess := &session.Session{ID: "s1"}
	sess.AddToCart(p.ID, 1)
	sess.SetShipping(validShipping())

	rec, c := env.doJSONRequest(http.MethodPost, "/checkout/payment", map[string]string{}, sess, user.ID)
	require.NoError(t, env.Checkout.PostPayment(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Nil(t, sess.Data.Payment)
}

func TestConfirmationCommit(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jamie", "jamie@example.com", "secret123")
	cat := env.createCategory("Pottery")
	pA := env.createProduct("Bowl", "10.00", cat.ID)
	pB := env.createProduct("Mug", "5.00", cat.ID)

	sess := &session.Session{ID: "s1"}
	sess.AddToCart(pA.ID, 2)
	sess.AddToCart(pB.ID, 1)
	sess.SetShipping(validShipping())
	sess.SetPayment(checkout.PaymentInfo{Method: "cash_on_delivery"})

	rec, c := env.doJSONRequest(http.MethodPost, "/checkout/confirmation", nil, sess, user.ID)
	require.NoError(t, env.Checkout.PostConfirmation(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		OrderID  uint   `json:"order_id"`
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.OrderID)
	require.Equal(t, "/order/success/1", resp.Redirect)

	var order models.Order
	require.NoError(t, env.DB.Preload("Items").First(&order, resp.OrderID).Error)
	require.Equal(t, user.ID, order.UserID)
	require.Equal(t, models.OrderStatusConfirmed, order.Status)
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("27.00")), "total %s", order.TotalAmount)
	require.Contains(t, order.ShippingAddress, "12 Kiln Lane")
	require.Equal(t, "cash_on_delivery", order.PaymentMethod)

	require.Len(t, order.Items, 2)
	byProduct := map[uint]models.OrderItem{}
	for _, it := range order.Items {
		byProduct[it.ProductID] = it
	}
	require.Equal(t, 2, byProduct[pA.ID].Quantity)
	require.True(t, byProduct[pA.ID].Price.Equal(decimal.RequireFromString("10.00")))
	require.Equal(t, 1, byProduct[pB.ID].Quantity)
	require.True(t, byProduct[pB.ID].Price.Equal(decimal.RequireFromString("5.00")))

	// Cart and wizard keys are purged after commit.
	require.True(t, sess.CartEmpty())
	require.Nil(t, sess.Data.Shipping)
	require.Nil(t, sess.Data.Payment)
}

func TestOrderItemPriceFixedAtCommit(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jamie", "jamie@example.com", "secret123")
	cat := env.createCategory("Pottery")
	p := env.createProduct("Bowl", "10.00", cat.ID)

	sess := &session.Session{ID: "s1"}
	sess.AddToCart(p.ID, 1)
	sess.SetShipping(validShipping())
	sess.SetPayment(checkout.PaymentInfo{Method: "cash_on_delivery"})

	_, c := env.doJSONRequest(http.MethodPost, "/checkout/confirmation", nil, sess, user.ID)
	require.NoError(t, env.Checkout.PostConfirmation(c))

	// A later price change must not touch the recorded order line.
	require.NoError(t, env.DB.Model(&models.Product{}).
		Where("id = ?", p.ID).
		Update("price", decimal.RequireFromString("99.00")).Error)

	var item models.OrderItem
	require.NoError(t, env.DB.Where("product_id = ?", p.ID).First(&item).Error)
	require.True(t, item.Price.Equal(decimal.RequireFromString("10.00")))
}

func TestConfirmationEmptyCartRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jamie", "jamie@example.com", "secret123")

	sess := &session.Session{ID: "s1"}
	sess.SetShipping(validShipping())
	sess.SetPayment(checkout.PaymentInfo{Method: "cash_on_delivery"})

	rec, c := env.doJSONRequest(http.MethodPost, "/checkout/confirmation", nil, sess, user.ID)
	require.NoError(t, env.Checkout.PostConfirmation(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count, "no order may be created from an empty cart")
}

func TestConfirmationStaleCartRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jamie", "jamie@example.com", "secret123")
	cat := env.createCategory("Pottery")
	p := env.createProduct("Bowl", "10.00", cat.ID)

	sess := &session.Session{ID: "s1"}
	sess.AddToCart(p.ID, 1)
	sess.SetShipping(validShipping())
	sess.SetPayment(checkout.PaymentInfo{Method: "cash_on_delivery"})

	// The product vanishes between review and confirmation.
	require.NoError(t, env.DB.Delete(&models.Product{}, p.ID).Error)

	rec, c := env.doJSONRequest(http.MethodPost, "/checkout/confirmation", nil, sess, user.ID)
	require.NoError(t, env.Checkout.PostConfirmation(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestConfirmationGetRequiresFullWizardState(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jamie", "jamie@example.com", "secret123")
	cat := env.createCategory("Pottery")
	p := env.createProduct("Bowl", "10.00", cat.ID)

	sess := &session.Session{ID: "s1"}
	sess.AddToCart(p.ID, 1)
	sess.SetShipping(validShipping())
	// payment step skipped

	rec, c := env.doJSONRequest(http.MethodGet, "/checkout/confirmation", nil, sess, user.ID)
	require.NoError(t, env.Checkout.GetConfirmation(c))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "/checkout", resp["redirect"])
}
