// Package checkout holds the typed state of the multi-step checkout wizard
// and the pricing arithmetic shared by its steps. Wizard state is carried
// in the session until the confirmation step commits an order.
package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/handmade_market/internal/models"
)

// TaxRate is the flat rate applied to the cart subtotal.
var TaxRate = decimal.NewFromFloat(0.08)

const PaymentMethodCreditCard = "credit_card"

// ShippingInfo is the validated shipping step payload.
type ShippingInfo struct {
	FullName     string `json:"full_name" form:"full_name"`
	AddressLine1 string `json:"address_line1" form:"address_line1"`
	AddressLine2 string `json:"address_line2" form:"address_line2"`
	City         string `json:"city" form:"city"`
	State        string `json:"state" form:"state"`
	PostalCode   string `json:"postal_code" form:"postal_code"`
	Country      string `json:"country" form:"country"`
	Phone        string `json:"phone" form:"phone"`
}

// Trim normalizes all fields in place.
func (s *ShippingInfo) Trim() {
	s.FullName = strings.TrimSpace(s.FullName)
	s.AddressLine1 = strings.TrimSpace(s.AddressLine1)
	s.AddressLine2 = strings.TrimSpace(s.AddressLine2)
	s.City = strings.TrimSpace(s.City)
	s.State = strings.TrimSpace(s.State)
	s.PostalCode = strings.TrimSpace(s.PostalCode)
	s.Country = strings.TrimSpace(s.Country)
	s.Phone = strings.TrimSpace(s.Phone)
}

// Missing returns the display labels of required fields that are blank.
func (s *ShippingInfo) Missing() []string {
	var missing []string
	for _, f := range []struct{ label, value string }{
		{"Full Name", s.FullName},
		{"Address Line1", s.AddressLine1},
		{"City", s.City},
		{"State", s.State},
		{"Postal Code", s.PostalCode},
		{"Country", s.Country},
	} {
		if f.value == "" {
			missing = append(missing, f.label)
		}
	}
	return missing
}

// Address renders the single-line snapshot stored on the order.
func (s *ShippingInfo) Address() string {
	parts := []string{s.FullName, s.AddressLine1}
	if s.AddressLine2 != "" {
		parts = append(parts, s.AddressLine2)
	}
	parts = append(parts, s.City+", "+s.State+" "+s.PostalCode, s.Country)
	return strings.Join(parts, ", ")
}

// CardDetails is the raw credit-card form input. It is validated for
// presence only and never written to the session or the database.
type CardDetails struct {
	CardName    string `json:"card_name" form:"card_name"`
	CardNumber  string `json:"card_number" form:"card_number"`
	ExpiryMonth string `json:"expiry_month" form:"expiry_month"`
	ExpiryYear  string `json:"expiry_year" form:"expiry_year"`
	CVV         string `json:"cvv" form:"cvv"`
}

// Missing returns the display labels of blank card fields.
func (d *CardDetails) Missing() []string {
	var missing []string
	for _, f := range []struct{ label, value string }{
		{"Card Name", d.CardName},
		{"Card Number", d.CardNumber},
		{"Expiry Month", d.ExpiryMonth},
		{"Expiry Year", d.ExpiryYear},
		{"Cvv", d.CVV},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.label)
		}
	}
	return missing
}

// Last4 returns the trailing digits kept for display.
func (d *CardDetails) Last4() string {
	n := strings.TrimSpace(d.CardNumber)
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}

// PaymentInfo is what the payment step retains in the session: the method
// tag plus non-sensitive display fields. Real payment collection is an
// external collaborator's job.
type PaymentInfo struct {
	Method   string `json:"payment_method"`
	CardName string `json:"card_name,omitempty"`
	Last4    string `json:"card_last4,omitempty"`
}

// Line is one priced cart entry inside a Quote.
type Line struct {
	Product  models.Product  `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Quote is the computed order summary shown at review and confirmation and
// committed at completion.
type Quote struct {
	Lines    []Line          `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// NewQuote prices the given (product, quantity) pairs: line subtotals,
// their sum, tax rounded to cents, and the grand total.
func NewQuote(lines []Line) Quote {
	q := Quote{Lines: lines, Subtotal: decimal.Zero}
	for i := range q.Lines {
		q.Lines[i].Subtotal = q.Lines[i].Product.Price.Mul(decimal.NewFromInt(int64(q.Lines[i].Quantity)))
		q.Subtotal = q.Subtotal.Add(q.Lines[i].Subtotal)
	}
	q.Tax = q.Subtotal.Mul(TaxRate).Round(2)
	q.Total = q.Subtotal.Add(q.Tax)
	return q
}
