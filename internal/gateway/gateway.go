// Package gateway exposes the hosted checkout configuration members use to
// pay dues online. The backend never talks to the gateway itself; it serves
// the constants and builds checkout option payloads for clients.
package gateway

import (
	"math"

	"github.com/flatmate/flatmate-backend/internal/model"
)

const (
	GatewayName = "Razorpay"
	Currency    = "INR"
	CompanyName = "FlatMate"
	CompanyLogo = "/logo.png"
	ThemeColor  = "#2563eb"
)

// Gateway payment lifecycle states, as reported by the provider webhook.
const (
	PaymentCreated    = "created"
	PaymentAuthorized = "authorized"
	PaymentCaptured   = "captured"
	PaymentRefunded   = "refunded"
	PaymentFailed     = "failed"
)

// Methods lists the checkout payment methods enabled for members.
type Methods struct {
	Netbanking bool `json:"netbanking"`
	Card       bool `json:"card"`
	UPI        bool `json:"upi"`
	Wallet     bool `json:"wallet"`
}

// Retry is the provider-side retry policy for failed payment attempts.
type Retry struct {
	Enabled  bool `json:"enabled"`
	MaxCount int  `json:"max_count"`
}

// Config is the static checkout configuration served to clients.
type Config struct {
	GatewayName string  `json:"gatewayName"`
	Currency    string  `json:"currency"`
	CompanyName string  `json:"companyName"`
	CompanyLogo string  `json:"companyLogo"`
	ThemeColor  string  `json:"themeColor"`
	Methods     Methods `json:"methods"`
	Retry       Retry   `json:"retry"`
}

// DefaultConfig returns the checkout configuration with all supported
// payment methods enabled.
func DefaultConfig() Config {
	return Config{
		GatewayName: GatewayName,
		Currency:    Currency,
		CompanyName: CompanyName,
		CompanyLogo: CompanyLogo,
		ThemeColor:  ThemeColor,
		Methods:     Methods{Netbanking: true, Card: true, UPI: true, Wallet: true},
		Retry:       Retry{Enabled: true, MaxCount: 3},
	}
}

// CheckoutOptions is the payload a client hands to the provider's checkout
// SDK. Amount is in paise, the provider's minor currency unit.
type CheckoutOptions struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	Theme       struct {
		Color string `json:"color"`
	} `json:"theme"`
	Prefill struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"prefill"`
	Notes map[string]string `json:"notes"`
}

// BuildCheckoutOptions assembles provider checkout options for a dues
// payment. amountRupees is converted to paise; fractions beyond a paisa
// round to the nearest.
func BuildCheckoutOptions(m model.Member, amountRupees float64, description string) CheckoutOptions {
	opts := CheckoutOptions{
		Name:        CompanyName,
		Description: description,
		Image:       CompanyLogo,
		Currency:    Currency,
		Amount:      int64(math.Round(amountRupees * 100)),
		Notes: map[string]string{
			"memberId": m.ID,
			"flat":     m.Flat,
		},
	}
	opts.Theme.Color = ThemeColor
	opts.Prefill.Name = m.Name
	opts.Prefill.Email = m.Email
	return opts
}
