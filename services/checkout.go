package services

import (
	"errors"
	"net/url"
	"strings"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
)

// ErrInvalidCheckout is returned when a checkout request lacks an email or offer
var ErrInvalidCheckout = errors.New("email and offerId are required")

// CheckoutService builds hosted checkout links. It never calls the provider.
type CheckoutService struct {
	baseURL string
}

// NewCheckoutService creates a checkout link builder
func NewCheckoutService(baseURL string) *CheckoutService {
	return &CheckoutService{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// CheckoutURL returns the hosted checkout page for an offer, prefilled with the email
func (s *CheckoutService) CheckoutURL(email, offerID string) (string, error) {
	offerID = strings.TrimSpace(offerID)
	if strings.TrimSpace(email) == "" || offerID == "" {
		return "", ErrInvalidCheckout
	}

	normalized, err := utils.ValidateEmail(email)
	if err != nil {
		return "", err
	}

	return s.baseURL + "/" + url.PathEscape(offerID) + "?" + url.Values{"email": {normalized}}.Encode(), nil
}
