package services

import (
	"errors"
	"testing"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutService_CheckoutURL(t *testing.T) {
	svc := NewCheckoutService("https://pay.cakto.com.br/")

	url, err := svc.CheckoutURL(" Ana+enem@Test.com ", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.cakto.com.br/abc123?email=ana%2Benem%40test.com", url)
}

func TestCheckoutService_MissingFields(t *testing.T) {
	svc := NewCheckoutService("https://pay.cakto.com.br")

	_, err := svc.CheckoutURL("", "abc")
	assert.True(t, errors.Is(err, ErrInvalidCheckout))

	_, err = svc.CheckoutURL("ana@test.com", "  ")
	assert.True(t, errors.Is(err, ErrInvalidCheckout))

	_, err = svc.CheckoutURL("not-an-email", "abc")
	var validationErr *utils.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "INVALID_EMAIL", validationErr.Code)
}
