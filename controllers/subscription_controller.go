package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/metrics"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/middleware"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/services"
	"go.uber.org/zap"
)

// CheckoutRequest represents the create-checkout body
type CheckoutRequest struct {
	Email   string `json:"email"`
	OfferID string `json:"offerId"`
}

func newReconciler() *services.Reconciler {
	db := config.GetDB()
	return services.NewReconciler(
		services.NewIdentityService(db, nil, config.GetLogger()),
		services.NewSubscriptionStore(db),
		services.GetCaktoClient(),
		config.GetLogger(),
		metrics.Get(),
	)
}

// CheckSubscription handles POST /api/v1/check-subscription.
// Anonymous callers and every internal failure get hasSubscription=false with 200.
func CheckSubscription(c *gin.Context) {
	reconciler := newReconciler()

	if _, err := middleware.GetUserID(c); err != nil {
		c.JSON(http.StatusOK, reconciler.Check(c.Request.Context(), nil))
		return
	}

	user, err := resolveCaller(c)
	if err != nil {
		config.GetLogger().Warn("Could not resolve caller for subscription check", zap.Error(err))
		c.JSON(http.StatusOK, reconciler.Check(c.Request.Context(), nil))
		return
	}

	c.JSON(http.StatusOK, reconciler.Check(c.Request.Context(), user))
}

// CancelSubscription handles POST /api/v1/cancel-subscription
func CancelSubscription(c *gin.Context) {
	user, err := resolveCaller(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Usuário não autenticado"})
		return
	}

	ctx := c.Request.Context()
	logger := config.GetLogger().With(zap.String("email", user.Email))
	store := services.NewSubscriptionStore(config.GetDB())
	provider := services.GetCaktoClient()

	local, err := store.FindActive(ctx, user.Email)
	if err != nil {
		logger.Error("Failed to load local subscription", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erro ao consultar assinatura"})
		return
	}

	providerID, err := cancellationTarget(ctx, provider, user.Email, local)
	if errors.Is(err, services.ErrNoActiveSubscription) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Nenhuma assinatura ativa encontrada"})
		return
	}

	if providerID != "" {
		if err := provider.CancelSubscription(ctx, providerID); err != nil {
			logger.Error("Provider rejected cancellation", zap.String("cakto_subscription_id", providerID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Erro ao cancelar assinatura no provedor de pagamento"})
			return
		}
	} else {
		logger.Warn("Cancelling local subscription without a provider id")
	}

	if _, err := store.Cancel(ctx, user.Email); err != nil {
		logger.Error("Failed to mark subscription cancelled", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Erro ao atualizar assinatura"})
		return
	}

	logger.Info("Subscription cancelled by user", zap.String("cakto_subscription_id", providerID))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Assinatura cancelada com sucesso"})
}

// cancellationTarget picks the provider subscription to cancel: the local row's id,
// else the first active provider subscription for the email. It returns
// ErrNoActiveSubscription when neither side knows of one.
func cancellationTarget(ctx context.Context, provider services.PaymentProvider, email string, local *models.Subscription) (string, error) {
	if local != nil && local.CaktoSubscriptionID != nil && *local.CaktoSubscriptionID != "" {
		return *local.CaktoSubscriptionID, nil
	}

	subs, err := provider.ListSubscriptions(ctx, services.ListQuery{CustomerEmail: email})
	if err != nil && !errors.Is(err, services.ErrProviderNotConfigured) {
		config.GetLogger().Warn("Provider subscription lookup failed during cancel", zap.String("email", email), zap.Error(err))
	}
	for _, s := range subs {
		status := strings.ToLower(s.Status)
		if status == "active" || status == "ativa" || status == "paid" {
			return string(s.ID), nil
		}
	}

	if local == nil {
		return "", services.ErrNoActiveSubscription
	}
	return "", nil
}

// CreateCheckout handles POST /api/v1/create-checkout. It never calls the provider.
func CreateCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.ErrInvalidCheckout.Error()})
		return
	}

	url, err := services.NewCheckoutService(config.GetConfig().CaktoCheckoutURL).CheckoutURL(req.Email, req.OfferID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CaktoAuth handles POST /api/v1/cakto-auth for internal callers
func CaktoAuth(c *gin.Context) {
	token, err := services.GetCaktoClient().AccessToken(c.Request.Context())
	if err != nil {
		config.GetLogger().Error("Failed to obtain Cakto token", zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrProviderNotConfigured) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token})
}
