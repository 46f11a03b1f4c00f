package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/metrics"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/services"
	"go.uber.org/zap"
)

// maxWebhookBody caps how much of a webhook delivery is read
const maxWebhookBody = 1 << 20

// CaktoWebhook handles POST /api/v1/cakto-webhook.
// Once the signature passes the answer is always 200 so the provider does not retry.
func CaktoWebhook(c *gin.Context) {
	logger := config.GetLogger()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"received": false, "error": "payload too large"})
			return
		}
		logger.Warn("Failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"received": false, "error": "could not read body"})
		return
	}

	ingestor := services.NewWebhookIngestor(
		config.GetConfig().CaktoWebhookSecret,
		services.NewSubscriptionStore(config.GetDB()),
		logger,
		metrics.Get(),
	)

	if err := ingestor.VerifySignature(body, c.GetHeader(services.SignatureHeader)); err != nil {
		logger.Warn("Rejected webhook with invalid signature", zap.String("client_ip", c.ClientIP()))
		metrics.Get().RecordWebhookEvent("rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"received": false, "error": "invalid signature"})
		return
	}

	c.JSON(http.StatusOK, ingestor.Ingest(c.Request.Context(), body))
}
