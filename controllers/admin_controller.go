package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/services"
	"go.uber.org/zap"
)

// AdminDashboard handles GET /api/v1/admin-dashboard; RequireAdmin runs first
func AdminDashboard(c *gin.Context) {
	dashboard, err := services.NewAdminDashboard(config.GetDB(), services.GetCaktoClient(), config.GetLogger()).
		Build(c.Request.Context())
	if err != nil {
		config.GetLogger().Error("Failed to build admin dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao carregar usuários"})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
