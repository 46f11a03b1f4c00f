package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"gorm.io/gorm"
)

// CreateSupportMessageRequest represents the request body for contacting support
type CreateSupportMessageRequest struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// ReplySupportMessageRequest represents an admin reply
type ReplySupportMessageRequest struct {
	Reply string `json:"reply" binding:"required,max=5000"`
}

var validSupportStatuses = map[string]bool{
	models.SupportPending: true,
	models.SupportRead:    true,
	models.SupportReplied: true,
	models.SupportClosed:  true,
}

// CreateSupportMessage handles POST /api/v1/support-messages
func CreateSupportMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateSupportMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Subject and message are required",
				"details": err.Error(),
			},
		})
		return
	}

	msg := models.SupportMessage{
		UserID:    user.ID,
		UserEmail: user.Email,
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
		Status:    models.SupportPending,
	}
	if err := config.GetDB().WithContext(c.Request.Context()).Create(&msg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to send message"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    msg,
	})
}

// ListMySupportMessages handles GET /api/v1/support-messages - the caller's own messages, newest first
func ListMySupportMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var messages []models.SupportMessage
	if err := config.GetDB().WithContext(c.Request.Context()).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to load messages"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// AdminListSupportMessages handles GET /api/v1/admin/support-messages?status=
func AdminListSupportMessages(c *gin.Context) {
	query := config.GetDB().WithContext(c.Request.Context()).Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		if !validSupportStatuses[status] {
			c.JSON(http.StatusBadRequest, errorResponse("INVALID_STATUS", "Unknown status filter"))
			return
		}
		query = query.Where("status = ?", status)
	}

	var messages []models.SupportMessage
	if err := query.Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to load messages"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// MarkSupportMessageRead handles PUT /api/v1/admin/support-messages/:id/read
func MarkSupportMessageRead(c *gin.Context) {
	msg, ok := loadOpenSupportMessage(c)
	if !ok {
		return
	}

	if msg.Status == models.SupportPending {
		if err := config.GetDB().WithContext(c.Request.Context()).Model(msg).Update("status", models.SupportRead).Error; err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to update message"))
			return
		}
		msg.Status = models.SupportRead
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    msg,
	})
}

// ReplySupportMessage handles PUT /api/v1/admin/support-messages/:id/reply
func ReplySupportMessage(c *gin.Context) {
	var req ReplySupportMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Reply is required"))
		return
	}

	msg, ok := loadOpenSupportMessage(c)
	if !ok {
		return
	}

	reply := strings.TrimSpace(req.Reply)
	now := time.Now()
	if err := config.GetDB().WithContext(c.Request.Context()).Model(msg).Updates(map[string]interface{}{
		"admin_reply": reply,
		"replied_at":  now,
		"status":      models.SupportReplied,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to save reply"))
		return
	}
	msg.AdminReply = &reply
	msg.RepliedAt = &now
	msg.Status = models.SupportReplied

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    msg,
	})
}

// CloseSupportMessage handles PUT /api/v1/admin/support-messages/:id/close
func CloseSupportMessage(c *gin.Context) {
	msg, ok := loadOpenSupportMessage(c)
	if !ok {
		return
	}

	if err := config.GetDB().WithContext(c.Request.Context()).Model(msg).Update("status", models.SupportClosed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to close message"))
		return
	}
	msg.Status = models.SupportClosed

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    msg,
	})
}

// loadOpenSupportMessage loads :id and rejects closed messages with 409
func loadOpenSupportMessage(c *gin.Context) (*models.SupportMessage, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_ID", "Invalid message ID"))
		return nil, false
	}

	var msg models.SupportMessage
	if err := config.GetDB().WithContext(c.Request.Context()).First(&msg, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("MESSAGE_NOT_FOUND", "Support message not found"))
		} else {
			c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to load message"))
		}
		return nil, false
	}

	if msg.IsClosed() {
		c.JSON(http.StatusConflict, errorResponse("MESSAGE_CLOSED", "Support message is already closed"))
		return nil, false
	}
	return &msg, true
}
