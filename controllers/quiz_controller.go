package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateQuizResponseRequest represents the onboarding quiz answers; every answer is optional
type CreateQuizResponseRequest struct {
	Goal             *string `json:"goal" binding:"omitempty,max=200"`
	StudyTime        *string `json:"study_time" binding:"omitempty,max=200"`
	BiggestChallenge *string `json:"biggest_challenge" binding:"omitempty,max=200"`
	Skipped          bool    `json:"skipped"`
}

// GetMyQuizResponse handles GET /api/v1/quiz-responses/me
func GetMyQuizResponse(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var responses []models.QuizResponse
	if err := config.GetDB().WithContext(c.Request.Context()).
		Where("user_id = ?", user.ID).
		Limit(1).
		Find(&responses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to load quiz response"))
		return
	}

	var data *models.QuizResponse
	if len(responses) > 0 {
		data = &responses[0]
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"exists":  data != nil,
		"data":    data,
	})
}

// CreateQuizResponse handles POST /api/v1/quiz-responses; a user answers at most once
func CreateQuizResponse(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateQuizResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid quiz answers"))
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var existing int64
	if err := db.Model(&models.QuizResponse{}).Where("user_id = ?", user.ID).Count(&existing).Error; err != nil {
		config.GetLogger().Error("Quiz lookup failed", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to save quiz response"))
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, errorResponse("QUIZ_ALREADY_ANSWERED", "Quiz has already been answered"))
		return
	}

	response := models.QuizResponse{
		UserID:           user.ID,
		UserEmail:        user.Email,
		Goal:             req.Goal,
		StudyTime:        req.StudyTime,
		BiggestChallenge: req.BiggestChallenge,
		Skipped:          req.Skipped,
	}
	if err := db.Create(&response).Error; err != nil {
		// The unique index catches a concurrent second answer
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, errorResponse("QUIZ_ALREADY_ANSWERED", "Quiz has already been answered"))
			return
		}
		config.GetLogger().Error("Quiz insert failed", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("DATABASE_ERROR", "Failed to save quiz response"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    response,
	})
}
