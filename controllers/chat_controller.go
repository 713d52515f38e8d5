package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mkucukkoc/fitcal-backend/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ChatController struct {
	chat *services.ChatService
}

func NewChatController(chat *services.ChatService) *ChatController {
	return &ChatController{chat: chat}
}

type ChatMessageInput struct {
	SessionID uint   `json:"session_id"`
	Content   string `json:"content" binding:"required"`
	ImageURL  string `json:"image_url"`
	ImageMime string `json:"image_mime"`
}

// SendMessage handles one blocking coaching turn.
func (cc *ChatController) SendMessage(c *gin.Context) {
	var input ChatMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	reply, err := cc.chat.HandleMessage(c.Request.Context(), user, input.SessionID, input.Content, input.ImageURL, input.ImageMime)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate reply"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// SendMessageStream schedules a streaming turn. Deltas are delivered over the
// user's websocket; the HTTP response only acknowledges the task.
func (cc *ChatController) SendMessageStream(c *gin.Context) {
	var input ChatMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	task, err := cc.chat.HandleMessageStream(c.Request.Context(), user, input.SessionID, input.Content, input.ImageURL, input.ImageMime)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start reply"})
		return
	}

	go task.Run()

	c.JSON(http.StatusAccepted, gin.H{
		"session_id": task.SessionID,
		"message_id": task.MessageID,
	})
}

func (cc *ChatController) GetHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	msgs, err := cc.chat.History(user, uint(sessionID), limit)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, msgs)
}
