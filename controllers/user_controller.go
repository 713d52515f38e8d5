package controllers

import (
	"net/http"

	"github.com/mkucukkoc/fitcal-backend/models"
	"github.com/mkucukkoc/fitcal-backend/services"

	"github.com/gin-gonic/gin"
)

// currentUser resolves the authenticated profile set by the auth middleware,
// applying lazy defaults on first access.
func currentUser(c *gin.Context) (*models.User, bool) {
	uid := c.GetUint("userID")
	user, err := services.GetUser(uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, false
	}
	return user, true
}

func GetProfile(c *gin.Context) {
	uid := c.GetUint("userID")
	profile, err := services.GetUserProfile(uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func UpdateProfile(c *gin.Context) {
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uid := c.GetUint("userID")
	user, err := services.UpdateUserProfile(uid, input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated", "user_id": user.ID})
}
