package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/billing-core/internal/domain/entity"
	"github.com/sangkips/billing-core/internal/domain/enum"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetUserEmail extracts the user email from the Gin context
func GetUserEmail(c *gin.Context) string {
	return c.GetString("user_email")
}

// actor names the authenticated user for created_by columns
func actor(c *gin.Context) string {
	if email := GetUserEmail(c); email != "" {
		return email
	}
	if userID := GetUserID(c); userID != nil {
		return userID.String()
	}
	return ""
}

// accountFromRequest builds the account reference from the path id and account_type
func accountFromRequest(c *gin.Context, accountType string) entity.AccountRef {
	return entity.NewAccountRef(c.Param("accountId"), enum.AccountType(accountType))
}
