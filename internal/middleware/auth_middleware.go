package middleware

import (
	"net/http"
	"strings"

	"fleetops/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JWTClaims is the token payload issued at login.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// AuthRequired validates the bearer token and sets user_id and user_type on
// the request context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_type", claims.UserType)

		c.Next()
	}
}

func roleRequired(message string, allowed ...models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType, exists := c.Get("user_type")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User type not found"})
			c.Abort()
			return
		}

		userTypeStr, ok := userType.(string)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": message})
			c.Abort()
			return
		}

		for _, role := range allowed {
			if userTypeStr == string(role) {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": message})
		c.Abort()
	}
}

// AdminRequired ensures the caller is an admin.
func AdminRequired() gin.HandlerFunc {
	return roleRequired("Admin access required", models.UserTypeAdmin)
}

// ManagerRequired ensures the caller holds an operator role.
func ManagerRequired() gin.HandlerFunc {
	return roleRequired("Manager access required", models.UserTypeAdmin, models.UserTypeTeamLeader)
}

// DriverRequired ensures the caller is a driver or an operator.
func DriverRequired() gin.HandlerFunc {
	return roleRequired("Driver access required",
		models.UserTypeDriver, models.UserTypeAdmin, models.UserTypeTeamLeader)
}

// PreparatorRequired ensures the caller is a preparator or an operator.
func PreparatorRequired() gin.HandlerFunc {
	return roleRequired("Preparator access required",
		models.UserTypePreparator, models.UserTypeAdmin, models.UserTypeTeamLeader)
}
