package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"strengthlab/fitness-app/internal/domain"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserTierKey = "userTier"
)

// jwtClaims mirrors the payload written by authService.generateJWT.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Tier   domain.Tier `json:"tier"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		if !token.Valid || claims.UserID == "" || claims.Tier == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		// Set user information in the context for downstream handlers
		c.Set(ContextUserIDKey, claims.UserID) // Hex representation
		c.Set(ContextUserTierKey, claims.Tier)

		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// TierMiddleware gates a route group to the given subscription tiers.
// Must run AFTER AuthMiddleware. The tier comes from the token, so a user
// upgraded mid-session needs the re-issued token to pass.
func TierMiddleware(allowedTiers ...domain.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tierRaw, exists := c.Get(ContextUserTierKey)
		if !exists {
			abortWithError(c, http.StatusInternalServerError, "User tier not found in context")
			return
		}

		userTier, ok := tierRaw.(domain.Tier)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Invalid user tier type in context")
			return
		}

		for _, allowed := range allowedTiers {
			if userTier == allowed {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: tier '%s' does not have permission", userTier))
	}
}

// getUserIDFromContext returns the authenticated user's ID as stored by
// AuthMiddleware.
func getUserIDFromContext(c *gin.Context) (primitive.ObjectID, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return primitive.NilObjectID, errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return primitive.NilObjectID, errors.New("invalid user ID type in context")
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return primitive.NilObjectID, errors.New("malformed user ID in token")
	}
	return id, nil
}

// getUserTierFromContext returns the authenticated user's tier claim.
func getUserTierFromContext(c *gin.Context) (domain.Tier, error) {
	tierRaw, exists := c.Get(ContextUserTierKey)
	if !exists {
		return "", errors.New("user tier not found in context")
	}
	tier, ok := tierRaw.(domain.Tier)
	if !ok {
		return "", errors.New("invalid user tier type in context")
	}
	return tier, nil
}
