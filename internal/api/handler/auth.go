package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pairchat/backend/internal/models"

	"github.com/gin-gonic/gin"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "pairchat-service"
	userKey     = "user"
)

var errInvalidToken = errors.New("invalid token")

// generateJWT генерує JWT з ID користувача.
func (h *Handler) generateJWT(userID uint) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   fmt.Sprint(userID),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

func (h *Handler) validateAndGetUserID(tokenString string) (uint, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return h.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errInvalidToken, err)
	}
	var id uint
	if _, err := fmt.Sscan(claims.Subject, &id); err != nil || id == 0 {
		return 0, errInvalidToken
	}
	return id, nil
}

// bearerToken reads the Authorization header, falling back to the "token"
// query parameter since browsers cannot set headers on WebSocket upgrades.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return header[len("Bearer "):]
	}
	return c.Query("token")
}

// RequireUser authenticates the request and stores the user in the context.
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
			return
		}
		userID, err := h.validateAndGetUserID(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}
		user, err := h.Store.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			return
		}
		c.Set(userKey, *user)
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	return c.MustGet(userKey).(models.User)
}

type registerRequest struct {
	Nickname string `json:"nickname" binding:"required,max=64"`
}

// RegisterUser створює користувача і повертає JWT.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
		return
	}
	if err := models.ValidateNickname(req.Nickname); err != nil {
		h.abort(c, err)
		return
	}

	user := &models.User{Nickname: req.Nickname}
	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		if _, lookupErr := h.Store.GetUserByNickname(c.Request.Context(), req.Nickname); lookupErr == nil {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "nickname_taken"})
			return
		}
		h.abort(c, err)
		return
	}

	token, err := h.generateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}
