package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pairchat/backend/internal/chathub"
	"pairchat/backend/internal/localization"
	"pairchat/backend/internal/models"
	"pairchat/backend/internal/relay"
	"pairchat/backend/internal/storage"
	"pairchat/backend/internal/verification"

	"github.com/gin-gonic/gin"
)

// Handler містить залежності HTTP- та WebSocket-обробників.
type Handler struct {
	// Ctx outlives single requests; WebSocket sessions run under it.
	Ctx context.Context

	Hub          chathub.Registry
	Directory    *chathub.Directory
	Store        storage.Storage
	Relay        chathub.Publisher
	Verification *verification.Service
	Localizer    *localization.Localizer

	JWTSecret      []byte
	TokenTTL       time.Duration
	SendBufferSize int
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r gin.IRouter) {
	r.POST("/users", h.RegisterUser)
	r.POST("/verification", h.RequestVerification)
	r.POST("/verification/confirm", h.ConfirmVerification)

	authed := r.Group("/", h.RequireUser())
	authed.GET("/ws", h.ServeWebSocket)
	authed.GET("/rooms", h.ListRooms)
	authed.POST("/rooms", h.OpenRoom)
	authed.GET("/rooms/:id", h.GetRoom)
	authed.PATCH("/rooms/:id/active", h.SetRoomActive)
	authed.DELETE("/rooms/:id/membership", h.LeaveRoom)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chathub.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chathub.ErrInvalidRequest),
		errors.Is(err, verification.ErrInvalidContact),
		errors.Is(err, models.ErrEmptyNickname),
		errors.Is(err, models.ErrInvalidNickname):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, chathub.ErrRelay), errors.Is(err, relay.ErrPublish):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) abort(c *gin.Context, err error) {
	code := chathub.ErrorCode(err)
	detail := err.Error()
	if h.Localizer != nil {
		detail = h.Localizer.GetString(c.DefaultQuery("lang", localization.DefaultLanguage), code)
	}
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": code, "detail": detail})
}
