package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type verificationRequest struct {
	EmailOrPhone string `json:"email_or_phone" binding:"required"`
}

type confirmRequest struct {
	EmailOrPhone string `json:"email_or_phone" binding:"required"`
	Code         string `json:"code" binding:"required,len=6,numeric"`
}

// RequestVerification queues a verification code for an email or phone.
func (h *Handler) RequestVerification(c *gin.Context) {
	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
		return
	}
	if err := h.Verification.Request(c.Request.Context(), req.EmailOrPhone); err != nil {
		h.abort(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handler) ConfirmVerification(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
		return
	}
	ok, err := h.Verification.Verify(c.Request.Context(), req.EmailOrPhone, req.Code)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": ok})
}
