package handler

import (
	"net/http"
	"strconv"

	"pairchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
)

func roomID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": "room id must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Directory.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

type openRoomRequest struct {
	Peer string `json:"peer" binding:"required"`
}

// OpenRoom resolves the room with a peer, creating it on first contact.
func (h *Handler) OpenRoom(c *gin.Context) {
	var req openRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
		return
	}
	user := currentUser(c)
	if user.Nickname == req.Peer {
		h.abort(c, chathub.ErrInvalidRequest)
		return
	}
	room, err := h.Directory.ResolveOrCreate(c.Request.Context(), user, req.Peer)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	user := currentUser(c)
	room, err := h.Directory.FetchByID(c.Request.Context(), id, &user, true)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *Handler) SetRoomActive(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
		return
	}
	user := currentUser(c)
	if _, err := h.Directory.FetchByID(c.Request.Context(), id, &user, false); err != nil {
		h.abort(c, err)
		return
	}
	room, err := h.Directory.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.abort(c, err)
		return
	}
	room.ApplyViewerLabel(user.Nickname)
	c.JSON(http.StatusOK, room)
}

// LeaveRoom removes the caller from the room; the last member out deletes it.
func (h *Handler) LeaveRoom(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	if err := h.Directory.Leave(c.Request.Context(), currentUser(c), id); err != nil {
		h.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
