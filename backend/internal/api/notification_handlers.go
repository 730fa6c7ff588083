package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"follownet/backend/internal/notifylog"
)

// createNotification is the internal endpoint the relationship service of
// a split deployment posts to. It is not meant for end clients.
func (s *Server) createNotification(c *gin.Context) {
	var req struct {
		UserID              int    `json:"userId" binding:"required"`
		TriggeredByUserID   int    `json:"triggeredByUserId" binding:"required"`
		Type                string `json:"type" binding:"required"`
		TriggeredByUsername string `json:"triggeredByUsername" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID <= 0 || req.TriggeredByUserID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid user ids required"})
		return
	}

	stored, err := s.notifications.Append(c.Request.Context(), &notifylog.Notification{
		UserID:              req.UserID,
		TriggeredByUserID:   req.TriggeredByUserID,
		Type:                req.Type,
		TriggeredByUsername: req.TriggeredByUsername,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (s *Server) listNotifications(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	notifications, err := s.notifications.ListForUser(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (s *Server) markNotificationRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := s.notifications.MarkRead(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func (s *Server) unreadCount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	count, err := s.notifications.UnreadCount(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

func (s *Server) cleanupNotifications(c *gin.Context) {
	deleted, err := s.notifications.Prune(c.Request.Context(), s.retentionDays)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedNotifications": deleted})
}
