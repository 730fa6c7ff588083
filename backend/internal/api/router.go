package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"follownet/backend/internal/notifylog"
	"follownet/backend/internal/relationship"
	apperrors "follownet/backend/pkg/errors"
	"follownet/backend/pkg/logger"
)

// NotificationLog is the slice of the notification store the API serves
type NotificationLog interface {
	Append(ctx context.Context, n *notifylog.Notification) (*notifylog.Notification, error)
	ListForUser(ctx context.Context, userID int) ([]notifylog.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	UnreadCount(ctx context.Context, userID int) (int, error)
	Prune(ctx context.Context, maxAgeDays int) (int64, error)
}

// Server holds the handler dependencies
type Server struct {
	relationships *relationship.Service
	notifications NotificationLog
	retentionDays int
	logger        *zap.Logger
}

// NewServer creates the API server
func NewServer(relationships *relationship.Service, notifications NotificationLog, retentionDays int) *Server {
	return &Server{
		relationships: relationships,
		notifications: notifications,
		retentionDays: retentionDays,
		logger:        logger.Get(),
	}
}

// Router builds the gin engine with middleware and all routes
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestID())
	router.Use(requestLogger(s.logger))
	router.Use(gin.Recovery())
	router.Use(cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		users := api.Group("/users")
		{
			users.GET("", s.listUsers)
			users.POST("", s.createUser)
			users.GET("/:id", s.getUser)
			users.PUT("/:id", s.updateUser)
			users.POST("/:id/follow/:targetId", s.follow)
			users.POST("/:id/unfollow/:targetId", s.unfollow)
			users.GET("/:id/followers", s.listFollowers)
			users.GET("/:id/following", s.listFollowing)
		}

		notifications := api.Group("/notifications")
		{
			notifications.POST("", s.createNotification)
			notifications.GET("/user/:id", s.listNotifications)
			notifications.PUT("/:id/read", s.markNotificationRead)
			notifications.GET("/user/:id/unread-count", s.unreadCount)
			notifications.DELETE("/cleanup", s.cleanupNotifications)
		}
	}

	return router
}

// writeError maps the error taxonomy onto HTTP statuses: NotFound -> 404,
// InvalidOperation/InvalidArgument -> 400, everything else -> 500.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": apperrors.ClientMessage(err)})
	case apperrors.IsInvalidOperation(err), apperrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.ClientMessage(err)})
	default:
		s.logger.Error("Request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// requestID tags every request with a uuid for log correlation
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger is a custom logger middleware for Gin
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
