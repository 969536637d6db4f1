// Package health exposes liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handler reports service health. Readiness checks the database and, when
// configured, the lock coordination store.
type Handler struct {
	db      *gorm.DB
	redis   redis.UniversalClient
	service string
}

// NewHandler creates a health Handler. redisClient may be nil when the
// in-process lock backend is in use.
func NewHandler(db *gorm.DB, redisClient redis.UniversalClient, service string) *Handler {
	return &Handler{db: db, redis: redisClient, service: service}
}

// RegisterRoutes registers /health/live and /health/ready.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)
}

// Live reports process liveness.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": h.service, "status": "up"})
}

// Ready reports dependency readiness.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "up"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["lock_store"] = "down"
			healthy = false
		} else {
			checks["lock_store"] = "up"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"service": h.service, "checks": checks})
}
