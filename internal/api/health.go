package api

import (
	"net/http"
	"time"

	"membership-platform/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness and component health
type HealthHandler struct {
	checker *health.Checker
	env     string
	started time.Time
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status     string                       `json:"status"`
	Timestamp  time.Time                    `json:"timestamp"`
	Env        string                       `json:"env"`
	Uptime     string                       `json:"uptime"`
	Components map[string]*health.Component `json:"components,omitempty"`
}

func NewHealthHandler(checker *health.Checker, env string) *HealthHandler {
	return &HealthHandler{checker: checker, env: env, started: time.Now()}
}

// Live always answers ok while the process serves requests
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Env:       h.env,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

// Components reports the last result of every registered check; 503 when a critical one is down
func (h *HealthHandler) Components(c *gin.Context) {
	status := http.StatusOK
	resp := HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now(),
		Env:        h.env,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Components: h.checker.GetStatus(),
	}
	if !h.checker.IsSystemHealthy() {
		status = http.StatusServiceUnavailable
		resp.Status = "unhealthy"
	}
	c.JSON(status, resp)
}
