package obs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check probes one dependency.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandlers exposes endpoints for liveness and readiness checks.
type HealthHandlers struct {
	Checks  []Check
	Timeout time.Duration
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Readyz runs every check and reports each failing dependency by name.
func (h HealthHandlers) Readyz(c *gin.Context) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()
	failed := gin.H{}
	var errs []error
	for _, check := range h.Checks {
		if check.Probe == nil {
			continue
		}
		if err := check.Probe(ctx); err != nil {
			failed[check.Name] = err.Error()
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
