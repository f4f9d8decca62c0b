package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bed_temperature/internal/repository"
	"bed_temperature/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Live status
// @Description  Heating state, degrees, today's cycle and what the next tick would do.
// @Tags         status
// @Produce      json
// @Success      200  {object}  service.StatusView
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	view, err := h.services.Status(c.Request.Context(), userEmail(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errProfileNotFound})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load status", "status_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Run temperature adjustment
// @Description  Reconciles every enrolled user. With 'at' (RFC3339) it is a dry run evaluated at that instant: no device calls, no stored events.
// @Tags         cron
// @Produce      json
// @Param        at  query     string  false  "Dry-run instant (RFC3339)"  example(2025-08-01T21:05:00Z)
// @Success      200  {object}  map[string]interface{}  "success, report"
// @Failure      400  {object}  map[string]string
// @Failure      401  {string}  string  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/cron/temperature [get]
// @Security     CronSecret
func (h *Handler) triggerTemperature(c *gin.Context) {
	var opts service.RunOptions
	if qs := c.Query("at"); qs != "" {
		at, err := time.Parse(time.RFC3339, qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'at' time; use RFC3339"})
			return
		}
		opts.At = &at
	}

	// the pass outlives a caller that hangs up mid-run
	report, err := h.services.Run(context.WithoutCancel(c.Request.Context()), opts)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("cron_run_failed", "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
