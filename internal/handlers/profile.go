package handlers

import (
	"errors"
	"net/http"

	"bed_temperature/internal/models"
	"bed_temperature/internal/repository"
	"bed_temperature/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errProfileNotFound = "profile not found"
	errLoadProfile     = "failed to load profile"
	errSaveProfile     = "failed to save profile"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err, "email", userEmail(c)}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// ProfileRequest is the body of PUT /api/v1/profile.
type ProfileRequest struct {
	// Bed time, HH:MM in the profile's timezone
	BedTime string `json:"bed_time" binding:"required" example:"22:00"`
	// Wake time, HH:MM; at or before bed time means the next day
	WakeTime string `json:"wake_time" binding:"required" example:"07:00"`
	// IANA timezone name
	Timezone string `json:"timezone" binding:"required" example:"America/New_York"`
	// Raw levels in [-100, 100]
	InitialLevel int `json:"initial_level" example:"30"`
	MidLevel     int `json:"mid_level" example:"-10"`
	FinalLevel   int `json:"final_level" example:"20"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get temperature profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  models.TemperatureProfile
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/profile [get]
// @Security     BearerAuth
func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.services.GetProfile(c.Request.Context(), userEmail(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errProfileNotFound})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadProfile, "profile_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Save temperature profile
// @Description  Validates and stores the schedule, then adjusts the device right away.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      ProfileRequest  true  "schedule and levels"
// @Success      200   {object}  models.TemperatureProfile
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/profile [put]
// @Security     BearerAuth
func (h *Handler) putProfile(c *gin.Context) {
	var req ProfileRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	saved, err := h.services.SaveProfile(c.Request.Context(), models.TemperatureProfile{
		Email:        userEmail(c),
		BedTime:      req.BedTime,
		WakeTime:     req.WakeTime,
		Timezone:     req.Timezone,
		InitialLevel: req.InitialLevel,
		MidLevel:     req.MidLevel,
		FinalLevel:   req.FinalLevel,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidProfile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveProfile, "profile_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// @Summary      Delete temperature profile
// @Description  Stops scheduled adjustments for the caller.
// @Tags         profile
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/profile [delete]
// @Security     BearerAuth
func (h *Handler) deleteProfile(c *gin.Context) {
	if err := h.services.DeleteProfile(c.Request.Context(), userEmail(c)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errProfileNotFound})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to delete profile", "profile_delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
