package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/usecase"
)

// LookupService captures the engine operation the handlers need.
type LookupService interface {
	Find(ctx context.Context, req *domain.LookupRequest) (*domain.LookupResult, error)
}

// ProgressSource exposes the live narration line for an in-flight lookup.
type ProgressSource interface {
	Current(searchID string) (string, bool)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	lookup     LookupService
	progress   ProgressSource
	normalizer *usecase.TextNormalizer
}

// NewHandler creates a new HTTP handler
func NewHandler(lookup LookupService, progress ProgressSource, normalizer *usecase.TextNormalizer) *Handler {
	return &Handler{
		lookup:     lookup,
		progress:   progress,
		normalizer: normalizer,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutriscan-backend",
		"version": "1.0.0",
	})
}

// lookupResponse wraps a LookupResult with user-facing staleness text.
type lookupResponse struct {
	*domain.LookupResult
	CachedAgo string `json:"cachedAgo,omitempty"`
}

// Lookup handles product lookup requests
func (h *Handler) Lookup(c *gin.Context) {
	var req domain.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.lookup.Find(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lookupResponse{
		LookupResult: result,
		CachedAgo:    describeAge(result.CachedAt, time.Now()),
	})
}

// Progress returns the current narration line for an in-flight lookup.
func (h *Handler) Progress(c *gin.Context) {
	searchID := c.Param("searchId")
	message, active := h.progress.Current(searchID)
	c.JSON(http.StatusOK, gin.H{
		"searchId": searchID,
		"message":  message,
		"active":   active,
	})
}

// labelRequest carries raw recognized text from the OCR collaborator.
type labelRequest struct {
	Text string `json:"text" binding:"required"`
}

// CleanIngredients extracts and cleans an ingredient list from raw label text
func (h *Handler) CleanIngredients(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ingredients, err := h.normalizer.IngredientsFromLabel(req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

// scaleRequest applies a chosen serving size to per-100g facts.
type scaleRequest struct {
	Nutrition   domain.NutritionFacts `json:"nutrition"`
	ServingSize string                `json:"servingSize" binding:"required"`
}

// ScaleNutrition rescales per-100g nutrition to a chosen serving size
func (h *Handler) ScaleNutrition(c *gin.Context) {
	var req scaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	scaled, amount, unit := usecase.ScaleForServing(req.Nutrition, req.ServingSize)
	c.JSON(http.StatusOK, gin.H{
		"nutrition": scaled,
		"amount":    amount,
		"unit":      unit,
	})
}

// writeError maps engine errors onto HTTP statuses. Everything here is
// recoverable from the caller's point of view.
func (h *Handler) writeError(c *gin.Context, err error) {
	var windowErr *domain.WindowExceededError
	var serverErr *domain.ServerError

	switch {
	case errors.As(err, &windowErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       windowErr.Error(),
			"waitSeconds": windowErr.WaitSeconds(),
		})
	case errors.Is(err, domain.ErrDailyLimitReached):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoIngredientsFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &serverErr),
		errors.Is(err, domain.ErrNetwork),
		errors.Is(err, domain.ErrInvalidResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// describeAge renders cachedAt as "found N hours ago" text for the UI; an
// absent timestamp (fresh result) renders as nothing.
func describeAge(cachedAt *time.Time, now time.Time) string {
	if cachedAt == nil {
		return ""
	}
	age := now.Sub(*cachedAt)
	switch {
	case age < time.Minute:
		return "found just now"
	case age < time.Hour:
		return fmt.Sprintf("found %d minutes ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("found %d hours ago", int(age.Hours()))
	default:
		return fmt.Sprintf("found %d days ago", int(age.Hours()/24))
	}
}
