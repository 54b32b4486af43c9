package credits

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lex-technology/workwise-backend/internal/shared/server/middleware"
	"github.com/lex-technology/workwise-backend/internal/shared/server/respond"
)

// Handler exposes the credits endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches credit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/credits", h.getCredits)
}

func (h *Handler) getCredits(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	p, err := h.Svc.Snapshot(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch credits", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"plan":      p.Plan(),
		"monthly":   p.MonthlyCredits,
		"remaining": p.RemainingCredits,
		"resetsAt":  p.PeriodResetsAt,
	})
}
