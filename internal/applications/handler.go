package applications

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lex-technology/workwise-backend/internal/shared/server/middleware"
	"github.com/lex-technology/workwise-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/get-resume/:id", h.getResume)
	rg.GET("/get-all-applications", h.list)
	rg.GET("/check-analysis/:id", h.checkAnalysis)
	rg.POST("/resume/update-section", h.updateSection)
	rg.POST("/resume/update-experience-points", h.updateExperiencePoints)
	rg.PUT("/update-application-status/:id", h.updateStatus)
	rg.PUT("/update-application-date/:id", h.updateDate)
	rg.GET("/get-cover-letter/:id", h.getCoverLetter)
	rg.PUT("/save-cover-letter/:id", h.saveCoverLetter)
}

func (h *Handler) getResume(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	app, experiences, err := h.Svc.GetFull(c.Request.Context(), userID, id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(app, experiences))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	summaries, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		respond.FromError(c, err)
		return
	}

	out := make([]SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toSummaryResponse(s))
	}
	respond.JSON(c, http.StatusOK, ListResponse{Applications: out})
}

func (h *Handler) checkAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	app, err := h.Svc.GetOwned(c.Request.Context(), userID, id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, CheckAnalysisResponse{
		Status:         "success",
		AnalysisStatus: app.AnalysisStatus,
		JDAnalysis:     app.JDAnalysis,
	})
}

func (h *Handler) updateSection(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ResumeID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resumeId is required", nil)
		return
	}
	if req.SectionTitle == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sectionTitle is required", nil)
		return
	}
	if len(req.Content) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "content is required", nil)
		return
	}

	improved, err := h.Svc.UpdateSection(c.Request.Context(), userID, req.ResumeID, req.SectionTitle, req.Content)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, UpdateSectionResponse{
		Message:          "Section updated successfully",
		ResumeID:         req.ResumeID,
		ImprovedSections: improved,
	})
}

func (h *Handler) updateExperiencePoints(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updatePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ExperienceID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "experienceId is required", nil)
		return
	}

	modified := make([]ModifiedPoint, 0, len(req.ModifiedPoints))
	for _, p := range req.ModifiedPoints {
		modified = append(modified, ModifiedPoint{
			PointID:        p.PointID,
			NewText:        p.NewText,
			RelevanceScore: p.RelevanceScore,
		})
	}

	err := h.Svc.UpdateExperiencePoints(c.Request.Context(), userID, req.ExperienceID, modified, req.DeletedPoints)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, UpdatePointsResponse{
		Message:            "Experience points updated successfully",
		ModifiedCount:      len(req.ModifiedPoints),
		DeletedCount:       len(req.DeletedPoints),
		ExperienceImproved: true,
	})
}

func (h *Handler) updateStatus(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	status := c.Query("status")
	if status == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status is required", nil)
		return
	}

	if err := h.Svc.UpdateStatus(c.Request.Context(), userID, id, status); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, MessageResponse{Message: "Status updated successfully"})
}

func (h *Handler) updateDate(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req updateDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	date, ok := parseDate(req.DateApplied)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "date_applied must be an ISO date", nil)
		return
	}

	if err := h.Svc.UpdateDate(c.Request.Context(), userID, id, date); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, MessageResponse{Message: "Application date updated successfully"})
}

func (h *Handler) getCoverLetter(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	app, err := h.Svc.GetOwned(c.Request.Context(), userID, id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toCoverLetterResponse(app))
}

func (h *Handler) saveCoverLetter(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req saveCoverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	patch, _ := json.Marshal(map[string]any{
		"last_edited":    time.Now().UTC().Format(time.RFC3339),
		"edited_by_user": true,
	})
	if err := h.Svc.SaveCoverLetter(c.Request.Context(), userID, id, req.EditedLetter, patch); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, MessageResponse{Message: "Cover letter updated successfully"})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid id", nil)
		return 0, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
