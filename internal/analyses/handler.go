package analyses

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lex-technology/workwise-backend/internal/shared/server/middleware"
	"github.com/lex-technology/workwise-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analysis orchestrators.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze-jd/:id", h.analyzeJD)
	rg.POST("/resume/analyze-skills", h.analyzeSkills)
	rg.GET("/resume/:id/skills-analysis", h.getSkillsAnalysis)
	rg.POST("/resume/analyze-executive-summary", h.analyzeSummary)
	rg.GET("/resume/:id/summary-analysis", h.getSummaryAnalysis)
	rg.POST("/resume/analyze-experience", h.analyzeExperience)
	rg.GET("/experience/:id/analysis", h.getExperienceAnalysis)
	rg.POST("/generate-cover-letter", h.generateCoverLetter)
}

func (h *Handler) analyzeJD(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	analysis, queued, err := h.Svc.StartJD(c.Request.Context(), userID, id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	if queued {
		respond.JSON(c, http.StatusAccepted, JDAnalysisResponse{
			Status:   "queued",
			ResumeID: id,
		})
		return
	}
	respond.JSON(c, http.StatusOK, JDAnalysisResponse{
		Status:   "success",
		ResumeID: id,
		Analysis: analysis,
	})
}

func (h *Handler) analyzeSkills(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req analyzeSkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ResumeID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resumeId is required", nil)
		return
	}

	analysis, err := h.Svc.AnalyzeSkills(c.Request.Context(), userID, req.ResumeID, req.AdditionalContext)
	if err != nil {
		if errors.Is(err, ErrJobDescriptionRequired) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "Job description is required to analyze skills", nil)
			return
		}
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, AnalysisResponse{Analysis: analysis})
}

func (h *Handler) getSkillsAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	analysis, err := h.Svc.StoredSkillsAnalysis(c.Request.Context(), userID, id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, AnalysisResponse{Analysis: analysis})
}

func (h *Handler) analyzeSummary(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req analyzeSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ResumeID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resumeId is required", nil)
		return
	}

	analysis, err := h.Svc.AnalyzeSummary(c.Request.Context(), userID, req.ResumeID, req.Answers, req.AdditionalContext)
	if err != nil {
		if errors.Is(err, ErrJobDescriptionRequired) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "Job description is required", nil)
			return
		}
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, AnalysisResponse{Analysis: analysis})
}

func (h *Handler) getSummaryAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	analysis, err := h.Svc.StoredSummaryAnalysis(c.Request.Context(), userID, id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, AnalysisResponse{Analysis: analysis})
}

func (h *Handler) analyzeExperience(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req analyzeExperienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ResumeID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resumeId is required", nil)
		return
	}
	if req.ExperienceID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "experienceId is required", nil)
		return
	}

	analysis, err := h.Svc.AnalyzeExperience(c.Request.Context(), userID, req.ResumeID, req.ExperienceID)
	if err != nil {
		if errors.Is(err, ErrJobDescriptionRequired) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "Job description is required for experience analysis", nil)
			return
		}
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, analysis)
}

func (h *Handler) getExperienceAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id, ok := idParam(c)
	if !ok {
		return
	}

	analysis, err := h.Svc.StoredExperienceAnalysis(c.Request.Context(), userID, id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, AnalysisResponse{Analysis: analysis})
}

func (h *Handler) generateCoverLetter(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req generateCoverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ResumeID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resume_id is required", nil)
		return
	}

	result, err := h.Svc.GenerateCoverLetter(c.Request.Context(), userID, CoverLetterInput{
		ResumeID: req.ResumeID,
		Tone:     req.Tone,
		Answers:  req.Answers,
	})
	if err != nil {
		if errors.Is(err, ErrJobDescriptionRequired) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "Job description is required to generate a cover letter", nil)
			return
		}
		respond.FromError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, GeneratedCoverLetterResponse{
		CoverLetter: result.Letter,
		Metadata:    result.Metadata,
	})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid id", nil)
		return 0, false
	}
	return id, true
}
