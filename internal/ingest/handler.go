package ingest

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lex-technology/workwise-backend/internal/shared/server/middleware"
	"github.com/lex-technology/workwise-backend/internal/shared/server/respond"
)

// DefaultMaxUploadBytes caps resume uploads at 10MB.
const DefaultMaxUploadBytes = 10 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service

	// MaxUploadBytes bounds the request body. Zero means DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// NewHandler constructs a Handler with the default upload cap.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: DefaultMaxUploadBytes}
}

// RegisterRoutes attaches the upload route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/parse-resume", h.parseResume)
}

func (h *Handler) parseResume(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fileHeader, fileErr := c.FormFile("file")
	if fileErr != nil && !errors.Is(fileErr, http.ErrMissingFile) {
		var tooLarge *http.MaxBytesError
		if errors.As(fileErr, &tooLarge) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds the upload size limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return
	}

	company := strings.TrimSpace(c.PostForm("companyApplied"))
	role := strings.TrimSpace(c.PostForm("roleApplied"))
	jobDescription := strings.TrimSpace(c.PostForm("jobDescription"))

	if company == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "companyApplied is required", nil)
		return
	}
	if role == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "roleApplied is required", nil)
		return
	}
	if jobDescription == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "jobDescription is required", nil)
		return
	}

	var parsedResumeID int64
	if v := strings.TrimSpace(c.PostForm("parsed_resume_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "parsed_resume_id must be a positive integer", nil)
			return
		}
		parsedResumeID = id
	}

	in := Input{
		UserID:         userID,
		ParsedResumeID: parsedResumeID,
		CompanyApplied: company,
		RoleApplied:    role,
		JobDescription: jobDescription,
	}

	// An explicit reference wins over an attached file.
	if parsedResumeID == 0 {
		if fileHeader == nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file or parsed_resume_id is required", nil)
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			return
		}
		in.FileName = fileHeader.Filename
		in.Data = data
	}

	res, err := h.Svc.Process(c.Request.Context(), in)
	if err != nil {
		respond.FromError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, ParseResumeResponse{
		Status:   "success",
		ResumeID: res.ResumeID,
		Message:  "Resume processed successfully",
		IsReused: res.IsReused,
	})
}
