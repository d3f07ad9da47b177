package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/shared/telemetry"
)

// Handler serves the catalog read path.
type Handler struct {
	Repo Reader
}

// NewHandler constructs a Handler.
func NewHandler(repo Reader) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.listJobs)
	rg.GET("/jobs/:id", h.getJob)
	rg.GET("/resumes", h.listResumes)
	rg.GET("/resumes/:id", h.getResume)
}

func (h *Handler) listJobs(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)
	filter := JobFilter{
		City:     strings.TrimSpace(c.Query("city")),
		Level:    strings.TrimSpace(c.Query("level")),
		Industry: strings.TrimSpace(c.Query("industry")),
		Page:     ParsePagination(c.Query),
	}
	page, err := h.Repo.ListJobs(c.Request.Context(), p, filter)
	if err != nil {
		telemetry.Error("catalog.list_jobs_failed", map[string]any{"error": err})
		respond.Error(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list jobs", nil)
		return
	}
	items := make([]JobResponse, 0, len(page.Items))
	for _, job := range page.Items {
		items = append(items, ToJobResponse(job))
	}
	respond.OK(c, ListResponse[JobResponse]{Items: items, Total: page.Total, Skip: filter.Page.Offset, Limit: filter.Page.Limit})
}

func (h *Handler) getJob(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	job, err := h.Repo.GetJob(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		writeLookupError(c, "job", err)
		return
	}
	respond.OK(c, ToJobResponse(job))
}

func (h *Handler) listResumes(c *gin.Context) {
	p := middleware.PrincipalFromContext(c)
	filter := ResumeFilter{
		City:  strings.TrimSpace(c.Query("city")),
		Level: strings.TrimSpace(c.Query("level")),
		Page:  ParsePagination(c.Query),
	}
	page, err := h.Repo.ListResumes(c.Request.Context(), p, filter)
	if err != nil {
		telemetry.Error("catalog.list_resumes_failed", map[string]any{"error": err})
		respond.Error(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list resumes", nil)
		return
	}
	items := make([]ResumeResponse, 0, len(page.Items))
	for _, resume := range page.Items {
		items = append(items, ToResumeResponse(resume))
	}
	respond.OK(c, ListResponse[ResumeResponse]{Items: items, Total: page.Total, Skip: filter.Page.Offset, Limit: filter.Page.Limit})
}

func (h *Handler) getResume(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	resume, err := h.Repo.GetResume(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		writeLookupError(c, "resume", err)
		return
	}
	respond.OK(c, ToResumeResponse(resume))
}

// ParseID reads the :id path parameter and writes a 400 when it is invalid.
func ParseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, ErrCodeInvalidRequest, "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func writeLookupError(c *gin.Context, kind string, err error) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, ErrCodeNotFound, kind+" not found", nil)
		return
	}
	telemetry.Error("catalog.get_failed", map[string]any{"kind": kind, "error": err})
	respond.Error(c, http.StatusInternalServerError, ErrCodeInternal, "failed to load "+kind, nil)
}
