package matching

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/llm"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/shared/telemetry"
)

// Handler serves evaluation, calculation, backfill and match listing routes.
type Handler struct {
	Evaluator  *Evaluator
	Calculator *Calculator
	Backfill   *Backfill
	Listings   *Listings
}

// NewHandler constructs a Handler.
func NewHandler(evaluator *Evaluator, calculator *Calculator, backfill *Backfill, listings *Listings) *Handler {
	return &Handler{Evaluator: evaluator, Calculator: calculator, Backfill: backfill, Listings: listings}
}

// RegisterRoutes attaches matching routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/evaluate", h.evaluate)
	rg.POST("/calculate", h.calculate)
	rg.POST("/resumes/:id/backfill", h.backfillResume)
	rg.POST("/jobs/:id/backfill", h.backfillJob)
	rg.GET("/jobs/:id/matches", h.jobMatches)
	rg.GET("/resumes/:id/matches", h.resumeMatches)
	rg.GET("/matches/count", h.count)
}

// FlexibleID accepts a JSON number or a numeric string.
type FlexibleID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ErrInvalidPair
	}
	*id = FlexibleID(n)
	return nil
}

type pairRequest struct {
	ResumeID FlexibleID `json:"resume_id"`
	JobID    FlexibleID `json:"job_id"`
}

type evaluateResponse struct {
	Success bool   `json:"success"`
	Score   int    `json:"score"`
	Reason  string `json:"reason"`
}

type calculateResponse struct {
	Success bool      `json:"success"`
	Score   *int      `json:"score"`
	Reason  Breakdown `json:"reason"`
}

func bindPair(c *gin.Context) (int64, int64, bool) {
	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ResumeID <= 0 || req.JobID <= 0 {
		respond.Fail(c, http.StatusBadRequest, ErrInvalidPair.Error())
		return 0, 0, false
	}
	c.Set("resumeId", int64(req.ResumeID))
	c.Set("jobId", int64(req.JobID))
	return int64(req.ResumeID), int64(req.JobID), true
}

func (h *Handler) evaluate(c *gin.Context) {
	resumeID, jobID, ok := bindPair(c)
	if !ok {
		return
	}
	result, err := h.Evaluator.Evaluate(c.Request.Context(), middleware.PrincipalFromContext(c), resumeID, jobID)
	if err != nil {
		status, msg := statusFor(err)
		respond.Fail(c, status, msg)
		return
	}
	respond.OK(c, evaluateResponse{Success: true, Score: result.Score, Reason: result.Reason})
}

func (h *Handler) calculate(c *gin.Context) {
	resumeID, jobID, ok := bindPair(c)
	if !ok {
		return
	}
	row, err := h.Calculator.Calculate(c.Request.Context(), middleware.PrincipalFromContext(c), resumeID, jobID)
	if err != nil {
		status, msg := statusFor(err)
		respond.Fail(c, status, msg)
		return
	}
	respond.OK(c, calculateResponse{Success: true, Score: row.CalculateScore, Reason: ParseReason(row.CalculateReason)})
}

func (h *Handler) backfillResume(c *gin.Context) {
	id, ok := catalog.ParseID(c)
	if !ok {
		return
	}
	c.Set("resumeId", id)
	report, err := h.Backfill.ForResume(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		status, msg := statusFor(err)
		respond.Fail(c, status, msg)
		return
	}
	respond.OK(c, report)
}

func (h *Handler) backfillJob(c *gin.Context) {
	id, ok := catalog.ParseID(c)
	if !ok {
		return
	}
	c.Set("jobId", id)
	report, err := h.Backfill.ForJob(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		status, msg := statusFor(err)
		respond.Fail(c, status, msg)
		return
	}
	respond.OK(c, report)
}

func (h *Handler) jobMatches(c *gin.Context) {
	id, ok := catalog.ParseID(c)
	if !ok {
		return
	}
	c.Set("jobId", id)
	items, err := h.Listings.ForJob(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		writeListingError(c, "job", err)
		return
	}
	respond.Items(c, items)
}

func (h *Handler) resumeMatches(c *gin.Context) {
	id, ok := catalog.ParseID(c)
	if !ok {
		return
	}
	c.Set("resumeId", id)
	items, err := h.Listings.ForResume(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		writeListingError(c, "resume", err)
		return
	}
	respond.Items(c, items)
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *Handler) count(c *gin.Context) {
	n, err := h.Listings.Total(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		telemetry.Error("match.count_failed", map[string]any{"error": err})
		respond.Error(c, http.StatusInternalServerError, catalog.ErrCodeInternal, "failed to count matches", nil)
		return
	}
	respond.OK(c, countResponse{Count: n})
}

func writeListingError(c *gin.Context, kind string, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, catalog.ErrCodeNotFound, kind+" not found", nil)
		return
	}
	telemetry.Error("match.list_failed", map[string]any{"kind": kind, "error": err})
	respond.Error(c, http.StatusInternalServerError, catalog.ErrCodeInternal, "failed to load matches", nil)
}

func statusFor(err error) (int, string) {
	var cfgErr *llm.ConfigurationError
	var transportErr *llm.TransportError
	var persistErr *PersistError
	switch {
	case errors.Is(err, ErrInvalidPair):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "Job or resume not found or access denied"
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, err.Error()
	case errors.As(err, &transportErr), errors.Is(err, llm.ErrEmptyCompletion):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
