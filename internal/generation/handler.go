package generation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/extract"
	"recruit-backend/internal/llm"
	"recruit-backend/internal/prompts"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
)

// Handler serves the generation entry point.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches generation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generate", h.generate)
}

type generateRequest struct {
	Type  string `json:"type"`
	Count *int   `json:"count"`
}

type generateResponse struct {
	Success bool  `json:"success"`
	Count   int   `json:"count"`
	Data    []any `json:"data"`
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	entityType, err := prompts.ParseEntityType(req.Type)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, prompts.ErrUnknownEntityType.Error())
		return
	}
	count := DefaultCount
	if req.Count != nil {
		count = *req.Count
	}

	manifest, err := h.Svc.Generate(c.Request.Context(), middleware.PrincipalFromContext(c), entityType, count)
	if err != nil {
		status, msg := statusFor(err)
		respond.Fail(c, status, msg)
		return
	}

	persisted := manifest.Persisted()
	data := make([]any, 0, len(persisted))
	for _, entity := range persisted {
		switch v := entity.(type) {
		case catalog.Job:
			data = append(data, catalog.ToJobResponse(v))
		case catalog.Resume:
			data = append(data, catalog.ToResumeResponse(v))
		}
	}
	respond.OK(c, generateResponse{Success: true, Count: len(data), Data: data})
}

func statusFor(err error) (int, string) {
	var cfgErr *llm.ConfigurationError
	var transportErr *llm.TransportError
	var parseErr *extract.ParseError
	switch {
	case errors.Is(err, ErrInvalidCount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrOwnerRequired):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, err.Error()
	case errors.As(err, &transportErr), errors.Is(err, llm.ErrEmptyCompletion):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &parseErr):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
