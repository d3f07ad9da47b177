package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/server/respond"
)

// DefaultTemperature applies when a proxy request omits temperature.
const DefaultTemperature = 0.7

// Handler exposes the gateway as a pass-through completion endpoint.
type Handler struct {
	Gateway Gateway
}

// NewHandler constructs a Handler.
func NewHandler(g Gateway) *Handler {
	return &Handler{Gateway: g}
}

// RegisterRoutes attaches the completion route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/llm/complete", h.complete)
}

type completeRequest struct {
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature"`
}

func (h *Handler) complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		respond.Fail(c, http.StatusBadRequest, "messages are required")
		return
	}
	for _, m := range req.Messages {
		if strings.TrimSpace(m.Role) == "" {
			respond.Fail(c, http.StatusBadRequest, "every message needs a role")
			return
		}
	}
	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	raw, err := h.Gateway.Complete(c.Request.Context(), req.Messages, temperature)
	if err != nil {
		var cfgErr *ConfigurationError
		var transportErr *TransportError
		switch {
		case errors.As(err, &cfgErr):
			respond.Fail(c, http.StatusInternalServerError, err.Error())
		case errors.As(err, &transportErr):
			respond.Fail(c, http.StatusBadGateway, transportErr.Message)
		default:
			respond.Fail(c, http.StatusBadGateway, err.Error())
		}
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}
