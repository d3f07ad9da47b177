package vocabulary

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/shared/telemetry"
)

// Handler serves the reference metadata used by filter dropdowns.
type Handler struct {
	Resolver *Resolver
}

// NewHandler constructs a Handler.
func NewHandler(r *Resolver) *Handler {
	return &Handler{Resolver: r}
}

// RegisterRoutes attaches the metadata route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/meta", h.meta)
}

type metaResponse struct {
	Cities     []string `json:"cities"`
	Levels     []string `json:"levels"`
	Skills     []string `json:"skills"`
	Industries []string `json:"industries"`
	Degrees    []string `json:"degrees"`
}

type dimensionResponse struct {
	Dimension Dimension `json:"dimension"`
	Names     []string  `json:"names"`
}

func (h *Handler) meta(c *gin.Context) {
	if raw := c.Query("dimension"); raw != "" {
		h.dimension(c, raw)
		return
	}
	vocab, err := h.Resolver.Load(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		telemetry.Error("vocabulary.load_failed", map[string]any{"error": err})
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load reference data", nil)
		return
	}
	respond.OK(c, metaResponse{
		Cities:     vocab.Names(City),
		Levels:     vocab.Names(Level),
		Skills:     vocab.Names(Skill),
		Industries: vocab.Names(Industry),
		Degrees:    vocab.Names(Degree),
	})
}

// dimension serves GET /meta?dimension=<name>, reading only that table.
func (h *Handler) dimension(c *gin.Context, raw string) {
	dim, err := ParseDimension(raw)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_dimension", err.Error(), gin.H{"dimension": raw})
		return
	}
	values, err := h.Resolver.Source.Dimension(c.Request.Context(), middleware.PrincipalFromContext(c), dim)
	if err != nil {
		telemetry.Error("vocabulary.load_failed", map[string]any{"dimension": string(dim), "error": err})
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load reference data", nil)
		return
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.Name)
	}
	respond.OK(c, dimensionResponse{Dimension: dim, Names: names})
}
