package avatars

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/catalog"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/shared/telemetry"
)

const maxUploadSize = 2 << 20 // 2MB

// Handler wires avatar routes to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches avatar routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PUT("/resumes/:id/avatar", h.upload)
	rg.GET("/resumes/:id/avatar", h.download)
	rg.GET("/resumes/:id/avatars", h.history)
}

func (h *Handler) upload(c *gin.Context) {
	id, ok := catalog.ParseID(c)
	if !ok {
		return
	}
	c.Set("resumeId", id)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, catalog.ErrCodeInvalidRequest, "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, catalog.ErrCodeInvalidRequest, "unable to read file", nil)
		return
	}
	defer file.Close()

	avatar, err := h.Svc.Upload(c.Request.Context(), middleware.PrincipalFromContext(c), id, fileHeader.Filename, file)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, avatar)
}

func (h *Handler) download(c *gin.Context) {
	id, ok := catalog.ParseID(c)
	if !ok {
		return
	}
	c.Set("resumeId", id)
	rc, avatar, err := h.Svc.Open(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, avatar.ContentType, rc, map[string]string{
		"Cache-Control": "private, max-age=300",
	})
}

func (h *Handler) history(c *gin.Context) {
	id, ok := catalog.ParseID(c)
	if !ok {
		return
	}
	items, err := h.Svc.History(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Items(c, items)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respond.Error(c, http.StatusNotFound, catalog.ErrCodeNotFound, "resume not found", nil)
	case errors.Is(err, ErrNoAvatar):
		respond.Error(c, http.StatusNotFound, catalog.ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrUnsupportedType):
		respond.Error(c, http.StatusUnsupportedMediaType, catalog.ErrCodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, catalog.ErrCodeInvalidRequest, err.Error(), nil)
	default:
		telemetry.Error("avatar.failed", map[string]any{"error": err})
		respond.Error(c, http.StatusInternalServerError, catalog.ErrCodeInternal, "avatar request failed", nil)
	}
}
