package template

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/emrforms/emrforms/internal/platform/auth"
	"github.com/emrforms/emrforms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "template_editor", "physician", "nurse"))
	read.GET("/templates", h.List)
	read.GET("/templates/:id", h.Get)
	read.GET("/templates/:id/versions", h.ListVersions)
	read.GET("/templates/:id/versions/:v", h.GetVersion)

	write := api.Group("", auth.RequireRole("admin", "template_editor"))
	write.POST("/templates", h.Create)
	write.POST("/templates/:id/versions", h.SaveVersion)
	write.POST("/templates/:id/publish", h.Publish)
	write.POST("/templates/:id/restore", h.Restore)
	write.DELETE("/templates/:id", h.Archive)
}

func actor(c echo.Context) *string {
	uid := auth.UserIDFromContext(c.Request().Context())
	if uid == "" {
		return nil
	}
	return &uid
}

// writeErr maps lifecycle sentinels onto HTTP status codes.
func writeErr(err error) error {
	switch {
	case errors.Is(err, ErrTemplateArchived):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrVersionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Create(c.Request().Context(), &req, actor(c))
	if err != nil {
		return writeErr(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "template not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"dept_code", "record_type_code", "status"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	items, total, err := h.svc.List(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) SaveVersion(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req SaveVersionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.SaveVersion(c.Request().Context(), id, &req, actor(c))
	if err != nil {
		return writeErr(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) Publish(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	req := PublishRequest{Publish: true}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.SetPublished(c.Request().Context(), id, req.Publish, actor(c))
	if err != nil {
		return writeErr(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Restore(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req RestoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Restore(c.Request().Context(), id, req.FromVersion, actor(c))
	if err != nil {
		return writeErr(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) Archive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Archive(c.Request().Context(), id, actor(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "template not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListVersions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	versions, err := h.svc.Versions(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "template not found")
	}
	return c.JSON(http.StatusOK, versions)
}

func (h *Handler) GetVersion(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := strconv.Atoi(c.Param("v"))
	if err != nil || v < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version")
	}
	entry, err := h.svc.GetVersion(c.Request().Context(), id, v)
	if err != nil {
		return writeErr(err)
	}
	return c.JSON(http.StatusOK, entry)
}
