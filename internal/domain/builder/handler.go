package builder

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/emrforms/emrforms/internal/domain/preset"
	"github.com/emrforms/emrforms/internal/domain/schema"
	"github.com/emrforms/emrforms/internal/platform/auth"
	"github.com/emrforms/emrforms/internal/platform/metrics"
)

type Handler struct {
	mgr     *Manager
	presets *preset.Registry
	metrics *metrics.Metrics
}

func NewHandler(mgr *Manager, presets *preset.Registry, m *metrics.Metrics) *Handler {
	return &Handler{mgr: mgr, presets: presets, metrics: m}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/builder/sessions", auth.RequireRole("admin", "template_editor"))
	g.POST("", h.OpenSession)
	g.GET("", h.ListSessions)
	g.GET("/:id", h.GetSession)
	g.DELETE("/:id", h.CloseSession)
	g.POST("/:id/sections", h.AddSection)
	g.DELETE("/:id/sections/:sectionId", h.RemoveSection)
	g.POST("/:id/sections/:sectionId/fields", h.AddField)
	g.POST("/:id/sections/:sectionId/fields/move", h.MoveField)
	g.DELETE("/:id/sections/:sectionId/fields/:itemId", h.RemoveField)
	g.POST("/:id/presets/:packId", h.ApplyPreset)
	g.POST("/:id/values", h.SetValue)
	g.POST("/:id/select", h.Select)
	g.GET("/:id/preview", h.Preview)

	api.GET("/builder/presets", h.ListPresets, auth.RequireRole("admin", "template_editor"))
}

type openSessionRequest struct {
	Schema     *schema.Schema `json:"schema,omitempty"`
	TemplateID *uuid.UUID     `json:"template_id,omitempty"`
}

type sessionResponse struct {
	ID         uuid.UUID     `json:"id"`
	TemplateID *uuid.UUID    `json:"template_id,omitempty"`
	State      *EditorState  `json:"state"`
}

func sessionJSON(sess *Session) sessionResponse {
	return sessionResponse{ID: sess.ID, TemplateID: sess.TemplateID, State: sess.State()}
}

func (h *Handler) OpenSession(c echo.Context) error {
	var req openSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var s schema.Schema
	if req.Schema != nil {
		s = *req.Schema
	}
	sess := h.mgr.Open(s, req.TemplateID)
	if h.metrics != nil {
		h.metrics.SessionsOpened.Inc()
	}
	return c.JSON(http.StatusCreated, sessionJSON(sess))
}

func (h *Handler) ListSessions(c echo.Context) error {
	sessions := h.mgr.List()
	out := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = sessionJSON(s)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) session(c echo.Context) (*Session, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	sess, err := h.mgr.Get(id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return sess, nil
}

func (h *Handler) GetSession(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

func (h *Handler) CloseSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	h.mgr.Close(id)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddSection(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sectionID := sess.AddSection(req.Code)
	return c.JSON(http.StatusCreated, map[string]any{"section_id": sectionID, "state": sess.State()})
}

func (h *Handler) RemoveSection(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	sess.RemoveSection(c.Param("sectionId"))
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

func (h *Handler) AddField(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		Type  schema.FieldType `json:"type"`
		Label string           `json:"label"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !req.Type.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid field type")
	}
	itemID := sess.AddField(c.Param("sectionId"), req.Type, req.Label)
	if itemID == "" {
		return echo.NewHTTPError(http.StatusNotFound, "section not found")
	}
	return c.JSON(http.StatusCreated, map[string]any{"item_id": itemID, "state": sess.State()})
}

func (h *Handler) MoveField(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess.MoveField(c.Param("sectionId"), req.From, req.To)
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

func (h *Handler) RemoveField(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	sess.RemoveField(c.Param("sectionId"), c.Param("itemId"))
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

func (h *Handler) ApplyPreset(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	pack, ok := h.presets.Find(c.Param("packId"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "preset pack not found")
	}
	focus, err := sess.ApplyTransform(pack.Apply)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if h.metrics != nil {
		h.metrics.PresetApplies.WithLabelValues(pack.ID).Inc()
	}
	return c.JSON(http.StatusOK, map[string]any{"focus_section_id": focus, "state": sess.State()})
}

func (h *Handler) SetValue(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}
	sess.SetValue(req.Key, req.Value)
	return c.JSON(http.StatusOK, map[string]any{"values": sess.State().Values})
}

func (h *Handler) Select(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req struct {
		SectionID string `json:"section_id"`
		ItemID    string `json:"item_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess.Select(req.SectionID, req.ItemID)
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

func (h *Handler) Preview(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Preview())
}

func (h *Handler) ListPresets(c echo.Context) error {
	packs := h.presets.List()
	out := make([]map[string]string, len(packs))
	for i, p := range packs {
		out[i] = map[string]string{"id": p.ID, "label": p.Label}
	}
	return c.JSON(http.StatusOK, out)
}
