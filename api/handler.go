// Package api serves the operator console: one HTTP request is one
// navigation, guarded by rbac and backed by the service modules.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/health"
	"github.com/getkayan/medgas/logger"
	"github.com/getkayan/medgas/rbac"
	"github.com/getkayan/medgas/service"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *service.Services
	guard  *rbac.Guard
	health *health.Manager
}

// NewHandler wires the console. hm may be nil, in which case /healthz is not
// mounted.
func NewHandler(svc *service.Services, guard *rbac.Guard, hm *health.Manager) *Handler {
	return &Handler{svc: svc, guard: guard, health: hm}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/login", h.HandleLoginPage)
	e.POST("/login", h.HandleLogin)
	e.POST("/logout", h.HandleLogout)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if h.health != nil {
		e.GET("/healthz", h.health.Handler())
	}

	// Guards are attached per route so that unknown paths fall through to
	// the landing redirect instead of a group-level 404.
	authed := h.guard.RequireRole("")
	e.GET("/dashboard", h.HandleDashboard, authed)
	e.GET("/consumos", h.HandleConsumptions, authed)
	e.POST("/consumos", h.HandleCreateConsumption, authed)
	e.GET("/reportes", h.HandleReports, authed)
	e.POST("/reportes/pdf", h.HandleReportPDF, authed)
	e.POST("/reportes/excel", h.HandleReportExcel, authed)

	admin := h.guard.RequireRole(domain.RoleAdmin)
	e.GET("/admin/usuarios", h.HandleUsers, admin)
	e.GET("/admin/hospitales", h.HandleHospitals, admin)
	e.GET("/admin/gases", h.HandleGases, admin)
	e.GET("/admin/auditoria", h.HandleAudit, admin)
	e.POST("/admin/consumos/:id/validar", h.HandleValidateConsumption, admin)

	e.GET("/", h.toLanding)
	e.RouteNotFound("/*", h.toLanding)
}

func (h *Handler) toLanding(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, h.guard.DefaultPath)
}

// ---- Session ----

func (h *Handler) HandleLoginPage(c echo.Context) error {
	if _, d := h.guard.Check(""); d.Allowed() {
		return c.Redirect(http.StatusSeeOther, h.guard.DefaultPath)
	}
	return c.JSON(http.StatusOK, map[string]any{"page": "login"})
}

func (h *Handler) HandleLogin(c echo.Context) error {
	var body struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}
	if body.Email == "" || body.Password == "" {
		return h.Error(c, http.StatusBadRequest, "Email and password are required", nil)
	}

	res, err := h.svc.Auth.Login(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		// A failed login is not an expired session; report it in place.
		if errors.Is(err, client.ErrSessionInvalidated) {
			return h.Error(c, http.StatusUnauthorized, client.UserMessage(unwrapAPI(err)), nil)
		}
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"usuario":  res.Usuario,
		"redirect": h.guard.DefaultPath,
	})
}

func (h *Handler) HandleLogout(c echo.Context) error {
	if err := h.svc.Auth.Logout(c.Request().Context()); err != nil {
		logger.Log.Warn("logout completed with errors", zap.Error(err))
	}
	return c.Redirect(http.StatusSeeOther, h.guard.LoginPath)
}

// ---- Pages ----

// HandleDashboard shows the global dashboard to administrators and the
// hospital dashboard to everyone else.
func (h *Handler) HandleDashboard(c echo.Context) error {
	sess := rbac.SessionFrom(c)
	ctx := c.Request().Context()
	params := queryParams(c)

	var (
		data map[string]any
		err  error
	)
	if sess.Role().IsAdmin() {
		data, err = h.svc.Reports.DashboardAdmin(ctx, params)
	} else {
		data, err = h.svc.Reports.DashboardHospital(ctx, params)
	}
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"usuario":   sess.User,
		"dashboard": data,
	})
}

func (h *Handler) HandleConsumptions(c echo.Context) error {
	items, err := h.svc.Consumptions.List(c.Request().Context(), queryParams(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) HandleCreateConsumption(c echo.Context) error {
	var payload map[string]any
	if err := c.Bind(&payload); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid request body", err)
	}
	created, err := h.svc.Consumptions.Create(c.Request().Context(), payload)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) HandleValidateConsumption(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid id", err)
	}
	msg, err := h.svc.Consumptions.Validate(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *Handler) HandleReports(c echo.Context) error {
	data, err := h.svc.Reports.MonthlyConsumption(c.Request().Context(), queryParams(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, data)
}

func (h *Handler) HandleReportPDF(c echo.Context) error {
	var filter domain.ReportFilter
	if err := c.Bind(&filter); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid report filter", err)
	}
	a, err := h.svc.Reports.GeneratePDF(c.Request().Context(), filter, c.QueryParam("tipo_reporte"))
	return h.sendArtifact(c, a, err)
}

func (h *Handler) HandleReportExcel(c echo.Context) error {
	var filter domain.ReportFilter
	if err := c.Bind(&filter); err != nil {
		return h.Error(c, http.StatusBadRequest, "Invalid report filter", err)
	}
	a, err := h.svc.Reports.GenerateExcel(c.Request().Context(), filter, c.QueryParam("formato"))
	return h.sendArtifact(c, a, err)
}

// sendArtifact streams the report back as an attachment. A failure to save
// the local copy is logged but does not hide the report from the caller.
func (h *Handler) sendArtifact(c echo.Context, a *domain.DownloadArtifact, err error) error {
	if a == nil {
		return h.fail(c, err)
	}
	if err != nil {
		logger.Log.Error("failed to save report", zap.String("file", a.Filename), zap.Error(err))
	}

	contentType := a.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", a.Filename))
	if a.Path != "" {
		c.Response().Header().Set("X-Saved-Path", a.Path)
	}
	return c.Blob(http.StatusOK, contentType, a.Data)
}

// ---- Admin ----

func (h *Handler) HandleUsers(c echo.Context) error {
	items, err := h.svc.Users.List(c.Request().Context(), queryParams(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) HandleHospitals(c echo.Context) error {
	items, err := h.svc.Hospitals.List(c.Request().Context(), queryParams(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) HandleGases(c echo.Context) error {
	items, err := h.svc.Gases.List(c.Request().Context(), queryParams(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) HandleAudit(c echo.Context) error {
	items, err := h.svc.Audit.List(c.Request().Context(), queryParams(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// ---- Helpers ----

// queryParams forwards the page's query string as list filters. Only the
// first value of each key is kept.
func queryParams(c echo.Context) client.Params {
	q := c.QueryParams()
	if len(q) == 0 {
		return nil
	}
	params := make(client.Params, len(q))
	for key := range q {
		params[key] = q.Get(key)
	}
	return params
}

// fail turns a service error into a response. An invalidated session sends
// the operator back to the login page; everything else is reported in place.
func (h *Handler) fail(c echo.Context, err error) error {
	if errors.Is(err, client.ErrSessionInvalidated) {
		return c.Redirect(http.StatusSeeOther, h.guard.LoginPath)
	}

	code := http.StatusInternalServerError
	var apiErr *client.APIError
	switch {
	case errors.Is(err, service.ErrInvalidID):
		code = http.StatusBadRequest
	case errors.As(err, &apiErr) && apiErr.Kind == client.KindNetwork:
		code = http.StatusBadGateway
	case errors.As(err, &apiErr) && apiErr.Status >= 400:
		code = apiErr.Status
	}
	return h.Error(c, code, client.UserMessage(err), nil)
}

// Error writes the console's error envelope.
func (h *Handler) Error(c echo.Context, code int, message string, err error) error {
	resp := map[string]any{
		"status": message,
		"code":   code,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	return c.JSON(code, resp)
}

// unwrapAPI drops the invalidation marker so the backend's own message is
// shown.
func unwrapAPI(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return &client.APIError{Status: apiErr.Status, Message: apiErr.Message, Kind: apiErr.Kind}
	}
	return err
}
