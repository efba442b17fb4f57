package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/berfenger/tdsflow/internal/core/card"
	"github.com/berfenger/tdsflow/internal/core/domain"
	"github.com/berfenger/tdsflow/internal/core/service"
	"github.com/berfenger/tdsflow/internal/metrics"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type errorBody struct {
	Error string `json:"error"`
}

type configBody struct {
	Config   card.Config   `json:"config"`
	Resolved card.Resolved `json:"resolved"`
}

type suggestBody struct {
	Entities []string `json:"entities"`
}

type tapBody struct {
	Event      any  `json:"event"`
	Dispatched bool `json:"dispatched"`
}

type editorBody struct {
	Schema []card.Field      `json:"schema"`
	Labels map[string]string `json:"labels"`
	Data   card.Config       `json:"data,omitempty"`
}

type versionBody struct {
	Version  string `json:"version"`
	Revision string `json:"revision"`
	Dirty    bool   `json:"dirty"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/version", s.VersionHandler)
	if s.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(s.gatherer)))
	}

	api := e.Group("/api")
	api.GET("/card", s.CardViewHandler)
	api.POST("/card/:slot/tap", s.TapHandler)
	api.GET("/config", s.GetConfigHandler)
	api.PUT("/config", s.SetConfigHandler)
	api.PATCH("/config", s.EditConfigHandler)
	api.POST("/config/resolve", s.ResolveConfigHandler)
	api.POST("/config/suggest", s.SuggestConfigHandler)
	api.GET("/config/stub", s.StubConfigHandler)
	api.GET("/editor/schema", s.EditorSchemaHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, ACTOR_REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, versionBody{
		Version:  versioninfo.Version,
		Revision: versioninfo.Revision,
		Dirty:    versioninfo.DirtyBuild,
	})
}

func (s *Server) CardViewHandler(c echo.Context) error {
	res, err := s.request(domain.GetCardViewRequest{})
	if err != nil {
		return s.fail(c, err)
	}
	response, ok := res.(domain.GetCardViewResponse)
	if !ok {
		return s.unexpected(c)
	}
	return c.JSON(http.StatusOK, response.View)
}

func (s *Server) GetConfigHandler(c echo.Context) error {
	res, err := s.request(domain.GetCardConfigRequest{})
	if err != nil {
		return s.fail(c, err)
	}
	response, ok := res.(domain.GetCardConfigResponse)
	if !ok {
		return s.unexpected(c)
	}
	return c.JSON(http.StatusOK, configBody{Config: response.Config, Resolved: response.Resolved})
}

func (s *Server) SetConfigHandler(c echo.Context) error {
	cfg, err := readConfig(c)
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.request(domain.SetCardConfigRequest{Config: cfg})
	if err != nil {
		return s.fail(c, err)
	}
	response, ok := res.(domain.SetCardConfigResponse)
	if !ok {
		return s.unexpected(c)
	}
	if response.HasResponseError() {
		return s.fail(c, response.GetResponseError())
	}
	return c.JSON(http.StatusOK, configBody{Config: cfg, Resolved: response.Resolved})
}

func (s *Server) EditConfigHandler(c echo.Context) error {
	changes, err := readConfig(c)
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.request(domain.EditCardConfigRequest{Changes: changes})
	if err != nil {
		return s.fail(c, err)
	}
	response, ok := res.(domain.EditCardConfigResponse)
	if !ok {
		return s.unexpected(c)
	}
	if response.HasResponseError() {
		return s.fail(c, response.GetResponseError())
	}
	return c.JSON(http.StatusOK, response.Config)
}

// ResolveConfigHandler resolves a config without storing it.
func (s *Server) ResolveConfigHandler(c echo.Context) error {
	cfg, err := readConfig(c)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, card.Resolve(cfg))
}

func (s *Server) SuggestConfigHandler(c echo.Context) error {
	var body suggestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, card.Suggest(body.Entities))
}

func (s *Server) StubConfigHandler(c echo.Context) error {
	res, err := s.request(domain.GetStubConfigRequest{})
	if err != nil {
		return s.fail(c, err)
	}
	response, ok := res.(domain.GetStubConfigResponse)
	if !ok {
		return s.unexpected(c)
	}
	return c.JSON(http.StatusOK, response.Config)
}

func (s *Server) EditorSchemaHandler(c echo.Context) error {
	schema := card.EditorSchema()
	labels := map[string]string{}
	collectLabels(schema, labels)

	body := editorBody{Schema: schema, Labels: labels}
	res, err := s.request(domain.GetCardConfigRequest{})
	if err == nil {
		if response, ok := res.(domain.GetCardConfigResponse); ok {
			body.Data = card.EditorData(response.Config)
		}
	}
	return c.JSON(http.StatusOK, body)
}

// TapHandler performs the tap action of a slot. ?target=icon taps the icon.
func (s *Server) TapHandler(c echo.Context) error {
	slot := card.SlotID(c.Param("slot"))
	if !slot.Valid() {
		return c.JSON(http.StatusNotFound, errorBody{Error: "unknown slot"})
	}
	res, err := s.request(domain.CardTapRequest{Slot: slot, Icon: c.QueryParam("target") == "icon"})
	if err != nil {
		return s.fail(c, err)
	}
	response, ok := res.(domain.CardTapResponse)
	if !ok {
		return s.unexpected(c)
	}
	if response.HasResponseError() {
		return s.fail(c, response.GetResponseError())
	}
	return c.JSON(http.StatusOK, tapBody{Event: response.Event, Dispatched: response.Dispatched})
}

func (s *Server) request(msg domain.CardRequest) (any, error) {
	return s.rootContext.RequestFuture(s.masterActor, msg, ACTOR_REQUEST_TIMEOUT).Result()
}

func (s *Server) fail(c echo.Context, err error) error {
	var cfgErr *card.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrUnknownSlot):
		return c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		return c.JSON(http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	}
}

func (s *Server) unexpected(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "unexpected actor response"})
}

// readConfig decodes a JSON or YAML body into a card config.
func readConfig(c echo.Context) (card.Config, error) {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, &card.ConfigError{Reason: "unreadable body", Err: err}
	}
	switch c.Request().Header.Get(echo.HeaderContentType) {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return card.ParseYAML(data)
	default:
		return card.Parse(data)
	}
}

func collectLabels(fields []card.Field, labels map[string]string) {
	for _, f := range fields {
		if f.Label != "" {
			labels[f.Name] = f.Label
		}
		collectLabels(f.Schema, labels)
	}
}
