// Package api provides the HTTP configuration page and JSON endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/darshan-rambhia/naspanel/internal/cache"
	"github.com/darshan-rambhia/naspanel/internal/display"
	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/internal/render"
	"github.com/darshan-rambhia/naspanel/internal/store"
	"github.com/darshan-rambhia/naspanel/internal/subscriber"
	"github.com/darshan-rambhia/naspanel/templates"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/darshan-rambhia/naspanel/docs/swagger"
)

const maxConfigBody = 4 << 10

// Options configures the optional parts of the server.
type Options struct {
	// AdminUser and AdminHash enable basic auth on the configuration
	// endpoints when AdminHash is set.
	AdminUser string
	AdminHash string

	// Restart is called RestartDelay after a configuration save.
	Restart      func()
	RestartDelay time.Duration

	// StaleAfter marks telemetry stale in /api/state. Zero disables it.
	StaleAfter time.Duration
}

// Server is the HTTP server for the panel.
type Server struct {
	cache  *cache.Cache
	store  *store.Store
	frames *display.FrameBuffer
	status *subscriber.Status
	opts   Options
	now    func() time.Time

	mux     *http.ServeMux
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new HTTP server. frames and status may be nil.
func NewServer(addr string, c *cache.Cache, s *store.Store, frames *display.FrameBuffer, status *subscriber.Status, opts Options) *Server {
	srv := &Server{
		cache:  c,
		store:  s,
		frames: frames,
		status: status,
		opts:   opts,
		now:    time.Now,
		mux:    http.NewServeMux(),
	}

	srv.registerRoutes()
	srv.handler = SecurityHeadersMiddleware(RecoveryMiddleware(LoggingMiddleware(srv.mux)))

	srv.server = &http.Server{
		Addr:         addr,
		Handler:      srv.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("HTTP server starting", "addr", s.server.Addr, "auth", s.opts.AdminHash != "")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	// Configuration (optionally behind basic auth)
	s.mux.Handle("GET /", s.protect(s.handleConfigPage))
	s.mux.Handle("POST /config", s.protect(s.handleSaveConfig))
	s.mux.Handle("GET /api/config", s.protect(s.handleGetConfig))

	// Read-only status
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/frame", s.handleFrame)
	s.mux.HandleFunc("GET /panel.svg", s.handlePanelSVG)
	s.mux.HandleFunc("GET /api/alerts", s.handleAlerts)

	// Health check
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Swagger UI
	s.mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

func (s *Server) protect(h http.HandlerFunc) http.Handler {
	if s.opts.AdminHash == "" {
		return h
	}
	return BasicAuthMiddleware(s.opts.AdminUser, s.opts.AdminHash, h)
}

// renderHTML renders a templ component to a buffer first, then writes the
// buffer to the response. This ensures rendering errors can be returned as a
// proper 500 before any bytes reach the client.
func renderHTML(w http.ResponseWriter, r *http.Request, contentType string, component templ.Component) {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		slog.Error("rendering component", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("writing response", "path", r.URL.Path, "error", err)
	}
}

// writeJSON marshals v to JSON into a buffer first, then writes it to the
// response. This ensures marshalling errors can be returned as a proper 500.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding JSON response", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		slog.Debug("writing JSON response", "path", r.URL.Path, "error", err)
	}
}

// loadConnection returns the stored settings, falling back to defaults on a
// corrupt record.
func (s *Server) loadConnection() model.ConnectionConfig {
	conn, err := s.store.LoadConnection()
	if err != nil {
		slog.Warn("loading connection settings", "error", err)
	}
	return conn
}

// @Summary Configuration page
// @Description HTML form for the MQTT broker settings with a short status summary
// @Produce html
// @Success 200 {string} string "HTML page"
// @Failure 401 {string} string "Unauthorized"
// @Router / [get]
func (s *Server) handleConfigPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	renderHTML(w, r, "text/html; charset=utf-8", templates.ConfigPage(templates.ConfigPageData{
		Conn:  s.loadConnection(),
		State: s.cache.Current(),
		Now:   s.now(),
	}))
}

// configRequest is the body of POST /config. Missing fields take their zero
// value, so an omitted port is rejected.
type configRequest struct {
	MQTTServer   string `json:"mqttServer"`
	MQTTPort     int    `json:"mqttPort"`
	MQTTUser     string `json:"mqttUser"`
	MQTTPassword string `json:"mqttPassword"`
	MQTTTopic    string `json:"mqttTopic"`
}

// @Summary Save broker settings
// @Description Persists the MQTT settings and restarts the subscriber after a short delay. An empty topic selects the default topic.
// @Accept json
// @Produce plain
// @Param config body configRequest true "Broker settings"
// @Success 200 {string} string "OK"
// @Failure 400 {string} string "Invalid JSON"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {string} string "Failed to save configuration"
// @Router /config [post]
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConfigBody)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := model.ValidatePort(req.MQTTPort); err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	conn := model.ConnectionConfig{
		BrokerHost: strings.TrimSpace(req.MQTTServer),
		BrokerPort: req.MQTTPort,
		Username:   req.MQTTUser,
		Password:   req.MQTTPassword,
		Topic:      strings.TrimSpace(req.MQTTTopic),
	}
	if conn.Topic == "" {
		conn.Topic = model.DefaultTopic
	}

	if err := s.store.SaveConnection(conn); err != nil {
		slog.Error("saving connection settings", "error", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}

	slog.Info("connection settings saved",
		"broker", conn.BrokerHost,
		"port", conn.BrokerPort,
		"topic", conn.Topic,
		"restart_in", s.opts.RestartDelay,
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Debug("writing response", "path", r.URL.Path, "error", err)
	}

	if s.opts.Restart != nil {
		time.AfterFunc(s.opts.RestartDelay, s.opts.Restart)
	}
}

// configResponse is the body of GET /api/config.
type configResponse struct {
	MQTTServer  string `json:"mqttServer"`
	MQTTPort    int    `json:"mqttPort"`
	MQTTUser    string `json:"mqttUser"`
	PasswordSet bool   `json:"mqttPasswordSet"`
	MQTTTopic   string `json:"mqttTopic"`
	Configured  bool   `json:"configured"`
}

// @Summary Current broker settings
// @Description Returns the stored MQTT settings. The password is never returned.
// @Produce json
// @Success 200 {object} configResponse
// @Failure 401 {string} string "Unauthorized"
// @Router /api/config [get]
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	conn := s.loadConnection()
	writeJSON(w, r, configResponse{
		MQTTServer:  conn.BrokerHost,
		MQTTPort:    conn.BrokerPort,
		MQTTUser:    conn.Username,
		PasswordSet: conn.Password != "",
		MQTTTopic:   conn.Topic,
		Configured:  conn.Configured(),
	})
}

// stateResponse is the body of GET /api/state.
type stateResponse struct {
	model.NasState
	Mode        render.Mode `json:"mode"`
	Stale       bool        `json:"stale"`
	CapacityPct float64     `json:"capacity_pct"`
}

// @Summary Current NAS state
// @Description Returns the last decoded telemetry snapshot with the display mode and staleness
// @Produce json
// @Success 200 {object} stateResponse
// @Router /api/state [get]
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := s.cache.Current()
	stale := !state.Valid
	if s.opts.StaleAfter > 0 {
		stale = s.cache.IsStale(s.now(), s.opts.StaleAfter)
	}
	writeJSON(w, r, stateResponse{
		NasState:    state,
		Mode:        render.ModeFor(state),
		Stale:       stale,
		CapacityPct: render.CapacityPercent(state.Storage),
	})
}

// frameResponse is the body of GET /api/frame.
type frameResponse struct {
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	DrawnAt      time.Time   `json:"drawn_at"`
	Instructions model.Frame `json:"instructions"`
}

func (s *Server) latestFrame() (model.Frame, time.Time) {
	if s.frames == nil {
		return nil, time.Time{}
	}
	return s.frames.Latest()
}

// @Summary Latest panel frame
// @Description Returns the drawing instructions of the most recently rendered frame
// @Produce json
// @Success 200 {object} frameResponse
// @Failure 503 {string} string "No frame rendered yet"
// @Router /api/frame [get]
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	frame, at := s.latestFrame()
	if frame == nil {
		http.Error(w, "No frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, r, frameResponse{
		Width:        render.Width,
		Height:       render.Height,
		DrawnAt:      at,
		Instructions: frame,
	})
}

// @Summary Panel preview
// @Description Returns the most recently rendered frame as an SVG image
// @Produce image/svg+xml
// @Success 200 {string} string "SVG image"
// @Failure 503 {string} string "No frame rendered yet"
// @Router /panel.svg [get]
func (s *Server) handlePanelSVG(w http.ResponseWriter, r *http.Request) {
	frame, _ := s.latestFrame()
	if frame == nil {
		http.Error(w, "No frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	renderHTML(w, r, "image/svg+xml", templates.PanelSVG(frame, render.Width, render.Height))
}

// @Summary Recent alerts
// @Description Returns the most recent fired alerts, newest first
// @Produce json
// @Param limit query int false "Maximum number of alerts (1-500)" default(50)
// @Success 200 {array} store.AlertRecord
// @Failure 500 {string} string "Internal Server Error"
// @Router /api/alerts [get]
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	alerts, err := s.store.RecentAlerts(limit)
	if err != nil {
		slog.Error("querying recent alerts", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []store.AlertRecord{}
	}

	writeJSON(w, r, alerts)
}

// @Summary Health check
// @Description Returns service health, ingest counters and MQTT connection status
// @Produce json
// @Success 200 {object} map[string]interface{} "Health status"
// @Router /healthz [get]
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	stats := s.cache.Stats()

	status := "ok"
	if !stats.Valid {
		status = "no_data"
	}

	telemetry := map[string]any{
		"applied":  stats.Applied,
		"rejected": stats.Rejected,
	}
	if stats.Valid {
		telemetry["last_update"] = templates.FormatAge(stats.LastUpdate, now)
	}

	var frames uint64
	if s.frames != nil {
		frames = s.frames.Frames()
	}

	writeJSON(w, r, map[string]any{
		"status":    status,
		"timestamp": now.Unix(),
		"telemetry": telemetry,
		"mqtt": map[string]any{
			"connected": s.status.Connected(),
			"topic":     s.status.Topic(),
		},
		"frames": frames,
	})
}
