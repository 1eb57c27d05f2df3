package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/config"
)

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
	Templates   int    `json:"templates"`
}

// HealthHandler serves the engine's liveness and readiness probes.
type HealthHandler struct {
	cfg         *config.Config
	templateIDs func() []string
	logger      *zap.Logger
}

// NewHealthHandler creates a HealthHandler. templateIDs reports the
// registered banner templates (the registry's IDs method).
func NewHealthHandler(cfg *config.Config, templateIDs func() []string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, templateIDs: templateIDs, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ready", h.Ready)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health requests with a bare liveness answer.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready handles GET /ready requests. The engine is ready when it has
// templates to render and can write banners to the output directory.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if len(h.templateIDs()) == 0 {
		http.Error(w, "no templates registered", http.StatusServiceUnavailable)
		return
	}
	if err := probeWritable(h.cfg.Render.OutputDir); err != nil {
		h.logger.Warn("Output directory not writable", zap.String("dir", h.cfg.Render.OutputDir), zap.Error(err))
		http.Error(w, "output directory not writable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// probeWritable verifies dir exists and accepts a write.
func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "promoforge-engine",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Templates:   len(h.templateIDs()),
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
