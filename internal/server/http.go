package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/audiolink/audiolink-service/internal/audio"
	"github.com/audiolink/audiolink-service/internal/config"
	"github.com/audiolink/audiolink-service/internal/metrics"
	"github.com/audiolink/audiolink-service/internal/pipeline"
	"github.com/audiolink/audiolink-service/internal/transceiver"
)

// multipartOverhead is the slack added to the upload limit to account for
// multipart boundaries and part headers.
const multipartOverhead = 64 * 1024

// HTTPServer is the network-facing gateway
type HTTPServer struct {
	server      *http.Server
	logger      *slog.Logger
	config      *config.Config
	encoder     *pipeline.Encoder
	decoder     *pipeline.Decoder
	transceiver *transceiver.Transceiver
	metrics     *metrics.Metrics

	startTime time.Time
}

// encodeRequest is the JSON body accepted by the encode endpoint
type encodeRequest struct {
	Text    string `json:"text"`
	Profile string `json:"profile,omitempty"`
}

// errorResponse is the JSON error body returned on every failure
type errorResponse struct {
	Detail string `json:"detail"`
}

// NewHTTPServer creates the gateway server
func NewHTTPServer(cfg *config.Config, logger *slog.Logger, enc *pipeline.Encoder,
	dec *pipeline.Decoder, tr *transceiver.Transceiver, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:      logger,
		config:      cfg,
		encoder:     enc,
		decoder:     dec,
		transceiver: tr,
		metrics:     m,
		startTime:   time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/encode", h.wrap("/encode", h.handleEncode))
	mux.HandleFunc("/decode", h.wrap("/decode", h.handleDecode))

	mux.HandleFunc("/health", h.wrap("/health", h.handleHealth))
	mux.HandleFunc("/config", h.wrap("/config", h.handleConfig))
	mux.HandleFunc("/stats", h.wrap("/stats", h.handleStats))

	// Prometheus metrics endpoint (not instrumented itself)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", h.wrap("/", h.handleRoot))
}

// wrap applies the CORS, request-ID, logging, and metrics middleware to a
// handler
func (h *HTTPServer) wrap(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		if handled := h.applyCORS(w, r); handled {
			return
		}

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime)
		statusCode := fmt.Sprintf("%d", ww.statusCode)
		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration.Seconds())

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}

		h.logger.Info("Request handled",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("endpoint", endpoint),
			slog.Int("status", ww.statusCode),
			slog.Duration("duration", duration),
		)
	}
}

// applyCORS sets the CORS response headers for allowed origins and handles
// preflight requests. Returns true when the request was fully handled.
func (h *HTTPServer) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	allowed := false
	for _, o := range h.config.Server.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Vary", "Origin")

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP gateway",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP gateway...")

	return h.server.Shutdown(ctx)
}

// handleEncode implements POST /encode: JSON text in, WAV container out
func (h *HTTPServer) handleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// The ceiling applies to the decoded text; JSON escaping can inflate a
	// payload sixfold, plus field names and framing.
	bodyLimit := int64(h.config.Modem.MaxPayloadBytes)*6 + 1024
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)

	var req encodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", bodyLimit))
			return
		}
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	startTime := time.Now()
	h.metrics.RecordPoolWait()
	container, err := h.encoder.Encode(r.Context(), req.Text, req.Profile)
	h.metrics.SetModemInFlight(h.transceiver.GetStats().InFlight)
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}
	h.metrics.RecordEncode(time.Since(startTime).Seconds(), len(container))

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", `attachment; filename="link.wav"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(container)))
	w.Write(container)
}

// handleDecode implements POST /decode: multipart WAV upload in, text out
func (h *HTTPServer) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.Limits.MaxUploadBytes+multipartOverhead)

	file, _, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", h.config.Limits.MaxUploadBytes))
			return
		}
		h.writeError(w, r, http.StatusBadRequest, "multipart upload with a 'file' field is required")
		return
	}
	defer file.Close()
	defer func() {
		// Drop any temp files the multipart parser spilled to disk.
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	blob, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read upload", slog.String("error", err.Error()))
		h.writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	startTime := time.Now()
	h.metrics.RecordPoolWait()
	text, err := h.decoder.Decode(r.Context(), blob)
	duration := time.Since(startTime)
	h.metrics.SetModemInFlight(h.transceiver.GetStats().InFlight)
	if err != nil {
		h.metrics.RecordDecode(decodeOutcome(err), duration.Seconds(), len(blob))
		h.writePipelineError(w, r, err)
		return
	}
	h.metrics.RecordDecode("decoded", duration.Seconds(), len(blob))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

// decodeOutcome classifies a decode failure for the outcome metric
func decodeOutcome(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrNoSignal):
		return "no_signal"
	case errors.Is(err, audio.ErrMalformedContainer),
		errors.Is(err, audio.ErrUnsupportedBitDepth),
		errors.Is(err, audio.ErrUnsupportedChannelLayout),
		errors.Is(err, pipeline.ErrSampleRateMismatch):
		return "malformed"
	case errors.Is(err, transceiver.ErrDecodeTimeout):
		return "timeout"
	case errors.Is(err, pipeline.ErrEmptyUpload),
		errors.Is(err, pipeline.ErrUploadTooLarge),
		errors.Is(err, transceiver.ErrModemUnavailable):
		return "rejected"
	default:
		return "error"
	}
}

// writePipelineError maps a classified pipeline failure onto a status code.
// Unclassified failures become a 500 without leaking internal detail.
func (h *HTTPServer) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pipeline.ErrPayloadTooLarge),
		errors.Is(err, pipeline.ErrUploadTooLarge):
		h.writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())

	case errors.Is(err, pipeline.ErrEmptyUpload),
		errors.Is(err, pipeline.ErrUnknownProfile),
		errors.Is(err, pipeline.ErrSampleRateMismatch),
		errors.Is(err, audio.ErrMalformedContainer),
		errors.Is(err, audio.ErrUnsupportedBitDepth),
		errors.Is(err, audio.ErrUnsupportedChannelLayout):
		h.writeError(w, r, http.StatusBadRequest, err.Error())

	case errors.Is(err, pipeline.ErrNoSignal):
		// Distinct from malformed input: the audio was fine, it just
		// carried no message.
		h.writeError(w, r, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, transceiver.ErrDecodeTimeout):
		h.writeError(w, r, http.StatusGatewayTimeout, err.Error())

	case errors.Is(err, transceiver.ErrModemUnavailable):
		h.metrics.RecordPoolExhaustion()
		h.writeError(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		h.logger.Error("Unexpected pipeline failure", slog.String("error", err.Error()))
		h.writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// writeError writes the JSON error body shared by all failure responses
func (h *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Detail: detail})
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats := h.transceiver.GetStats()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    "audiolink-service",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"modem_pool": map[string]interface{}{
				"status":    "running",
				"pool_size": stats.PoolSize,
				"in_flight": stats.InFlight,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sanitized := map[string]interface{}{
		"server": map[string]interface{}{
			"address":         h.config.Server.Address,
			"port":            h.config.Server.Port,
			"allowed_origins": h.config.Server.AllowedOrigins,
		},
		"audio": map[string]interface{}{
			"sample_rate": h.config.Audio.SampleRate,
			"channels":    h.config.Audio.Channels,
			"bit_depth":   h.config.Audio.BitDepth,
		},
		"modem": map[string]interface{}{
			"default_profile":   h.config.Modem.DefaultProfile,
			"pool_size":         h.config.Modem.PoolSize,
			"acquire_timeout":   h.config.Modem.AcquireTimeout,
			"decode_timeout":    h.config.Modem.DecodeTimeout,
			"max_payload_bytes": h.config.Modem.MaxPayloadBytes,
		},
		"limits": map[string]interface{}{
			"max_upload_bytes": h.config.Limits.MaxUploadBytes,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitized)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats := map[string]interface{}{
		"uptime":      time.Since(h.startTime).String(),
		"timestamp":   time.Now().UTC(),
		"transceiver": h.transceiver.GetStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "AudioLink Gateway",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"POST /encode": "Encode JSON {\"text\": ...} into a WAV acoustic signal",
			"POST /decode": "Decode an uploaded WAV capture back into text",
			"GET /health":  "Service health check",
			"GET /config":  "Get service configuration",
			"GET /stats":   "Get service statistics",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
