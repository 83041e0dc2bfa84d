package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/provider"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/service"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// Pinger reports dependency health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler exposes the engine entry points over HTTP
type Handler struct {
	svc    *service.Service
	cache  Pinger // nil when running without a cache
	logger zerolog.Logger
}

// NewHandler creates a new handler
func NewHandler(svc *service.Service, cache Pinger, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		cache:  cache,
		logger: logger.With().Str("component", "handlers").Logger(),
	}
}

// Envelope wraps every response. Data is only meaningful when Success is true.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HealthCheck handles GET /health. The cache is advisory so its state is
// reported without failing the check.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	cacheStatus := "unavailable"
	if h.cache != nil {
		cacheStatus = "healthy"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "unhealthy"
			h.logger.Warn().Err(err).Msg("cache ping failed")
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"cache":     cacheStatus,
		"timestamp": time.Now().UTC(),
	})
}

// GetSports handles GET /api/v1/sports
func (h *Handler) GetSports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sports, source, err := h.svc.GetSports(ctx)
	if err != nil {
		h.respondError(w, err, "failed to retrieve sports")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"sports": sports,
		"count":  len(sports),
		"source": source,
	})
}

// GetEvents handles GET /api/v1/sports/{sport}/events
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	events, source, err := h.svc.GetEvents(ctx, chi.URLParam(r, "sport"))
	if err != nil {
		h.respondError(w, err, "failed to retrieve events")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
		"source": source,
	})
}

// GetOdds handles GET /api/v1/sports/{sport}/odds?markets=&regions=&bookmakers=
func (h *Handler) GetOdds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	q := r.URL.Query()
	result, err := h.svc.GetOdds(ctx, service.OddsRequest{
		SportKey:   chi.URLParam(r, "sport"),
		Markets:    parseListParam(q.Get("markets"), []string{models.MarketH2H}),
		Regions:    parseListParam(q.Get("regions"), nil),
		Bookmakers: parseListParam(q.Get("bookmakers"), nil),
	})
	if err != nil {
		h.respondError(w, err, "failed to retrieve odds")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetPlayerProps handles GET /api/v1/sports/{sport}/events/{eventID}/props
func (h *Handler) GetPlayerProps(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	q := r.URL.Query()
	result, err := h.svc.GetPlayerProps(ctx, service.PropsRequest{
		SportKey: chi.URLParam(r, "sport"),
		EventID:  chi.URLParam(r, "eventID"),
		Markets:  parseListParam(q.Get("markets"), nil),
		Regions:  parseListParam(q.Get("regions"), nil),
	})
	if err != nil {
		h.respondError(w, err, "failed to retrieve player props")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// FindEV handles GET /api/v1/sports/{sport}/ev
func (h *Handler) FindEV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	q := r.URL.Query()
	threshold, err := parseFloatParam(q.Get("threshold"), 0)
	if err != nil {
		respondFailure(w, http.StatusBadRequest, "threshold must be a number")
		return
	}

	result, err := h.svc.FindEVOpportunities(ctx, service.EVRequest{
		SportKey:     chi.URLParam(r, "sport"),
		Markets:      parseListParam(q.Get("markets"), []string{models.MarketH2H}),
		Threshold:    threshold,
		ForceRefresh: parseBoolParam(q.Get("refresh")),
		IncludeLive:  parseBoolParam(q.Get("live")),
		Regions:      parseListParam(q.Get("regions"), nil),
		Method:       models.ConsensusMethod(q.Get("method")),
		SharpBooks:   parseListParam(q.Get("sharp_books"), nil),
	})
	if err != nil {
		h.respondError(w, err, "failed to find opportunities")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// KellyRequest is the POST /api/v1/kelly body
type KellyRequest struct {
	Bankroll      float64 `json:"bankroll"`
	OfferedOdds   int     `json:"offered_odds"`
	ReferenceOdds int     `json:"reference_odds"`
	Fraction      float64 `json:"fraction"`
}

// KellyStake handles POST /api/v1/kelly
func (h *Handler) KellyStake(w http.ResponseWriter, r *http.Request) {
	var req KellyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.KellyStake(service.KellyRequest{
		Bankroll:      req.Bankroll,
		OfferedOdds:   req.OfferedOdds,
		ReferenceOdds: req.ReferenceOdds,
		Fraction:      req.Fraction,
	})
	if err != nil {
		h.respondError(w, err, "failed to size stake")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetUsage handles GET /api/v1/usage
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	usage, err := h.svc.Usage(ctx)
	if err != nil {
		h.respondError(w, err, "failed to read usage")
		return
	}

	respondJSON(w, http.StatusOK, usage)
}

// ResetDataSource handles POST /api/v1/data-source/reset
func (h *Handler) ResetDataSource(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.ResetDataSource(ctx); err != nil {
		if errors.Is(err, provider.ErrNoAPIKey) {
			respondFailure(w, http.StatusConflict, err.Error())
			return
		}
		h.respondError(w, err, "failed to reset data source")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"data_source": provider.ModeLive.String()})
}

// Helper functions

func parseListParam(value string, defaultValue []string) []string {
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func parseFloatParam(value string, defaultValue float64) (float64, error) {
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(value, 64)
}

func parseBoolParam(value string) bool {
	parsed, err := strconv.ParseBool(value)
	return err == nil && parsed
}

func (h *Handler) respondError(w http.ResponseWriter, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg(message)
		respondFailure(w, status, message)
		return
	}
	respondFailure(w, status, err.Error())
}

func statusFor(err error) int {
	var apiErr *provider.APIError
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAllRegionsFailed), errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, Envelope{Success: true, Data: data})
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, Envelope{Error: &ErrorBody{Code: status, Message: message}})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
