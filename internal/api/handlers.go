package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/terra-clan/health-package-engine/internal/assessment"
	"github.com/terra-clan/health-package-engine/internal/models"
	"github.com/terra-clan/health-package-engine/internal/packages"
)

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message})
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks, healthy := s.registry.Status(r.Context())
	if !healthy {
		slog.Warn("readiness check failed", "checks", checks)
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

// handlePreflight answers CORS preflights with an empty 200. The cors
// middleware has already negotiated the request; the headers are repeated
// so bare OPTIONS calls see them too.
func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", strings.Join(allowedHeaders, ", "))
	w.WriteHeader(http.StatusOK)
}

// Health package handlers

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req models.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusBadRequest, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if len(req.QuestionnaireData) == 0 || string(req.QuestionnaireData) == "null" {
		respondError(w, http.StatusBadRequest, "questionnaireData is required")
		return
	}

	caller := CallerFromContext(r.Context())
	result, err := s.service.Evaluate(r.Context(), req.QuestionnaireData, assessment.EvaluateOptions{
		Persist: true,
		Caller:  caller,
	})
	if err != nil {
		logEvaluateError(r, err, caller)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Debug("health packages built",
		"risk_level", result.RiskLevel,
		"rules_version", result.RulesVersion,
		"fingerprint", result.Fingerprint,
		"caller", result.Caller,
	)

	respondJSON(w, http.StatusOK, result)
}

// logEvaluateError separates deployment faults from bad input. Both reach
// the client as 400.
func logEvaluateError(r *http.Request, err error, caller *models.Caller) {
	attrs := []any{
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
		"caller", caller.Label(),
	}

	if packages.IsConfigError(err) {
		slog.Error("health package configuration error", attrs...)
		return
	}
	slog.Warn("health package request rejected", attrs...)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "assessment id is required")
		return
	}

	a, err := s.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, assessment.ErrAssessmentNotFound) || errors.Is(err, assessment.ErrStorageDisabled) {
			respondError(w, http.StatusNotFound, "assessment not found")
			return
		}
		slog.Error("failed to get assessment", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to get assessment")
		return
	}

	respondJSON(w, http.StatusOK, a)
}

// Catalog handlers

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	tests := s.catalog.List()
	respondJSON(w, http.StatusOK, models.CatalogListing{
		Version: s.catalog.Version(),
		Tests:   tests,
		Total:   len(tests),
	})
}
