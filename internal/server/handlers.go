package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/schemas"
	"github.com/jonathan/resume-autofill/internal/server/middleware"
	"github.com/jonathan/resume-autofill/internal/server/ratelimit"
)

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCommand dispatches a raw command and answers with its Result.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.jsonResponse(w, http.StatusRequestEntityTooLarge, badRequest("", "body", "command too large", err))
			return
		}
		s.result(w, badRequest("", "body", "failed to read request body", err))
		return
	}

	if err := schemas.ValidateCommand(raw); err != nil {
		s.result(w, badRequest("", "command", err.Error(), err))
		return
	}
	var cmd coordinator.Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		s.result(w, badRequest("", "command", "invalid JSON", err))
		return
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	s.dispatch(w, r, cmd)
}

// handleStatus runs CHECK_AUTH.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, coordinator.CheckAuth, nil)
}

// handleGetPreferences runs GET_PREFERENCES.
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, coordinator.GetPreferences, nil)
}

// handleSetPreference runs SET_PREFERENCE with the key from the path and a
// {"value": bool} body.
func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value *bool `json:"value"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.result(w, badRequest("", "value", "invalid JSON", err))
		return
	}
	if body.Value == nil {
		s.result(w, badRequest("", "value", "is required", nil))
		return
	}
	s.run(w, r, coordinator.SetPreference, coordinator.SetPreferencePayload{
		Key:   r.PathValue("key"),
		Value: *body.Value,
	})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, t coordinator.CommandType, payload any) {
	cmd, err := coordinator.NewCommand(t, payload)
	if err != nil {
		s.result(w, badRequest("", "payload", "cannot encode", err))
		return
	}
	s.dispatch(w, r, cmd)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, cmd coordinator.Command) {
	res := s.dispatcher.Dispatch(r.Context(), cmd)
	if !res.Success {
		s.logger.Debug("command failed", "command", cmd.Type, "id", cmd.ID, "kind", res.ErrorKind, "client", middleware.Client(r))
	}
	s.result(w, res)
}

func (s *Server) result(w http.ResponseWriter, res coordinator.Result) {
	s.jsonResponse(w, HTTPStatus(res), res)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", "error", err)
	}
}

// withCORS adds CORS headers. Without configured origins any origin is allowed.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.origins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case s.origins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Autofill-Client")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start))
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID is the request's IP address.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	retry := int(info.RetryAfter.Round(time.Second).Seconds())
	if info.RetryAfter > 0 && retry == 0 {
		retry = 1
	}
	if retry > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}
	s.logger.Warn("rate limit exceeded", "limit", info.Limit, "retry_after", info.RetryAfter)

	s.jsonResponse(w, http.StatusTooManyRequests, coordinator.Result{
		Success:   false,
		Error:     fmt.Sprintf("rate limit exceeded, retry in %ds", retry),
		ErrorKind: "rate_limited",
	})
}
