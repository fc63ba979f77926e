package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/voice-normalizers/internal/dob"
	"github.com/wolfman30/voice-normalizers/internal/observability/metrics"
	"github.com/wolfman30/voice-normalizers/internal/timeparse"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// TimeNormalizer is satisfied by timeparse.Normalizer and its cached wrapper.
type TimeNormalizer interface {
	Normalize(ctx context.Context, text, timezone string) (timeparse.Result, error)
}

// DOBNormalizer is satisfied by dob.Normalizer and its cached wrapper.
type DOBNormalizer interface {
	Normalize(ctx context.Context, text string) dob.Result
}

// NormalizeHandler serves the time and DOB normalization endpoints. Either
// normalizer may be nil when that service is disabled.
type NormalizeHandler struct {
	time            TimeNormalizer
	dob             DOBNormalizer
	defaultTimezone string
	metrics         *metrics.NormalizerMetrics
	logger          *logging.Logger
}

func NewNormalizeHandler(tn TimeNormalizer, dn DOBNormalizer, defaultTimezone string, m *metrics.NormalizerMetrics, logger *logging.Logger) *NormalizeHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultTimezone == "" {
		defaultTimezone = timeparse.DefaultTimezone
	}
	return &NormalizeHandler{time: tn, dob: dn, defaultTimezone: defaultTimezone, metrics: m, logger: logger}
}

type timeRequest struct {
	Data struct {
		DatetimeRequest string `json:"datetime_request"`
		Timezone        string `json:"timezone"`
	} `json:"data"`
}

type timeResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Parsed  timeparse.Result `json:"parsed"`
}

// NormalizeTime handles POST /normalize/time. Unparseable text is a 422
// carrying the clarification result; low-confidence partials are 200.
func (h *NormalizeHandler) NormalizeTime(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithContext(r.Context())
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var req timeRequest
	if err := decodeJSON(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	text := strings.TrimSpace(req.Data.DatetimeRequest)
	if text == "" {
		writeError(w, http.StatusBadRequest, "data.datetime_request is required")
		return
	}
	tz := strings.TrimSpace(req.Data.Timezone)
	if tz == "" {
		tz = h.defaultTimezone
	}

	result, err := h.time.Normalize(r.Context(), text, tz)
	if err != nil {
		if errors.Is(err, timeparse.ErrInvalidTimezone) {
			writeError(w, http.StatusBadRequest, "invalid timezone")
			return
		}
		log.Error("time normalization failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.metrics.ObserveNormalization("time", result.Method, string(result.Confidence))

	if result.Confidence == timeparse.ConfidenceNone {
		writeJSON(w, http.StatusUnprocessableEntity, timeResponse{
			Success: false,
			Message: "could not understand the requested date or time",
			Parsed:  result,
		})
		return
	}
	writeJSON(w, http.StatusOK, timeResponse{Success: true, Parsed: result})
}

type dobRequest struct {
	RawDOB *string `json:"raw_dob"`
}

// NormalizeDOB handles POST /normalize/dob. Both outcomes are 200; the type
// field tells them apart.
func (h *NormalizeHandler) NormalizeDOB(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var req dobRequest
	if err := decodeJSON(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.RawDOB == nil || strings.TrimSpace(*req.RawDOB) == "" {
		writeError(w, http.StatusBadRequest, "raw_dob is required")
		return
	}

	result := h.dob.Normalize(r.Context(), *req.RawDOB)
	h.metrics.ObserveNormalization("dob", result.Method, result.Type)
	writeJSON(w, http.StatusOK, result)
}
