package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/voice-normalizers/internal/slots"
	"github.com/wolfman30/voice-normalizers/internal/timeparse"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Bland-Signature"

// SlotMatcher is satisfied by slots.Matcher.
type SlotMatcher interface {
	FindBestSlots(ctx context.Context, req slots.Request) (slots.Result, error)
}

// SlotsWebhookHandler serves POST /webhooks/slots for the voice agent.
type SlotsWebhookHandler struct {
	matcher         SlotMatcher
	secret          string
	skipSignature   bool
	defaultTimezone string
	logger          *logging.Logger
}

type SlotsWebhookConfig struct {
	Secret          string
	SkipSignature   bool
	DefaultTimezone string
	Logger          *logging.Logger
}

func NewSlotsWebhookHandler(matcher SlotMatcher, cfg SlotsWebhookConfig) *SlotsWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = timeparse.DefaultTimezone
	}
	return &SlotsWebhookHandler{
		matcher:         matcher,
		secret:          strings.TrimSpace(cfg.Secret),
		skipSignature:   cfg.SkipSignature,
		defaultTimezone: cfg.DefaultTimezone,
		logger:          cfg.Logger,
	}
}

type slotsWebhookRequest struct {
	Data struct {
		State         string           `json:"state"`
		StateAlt      string           `json:"State"`
		StateAbbr     string           `json:"state_abbreviation"`
		PreferredDate string           `json:"preferred_date"`
		PreferredTime string           `json:"preferred_time"`
		TimeRange     *slots.TimeRange `json:"time_range"`
		Timezone      string           `json:"timezone"`
		Limit         int              `json:"limit"`
	} `json:"data"`
}

func (h *SlotsWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithContext(r.Context())
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if h.secret != "" && !h.skipSignature {
		if !verifySignature(h.secret, body, r.Header.Get(SignatureHeader)) {
			log.Warn("invalid slots webhook signature")
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	req, state, err := h.parseRequest(body)
	if err != nil {
		log.Info("rejected slots webhook", "error", err)
		msg := "invalid request"
		switch {
		case errors.Is(err, errMissingField):
			msg = "data.state is required"
		case errors.Is(err, errInvalidBody):
			msg = strings.TrimPrefix(err.Error(), errInvalidBody.Error()+": ")
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := h.matcher.FindBestSlots(r.Context(), req)
	if err != nil {
		log.Error("slot matching failed", "error", err)
		writeError(w, http.StatusInternalServerError, "slot lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, slots.BuildResponse(res, state))
}

func (h *SlotsWebhookHandler) parseRequest(body []byte) (slots.Request, string, error) {
	var payload slotsWebhookRequest
	if err := decodeJSON(body, &payload); err != nil {
		return slots.Request{}, "", err
	}
	d := payload.Data
	state := strings.TrimSpace(d.State)
	if state == "" {
		state = strings.TrimSpace(d.StateAlt)
	}
	if state == "" && strings.TrimSpace(d.StateAbbr) == "" {
		return slots.Request{}, "", fmt.Errorf("%w: data.state", errMissingField)
	}

	tz := strings.TrimSpace(d.Timezone)
	if tz == "" {
		tz = h.defaultTimezone
	}
	if _, err := timeparse.LoadLocation(tz); err != nil {
		return slots.Request{}, "", fmt.Errorf("%w: invalid timezone %q", errInvalidBody, tz)
	}
	date := strings.TrimSpace(d.PreferredDate)
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return slots.Request{}, "", fmt.Errorf("%w: preferred_date must be YYYY-MM-DD", errInvalidBody)
		}
	}

	displayState := state
	if displayState == "" {
		displayState = strings.TrimSpace(d.StateAbbr)
	}
	return slots.Request{
		State:     state,
		StateAbbr: strings.TrimSpace(d.StateAbbr),
		Limit:     d.Limit,
		Preferences: slots.Preferences{
			Date:      date,
			Time:      strings.TrimSpace(d.PreferredTime),
			TimeRange: d.TimeRange,
			Timezone:  tz,
		},
	}, displayState, nil
}

// verifySignature accepts the hex digest with or without a "sha256=" prefix.
func verifySignature(secret string, payload []byte, header string) bool {
	header = strings.TrimPrefix(strings.TrimSpace(header), "sha256=")
	if secret == "" || header == "" {
		return false
	}
	provided, err := hex.DecodeString(header)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), provided)
}
