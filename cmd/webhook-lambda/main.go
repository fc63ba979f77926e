package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/voice-normalizers/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/voice-normalizers/internal/http/middleware"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// maxResponseBytes caps how much of the upstream reply is relayed.
const maxResponseBytes = 1 << 20

// forwardedRoutes are the POST endpoints the API service exposes.
var forwardedRoutes = map[string]bool{
	"/normalize/time": true,
	"/normalize/dob":  true,
	"/webhooks/slots": true,
}

type config struct {
	upstreamBaseURL string
	upstreamTimeout time.Duration
}

func loadConfig() (config, error) {
	baseURL := strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL"))
	if baseURL == "" {
		return config{}, errors.New("UPSTREAM_BASE_URL is required")
	}

	timeout := 5 * time.Second
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	return config{
		upstreamBaseURL: strings.TrimRight(baseURL, "/"),
		upstreamTimeout: timeout,
	}, nil
}

type forwarder struct {
	cfg    config
	client *http.Client
	logger *logging.Logger
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	f := &forwarder{cfg: cfg, client: &http.Client{Timeout: cfg.upstreamTimeout}, logger: logger}
	lambda.Start(f.handle)
}

func (f *forwarder) handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	if path == "/health" {
		return jsonResponse(http.StatusOK, `{"status":"ok"}`), nil
	}
	if !forwardedRoutes[path] {
		return jsonResponse(http.StatusNotFound, `{"success":false,"message":"not found"}`), nil
	}
	if method != http.MethodPost {
		return jsonResponse(http.StatusMethodNotAllowed, `{"success":false,"message":"method not allowed"}`), nil
	}

	body, err := decodeBody(evt)
	if err != nil {
		return jsonResponse(http.StatusBadRequest, `{"success":false,"message":"invalid body"}`), nil
	}

	requestID := headerValue(evt.Headers, httpmiddleware.RequestIDHeader)
	if requestID == "" {
		requestID = evt.RequestContext.RequestID
	}
	logger := f.logger.WithContext(logging.WithRequestID(ctx, requestID))

	upstreamURL := f.cfg.upstreamBaseURL + path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		upstreamURL += "?" + qs
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.upstreamTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		logger.Error("build upstream request", "error", err)
		return jsonResponse(http.StatusInternalServerError, `{"success":false,"message":"internal error"}`), nil
	}

	contentType := headerValue(evt.Headers, "content-type")
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	if requestID != "" {
		req.Header.Set(httpmiddleware.RequestIDHeader, requestID)
	}
	// The API verifies the signature over the exact body we forward.
	copyHeader(req.Header, evt.Headers, handlers.SignatureHeader)
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		req.Header.Set("X-Real-IP", ip)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Warn("upstream request failed", "path", path, "error", err)
		return jsonResponse(http.StatusBadGateway, `{"success":false,"message":"upstream error"}`), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Warn("read upstream response", "path", path, "error", err)
		return jsonResponse(http.StatusBadGateway, `{"success":false,"message":"upstream error"}`), nil
	}
	logger.Info("forwarded webhook", "path", path, "status", resp.StatusCode)

	out := events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
		Headers:    map[string]string{},
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		out.Headers["content-type"] = ct
	}
	if id := resp.Header.Get(httpmiddleware.RequestIDHeader); id != "" {
		out.Headers[strings.ToLower(httpmiddleware.RequestIDHeader)] = id
	}
	return out, nil
}

func jsonResponse(status int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       body,
		Headers:    map[string]string{"content-type": "application/json"},
	}
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func copyHeader(dst http.Header, src map[string]string, header string) {
	if value := headerValue(src, header); value != "" {
		dst.Set(header, value)
	}
}
