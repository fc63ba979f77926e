package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

func newForwarder(baseURL string, client *http.Client) *forwarder {
	return &forwarder{
		cfg:    config{upstreamBaseURL: baseURL, upstreamTimeout: time.Second},
		client: client,
		logger: logging.New("error"),
	}
}

func event(method, path, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: "apigw-req-1",
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: "203.0.113.9",
			},
		},
	}
}

func TestHandleRouting(t *testing.T) {
	f := newForwarder("http://example.com", &http.Client{Timeout: time.Second})

	cases := []struct {
		name   string
		evt    events.APIGatewayV2HTTPRequest
		status int
	}{
		{"health", event(http.MethodGet, "/health", ""), http.StatusOK},
		{"unknown path", event(http.MethodPost, "/webhooks/unknown", ""), http.StatusNotFound},
		{"non post", event(http.MethodGet, "/webhooks/slots", ""), http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := f.handle(context.Background(), tc.evt)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Headers["content-type"])
		})
	}
}

func TestHandleInvalidBase64Body(t *testing.T) {
	f := newForwarder("http://example.com", &http.Client{Timeout: time.Second})
	evt := event(http.MethodPost, "/normalize/dob", "not-base64!")
	evt.IsBase64Encoded = true

	resp, err := f.handle(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"message":"invalid body"}`, resp.Body)
}

func TestHandleForwardsSlotsWebhook(t *testing.T) {
	type captured struct {
		path    string
		query   string
		headers http.Header
		body    string
	}
	reqCh := make(chan captured, 1)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqCh <- captured{path: r.URL.Path, query: r.URL.RawQuery, headers: r.Header.Clone(), body: string(body)}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer upstream.Close()

	client := upstream.Client()
	client.Timeout = time.Second
	f := newForwarder(upstream.URL, client)

	payload := `{"data":{"state":"NY"}}`
	evt := event(http.MethodPost, "/webhooks/slots", base64.StdEncoding.EncodeToString([]byte(payload)))
	evt.IsBase64Encoded = true
	evt.RawQueryString = "source=bland"
	evt.Headers = map[string]string{"x-bland-signature": "sha256=abc"}

	resp, err := f.handle(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, resp.Body)
	assert.Equal(t, "apigw-req-1", resp.Headers["x-request-id"])

	select {
	case got := <-reqCh:
		assert.Equal(t, "/webhooks/slots", got.path)
		assert.Equal(t, "source=bland", got.query)
		assert.Equal(t, payload, got.body)
		assert.Equal(t, "sha256=abc", got.headers.Get("X-Bland-Signature"))
		assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
		assert.Equal(t, "apigw-req-1", got.headers.Get("X-Request-ID"))
		assert.Equal(t, "203.0.113.9", got.headers.Get("X-Real-IP"))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for upstream request")
	}
}

func TestHandleUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	baseURL := upstream.URL
	upstream.Close()

	f := newForwarder(baseURL, &http.Client{Timeout: time.Second})
	resp, err := f.handle(context.Background(), event(http.MethodPost, "/normalize/time", `{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "")
	_, err := loadConfig()
	assert.Error(t, err)

	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com/")
	t.Setenv("UPSTREAM_TIMEOUT", "2s")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.upstreamBaseURL)
	assert.Equal(t, 2*time.Second, cfg.upstreamTimeout)

	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	_, err = loadConfig()
	assert.Error(t, err)
}
