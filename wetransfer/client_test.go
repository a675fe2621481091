package wetransfer

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// newTestLogger returns a silent logger with a hook capturing every entry.
func newTestLogger() (*logrus.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func errorEntries(hook *logtest.Hook) []logrus.Entry {
	var entries []logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			entries = append(entries, *entry)
		}
	}
	return entries
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-key")

	if client.opts.key != "test-key" {
		t.Errorf("expected key 'test-key', got %q", client.opts.key)
	}
	if client.opts.server != DefaultServer {
		t.Errorf("expected server %q, got %q", DefaultServer, client.opts.server)
	}
	if client.opts.userAgent != "WT go SDK v"+Version {
		t.Errorf("unexpected user agent: %q", client.opts.userAgent)
	}
	if client.opts.token != "" {
		t.Errorf("expected empty token, got %q", client.opts.token)
	}
	if client.opts.logger == nil {
		t.Error("expected non-nil logger")
	}
	if client.opts.httpClient == nil || client.opts.uploadClient == nil {
		t.Error("expected non-nil HTTP clients")
	}
}

func TestNewClientOptions(t *testing.T) {
	logger := logrus.New()
	httpClient := &http.Client{}

	client := NewClient("test-key",
		WithServer("http://127.0.0.1:1234"),
		WithLogger(logger),
		WithUserAgent("custom/1.0"),
		WithHTTPClient(httpClient),
		WithChunkSize(1024),
		WithPartConcurrency(4),
	)

	if client.opts.server != "http://127.0.0.1:1234" {
		t.Errorf("unexpected server: %q", client.opts.server)
	}
	if client.opts.logger != logger {
		t.Error("expected logger to be overridden")
	}
	if client.opts.userAgent != "custom/1.0" {
		t.Errorf("unexpected user agent: %q", client.opts.userAgent)
	}
	if client.opts.httpClient != httpClient || client.opts.uploadClient != httpClient {
		t.Error("expected HTTP clients to be overridden")
	}
	if client.opts.chunkSize != 1024 {
		t.Errorf("expected chunk size 1024, got %d", client.opts.chunkSize)
	}
	if client.opts.partConcurrency != 4 {
		t.Errorf("expected part concurrency 4, got %d", client.opts.partConcurrency)
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectErr     bool
		expectedToken string
	}{
		{
			name:          "success stores token",
			status:        http.StatusOK,
			body:          `{"token":"abc"}`,
			expectErr:     false,
			expectedToken: "abc",
		},
		{
			name:          "missing token field",
			status:        http.StatusOK,
			body:          `{}`,
			expectErr:     true,
			expectedToken: "",
		},
		{
			name:          "unauthorized",
			status:        http.StatusUnauthorized,
			body:          `{"message":"invalid key"}`,
			expectErr:     true,
			expectedToken: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				if r.URL.Path != "/v1/authorize" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if r.Header.Get("x-api-key") != "test-key" {
					t.Errorf("unexpected x-api-key: %q", r.Header.Get("x-api-key"))
				}
				body, _ := io.ReadAll(r.Body)
				if len(body) != 0 {
					t.Errorf("expected no authorize body, got %q", string(body))
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			logger, hook := newTestLogger()
			client := NewClient("test-key", WithServer(server.URL), WithLogger(logger))

			err := client.Authorize()
			if tt.expectErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.opts.token != tt.expectedToken {
				t.Errorf("expected token %q, got %q", tt.expectedToken, client.opts.token)
			}
			if tt.expectErr && len(errorEntries(hook)) != 1 {
				t.Errorf("expected exactly 1 error log entry, got %d", len(errorEntries(hook)))
			}
		})
	}
}

func TestAuthorizeMissingTokenLog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	logger, hook := newTestLogger()
	client := NewClient("test-key", WithServer(server.URL), WithLogger(logger))

	if err := client.Authorize(); err == nil {
		t.Fatal("expected error, got nil")
	}

	entries := errorEntries(hook)
	if len(entries) != 1 {
		t.Fatalf("expected 1 error log entry, got %d", len(entries))
	}
	if entries[0].Message != "Expected 'token' in Authorize json response" {
		t.Errorf("unexpected error log message: %q", entries[0].Message)
	}
}

func TestCreateTransfer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/authorize":
			w.Write([]byte(`{"token":"test-token"}`))
		case "/v1/transfers":
			if r.Header.Get("Authorization") != "Bearer test-token" {
				t.Errorf("unexpected Authorization header: %q", r.Header.Get("Authorization"))
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["name"] != "My Transfer" {
				t.Errorf("expected name 'My Transfer', got %q", body["name"])
			}
			w.Write([]byte(`{"id":"transfer-1","shortened_url":"https://we.tl/t-abc"}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	logger, _ := newTestLogger()
	client := NewClient("test-key", WithServer(server.URL), WithLogger(logger))

	if err := client.Authorize(); err != nil {
		t.Fatalf("authorize failed: %v", err)
	}

	transfer, err := client.CreateTransfer("My Transfer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transfer.ID != "transfer-1" {
		t.Errorf("expected transfer id 'transfer-1', got %q", transfer.ID)
	}
	if transfer.ShortenedURL != "https://we.tl/t-abc" {
		t.Errorf("unexpected shortened url: %q", transfer.ShortenedURL)
	}
}

func TestCreateTransferDefaultName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != DefaultTransferName {
			t.Errorf("expected default name %q, got %q", DefaultTransferName, body["name"])
		}
		w.Write([]byte(`{"id":"transfer-1","shortened_url":"https://we.tl/t-abc"}`))
	}))
	defer server.Close()

	logger, _ := newTestLogger()
	client := NewClient("test-key", WithServer(server.URL), WithLogger(logger))

	if _, err := client.CreateTransfer(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateTransferFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	logger, hook := newTestLogger()
	client := NewClient("test-key", WithServer(server.URL), WithLogger(logger))

	transfer, err := client.CreateTransfer("My Transfer")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if transfer != nil {
		t.Errorf("expected nil transfer, got %v", transfer)
	}

	entries := errorEntries(hook)
	if len(entries) != 1 {
		t.Fatalf("expected 1 error log entry, got %d", len(entries))
	}
	if entries[0].Message != "Failed creating new transfer" {
		t.Errorf("unexpected error log message: %q", entries[0].Message)
	}
}
