package wetransfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultServer is the WeTransfer public API host.
	DefaultServer = "dev.wetransfer.com"

	apiTimeout    = 30 * time.Second
	uploadTimeout = 15 * time.Minute
)

// options carries the shared state every API call needs: credentials, target
// server and the injected collaborators (logger, HTTP clients). A copy of it
// travels from the client into each transfer and from there into every file
// item, so all calls of one workflow agree on key, token and server.
type options struct {
	key             string
	token           string
	server          string
	userAgent       string
	chunkSize       int64
	partConcurrency int
	logger          *logrus.Logger
	httpClient      *http.Client
	uploadClient    *http.Client
}

func defaultOptions(key string) options {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return options{
		key:          key,
		server:       DefaultServer,
		userAgent:    fmt.Sprintf("WT go SDK v%s", Version),
		logger:       logger,
		httpClient:   &http.Client{Timeout: apiTimeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
	}
}

// apiRequest builds and executes authenticated requests against the API host.
// It replaces per-endpoint request types with one value parameterized by
// method, path and body.
type apiRequest struct {
	opts *options
}

func (o *options) request() apiRequest {
	return apiRequest{opts: o}
}

// url combines the configured server and a path. A server without a scheme is
// assumed to be an https host; a full http(s):// base is used verbatim, which
// lets tests point the client at a local server.
func (r apiRequest) url(path string) string {
	server := r.opts.server
	if server == "" {
		server = DefaultServer
	}
	if strings.Contains(server, "://") {
		return strings.TrimRight(server, "/") + path
	}
	return "https://" + server + path
}

func (r apiRequest) headers() http.Header {
	headers := http.Header{}
	headers.Set("User-Agent", r.opts.userAgent)
	headers.Set("Content-Type", "application/json")
	headers.Set("x-api-key", r.opts.key)
	if r.opts.token != "" {
		headers.Set("Authorization", fmt.Sprintf("Bearer %s", r.opts.token))
	}
	return headers
}

// get executes an authenticated GET against the API host.
func (r apiRequest) get(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, r.url(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header = r.headers()

	r.logRequest(req, "")
	resp, err := r.opts.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	r.logResponse(resp)

	return resp, nil
}

// post executes an authenticated POST against the API host. A nil payload
// sends no body.
func (r apiRequest) post(path string, payload any) (*http.Response, error) {
	var body io.Reader
	var logged string
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
		logged = string(data)
	}

	req, err := http.NewRequest(http.MethodPost, r.url(path), body)
	if err != nil {
		return nil, err
	}
	req.Header = r.headers()

	r.logRequest(req, logged)
	resp, err := r.opts.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	r.logResponse(resp)

	return resp, nil
}

// putRaw PUTs raw bytes to a pre-signed URL. No API headers and no JSON
// envelope: the URL is already signed and the body is the part itself.
func (r apiRequest) putRaw(url string, data []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	// Part bodies are elided from the trace log.
	r.logRequest(req, "")
	resp, err := r.opts.uploadClient.Do(req)
	if err != nil {
		return nil, err
	}
	r.logResponse(resp)

	return resp, nil
}

func (r apiRequest) logRequest(req *http.Request, body string) {
	r.opts.logger.Debugf("%s request to <%s> with headers:<%v> and body:<%s>",
		req.Method, req.URL, req.Header, body)
}

func (r apiRequest) logResponse(resp *http.Response) {
	r.opts.logger.Debugf("%s <%d> response from <%s> with headers:<%v>",
		resp.Request.Method, resp.StatusCode, resp.Request.URL, resp.Header)
}

// httpOK reports whether the response carries a 2xx status.
func httpOK(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
