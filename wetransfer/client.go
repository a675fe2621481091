package wetransfer

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// DefaultTransferName is used when CreateTransfer is called with an empty name.
const DefaultTransferName = "WT Transfer"

// Client is the entry point of the SDK. It authorizes against the API and
// hands back ready-to-use transfers. The bearer token obtained by Authorize
// is used by every subsequent call; the SDK never refreshes it.
type Client struct {
	opts options
}

// Option customizes a Client during construction.
type Option func(*options)

// WithServer overrides the API server. A bare host is reached over https; a
// value with an explicit http(s):// scheme is used as-is.
func WithServer(server string) Option {
	return func(o *options) {
		if server != "" {
			o.server = server
		}
	}
}

// WithLogger overrides the default (silent) logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithHTTPClient overrides the HTTP client used for API calls and part PUTs.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
			o.uploadClient = client
		}
	}
}

// WithChunkSize overrides the part size used when splitting files.
func WithChunkSize(size int64) Option {
	return func(o *options) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithPartConcurrency enables concurrent part uploads. Part numbers keep
// their sequential assignment and a file is only finished once all of its
// parts are acknowledged; values below 2 keep the strictly sequential loop.
func WithPartConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.partConcurrency = n
		}
	}
}

// NewClient creates a new WeTransfer API client for the given API key.
func NewClient(key string, opts ...Option) *Client {
	o := defaultOptions(key)
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{opts: o}
}

// Authorize obtains a bearer token and stores it for all subsequent calls.
func (c *Client) Authorize() error {
	resp, err := c.opts.request().post("/v1/authorize", nil)
	if err != nil {
		c.opts.logger.Error("Failed authorizing")
		return fmt.Errorf("failed to authorize: %w", err)
	}
	defer resp.Body.Close()

	if !httpOK(resp) {
		c.opts.logger.Error("Failed authorizing")
		return fmt.Errorf("failed to authorize: %s", resp.Status)
	}

	c.opts.logger.Info("Successfully authorized")

	var body struct {
		Token *string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.opts.logger.Errorf("Failed decoding authorize response: %v", err)
		return fmt.Errorf("failed to decode authorize response: %w", err)
	}
	if body.Token == nil {
		c.opts.logger.Error("Expected 'token' in Authorize json response")
		return fmt.Errorf("missing token in authorize response")
	}

	c.opts.token = *body.Token

	return nil
}

// CreateTransfer creates an empty transfer bound to this client's key, token
// and server. An empty name falls back to DefaultTransferName. The transfer
// snapshots the client's current token, so Authorize must come first.
func (c *Client) CreateTransfer(name string) (*Transfer, error) {
	if name == "" {
		name = DefaultTransferName
	}

	transfer := newTransfer(name, c.opts)
	if err := transfer.create(); err != nil {
		return nil, err
	}

	return transfer, nil
}
